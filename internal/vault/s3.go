package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"minicloud/internal/config"
)

// latestMarkerKey is the object holding the name of the newest archive.
const latestMarkerKey = "LATEST"

// S3Vault stores backup archives in an S3 (or S3-compatible) bucket.
// Object keys are <prefix>/archives/<name>; a small <prefix>/LATEST
// object records the newest archive name. Uploads go through the
// multipart upload manager so archive size is unbounded.
type S3Vault struct {
	name     string
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Vault creates an S3 vault from configuration. Credentials come
// from the config when set, otherwise from the default AWS chain.
func NewS3Vault(ctx context.Context, cfg config.VaultConfig) (*S3Vault, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 vault requires s3_bucket to be set")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			// S3-compatible servers generally require path-style addressing.
			o.UsePathStyle = true
		}
	})

	return &S3Vault{
		name:     cfg.Name,
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.S3Bucket,
		prefix:   strings.Trim(cfg.S3Prefix, "/"),
	}, nil
}

func (v *S3Vault) key(parts ...string) string {
	if v.prefix == "" {
		return strings.Join(parts, "/")
	}
	return v.prefix + "/" + strings.Join(parts, "/")
}

// PutArchive uploads an archive and updates the LATEST marker.
func (v *S3Vault) PutArchive(name string, r io.Reader, size int64) error {
	ctx := context.Background()

	_, err := v.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key("archives", name)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading archive: %w", err)
	}

	_, err = v.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(latestMarkerKey)),
		Body:   strings.NewReader(name),
	})
	if err != nil {
		return fmt.Errorf("updating LATEST marker: %w", err)
	}
	return nil
}

// GetArchive downloads an archive by name and writes it to w.
func (v *S3Vault) GetArchive(name string, w io.Writer) error {
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key("archives", name)),
	})
	if err != nil {
		return fmt.Errorf("downloading archive %s: %w", name, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading archive body: %w", err)
	}
	return nil
}

// LatestArchive reads the LATEST marker object. Returns "" when the
// marker does not exist yet.
func (v *S3Vault) LatestArchive() (string, error) {
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(latestMarkerKey)),
	})
	if err != nil {
		// A missing marker means no archive has been pushed yet.
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return "", nil
		}
		return "", fmt.Errorf("reading LATEST marker: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("reading LATEST marker body: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ValidateSetup verifies bucket access. The bucket must already exist;
// this does not create it.
func (v *S3Vault) ValidateSetup() error {
	_, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(v.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}

// Compile-time check that S3Vault implements Vault
var _ Vault = (*S3Vault)(nil)
