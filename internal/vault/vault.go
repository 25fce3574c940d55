// Package vault provides offsite targets for backup archives.
package vault

import "io"

// Vault stores backup archives produced by the backup package.
// All operations stream through io.Reader/io.Writer so large archives
// never need to fit in memory.
type Vault interface {
	// PutArchive stores an archive under the given name and marks it as
	// the latest. size is the number of bytes that will be read from r.
	PutArchive(name string, r io.Reader, size int64) error

	// GetArchive retrieves an archive by name and writes it to w.
	GetArchive(name string, w io.Writer) error

	// LatestArchive returns the name of the most recently stored
	// archive, or "" if the vault is empty.
	LatestArchive() (string, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
