// Package backup packages the metadata database and the managed storage
// tree into a single zip archive, and restores from one.
package backup

import "io"

// Encryptor encrypts backup archives before they leave the host.
type Encryptor interface {
	// Setup prepares key material protected by the passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock verifies the passphrase and returns a context for decryption.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether key material is in place.
	IsConfigured() bool
}

// DecryptionContext holds unlocked key material for decrypting archives.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}

// DBEntryName is the archive entry holding the database snapshot.
const DBEntryName = "files.db"

// StoragePrefix is the archive directory holding the managed tree.
const StoragePrefix = "storage/"
