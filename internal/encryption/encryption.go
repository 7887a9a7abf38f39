// Package encryption protects mirrored journal snapshots. Snapshots leave
// the machine, so they are encrypted to a public key before upload; the
// private key stays local, itself locked behind a passphrase.
package encryption

import "io"

// Encryptor encrypts snapshot streams for mirroring.
type Encryptor interface {
	// Setup generates and stores a key pair protected by the passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the stored private key with the passphrase and returns
	// a context for decrypting snapshots.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether key material is in place.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
