package pgp

import "context"

// Decryptor recovers the plaintext of a PGP-encrypted file. It is the
// pluggable capability behind the pgp-file and pgp-token credential
// schemes; hardware-token interaction is the implementation's business.
// Keep the interface this narrow so tests can fake it.
type Decryptor interface {
	Decrypt(ctx context.Context, path string) ([]byte, error)
}
