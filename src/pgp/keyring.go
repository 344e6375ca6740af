package pgp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
)

// Keyring decrypts in-process against a PGP private keyring file. It
// covers environments without a gpg installation; hardware tokens need
// the GPG implementation instead.
type Keyring struct {
	entities openpgp.EntityList
}

// NewKeyring loads a keyring file, armored or binary. When passphrase is
// non-nil, locked private keys are unlocked with it.
func NewKeyring(path string, passphrase []byte) (*Keyring, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer f.Close()
	entities, err := readKeyRing(f)
	if err != nil {
		return nil, fmt.Errorf("read keyring %s: %w", path, err)
	}
	if passphrase != nil {
		for _, e := range entities {
			if e.PrivateKey != nil && e.PrivateKey.Encrypted {
				if err := e.PrivateKey.Decrypt(passphrase); err != nil {
					return nil, fmt.Errorf("unlock private key: %w", err)
				}
			}
			for _, sub := range e.Subkeys {
				if sub.PrivateKey != nil && sub.PrivateKey.Encrypted {
					if err := sub.PrivateKey.Decrypt(passphrase); err != nil {
						return nil, fmt.Errorf("unlock private subkey: %w", err)
					}
				}
			}
		}
	}
	return &Keyring{entities: entities}, nil
}

func readKeyRing(r io.Reader) (openpgp.EntityList, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data)); err == nil {
		return entities, nil
	}
	return openpgp.ReadKeyRing(bytes.NewReader(data))
}

// Decrypt reads the encrypted file and returns its plaintext.
func (k *Keyring) Decrypt(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read encrypted file: %w", err)
	}
	var msg io.Reader = bytes.NewReader(data)
	if block, err := armor.Decode(bytes.NewReader(data)); err == nil {
		msg = block.Body
	}
	md, err := openpgp.ReadMessage(msg, k.entities, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", path, err)
	}
	plain, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", path, err)
	}
	return plain, nil
}
