package pgp

import (
	"context"
	"fmt"
)

// FakeDecryptor is an in-memory implementation for unit tests.
type FakeDecryptor struct {
	Plaintexts map[string][]byte
	Calls      []string
}

func NewFake() *FakeDecryptor {
	return &FakeDecryptor{Plaintexts: map[string][]byte{}}
}

func (f *FakeDecryptor) Decrypt(ctx context.Context, path string) ([]byte, error) {
	f.Calls = append(f.Calls, path)
	plain, ok := f.Plaintexts[path]
	if !ok {
		return nil, fmt.Errorf("fake: no plaintext registered for %s", path)
	}
	return plain, nil
}
