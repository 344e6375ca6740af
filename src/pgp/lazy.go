package pgp

import (
	"context"
	"sync"
)

// LazyGPG defers locating the gpg binary until the first decryption.
// Sessions whose targets never use a PGP scheme must not fail on hosts
// without gpg.
type LazyGPG struct {
	mu  sync.Mutex
	gpg *GPG
	err error
}

func (l *LazyGPG) Decrypt(ctx context.Context, path string) ([]byte, error) {
	l.mu.Lock()
	if l.gpg == nil && l.err == nil {
		l.gpg, l.err = NewGPG()
	}
	gpg, err := l.gpg, l.err
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return gpg.Decrypt(ctx, path)
}
