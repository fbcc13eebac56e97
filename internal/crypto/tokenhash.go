package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/sellerhub/identity-service/internal/core/ports"
)

// SHA256TokenHasher is the fast one-way hash applied to password-reset
// tokens before storage. Reset tokens are already high-entropy random
// values, so a memory-hard hash buys nothing here.
type SHA256TokenHasher struct{}

var _ ports.TokenHasher = SHA256TokenHasher{}

func NewSHA256TokenHasher() SHA256TokenHasher {
	return SHA256TokenHasher{}
}

func (SHA256TokenHasher) Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
