package tokens

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	keyChars     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyRandomLen = 16

	// KeyPrefix is prepended to keys when they are shown or presented by callers.
	KeyPrefix = "sk-"
)

// GenerateKey returns a 48 character secret: a uuid without dashes followed by
// 16 random alphanumerics.
func GenerateKey() (string, error) {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(uuid.New().String(), "-", ""))

	max := big.NewInt(int64(len(keyChars)))
	for i := 0; i < keyRandomLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(keyChars[n.Int64()])
	}
	return b.String(), nil
}

// StripKeyPrefix accepts both "sk-<key>" and the bare key.
func StripKeyPrefix(presented string) string {
	return strings.TrimPrefix(presented, KeyPrefix)
}
