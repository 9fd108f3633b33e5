package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// referenceCharset excludes visually ambiguous characters (0/O, 1/I/L) so
// references survive being read over the phone.
const referenceCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	referencePrefix       = "REF"
	referenceRandomLength = 10
	referenceSeparator    = "-"
)

// GenerateReference builds a listing reference from a prefix, a timestamp
// component and a random alphanumeric suffix: REF-20250114153045-K7KQ2M9ZWD.
// Uniqueness is ultimately enforced by the storage layer's unique index.
func GenerateReference() (string, error) {
	now := time.Now()
	timestamp := now.Format("20060102150405")

	random, err := randomString(referenceRandomLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate reference suffix: %w", err)
	}

	return strings.Join([]string{referencePrefix, timestamp, random}, referenceSeparator), nil
}

func randomString(length int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(referenceCharset)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(referenceCharset[n.Int64()])
	}

	return sb.String(), nil
}
