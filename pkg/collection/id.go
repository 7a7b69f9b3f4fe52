package collection

import (
	"crypto/rand"
	"io"

	"github.com/google/uuid"
)

const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 13
)

// idLimit is the largest multiple of len(idAlphabet) that fits in a byte.
// Bytes at or above it are dropped so every symbol is equally likely.
const idLimit = 252

// GenerateID returns a random 13 character base-36 token.
func GenerateID() string {
	id, err := readID(rand.Reader)
	if err != nil {
		panic(err)
	}
	return id
}

func readID(r io.Reader) (string, error) {
	out := make([]byte, 0, idLength)
	buf := make([]byte, idLength)
	for len(out) < idLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= idLimit {
				continue
			}
			out = append(out, idAlphabet[int(b)%len(idAlphabet)])
			if len(out) == idLength {
				break
			}
		}
	}
	return string(out), nil
}

// UUIDGenerator returns random (version 4) UUIDs.
func UUIDGenerator() string {
	return uuid.NewString()
}
