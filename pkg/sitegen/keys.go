package sitegen

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// KeyGenerator produces a fresh, path-safe site key on every call.
// Keys are random and never derived from request content.
type KeyGenerator func() string

// MinNanoIDLength keeps generated short keys out of collision range.
const MinNanoIDLength = 16

// UUIDv4 returns a KeyGenerator producing random RFC 9562 version 4 UUIDs.
func UUIDv4() KeyGenerator {
	return func() string {
		return uuid.NewString()
	}
}

// NanoID returns a KeyGenerator that produces base-36 keys of the given length.
func NanoID(length int) KeyGenerator {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	// Largest multiple of len(alphabet) below 256, to avoid modulo bias.
	const limit = 256 - 256%len(alphabet)
	return func() string {
		b := make([]byte, 0, length)
		buf := make([]byte, length)
		for len(b) < length {
			if _, err := rand.Read(buf); err != nil {
				panic("sitegen: crypto/rand failed: " + err.Error())
			}
			for _, c := range buf {
				if int(c) >= limit {
					continue
				}
				b = append(b, alphabet[int(c)%len(alphabet)])
				if len(b) == length {
					break
				}
			}
		}
		return string(b)
	}
}

// KeyGeneratorFor resolves a configured key format ("uuid" or "nanoid").
func KeyGeneratorFor(format string, length int) (KeyGenerator, error) {
	switch strings.ToLower(format) {
	case "", "uuid":
		return UUIDv4(), nil
	case "nanoid":
		if length < MinNanoIDLength {
			return nil, fmt.Errorf("nanoid key length must be at least %d, got %d", MinNanoIDLength, length)
		}
		return NanoID(length), nil
	default:
		return nil, fmt.Errorf("unknown key format %q", format)
	}
}
