package count

import (
	"fmt"

	"github.com/google/uuid"
)

// ID prefixes.
const (
	AssignmentPrefix = "A"
	SubmissionPrefix = "S"
)

const (
	shortIDLength = 12
	crockfordBase = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
)

// NewID returns prefix followed by a 12-character base32 (Crockford) id taken
// from the random bits of a fresh UUIDv7. Two ids minted in the same second
// differ with overwhelming probability.
func NewID(prefix string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("new uuidv7: %w", err)
	}

	short, err := ShortIDFromUUID(id)
	if err != nil {
		return "", err
	}

	return prefix + short, nil
}

// ShortIDFromUUID derives a stable 12-char base32 id from the UUIDv7 random bits.
func ShortIDFromUUID(id uuid.UUID) (string, error) {
	if id.Version() != 7 {
		return "", fmt.Errorf("short id: invalid uuidv7: version %d", id.Version())
	}

	if id.Variant() != uuid.RFC4122 {
		return "", fmt.Errorf("short id: invalid uuidv7: variant %d", id.Variant())
	}

	// UUIDv7 layout (RFC 9562): 48-bit time, 4-bit version, 12-bit rand_a,
	// 2-bit variant, 62-bit rand_b. The high 60 random bits make the short id.
	randA := (uint16(id[6]&0x0f) << 8) | uint16(id[7])
	randB := (uint64(id[8]&0x3f) << 56) |
		(uint64(id[9]) << 48) |
		(uint64(id[10]) << 40) |
		(uint64(id[11]) << 32) |
		(uint64(id[12]) << 24) |
		(uint64(id[13]) << 16) |
		(uint64(id[14]) << 8) |
		uint64(id[15])

	top60 := (uint64(randA) << 48) | (randB >> 14)

	return encodeCrockfordBase32(top60), nil
}

func encodeCrockfordBase32(value uint64) string {
	var buf [shortIDLength]byte
	for i := shortIDLength - 1; i >= 0; i-- {
		buf[i] = crockfordBase[value&0x1f]
		value >>= 5
	}

	return string(buf[:])
}
