package cargo

import (
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// uuidTextLen is the length of the canonical 8-4-4-4-12 form.
const uuidTextLen = 36

// IsUUIDv4 reports whether s is a version-4, RFC 4122 variant UUID in the
// canonical hyphenated text form. Hex digits may be either case. Braced,
// URN-prefixed and unhyphenated forms are rejected.
func IsUUIDv4(s string) bool {
	if len(s) != uuidTextLen {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return u.Version() == 4 && u.Variant() == uuid.RFC4122
}

// Fingerprint digests an ordered list of ids. Two batches with the same ids
// in the same order share a fingerprint.
func Fingerprint(ids []string) uint64 {
	h := xxh3.New()
	for _, id := range ids {
		_, _ = h.WriteString(id)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// RawIDs returns the ids of rows in order.
func RawIDs(rows []RawCargo) []string {
	out := make([]string, len(rows))
	for i := range rows {
		out[i] = rows[i].ID
	}
	return out
}

// CleanIDs returns the ids of rows in order.
func CleanIDs(rows []CleanCargo) []string {
	out := make([]string, len(rows))
	for i := range rows {
		out[i] = rows[i].ID
	}
	return out
}
