// Package idgen produces the opaque record identifiers used as primary keys
// and as filename stems for stored images.
package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// Length of every identifier returned by New.
const Length = 32

// New returns 32 lowercase hex characters taken from a random (v4) UUID.
func New() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Valid reports whether s has the shape of an identifier produced by New.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
