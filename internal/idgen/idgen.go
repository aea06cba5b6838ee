// Package idgen generates short, URL-safe identifiers for transitions and
// snapshots.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes identify what an ID names.
const (
	TransitionPrefix = "tr-"
	SnapshotPrefix   = "snap-"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Transition returns a new transition ID.
func Transition() (string, error) {
	return WithPrefix(TransitionPrefix)
}

// Snapshot returns a new snapshot ID.
func Snapshot() (string, error) {
	return WithPrefix(SnapshotPrefix)
}

// WithPrefix returns a new unique ID with the given prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
