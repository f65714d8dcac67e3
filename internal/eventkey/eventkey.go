// Package eventkey encodes (namespace, id) pairs into storage keys and
// generates event ids.
//
// A storage key is "<namespace>:<id>". Ids start with a fixed-width UTC
// timestamp, so the lexicographic order of keys within a namespace is the
// order events were received in (modulo clock adjustments). Ids never
// contain the delimiter, and namespaces are rejected when they do, so the
// first ":" of a key always separates the two halves.
package eventkey

import (
	"errors"
	"fmt"
	"strings"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Delimiter separates namespace from id in a storage key.
	Delimiter = ":"

	// NoKey is the namespace of events submitted without one. It is never
	// reported by namespace discovery.
	NoKey = "NO-KEY"

	// SuffixAlphabet is the base36 alphabet of the random id suffix.
	SuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	// SuffixLength is the number of random characters in an id.
	SuffixLength = 8

	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// ErrInvalidNamespace is returned for namespaces containing the delimiter.
var ErrInvalidNamespace = errors.New("invalid namespace")

// Encode returns the storage key for an event.
func Encode(namespace, id string) string {
	return namespace + Delimiter + id
}

// Decode splits a storage key at its first delimiter.
func Decode(key string) (namespace, id string, ok bool) {
	return strings.Cut(key, Delimiter)
}

// Namespace returns the part of key before the first delimiter, or the whole
// key when there is none.
func Namespace(key string) string {
	ns, _, _ := strings.Cut(key, Delimiter)
	return ns
}

// Prefix returns the key prefix shared by every event of namespace.
func Prefix(namespace string) string {
	return namespace + Delimiter
}

// ValidateNamespace rejects namespaces that would make key decoding ambiguous.
func ValidateNamespace(namespace string) error {
	if strings.Contains(namespace, Delimiter) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidNamespace, namespace, Delimiter)
	}
	return nil
}

// OrDefault maps an empty namespace to NoKey.
func OrDefault(namespace string) string {
	if namespace == "" {
		return NoKey
	}
	return namespace
}

// NewID returns a new event id for the current time.
func NewID() (string, error) {
	return NewIDAt(time.Now())
}

// NewIDAt returns a new event id whose timestamp part encodes t.
//
//	2026-10-18T09-41-07-112Z_k3v9q0zt
func NewIDAt(t time.Time) (string, error) {
	suffix, err := nanoid.Generate(SuffixAlphabet, SuffixLength)
	if err != nil {
		return "", fmt.Errorf("eventkey: %w", err)
	}
	return Timestamp(t) + "_" + suffix, nil
}

// Timestamp formats t as the sortable, key-safe timestamp used in ids:
// millisecond UTC RFC 3339 with every non-alphanumeric replaced by "-".
func Timestamp(t time.Time) string {
	return strings.Map(func(r rune) rune {
		if isAlnum(r) {
			return r
		}
		return '-'
	}, t.UTC().Format(timestampLayout))
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
