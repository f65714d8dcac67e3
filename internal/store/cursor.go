package store

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeCursor turns the last key of a page into an opaque, URL-safe token.
func EncodeCursor(lastKey string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(lastKey))
}

// DecodeCursor returns the last key a cursor points after. The key must
// carry prefix, so a cursor cannot be replayed against another namespace.
func DecodeCursor(cursor, prefix string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	lastKey := string(raw)
	if lastKey == "" || !strings.HasPrefix(lastKey, prefix) {
		return "", fmt.Errorf("%w: cursor does not belong to prefix %q", ErrInvalidCursor, prefix)
	}
	return lastKey, nil
}
