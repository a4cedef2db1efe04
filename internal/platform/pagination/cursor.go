package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
)

var (
	ErrInvalidCursor = errors.New("invalid cursor")
	ErrCursorType    = errors.New("cursor belongs to a different listing")
)

// Cursor is the position after which the next page starts.
type Cursor struct {
	Type  string
	Value string
}

// Encode returns an opaque URL-safe token.
func (c Cursor) Encode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(c.Type + ":" + c.Value))
}

// DecodeCursor reverses Encode. An empty token decodes to the zero Cursor.
func DecodeCursor(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	typ, value, ok := strings.Cut(string(raw), ":")
	if !ok || typ == "" || value == "" {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{Type: typ, Value: value}, nil
}
