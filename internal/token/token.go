// Package token derives short human-typeable session tokens from numeric
// game ids. The encoding is a deterministic, salted, reversible obfuscation,
// not a security boundary: uniqueness follows from the uniqueness of the id,
// so no collision retries are needed.
package token

import (
	"fmt"
	"strings"

	"github.com/speps/go-hashids/v2"
)

const (
	alphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	minLength = 6
)

// Codec encodes game ids into tokens and back.
type Codec struct {
	h *hashids.HashID
}

// NewCodec creates a token codec with the given salt. Changing the salt
// invalidates all previously issued tokens.
func NewCodec(salt string) (*Codec, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength
	data.Alphabet = alphabet
	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("init hashids: %w", err)
	}
	return &Codec{h: h}, nil
}

// Encode derives the token for a game id.
func (c *Codec) Encode(id int64) (string, error) {
	t, err := c.h.EncodeInt64([]int64{id})
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return t, nil
}

// Decode recovers the game id from a token.
func (c *Codec) Decode(token string) (int64, error) {
	ids, err := c.h.DecodeInt64WithError(Normalize(token))
	if err != nil {
		return 0, fmt.Errorf("decode token: %w", err)
	}
	if len(ids) != 1 {
		return 0, fmt.Errorf("decode token: unexpected payload")
	}
	return ids[0], nil
}

// Normalize uppercases and trims a client-supplied token. Lookups are
// case-insensitive.
func Normalize(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}
