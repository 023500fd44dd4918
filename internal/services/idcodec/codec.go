package idcodec

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidToken = errors.New("invalid id token")

const (
	rounds   = 4
	bodyLen  = 8
	tagLen   = 4
	TokenLen = 16 // base64 raw-url length of bodyLen+tagLen bytes
)

// Codec turns internal numeric ids into opaque url-safe tokens and back.
// The body is a keyed Feistel permutation of the id, the trailing tag
// authenticates it so foreign or mangled tokens fail closed instead of
// decoding to somebody else's id.
type Codec struct {
	key []byte
}

func New(key string) (*Codec, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("id codec key is required")
	}
	return &Codec{key: []byte(key)}, nil
}

func (c *Codec) Obfuscate(id int64) (string, error) {
	if id <= 0 {
		return "", fmt.Errorf("invalid id %d", id)
	}

	v := uint64(id)
	left := uint32(v >> 32)
	right := uint32(v)
	for r := 0; r < rounds; r++ {
		left, right = right, left^c.round(r, right)
	}

	buf := make([]byte, bodyLen, bodyLen+tagLen)
	binary.BigEndian.PutUint32(buf[:4], left)
	binary.BigEndian.PutUint32(buf[4:], right)
	buf = append(buf, c.tag(buf[:bodyLen])...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (c *Codec) Deobfuscate(token string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != bodyLen+tagLen {
		return 0, ErrInvalidToken
	}

	if !hmac.Equal(raw[bodyLen:], c.tag(raw[:bodyLen])) {
		return 0, ErrInvalidToken
	}

	left := binary.BigEndian.Uint32(raw[:4])
	right := binary.BigEndian.Uint32(raw[4:bodyLen])
	for r := rounds - 1; r >= 0; r-- {
		left, right = right^c.round(r, left), left
	}

	id := int64(uint64(left)<<32 | uint64(right))
	if id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// IsObfuscated reports whether value looks like a token rather than a raw
// numeric id. It inspects surface structure only: a legacy raw id is a short
// decimal string, a token is exactly TokenLen url-safe base64 characters.
func IsObfuscated(value string) bool {
	if len(value) != TokenLen {
		return false
	}
	digitsOnly := true
	for _, ch := range value {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '-', ch == '_':
			digitsOnly = false
		default:
			return false
		}
	}
	return !digitsOnly
}

func (c *Codec) round(r int, half uint32) uint32 {
	mac := hmac.New(sha256.New, c.key)
	var in [5]byte
	in[0] = byte(r)
	binary.BigEndian.PutUint32(in[1:], half)
	mac.Write(in[:])
	return binary.BigEndian.Uint32(mac.Sum(nil)[:4])
}

func (c *Codec) tag(body []byte) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte("tag:"))
	mac.Write(body)
	return mac.Sum(nil)[:tagLen]
}
