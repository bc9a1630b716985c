package frame

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// IDLen is the length of a device identifier in bytes.
const IDLen = 4

// ID identifies a device in the chain.
type ID [IDLen]byte

// Broadcast is the zero sentinel meaning "unaddressed".
var Broadcast ID

// IsZero indicates the ID is the broadcast sentinel.
func (id ID) IsZero() bool {
	return id == Broadcast
}

// String returns the hex form, e.g. "0a0b0c0d".
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseID parses a device ID in hex. Separators ':' and '-' are ignored.
// The zero sentinel is rejected as it can't be held by a device.
func ParseID(s string) (id ID, err error) {
	s = strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(s))
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid device id %q: %v", s, err)
	}
	if len(b) != IDLen {
		return id, fmt.Errorf("invalid device id %q: %d bytes, expect %d", s, len(b), IDLen)
	}
	copy(id[:], b)
	if id.IsZero() {
		return id, ErrZeroID
	}
	return id, nil
}

// IDFromBytes folds arbitrary bytes into an ID by xor-ing them in IDLen chunks.
// A result equal to the zero sentinel is replaced by 00..01.
func IDFromBytes(b []byte) (id ID) {
	for n, v := range b {
		id[n%IDLen] ^= v
	}
	if id.IsZero() {
		id[IDLen-1] = 1
	}
	return
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
