package dhash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MarshalJSON encodes the fingerprint as an object keyed dh_0 through dh_63,
// in bit order.
func (f Fingerprint) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(Bits * 12)

	buf.WriteByte('{')
	for i := range Bits {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(keys[i])
		buf.WriteString(`":`)
		buf.WriteString(strconv.FormatBool(f.Bit(i)))
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the object form. Key order does not matter, but all
// 64 keys must be present and no others.
func (f *Fingerprint) UnmarshalJSON(data []byte) error {
	var named map[string]bool
	if err := json.Unmarshal(data, &named); err != nil {
		return fmt.Errorf("decoding fingerprint: %w", err)
	}

	if len(named) != Bits {
		return fmt.Errorf("fingerprint has %d bits, want %d", len(named), Bits)
	}

	var fp Fingerprint
	for i := range Bits {
		set, ok := named[keys[i]]
		if !ok {
			return fmt.Errorf("fingerprint is missing %s", keys[i])
		}
		if set {
			fp |= 1 << uint(i)
		}
	}

	*f = fp
	return nil
}
