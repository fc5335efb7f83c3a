// Package encoding provides byte payload types that render as text in JSON
// and YAML, so binary buffer contents survive structured CLI output.
package encoding

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Name selects a payload encoding.
type Name string

const (
	Raw    Name = "raw"
	Hex    Name = "hex"
	Base64 Name = "base64"
)

// ParseName validates an encoding name. Empty means Raw.
func ParseName(s string) (Name, error) {
	switch n := Name(s); n {
	case "":
		return Raw, nil
	case Raw, Hex, Base64:
		return n, nil
	default:
		return "", fmt.Errorf("encoding: unknown encoding %q (want raw, hex or base64)", s)
	}
}

// Decode converts text in encoding n to bytes.
func (n Name) Decode(text []byte) ([]byte, error) {
	switch n {
	case Raw, "":
		return text, nil
	case Hex:
		var h HexData
		err := h.UnmarshalText(text)
		return h, err
	case Base64:
		var b StdBase64Data
		err := b.UnmarshalText(text)
		return b, err
	default:
		return nil, fmt.Errorf("encoding: unknown encoding %q", string(n))
	}
}

// Wrap returns p as a value that marshals in encoding n. Raw returns p.
func (n Name) Wrap(p []byte) any {
	switch n {
	case Hex:
		return HexData(p)
	case Base64:
		return StdBase64Data(p)
	default:
		return p
	}
}

// StdBase64Data is a byte slice that serializes as standard base64 text.
type StdBase64Data []byte

// MarshalText implements encoding.TextMarshaler.
func (b StdBase64Data) MarshalText() ([]byte, error) {
	return []byte(base64.StdEncoding.EncodeToString(b)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *StdBase64Data) UnmarshalText(text []byte) error {
	decoded, err := base64.StdEncoding.DecodeString(string(trimSpace(text)))
	if err != nil {
		return fmt.Errorf("encoding: base64: %w", err)
	}
	*b = decoded
	return nil
}

// String returns the base64-encoded string representation.
func (b StdBase64Data) String() string {
	return base64.StdEncoding.EncodeToString(b)
}

// HexData is a byte slice that serializes as lowercase hexadecimal text.
type HexData []byte

// MarshalText implements encoding.TextMarshaler.
func (h HexData) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *HexData) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(trimSpace(text)))
	if err != nil {
		return fmt.Errorf("encoding: hex: %w", err)
	}
	*h = decoded
	return nil
}

// String returns the hex-encoded string representation.
func (h HexData) String() string {
	return hex.EncodeToString(h)
}

// trimSpace drops the trailing newline that shells append to piped text.
func trimSpace(text []byte) []byte {
	for len(text) > 0 {
		switch text[len(text)-1] {
		case '\n', '\r', ' ', '\t':
			text = text[:len(text)-1]
		default:
			return text
		}
	}
	return text
}
