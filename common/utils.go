package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Trim 0x or 0X prefix off the string.
func Trim0xPrefix(str string) string {
	s := strings.TrimPrefix(str, "0x")
	return strings.TrimPrefix(s, "0X")
}

// HexStrToByteSlice decodes a hex string with or without 0x prefix.
func HexStrToByteSlice(hexStr string) ([]byte, error) {
	return hex.DecodeString(Trim0xPrefix(strings.TrimSpace(hexStr)))
}

// HexStrToBytes32 requires exactly 32 bytes, no byte order change.
func HexStrToBytes32(hexStr string) ([32]byte, error) {
	var out [32]byte
	b, err := HexStrToByteSlice(hexStr)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// RandBytes32 generates [32]byte with random values
func RandBytes32() [32]byte {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return [32]byte{}
	}
	return b
}

// Shorten keeps n characters on both sides of s.
func Shorten(s string, n int) string {
	if len(s) <= n*2 {
		return s
	}
	return s[:n] + "..." + s[len(s)-n:]
}
