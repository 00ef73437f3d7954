package wire

import (
	"bytes"
	"testing"
)

func FuzzPutGetBinary(f *testing.F) {
	f.Add([]byte("payload"))
	f.Add([]byte(""))
	f.Add([]byte{0x00, 0xFF, 0x01})

	f.Fuzz(func(t *testing.T, b []byte) {
		encoded, err := PutBinary(nil, b)
		if err != nil {
			return // only reachable for b longer than 65535 bytes
		}
		decoded, n, err := GetBinary(encoded)
		if err != nil {
			t.Fatalf("GetBinary failed on output of PutBinary: %v", err)
		}
		if !bytes.Equal(decoded, b) {
			t.Fatalf("round-trip mismatch: got %v, want %v", decoded, b)
		}
		if n != len(encoded) {
			t.Fatalf("GetBinary consumed %d bytes, expected %d", n, len(encoded))
		}
	})
}

func FuzzPutGetU16(f *testing.F) {
	f.Add(uint16(0))
	f.Add(uint16(1))
	f.Add(uint16(65535))

	f.Fuzz(func(t *testing.T, v uint16) {
		encoded := PutU16(nil, v)
		decoded, n, err := GetU16(encoded)
		if err != nil {
			t.Fatalf("GetU16 failed: %v", err)
		}
		if decoded != v || n != 2 {
			t.Fatalf("round-trip mismatch: got (%d, %d), want (%d, 2)", decoded, n, v)
		}
	})
}

func FuzzPutGetU32(f *testing.F) {
	f.Add(uint32(0))
	f.Add(uint32(1))
	f.Add(uint32(4294967295))

	f.Fuzz(func(t *testing.T, v uint32) {
		encoded := PutU32(nil, v)
		decoded, n, err := GetU32(encoded)
		if err != nil {
			t.Fatalf("GetU32 failed: %v", err)
		}
		if decoded != v || n != 4 {
			t.Fatalf("round-trip mismatch: got (%d, %d), want (%d, 4)", decoded, n, v)
		}
	})
}
