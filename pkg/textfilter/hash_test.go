package textfilter

import (
	"encoding/hex"
	"errors"
	"testing"
)

func TestHash(t *testing.T) {
	tests := []struct {
		data, algorithm, want string
	}{
		{"", "md5", "d41d8cd98f00b204e9800998ecf8427e"},
		{"abc", "md5", "900150983cd24fb0d6963f7d28e17f72"},
		{"abc", "sha1", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"abc", "sha256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"abc", "SHA256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"", "sha3-256", "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"},
		{"", "ripemd160", "9c1185a5c5e9fc54612808977ee8f548b2258d31"},
		{"abc", "crc32b", "352441c2"},
		{"", "fnv1a32", "811c9dc5"},
		{"", "fnv1a64", "cbf29ce484222325"},
	}
	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			got, err := Hash(tt.data, tt.algorithm, false)
			if err != nil {
				t.Fatalf("Hash(%q, %q) failed: %v", tt.data, tt.algorithm, err)
			}
			if got != tt.want {
				t.Errorf("Hash(%q, %q) = %s, want %s", tt.data, tt.algorithm, got, tt.want)
			}
		})
	}
}

func TestHash_Raw(t *testing.T) {
	raw, err := Hash("abc", "md5", true)
	if err != nil {
		t.Fatalf("Hash raw failed: %v", err)
	}
	if len(raw) != 16 {
		t.Errorf("raw md5 should be 16 bytes, got %d", len(raw))
	}
	hexed, _ := Hash("abc", "md5", false)
	if hex.EncodeToString([]byte(raw)) != hexed {
		t.Error("raw and hex outputs disagree")
	}
}

func TestHash_AllAlgorithms(t *testing.T) {
	sizes := map[string]int{
		"md4": 16, "sha224": 28, "sha384": 48, "sha512": 64, "sha512/224": 28, "sha512/256": 32,
		"sha3-224": 28, "sha3-384": 48, "sha3-512": 64, "blake2b-256": 32, "blake2b-384": 48,
		"blake2b-512": 64, "blake2s-256": 32, "crc32c": 4, "fnv164": 8, "xxh32": 4, "xxh64": 8,
	}
	for _, name := range Algorithms() {
		first, err := Hash("payload", name, true)
		if err != nil {
			t.Errorf("Hash with %q failed: %v", name, err)
			continue
		}
		second, _ := Hash("payload", name, true)
		if first != second {
			t.Errorf("Hash with %q is not deterministic", name)
		}
		if want, ok := sizes[name]; ok && len(first) != want {
			t.Errorf("Hash with %q returned %d bytes, want %d", name, len(first), want)
		}
	}
}

func TestHash_UnknownAlgorithm(t *testing.T) {
	_, err := Hash("abc", "haval160,4", false)
	if !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
}
