package textfilter

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"hash/fnv"
	"slices"
	"strings"

	"github.com/OneOfOne/xxhash"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/md4"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// hashAlgorithms maps a lower-case algorithm name to a constructor.
// Names follow the common hash() naming, e.g. "fnv1a64" or "sha512/256".
var hashAlgorithms = map[string]func() hash.Hash{
	"md4":        md4.New,
	"md5":        md5.New,
	"sha1":       sha1.New,
	"sha224":     sha256.New224,
	"sha256":     sha256.New,
	"sha384":     sha512.New384,
	"sha512":     sha512.New,
	"sha512/224": sha512.New512_224,
	"sha512/256": sha512.New512_256,
	"sha3-224":   sha3.New224,
	"sha3-256":   sha3.New256,
	"sha3-384":   sha3.New384,
	"sha3-512":   sha3.New512,
	"ripemd160":  ripemd160.New,

	// The unkeyed blake2 constructors only fail on an oversized key.
	"blake2b-256": func() hash.Hash { h, _ := blake2b.New256(nil); return h },
	"blake2b-384": func() hash.Hash { h, _ := blake2b.New384(nil); return h },
	"blake2b-512": func() hash.Hash { h, _ := blake2b.New512(nil); return h },
	"blake2s-256": func() hash.Hash { h, _ := blake2s.New256(nil); return h },

	"crc32":   func() hash.Hash { return crc32.NewIEEE() },
	"crc32b":  func() hash.Hash { return crc32.NewIEEE() },
	"crc32c":  func() hash.Hash { return crc32.New(castagnoliTable) },
	"fnv132":  func() hash.Hash { return fnv.New32() },
	"fnv1a32": func() hash.Hash { return fnv.New32a() },
	"fnv164":  func() hash.Hash { return fnv.New64() },
	"fnv1a64": func() hash.Hash { return fnv.New64a() },
	"xxh32":   func() hash.Hash { return xxhash.New32() },
	"xxh64":   func() hash.Hash { return xxhash.New64() },
}

// Hash digests data with the named algorithm. The result is lower-case hex unless
// raw is set, in which case the digest bytes are returned as they are.
// Algorithm names are case-insensitive; see Algorithms for the full list.
func Hash(data, algorithm string, raw bool) (string, error) {
	newHash, ok := hashAlgorithms[strings.ToLower(algorithm)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	h := newHash()
	_, _ = h.Write([]byte(data))
	sum := h.Sum(nil)
	if raw {
		return string(sum), nil
	}
	return hex.EncodeToString(sum), nil
}

// Algorithms returns the supported hashing algorithm names, sorted.
func Algorithms() []string {
	names := make([]string, 0, len(hashAlgorithms))
	for name := range hashAlgorithms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
