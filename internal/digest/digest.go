// Package digest computes file content digests for whitelist verification.
// Algorithms are looked up in a fixed registry so that an unknown algorithm
// name can be rejected when a whitelist is parsed, long before any file is
// read.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"

	"github.com/zeebo/blake3"
)

// registry maps algorithm names to hash constructors. sha256 is the common
// case in shipped whitelists; the weaker algorithms remain for historical
// audit entries that were recorded before the migration.
var registry = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
	"blake3": func() hash.Hash { return blake3.New() },
}

// Supported reports whether the given algorithm name is known to the
// registry.
func Supported(algorithm string) bool {
	_, ok := registry[algorithm]
	return ok
}

// Algorithms returns the sorted list of registered algorithm names.
func Algorithms() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compute streams the file at path through the named algorithm and returns
// the lowercase hex digest. The read is chunked by io.Copy, so memory use is
// independent of file size. An unreadable file or an unknown algorithm name
// returns an error; callers performing whitelist verification convert read
// errors into non-matching results instead of aborting.
func Compute(path, algorithm string) (string, error) {
	newHash, ok := registry[algorithm]
	if !ok {
		return "", fmt.Errorf("unknown digest algorithm '%s'", algorithm)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
