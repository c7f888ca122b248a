// Package hashutil provides utilities for hash.
package hashutil

import (
	"crypto"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
)

// ComputeHash computes the digest of the message with the given hash algorithm.
// Callers should check the availability of the hash algorithm before invoking.
func ComputeHash(hash crypto.Hash, message []byte) ([]byte, error) {
	h := hash.New()
	_, err := h.Write(message)
	if err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// ComputeDigest reads r to the end and returns its digest under alg,
// along with the raw hash value.
func ComputeDigest(alg digest.Algorithm, r io.Reader) (digest.Digest, []byte, error) {
	if !alg.Available() {
		return "", nil, fmt.Errorf("digest algorithm %q: %w", alg, digest.ErrDigestUnsupported)
	}
	digester := alg.Digester()
	if _, err := io.Copy(digester.Hash(), r); err != nil {
		return "", nil, err
	}
	return digester.Digest(), digester.Hash().Sum(nil), nil
}
