package oid

import (
	"crypto"
	"encoding/asn1"

	"github.com/opencontainers/go-digest"
)

// ConvertToHash converts ASN.1 digest algorithm identifier to golang crypto hash
// if it is available.
func ConvertToHash(alg asn1.ObjectIdentifier) (crypto.Hash, bool) {
	var hash crypto.Hash
	switch {
	case SHA1.Equal(alg):
		hash = crypto.SHA1
	case SHA256.Equal(alg):
		hash = crypto.SHA256
	case SHA384.Equal(alg):
		hash = crypto.SHA384
	case SHA512.Equal(alg):
		hash = crypto.SHA512
	default:
		return hash, false
	}
	return hash, hash.Available()
}

// FromHash returns the digest algorithm identifier of a SHA-2 hash.
func FromHash(hash crypto.Hash) (asn1.ObjectIdentifier, bool) {
	switch hash {
	case crypto.SHA256:
		return SHA256, true
	case crypto.SHA384:
		return SHA384, true
	case crypto.SHA512:
		return SHA512, true
	}
	return nil, false
}

// FromDigestAlgorithm returns the digest algorithm identifier of an OCI
// digest algorithm.
func FromDigestAlgorithm(alg digest.Algorithm) (asn1.ObjectIdentifier, bool) {
	switch alg {
	case digest.SHA256:
		return SHA256, true
	case digest.SHA384:
		return SHA384, true
	case digest.SHA512:
		return SHA512, true
	}
	return nil, false
}

// DigestAlgorithm returns the OCI digest algorithm of a SHA-2 hash.
func DigestAlgorithm(hash crypto.Hash) (digest.Algorithm, bool) {
	switch hash {
	case crypto.SHA256:
		return digest.SHA256, true
	case crypto.SHA384:
		return digest.SHA384, true
	case crypto.SHA512:
		return digest.SHA512, true
	}
	return "", false
}
