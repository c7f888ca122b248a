// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package signature provides the signing engines used to sign and verify
// encoded structures, and the table of supported signature algorithms.
package signature

import (
	"crypto"
	"crypto/dsa"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	encasn1 "encoding/asn1"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/cloudflare/circl/sign/ed448"
	mldsa "github.com/cloudflare/circl/sign/mldsa/mldsa87"
	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/hashutil"
)

// Engine signs and verifies data with a signature algorithm identified by
// its object identifier.
type Engine interface {
	// Sign signs data with key. rand is the source of randomness for
	// probabilistic algorithms; crypto/rand is used when it is nil.
	Sign(alg encasn1.ObjectIdentifier, key crypto.PrivateKey, data []byte, rand io.Reader) ([]byte, error)

	// Verify checks that sig is a valid signature of data under pub.
	Verify(alg encasn1.ObjectIdentifier, pub crypto.PublicKey, data, sig []byte) error
}

// DefaultEngine implements every algorithm of the package table with the
// Go standard library and circl.
//
// Failures are reported as *SignatureError.
type DefaultEngine struct{}

// Sign implements Engine.
func (DefaultEngine) Sign(id encasn1.ObjectIdentifier, key crypto.PrivateKey, data []byte, random io.Reader) ([]byte, error) {
	alg, ok := Lookup(id)
	if !ok {
		return nil, &SignatureError{Algorithm: id.String(), Detail: ErrUnsupportedAlgorithm}
	}
	if random == nil {
		random = rand.Reader
	}
	sig, err := sign(alg, key, data, random)
	if err != nil {
		return nil, &SignatureError{Algorithm: alg.Name, Detail: err}
	}
	return sig, nil
}

// Verify implements Engine.
func (DefaultEngine) Verify(id encasn1.ObjectIdentifier, pub crypto.PublicKey, data, sig []byte) error {
	alg, ok := Lookup(id)
	if !ok {
		return &SignatureError{Algorithm: id.String(), Detail: ErrUnsupportedAlgorithm}
	}
	if err := verify(alg, pub, data, sig); err != nil {
		return &SignatureError{Algorithm: alg.Name, Detail: err}
	}
	return nil
}

func digestOf(alg Algorithm, data []byte) ([]byte, error) {
	if alg.Hash == 0 {
		return data, nil
	}
	if !alg.Hash.Available() {
		return nil, fmt.Errorf("hash %v is not available", alg.Hash)
	}
	return hashutil.ComputeHash(alg.Hash, data)
}

func keyMismatch(key any) error {
	return fmt.Errorf("%w: %T", ErrKeyMismatch, key)
}

func sign(alg Algorithm, key crypto.PrivateKey, data []byte, random io.Reader) ([]byte, error) {
	digest, err := digestOf(alg, data)
	if err != nil {
		return nil, err
	}
	switch alg.family {
	case familyRSA:
		k, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, keyMismatch(key)
		}
		return rsa.SignPKCS1v15(random, k, alg.Hash, digest)
	case familyRSAPSS:
		k, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, keyMismatch(key)
		}
		return rsa.SignPSS(random, k, alg.Hash, digest, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	case familyECDSA:
		k, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, keyMismatch(key)
		}
		return ecdsa.SignASN1(random, k, digest)
	case familyEd25519:
		k, ok := key.(ed25519.PrivateKey)
		if !ok || len(k) != ed25519.PrivateKeySize {
			return nil, keyMismatch(key)
		}
		return ed25519.Sign(k, data), nil
	case familyEd448:
		k, ok := key.(ed448.PrivateKey)
		if !ok || len(k) != ed448.PrivateKeySize {
			return nil, keyMismatch(key)
		}
		return ed448.Sign(k, data, ""), nil
	case familyMLDSA:
		k, ok := key.(*mldsa.PrivateKey)
		if !ok {
			return nil, keyMismatch(key)
		}
		sig := make([]byte, mldsa.SignatureSize)
		if err := mldsa.SignTo(k, data, nil, false, sig); err != nil {
			return nil, err
		}
		return sig, nil
	case familyDSA:
		k, ok := key.(*dsa.PrivateKey)
		if !ok {
			return nil, keyMismatch(key)
		}
		r, s, err := dsa.Sign(random, k, truncateDigest(digest, k.Q))
		if err != nil {
			return nil, err
		}
		return asn1.Marshal(asn1.NewSequence(asn1.NewInteger(r), asn1.NewInteger(s)))
	}
	return nil, ErrUnsupportedAlgorithm
}

func verify(alg Algorithm, pub crypto.PublicKey, data, sig []byte) error {
	digest, err := digestOf(alg, data)
	if err != nil {
		return err
	}
	valid := false
	switch alg.family {
	case familyRSA:
		k, ok := pub.(*rsa.PublicKey)
		if !ok {
			return keyMismatch(pub)
		}
		if err := rsa.VerifyPKCS1v15(k, alg.Hash, digest, sig); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		valid = true
	case familyRSAPSS:
		k, ok := pub.(*rsa.PublicKey)
		if !ok {
			return keyMismatch(pub)
		}
		if err := rsa.VerifyPSS(k, alg.Hash, digest, sig, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		valid = true
	case familyECDSA:
		k, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return keyMismatch(pub)
		}
		valid = ecdsa.VerifyASN1(k, digest, sig)
	case familyEd25519:
		k, ok := pub.(ed25519.PublicKey)
		if !ok || len(k) != ed25519.PublicKeySize {
			return keyMismatch(pub)
		}
		valid = ed25519.Verify(k, data, sig)
	case familyEd448:
		k, ok := pub.(ed448.PublicKey)
		if !ok || len(k) != ed448.PublicKeySize {
			return keyMismatch(pub)
		}
		valid = ed448.Verify(k, data, sig, "")
	case familyMLDSA:
		k, ok := pub.(*mldsa.PublicKey)
		if !ok {
			return keyMismatch(pub)
		}
		valid = mldsa.Verify(k, data, nil, sig)
	case familyDSA:
		k, ok := pub.(*dsa.PublicKey)
		if !ok {
			return keyMismatch(pub)
		}
		r, s, err := parseDSASignature(sig)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		valid = dsa.Verify(k, truncateDigest(digest, k.Q), r, s)
	default:
		return ErrUnsupportedAlgorithm
	}
	if !valid {
		return ErrInvalidSignature
	}
	return nil
}

// truncateDigest keeps the leftmost bytes of digest that fit the size of
// the subgroup order q, as FIPS 186 requires.
func truncateDigest(digest []byte, q *big.Int) []byte {
	if n := (q.BitLen() + 7) / 8; len(digest) > n {
		return digest[:n]
	}
	return digest
}

// Dss-Sig-Value ::= SEQUENCE { r INTEGER, s INTEGER }
func parseDSASignature(sig []byte) (*big.Int, *big.Int, error) {
	v, err := asn1.UnmarshalStrict(sig)
	if err != nil {
		return nil, nil, err
	}
	fields, err := asn1.Fields(v, "Dss-Sig-Value", 2, 2)
	if err != nil {
		return nil, nil, err
	}
	r, _, err := asn1.Coerce(fields[0], asn1.AsInteger)
	if err != nil {
		return nil, nil, err
	}
	s, _, err := asn1.Coerce(fields[1], asn1.AsInteger)
	if err != nil {
		return nil, nil, err
	}
	if r.BigInt().Sign() <= 0 || s.BigInt().Sign() <= 0 {
		return nil, nil, errors.New("non-positive DSA signature component")
	}
	return r.BigInt(), s.BigInt(), nil
}

// PublicKey returns the public half of key.
func PublicKey(key crypto.PrivateKey) (crypto.PublicKey, error) {
	switch k := key.(type) {
	case *dsa.PrivateKey:
		return &k.PublicKey, nil
	case crypto.Signer:
		return k.Public(), nil
	case interface{ Public() crypto.PublicKey }:
		return k.Public(), nil
	}
	return nil, keyMismatch(key)
}
