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

package signature

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	encasn1 "encoding/asn1"
	"errors"
	"fmt"
	"io"

	"github.com/notaryproject/notation-core-go/signature"
)

// LocalSigner signs with a private key held in memory. The signature
// algorithm is picked from the key spec of the signing certificate.
type LocalSigner struct {
	local  signature.LocalSigner
	alg    encasn1.ObjectIdentifier
	engine Engine
}

// NewLocalSigner returns a signer for key and its certificate chain, leaf
// first. A nil engine selects DefaultEngine.
// The relation of the provided signing key and its certificate chain is not
// verified, and should be verified by the caller.
func NewLocalSigner(certChain []*x509.Certificate, key crypto.PrivateKey, engine Engine) (*LocalSigner, error) {
	local, err := signature.NewLocalSigner(certChain, key)
	if err != nil {
		return nil, err
	}
	keySpec, err := local.KeySpec()
	if err != nil {
		return nil, err
	}
	alg, err := AlgorithmForKeySpec(keySpec)
	if err != nil {
		return nil, err
	}
	if engine == nil {
		engine = DefaultEngine{}
	}
	return &LocalSigner{local: local, alg: alg, engine: engine}, nil
}

// NewLocalSignerFromFiles creates a signer from PEM encoded key and
// certificate files.
func NewLocalSignerFromFiles(keyPath, certPath string, engine Engine) (*LocalSigner, error) {
	if keyPath == "" {
		return nil, errors.New("key path not specified")
	}
	if certPath == "" {
		return nil, errors.New("certificate path not specified")
	}

	// read key / cert pair
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, err
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("%q does not contain a signer certificate chain", certPath)
	}

	// parse cert
	certs := make([]*x509.Certificate, len(cert.Certificate))
	for i, c := range cert.Certificate {
		certs[i], err = x509.ParseCertificate(c)
		if err != nil {
			return nil, err
		}
	}
	return NewLocalSigner(certs, cert.PrivateKey, engine)
}

// Algorithm returns the signature algorithm of the signer.
func (s *LocalSigner) Algorithm() encasn1.ObjectIdentifier {
	return append(encasn1.ObjectIdentifier(nil), s.alg...)
}

// Engine returns the engine the signer signs with.
func (s *LocalSigner) Engine() Engine {
	return s.engine
}

// PrivateKey returns the signing key.
func (s *LocalSigner) PrivateKey() crypto.PrivateKey {
	return s.local.PrivateKey()
}

// CertificateChain returns the certificate chain, leaf first.
func (s *LocalSigner) CertificateChain() []*x509.Certificate {
	certs, err := s.local.CertificateChain()
	if err != nil {
		return nil
	}
	return certs
}

// Sign signs data with the algorithm of the signer.
func (s *LocalSigner) Sign(data []byte, rand io.Reader) ([]byte, error) {
	return s.engine.Sign(s.alg, s.local.PrivateKey(), data, rand)
}
