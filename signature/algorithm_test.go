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
	"crypto/x509"
	encasn1 "encoding/asn1"
	"errors"
	"testing"

	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
	"github.com/notaryproject/notation-core-go/signature"
)

func TestKeySpecName(t *testing.T) {
	tests := []struct {
		name     string
		keySpec  signature.KeySpec
		expected string
	}{
		{
			name:     "EC 256",
			keySpec:  signature.KeySpec{Type: signature.KeyTypeEC, Size: 256},
			expected: EC_256,
		},
		{
			name:     "EC 521",
			keySpec:  signature.KeySpec{Type: signature.KeyTypeEC, Size: 521},
			expected: EC_521,
		},
		{
			name:     "RSA 3072",
			keySpec:  signature.KeySpec{Type: signature.KeyTypeRSA, Size: 3072},
			expected: RSA_3072,
		},
		{
			name:     "Unsupported key spec",
			keySpec:  signature.KeySpec{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if name := KeySpecName(tt.keySpec); name != tt.expected {
				t.Errorf("unexpected keySpec name, expect: %v, got: %v", tt.expected, name)
			}
			if tt.expected == "" {
				return
			}
			keySpec, err := ParseKeySpecFromName(tt.expected)
			if err != nil {
				t.Fatalf("ParseKeySpecFromName() error = %v", err)
			}
			if keySpec != tt.keySpec {
				t.Errorf("ParseKeySpecFromName() = %v, want %v", keySpec, tt.keySpec)
			}
		})
	}

	if _, err := ParseKeySpecFromName("EC_128"); err == nil {
		t.Error("ParseKeySpecFromName() expected error")
	}
}

func TestAlgorithmForKeySpec(t *testing.T) {
	tests := []struct {
		keySpec signature.KeySpec
		want    encasn1.ObjectIdentifier
		wantErr bool
	}{
		{keySpec: signature.KeySpec{Type: signature.KeyTypeRSA, Size: 2048}, want: oid.SHA256WithRSA},
		{keySpec: signature.KeySpec{Type: signature.KeyTypeRSA, Size: 3072}, want: oid.SHA384WithRSA},
		{keySpec: signature.KeySpec{Type: signature.KeyTypeRSA, Size: 4096}, want: oid.SHA512WithRSA},
		{keySpec: signature.KeySpec{Type: signature.KeyTypeEC, Size: 256}, want: oid.ECDSAWithSHA256},
		{keySpec: signature.KeySpec{Type: signature.KeyTypeEC, Size: 384}, want: oid.ECDSAWithSHA384},
		{keySpec: signature.KeySpec{Type: signature.KeyTypeEC, Size: 521}, want: oid.ECDSAWithSHA512},
		{keySpec: signature.KeySpec{Type: signature.KeyTypeRSA, Size: 1024}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(KeySpecName(tt.keySpec), func(t *testing.T) {
			got, err := AlgorithmForKeySpec(tt.keySpec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AlgorithmForKeySpec() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("AlgorithmForKeySpec() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlgorithmIdentifier(t *testing.T) {
	tests := []struct {
		name string
		oid  encasn1.ObjectIdentifier
		// hex of the DER AlgorithmIdentifier
		want []byte
	}{
		{
			name: "SHA256-RSA has NULL parameters",
			oid:  oid.SHA256WithRSA,
			want: []byte{0x30, 0x0d, 0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x0b, 0x05, 0x00},
		},
		{
			name: "ECDSA-SHA256 has no parameters",
			oid:  oid.ECDSAWithSHA256,
			want: []byte{0x30, 0x0a, 0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x04, 0x03, 0x02},
		},
		{
			name: "Ed25519 has no parameters",
			oid:  oid.Ed25519,
			want: []byte{0x30, 0x05, 0x06, 0x03, 0x2b, 0x65, 0x70},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alg, ok := Lookup(tt.oid)
			if !ok {
				t.Fatalf("Lookup(%v) failed", tt.oid)
			}
			v, err := alg.Identifier().Value()
			if err != nil {
				t.Fatalf("Value() error = %v", err)
			}
			der, err := asn1.Marshal(v)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(der) != string(tt.want) {
				t.Errorf("Marshal() = %x, want %x", der, tt.want)
			}

			parsed, err := ParseAlgorithmIdentifier(v)
			if err != nil {
				t.Fatalf("ParseAlgorithmIdentifier() error = %v", err)
			}
			if parsed.Name != alg.Name {
				t.Errorf("ParseAlgorithmIdentifier() = %s, want %s", parsed.Name, alg.Name)
			}
		})
	}
}

func TestParseAlgorithmIdentifier_PSS(t *testing.T) {
	alg, _ := Lookup(oid.RSASSAPSS)
	v, err := alg.Identifier().Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	der, err := asn1.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	// decode from the wire so that the parameters are generic tagged values
	decoded, err := asn1.UnmarshalStrict(der)
	if err != nil {
		t.Fatalf("UnmarshalStrict() error = %v", err)
	}
	parsed, err := ParseAlgorithmIdentifier(decoded)
	if err != nil {
		t.Fatalf("ParseAlgorithmIdentifier() error = %v", err)
	}
	if parsed.Name != "SHA256-RSAPSS" {
		t.Errorf("ParseAlgorithmIdentifier() = %s", parsed.Name)
	}

	// SHA-1 defaults are not supported
	noParams := AlgorithmIdentifier{Algorithm: oid.RSASSAPSS, Parameters: asn1.NewSequence()}
	v, err = noParams.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	_, err = ParseAlgorithmIdentifier(v)
	var sigErr *SignatureError
	if !errors.As(err, &sigErr) {
		t.Errorf("ParseAlgorithmIdentifier() error = %v, want *SignatureError", err)
	}
}

func TestParseAlgorithmIdentifier_Errors(t *testing.T) {
	unknown := AlgorithmIdentifier{Algorithm: encasn1.ObjectIdentifier{1, 2, 3, 4}}
	v, err := unknown.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if _, err := ParseAlgorithmIdentifier(v); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("ParseAlgorithmIdentifier() error = %v, want ErrUnsupportedAlgorithm", err)
	}

	withParams := AlgorithmIdentifier{Algorithm: oid.Ed25519, Parameters: asn1.NewInt64(1)}
	v, err = withParams.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if _, err := ParseAlgorithmIdentifier(v); err == nil {
		t.Error("ParseAlgorithmIdentifier() expected error for unexpected parameters")
	}

	_, err = ParseAlgorithmIdentifier(asn1.NewInt64(1))
	var mismatch *asn1.TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("ParseAlgorithmIdentifier() error = %v, want *asn1.TypeMismatchError", err)
	}
}

func mustKeySpec(t *testing.T, cert *x509.Certificate) signature.KeySpec {
	t.Helper()
	keySpec, err := signature.ExtractKeySpec(cert)
	if err != nil {
		t.Fatalf("ExtractKeySpec() error = %v", err)
	}
	return keySpec
}
