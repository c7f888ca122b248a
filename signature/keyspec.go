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
	encasn1 "encoding/asn1"
	"fmt"

	"github.com/notaryproject/cms-go/internal/crypto/oid"
	"github.com/notaryproject/notation-core-go/signature"
)

// one of the following key spec name
const (
	RSA_2048 = "RSA_2048"
	RSA_3072 = "RSA_3072"
	RSA_4096 = "RSA_4096"
	EC_256   = "EC_256"
	EC_384   = "EC_384"
	EC_521   = "EC_521"
)

// KeySpecName returns the name of a keySpec.
func KeySpecName(k signature.KeySpec) string {
	switch k.Type {
	case signature.KeyTypeEC:
		switch k.Size {
		case 256:
			return EC_256
		case 384:
			return EC_384
		case 521:
			return EC_521
		}
	case signature.KeyTypeRSA:
		switch k.Size {
		case 2048:
			return RSA_2048
		case 3072:
			return RSA_3072
		case 4096:
			return RSA_4096
		}
	}
	return ""
}

// ParseKeySpecFromName parses keyspec name to a signature.keySpec type
func ParseKeySpecFromName(raw string) (keySpec signature.KeySpec, err error) {
	switch raw {
	case RSA_2048:
		keySpec.Size = 2048
		keySpec.Type = signature.KeyTypeRSA
	case RSA_3072:
		keySpec.Size = 3072
		keySpec.Type = signature.KeyTypeRSA
	case RSA_4096:
		keySpec.Size = 4096
		keySpec.Type = signature.KeyTypeRSA
	case EC_256:
		keySpec.Size = 256
		keySpec.Type = signature.KeyTypeEC
	case EC_384:
		keySpec.Size = 384
		keySpec.Type = signature.KeyTypeEC
	case EC_521:
		keySpec.Size = 521
		keySpec.Type = signature.KeyTypeEC
	default:
		err = fmt.Errorf("unknown key spec %q", raw)
	}
	return
}

// AlgorithmForKeySpec returns the signature algorithm used with keys of
// spec k. The hash follows the key size; RSA keys sign with PKCS #1 v1.5.
func AlgorithmForKeySpec(k signature.KeySpec) (encasn1.ObjectIdentifier, error) {
	hash := k.SignatureAlgorithm().Hash()
	switch k.Type {
	case signature.KeyTypeRSA:
		switch hash {
		case crypto.SHA256:
			return oid.SHA256WithRSA, nil
		case crypto.SHA384:
			return oid.SHA384WithRSA, nil
		case crypto.SHA512:
			return oid.SHA512WithRSA, nil
		}
	case signature.KeyTypeEC:
		switch hash {
		case crypto.SHA256:
			return oid.ECDSAWithSHA256, nil
		case crypto.SHA384:
			return oid.ECDSAWithSHA384, nil
		case crypto.SHA512:
			return oid.ECDSAWithSHA512, nil
		}
	}
	return nil, fmt.Errorf("invalid KeySpec %q", KeySpecName(k))
}
