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
	"errors"
	"fmt"

	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
)

// AlgorithmIdentifier ::= SEQUENCE {
//
//	algorithm   OBJECT IDENTIFIER,
//	parameters  ANY DEFINED BY algorithm OPTIONAL }
type AlgorithmIdentifier struct {
	Algorithm encasn1.ObjectIdentifier

	// Parameters is nil when absent.
	Parameters asn1.Value
}

// Value returns the identifier as a SEQUENCE.
func (a AlgorithmIdentifier) Value() (asn1.Value, error) {
	id, err := asn1.NewObjectIdentifier(a.Algorithm)
	if err != nil {
		return nil, err
	}
	if a.Parameters == nil {
		return asn1.NewSequence(id), nil
	}
	return asn1.NewSequence(id, a.Parameters), nil
}

// AsAlgorithmIdentifier converts a SEQUENCE of one or two elements to an
// AlgorithmIdentifier.
var AsAlgorithmIdentifier = asn1.Conversion[AlgorithmIdentifier]{
	Name: "AlgorithmIdentifier",
	Tag:  asn1.Universal(asn1.TagSequence),
	FromValue: func(v asn1.Value) (AlgorithmIdentifier, error) {
		fields, err := asn1.Fields(v, "AlgorithmIdentifier", 1, 2)
		if err != nil {
			return AlgorithmIdentifier{}, err
		}
		id, _, err := asn1.Coerce(fields[0], asn1.AsObjectIdentifier)
		if err != nil {
			return AlgorithmIdentifier{}, &asn1.SchemaViolationError{
				Structure: "AlgorithmIdentifier",
				Field:     "algorithm",
				Detail:    err,
			}
		}
		a := AlgorithmIdentifier{Algorithm: id.OID()}
		if len(fields) == 2 {
			a.Parameters = fields[1]
		}
		return a, nil
	},
}

type family int

const (
	familyRSA family = iota + 1
	familyRSAPSS
	familyECDSA
	familyEd25519
	familyEd448
	familyMLDSA
	familyDSA
)

// Algorithm describes a signature algorithm known to this package.
type Algorithm struct {
	OID  encasn1.ObjectIdentifier
	Name string

	// Hash is the digest applied to the data before signing. It is zero
	// for algorithms that sign the message itself.
	Hash crypto.Hash

	family family
}

var algorithms = []Algorithm{
	{OID: oid.SHA256WithRSA, Name: "SHA256-RSA", Hash: crypto.SHA256, family: familyRSA},
	{OID: oid.SHA384WithRSA, Name: "SHA384-RSA", Hash: crypto.SHA384, family: familyRSA},
	{OID: oid.SHA512WithRSA, Name: "SHA512-RSA", Hash: crypto.SHA512, family: familyRSA},
	{OID: oid.RSASSAPSS, Name: "SHA256-RSAPSS", Hash: crypto.SHA256, family: familyRSAPSS},
	{OID: oid.ECDSAWithSHA256, Name: "ECDSA-SHA256", Hash: crypto.SHA256, family: familyECDSA},
	{OID: oid.ECDSAWithSHA384, Name: "ECDSA-SHA384", Hash: crypto.SHA384, family: familyECDSA},
	{OID: oid.ECDSAWithSHA512, Name: "ECDSA-SHA512", Hash: crypto.SHA512, family: familyECDSA},
	{OID: oid.Ed25519, Name: "Ed25519", family: familyEd25519},
	{OID: oid.Ed448, Name: "Ed448", family: familyEd448},
	{OID: oid.MLDSA87, Name: "ML-DSA-87", family: familyMLDSA},
	{OID: oid.DSAWithSHA256, Name: "DSA-SHA256", Hash: crypto.SHA256, family: familyDSA},
}

var (
	algorithmsByOID  = make(map[string]Algorithm, len(algorithms))
	algorithmsByName = make(map[string]Algorithm, len(algorithms))
)

func init() {
	for _, a := range algorithms {
		algorithmsByOID[a.OID.String()] = a
		algorithmsByName[a.Name] = a
	}
}

// Lookup returns the algorithm identified by id.
func Lookup(id encasn1.ObjectIdentifier) (Algorithm, bool) {
	a, ok := algorithmsByOID[id.String()]
	return a, ok
}

// LookupName returns the algorithm with the given name, such as
// "ECDSA-SHA256".
func LookupName(name string) (Algorithm, bool) {
	a, ok := algorithmsByName[name]
	return a, ok
}

// Identifier returns the AlgorithmIdentifier to place next to a signature
// made with a. RSA PKCS #1 v1.5 carries NULL parameters and RSASSA-PSS its
// hash, mask generation and salt parameters; the others carry none.
func (a Algorithm) Identifier() AlgorithmIdentifier {
	id := AlgorithmIdentifier{Algorithm: a.OID}
	switch a.family {
	case familyRSA:
		id.Parameters = asn1.Null{}
	case familyRSAPSS:
		id.Parameters = pssParameters(a.Hash)
	}
	return id
}

// RSASSA-PSS-params ::= SEQUENCE {
//
//	hashAlgorithm      [0] HashAlgorithm      DEFAULT sha1,
//	maskGenAlgorithm   [1] MaskGenAlgorithm   DEFAULT mgf1SHA1,
//	saltLength         [2] INTEGER            DEFAULT 20,
//	trailerField       [3] TrailerField       DEFAULT trailerFieldBC }
func pssParameters(hash crypto.Hash) asn1.Value {
	hashOID, _ := oid.FromHash(hash)
	hashAlg := asn1.NewSequence(asn1.MustObjectIdentifier(hashOID), asn1.Null{})
	return asn1.NewSequence(
		asn1.NewExplicit(asn1.ClassContextSpecific, 0, hashAlg),
		asn1.NewExplicit(asn1.ClassContextSpecific, 1,
			asn1.NewSequence(asn1.MustObjectIdentifier(oid.MGF1), hashAlg)),
		asn1.NewExplicit(asn1.ClassContextSpecific, 2, asn1.NewInt64(int64(hash.Size()))),
	)
}

// ParseAlgorithmIdentifier returns the algorithm described by v, checking
// that its parameters are the ones the algorithm requires.
func ParseAlgorithmIdentifier(v asn1.Value) (Algorithm, error) {
	id, _, err := asn1.Coerce(v, AsAlgorithmIdentifier)
	if err != nil {
		return Algorithm{}, err
	}
	a, ok := Lookup(id.Algorithm)
	if !ok {
		return Algorithm{}, &SignatureError{Algorithm: id.Algorithm.String(), Detail: ErrUnsupportedAlgorithm}
	}
	switch a.family {
	case familyRSAPSS:
		err = checkPSSParameters(id.Parameters, a.Hash)
	default:
		// NULL is tolerated where parameters must be absent
		if id.Parameters != nil {
			if _, isNull := id.Parameters.(asn1.Null); !isNull {
				err = errors.New("unexpected parameters")
			}
		}
	}
	if err != nil {
		return Algorithm{}, &SignatureError{Algorithm: a.Name, Detail: err}
	}
	return a, nil
}

func checkPSSParameters(params asn1.Value, hash crypto.Hash) error {
	if params == nil {
		return errors.New("missing RSASSA-PSS parameters")
	}
	fields, err := asn1.Fields(params, "RSASSA-PSS-params", 0, 4)
	if err != nil {
		return err
	}
	got := map[int]asn1.Tagged{}
	for _, f := range fields {
		t, ok := f.(asn1.Tagged)
		if !ok || t.Tag().Class != asn1.ClassContextSpecific {
			return fmt.Errorf("unexpected field %s", asn1.VariantName(f))
		}
		got[t.Tag().Number] = t
	}

	// the defaults name SHA-1, which is not supported
	hashField, ok := got[0]
	if !ok {
		return errors.New("RSASSA-PSS with SHA-1 is not supported")
	}
	hashAlg, err := asn1.CoerceTagged(hashField, true, AsAlgorithmIdentifier)
	if err != nil {
		return err
	}
	if h, ok := oid.ConvertToHash(hashAlg.Algorithm); !ok || h != hash {
		return fmt.Errorf("unsupported RSASSA-PSS hash %s", hashAlg.Algorithm)
	}
	if mgfField, ok := got[1]; ok {
		mgf, err := asn1.CoerceTagged(mgfField, true, AsAlgorithmIdentifier)
		if err != nil {
			return err
		}
		if !mgf.Algorithm.Equal(oid.MGF1) || mgf.Parameters == nil {
			return fmt.Errorf("unsupported mask generation function %s", mgf.Algorithm)
		}
		mgfHash, _, err := asn1.Coerce(mgf.Parameters, AsAlgorithmIdentifier)
		if err != nil {
			return err
		}
		if h, ok := oid.ConvertToHash(mgfHash.Algorithm); !ok || h != hash {
			return fmt.Errorf("unsupported MGF1 hash %s", mgfHash.Algorithm)
		}
	} else {
		return errors.New("MGF1 with SHA-1 is not supported")
	}
	saltField, ok := got[2]
	if !ok {
		return errors.New("unexpected RSASSA-PSS salt length 20")
	}
	salt, err := asn1.CoerceTagged(saltField, true, asn1.AsInteger)
	if err != nil {
		return err
	}
	if n, err := salt.Int64(); err != nil || n != int64(hash.Size()) {
		return fmt.Errorf("unexpected RSASSA-PSS salt length %v", salt.BigInt())
	}
	return nil
}
