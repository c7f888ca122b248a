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

// Package attrcert builds, parses and checks version 2 attribute
// certificates defined in RFC 5755.
package attrcert

import (
	"bytes"
	"crypto"
	"crypto/x509"
	encasn1 "encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/notaryproject/cms-go/cms"
	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/signature"
)

// version is the AttCertVersion v2.
const version = 1

// IssuerSerial identifies a public key certificate.
//
//	IssuerSerial ::= SEQUENCE {
//	  issuer       GeneralNames,
//	  serial       CertificateSerialNumber,
//	  issuerUID    UniqueIdentifier OPTIONAL }
type IssuerSerial struct {
	// Issuer is the DER encoded Name of the certificate issuer.
	Issuer []byte
	Serial *big.Int
}

// Holder identifies the holder of an attribute certificate, by the public
// key certificate it is bound to, or by name.
//
//	Holder ::= SEQUENCE {
//	  baseCertificateID   [0] IssuerSerial OPTIONAL,
//	  entityName          [1] GeneralNames OPTIONAL,
//	  objectDigestInfo    [2] ObjectDigestInfo OPTIONAL }
type Holder struct {
	BaseCertificateID *IssuerSerial

	// EntityName is the DER encoded Name of the holder.
	EntityName []byte
}

// HolderFromCertificate returns the holder bound to cert.
func HolderFromCertificate(cert *x509.Certificate) Holder {
	return Holder{BaseCertificateID: &IssuerSerial{
		Issuer: bytes.Clone(cert.RawIssuer),
		Serial: new(big.Int).Set(cert.SerialNumber),
	}}
}

// Issuer identifies the issuer of an attribute certificate by name. It is
// encoded in the v2Form.
//
//	AttCertIssuer ::= CHOICE {
//	  v1Form   GeneralNames,
//	  v2Form   [0] V2Form }
type Issuer struct {
	// Name is the DER encoded Name of the issuer.
	Name []byte
}

// IssuerFromCertificate returns the issuer named by the subject of cert.
func IssuerFromCertificate(cert *x509.Certificate) Issuer {
	return Issuer{Name: bytes.Clone(cert.RawSubject)}
}

// Extension is an X.509 extension.
type Extension struct {
	ID       encasn1.ObjectIdentifier
	Critical bool

	// Value is the content of the extnValue OCTET STRING.
	Value []byte
}

// AttributeCertificate is a parsed attribute certificate.
//
//	AttributeCertificate ::= SEQUENCE {
//	  acinfo               AttributeCertificateInfo,
//	  signatureAlgorithm   AlgorithmIdentifier,
//	  signatureValue       BIT STRING }
type AttributeCertificate struct {
	// Raw is the complete DER encoding.
	Raw []byte

	// RawInfo is the DER encoding of the signed AttributeCertificateInfo.
	RawInfo []byte

	Version            int
	Holder             Holder
	Issuer             Issuer
	SerialNumber       *big.Int
	NotBefore          time.Time
	NotAfter           time.Time
	Attributes         []cms.Attribute
	Extensions         []Extension
	SignatureAlgorithm signature.AlgorithmIdentifier
	Signature          []byte
}

// ParseAttributeCertificate parses a DER encoded attribute certificate.
func ParseAttributeCertificate(der []byte) (*AttributeCertificate, error) {
	v, err := asn1.UnmarshalStrict(der)
	if err != nil {
		return nil, err
	}
	fields, err := asn1.Fields(v, "AttributeCertificate", 3, 3)
	if err != nil {
		return nil, err
	}
	rawInfo, err := asn1.Marshal(fields[0])
	if err != nil {
		return nil, err
	}
	ac := &AttributeCertificate{Raw: bytes.Clone(der), RawInfo: rawInfo}
	infoAlg, err := ac.parseInfo(fields[0])
	if err != nil {
		return nil, err
	}

	if ac.SignatureAlgorithm, _, err = asn1.Coerce(fields[1], signature.AsAlgorithmIdentifier); err != nil {
		return nil, fieldError("AttributeCertificate", "signatureAlgorithm", err)
	}
	if !asn1.Equal(infoAlg, fields[1]) {
		return nil, fieldError("AttributeCertificate", "signatureAlgorithm", errors.New("does not match the signature field"))
	}
	sig, _, err := asn1.Coerce(fields[2], asn1.AsBitString)
	if err != nil {
		return nil, fieldError("AttributeCertificate", "signatureValue", err)
	}
	if sig.BitLength()%8 != 0 {
		return nil, fieldError("AttributeCertificate", "signatureValue", errors.New("not a whole number of octets"))
	}
	ac.Signature = sig.Bytes()
	return ac, nil
}

// AttributeCertificateInfo ::= SEQUENCE {
//
//	version                 AttCertVersion -- version is v2,
//	holder                  Holder,
//	issuer                  AttCertIssuer,
//	signature               AlgorithmIdentifier,
//	serialNumber            CertificateSerialNumber,
//	attrCertValidityPeriod  AttCertValidityPeriod,
//	attributes              SEQUENCE OF Attribute,
//	issuerUniqueID          UniqueIdentifier OPTIONAL,
//	extensions              Extensions OPTIONAL }
func (ac *AttributeCertificate) parseInfo(v asn1.Value) (asn1.Value, error) {
	const structure = "AttributeCertificateInfo"
	fields, err := asn1.Fields(v, structure, 7, 9)
	if err != nil {
		return nil, err
	}
	n, err := integer(fields[0])
	if err != nil || n.Int64() != version {
		return nil, fieldError(structure, "version", fmt.Errorf("unsupported version %v", n))
	}
	ac.Version = version + 1

	if ac.Holder, err = parseHolder(fields[1]); err != nil {
		return nil, fieldError(structure, "holder", err)
	}
	if ac.Issuer, err = parseIssuer(fields[2]); err != nil {
		return nil, fieldError(structure, "issuer", err)
	}
	if ac.SerialNumber, err = integer(fields[4]); err != nil {
		return nil, fieldError(structure, "serialNumber", err)
	}

	validity, err := asn1.Fields(fields[5], "AttCertValidityPeriod", 2, 2)
	if err != nil {
		return nil, fieldError(structure, "attrCertValidityPeriod", err)
	}
	notBefore, _, err := asn1.Coerce(validity[0], asn1.AsTime)
	if err != nil {
		return nil, fieldError(structure, "attrCertValidityPeriod", err)
	}
	notAfter, _, err := asn1.Coerce(validity[1], asn1.AsTime)
	if err != nil {
		return nil, fieldError(structure, "attrCertValidityPeriod", err)
	}
	ac.NotBefore, ac.NotAfter = notBefore.Time(), notAfter.Time()

	attrs, _, err := asn1.Coerce(fields[6], asn1.AsSequence)
	if err != nil {
		return nil, fieldError(structure, "attributes", err)
	}
	for _, e := range attrs.Elements() {
		attr, _, err := asn1.Coerce(e, cms.AsAttribute)
		if err != nil {
			return nil, fieldError(structure, "attributes", err)
		}
		ac.Attributes = append(ac.Attributes, attr)
	}

	for _, f := range fields[7:] {
		switch f.(type) {
		case asn1.BitString:
			// issuerUniqueID is not used
		case asn1.Sequence:
			if ac.Extensions, err = parseExtensions(f); err != nil {
				return nil, fieldError(structure, "extensions", err)
			}
		default:
			return nil, fieldError(structure, "", fmt.Errorf("unexpected field %s", asn1.VariantName(f)))
		}
	}
	return fields[3], nil
}

func parseHolder(v asn1.Value) (Holder, error) {
	fields, err := asn1.Fields(v, "Holder", 0, 3)
	if err != nil {
		return Holder{}, err
	}
	var h Holder
	for _, f := range fields {
		t, ok := f.(asn1.Tagged)
		if !ok || t.Tag().Class != asn1.ClassContextSpecific {
			return Holder{}, &asn1.TypeMismatchError{Want: "Holder field", Got: asn1.VariantName(f)}
		}
		switch t.Tag().Number {
		case 0:
			is, err := asn1.CoerceTagged(t, false, asIssuerSerial)
			if err != nil {
				return Holder{}, err
			}
			h.BaseCertificateID = &is
		case 1:
			names, err := asn1.CoerceTagged(t, false, asn1.AsSequence)
			if err != nil {
				return Holder{}, err
			}
			if h.EntityName, err = directoryName(names); err != nil {
				return Holder{}, err
			}
		default:
			// objectDigestInfo is not supported
			return Holder{}, fmt.Errorf("unsupported holder field %s", t.Tag())
		}
	}
	return h, nil
}

var asIssuerSerial = asn1.Conversion[IssuerSerial]{
	Name: "IssuerSerial",
	Tag:  asn1.Universal(asn1.TagSequence),
	FromValue: func(v asn1.Value) (IssuerSerial, error) {
		fields, err := asn1.Fields(v, "IssuerSerial", 2, 3)
		if err != nil {
			return IssuerSerial{}, err
		}
		names, _, err := asn1.Coerce(fields[0], asn1.AsSequence)
		if err != nil {
			return IssuerSerial{}, fieldError("IssuerSerial", "issuer", err)
		}
		issuer, err := directoryName(names)
		if err != nil {
			return IssuerSerial{}, fieldError("IssuerSerial", "issuer", err)
		}
		serial, err := integer(fields[1])
		if err != nil {
			return IssuerSerial{}, fieldError("IssuerSerial", "serial", err)
		}
		return IssuerSerial{Issuer: issuer, Serial: serial}, nil
	},
}

func parseIssuer(v asn1.Value) (Issuer, error) {
	names, ok := v.(asn1.Sequence)
	if !ok {
		t, isTagged := v.(asn1.Tagged)
		if !isTagged || t.Tag().Class != asn1.ClassContextSpecific || t.Tag().Number != 0 {
			return Issuer{}, &asn1.TypeMismatchError{Want: "AttCertIssuer", Got: asn1.VariantName(v)}
		}
		// V2Form ::= SEQUENCE { issuerName GeneralNames OPTIONAL, ... }
		form, err := asn1.CoerceTagged(t, false, asn1.AsSequence)
		if err != nil {
			return Issuer{}, err
		}
		if form.Len() == 0 {
			return Issuer{}, errors.New("missing issuerName")
		}
		if names, ok = form.At(0).(asn1.Sequence); !ok {
			return Issuer{}, errors.New("missing issuerName")
		}
	}
	name, err := directoryName(names)
	if err != nil {
		return Issuer{}, err
	}
	return Issuer{Name: name}, nil
}

// directoryName returns the first directoryName of a GeneralNames.
func directoryName(names asn1.Sequence) ([]byte, error) {
	for _, n := range names.Elements() {
		t, ok := n.(asn1.Tagged)
		if !ok || t.Tag().Class != asn1.ClassContextSpecific || t.Tag().Number != 4 {
			continue
		}
		name, err := asn1.CoerceTagged(t, true, asn1.AsSequence)
		if err != nil {
			return nil, err
		}
		return asn1.Marshal(name)
	}
	return nil, errors.New("no directoryName in GeneralNames")
}

// Extensions ::= SEQUENCE SIZE (1..MAX) OF Extension
func parseExtensions(v asn1.Value) ([]Extension, error) {
	seq, _, err := asn1.Coerce(v, asn1.AsSequence)
	if err != nil {
		return nil, err
	}
	var exts []Extension
	for _, e := range seq.Elements() {
		fields, err := asn1.Fields(e, "Extension", 2, 3)
		if err != nil {
			return nil, err
		}
		id, _, err := asn1.Coerce(fields[0], asn1.AsObjectIdentifier)
		if err != nil {
			return nil, err
		}
		ext := Extension{ID: id.OID()}
		if len(fields) == 3 {
			critical, _, err := asn1.Coerce(fields[1], asn1.AsBoolean)
			if err != nil {
				return nil, err
			}
			ext.Critical = critical.Bool()
		}
		value, _, err := asn1.Coerce(fields[len(fields)-1], asn1.AsOctetString)
		if err != nil {
			return nil, err
		}
		ext.Value = value.Octets()
		exts = append(exts, ext)
	}
	return exts, nil
}

// CheckSignature verifies the signature of ac with the public key of its
// issuer. A nil engine selects signature.DefaultEngine.
func (ac *AttributeCertificate) CheckSignature(engine signature.Engine, pub crypto.PublicKey) error {
	if engine == nil {
		engine = signature.DefaultEngine{}
	}
	v, err := ac.SignatureAlgorithm.Value()
	if err != nil {
		return err
	}
	alg, err := signature.ParseAlgorithmIdentifier(v)
	if err != nil {
		return err
	}
	return engine.Verify(alg.OID, pub, ac.RawInfo, ac.Signature)
}

// IsValidAt reports whether t is within the validity period of ac.
func (ac *AttributeCertificate) IsValidAt(t time.Time) bool {
	return !t.Before(ac.NotBefore) && !t.After(ac.NotAfter)
}

// Extension returns the extension with the given identifier, if present.
func (ac *AttributeCertificate) Extension(id encasn1.ObjectIdentifier) (Extension, bool) {
	for _, ext := range ac.Extensions {
		if ext.ID.Equal(id) {
			return ext, true
		}
	}
	return Extension{}, false
}

func integer(v asn1.Value) (*big.Int, error) {
	n, _, err := asn1.Coerce(v, asn1.AsInteger)
	if err != nil {
		return nil, err
	}
	return n.BigInt(), nil
}

func fieldError(structure, field string, err error) error {
	return &asn1.SchemaViolationError{Structure: structure, Field: field, Detail: err}
}
