package cms

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/signature"
)

// SignerInformation is a parsed SignerInfo. It is immutable.
//
//	SignerInfo ::= SEQUENCE {
//	  version             CMSVersion,
//	  sid                 SignerIdentifier,
//	  digestAlgorithm     DigestAlgorithmIdentifier,
//	  signedAttrs         [0] IMPLICIT SignedAttributes   OPTIONAL,
//	  signatureAlgorithm  SignatureAlgorithmIdentifier,
//	  signature           SignatureValue,
//	  unsignedAttrs       [1] IMPLICIT UnsignedAttributes OPTIONAL }
//
// SignerIdentifier is IssuerAndSerialNumber for version 1 and
// [0] SubjectKeyIdentifier for version 3.
type SignerInformation struct {
	version            int
	sid                SignerID
	digestAlgorithm    signature.AlgorithmIdentifier
	signedAttrs        Attributes
	signedAttrsContent []byte
	signatureAlgorithm signature.AlgorithmIdentifier
	signature          []byte
	unsignedAttrs      Attributes
	raw                []byte
}

// AsSignerInformation converts a value to a SignerInformation.
var AsSignerInformation = asn1.Conversion[*SignerInformation]{
	Name: "SignerInfo",
	Tag:  asn1.Universal(asn1.TagSequence),
	FromValue: func(v asn1.Value) (*SignerInformation, error) {
		raw, err := asn1.Marshal(v)
		if err != nil {
			return nil, err
		}
		return parseSignerInfo(v, raw)
	},
}

// ParseSignerInfo parses an encoded SignerInfo.
func ParseSignerInfo(data []byte, opts asn1.DecodeOptions) (*SignerInformation, error) {
	v, err := asn1.UnmarshalWithOptions(data, opts)
	if err != nil {
		return nil, err
	}
	return parseSignerInfo(v, data)
}

func parseSignerInfo(v asn1.Value, raw []byte) (*SignerInformation, error) {
	fields, err := asn1.Fields(v, "SignerInfo", 5, 7)
	if err != nil {
		return nil, err
	}
	s := &SignerInformation{raw: bytes.Clone(raw)}

	version, _, err := asn1.Coerce(fields[0], asn1.AsInteger)
	if err != nil {
		return nil, fieldError("SignerInfo", "version", err)
	}
	n, err := version.Int64()
	if err != nil || (n != 1 && n != 3) {
		return nil, fieldError("SignerInfo", "version", fmt.Errorf("unsupported version %v", version.BigInt()))
	}
	s.version = int(n)

	if s.sid, err = parseSignerIdentifier(fields[1]); err != nil {
		return nil, fieldError("SignerInfo", "sid", err)
	}
	if s.digestAlgorithm, _, err = asn1.Coerce(fields[2], signature.AsAlgorithmIdentifier); err != nil {
		return nil, fieldError("SignerInfo", "digestAlgorithm", err)
	}

	i := 3
	if contextTag(fields[i]) == 0 {
		t := fields[i].(asn1.Tagged)
		if s.signedAttrs, err = implicitAttributes(t); err != nil {
			return nil, fieldError("SignerInfo", "signedAttrs", err)
		}
		if len(s.signedAttrs) == 0 {
			return nil, fieldError("SignerInfo", "signedAttrs", errors.New("empty signed attributes"))
		}
		s.signedAttrsContent = t.Content()
		i++
	}
	if len(fields) < i+2 {
		return nil, &asn1.SchemaViolationError{Structure: "SignerInfo", Field: "signature", Detail: errors.New("missing")}
	}
	if s.signatureAlgorithm, _, err = asn1.Coerce(fields[i], signature.AsAlgorithmIdentifier); err != nil {
		return nil, fieldError("SignerInfo", "signatureAlgorithm", err)
	}
	sig, _, err := asn1.Coerce(fields[i+1], asn1.AsOctetString)
	if err != nil {
		return nil, fieldError("SignerInfo", "signature", err)
	}
	s.signature = sig.Octets()
	i += 2

	if i < len(fields) && contextTag(fields[i]) == 1 {
		if s.unsignedAttrs, err = implicitAttributes(fields[i].(asn1.Tagged)); err != nil {
			return nil, fieldError("SignerInfo", "unsignedAttrs", err)
		}
		i++
	}
	if i != len(fields) {
		return nil, &asn1.SchemaViolationError{
			Structure: "SignerInfo",
			Detail:    fmt.Errorf("unexpected field %s", asn1.VariantName(fields[i])),
		}
	}
	return s, nil
}

// parseSignerIdentifier reads the SignerIdentifier CHOICE.
func parseSignerIdentifier(v asn1.Value) (SignerID, error) {
	if t, ok := v.(asn1.Tagged); ok {
		if contextTag(t) != 0 {
			return SignerID{}, &asn1.TypeMismatchError{Want: "SignerIdentifier", Got: t.Tag().String()}
		}
		ski, err := asn1.CoerceTagged(t, false, asn1.AsOctetString)
		if err != nil {
			return SignerID{}, err
		}
		return NewSubjectKeyIDSignerID(ski.Octets()), nil
	}
	ias, _, err := asn1.Coerce(v, AsIssuerAndSerialNumber)
	if err != nil {
		return SignerID{}, err
	}
	return NewIssuerAndSerialSignerID(ias.Issuer, ias.SerialNumber), nil
}

// implicitAttributes reads a [n] IMPLICIT SET OF Attribute.
func implicitAttributes(t asn1.Tagged) (Attributes, error) {
	set, err := asn1.CoerceTagged(t, false, asn1.AsSet)
	if err != nil {
		return nil, err
	}
	return parseAttributes(set)
}

// Version returns the syntax version, 1 or 3.
func (s *SignerInformation) Version() int { return s.version }

// SID returns the signer identifier.
func (s *SignerInformation) SID() SignerID { return s.sid }

// DigestAlgorithm returns the message digest algorithm.
func (s *SignerInformation) DigestAlgorithm() signature.AlgorithmIdentifier { return s.digestAlgorithm }

// SignatureAlgorithm returns the signature algorithm.
func (s *SignerInformation) SignatureAlgorithm() signature.AlgorithmIdentifier {
	return s.signatureAlgorithm
}

// Signature returns the signature value.
func (s *SignerInformation) Signature() []byte { return bytes.Clone(s.signature) }

// SignedAttributes returns the signed attributes, or nil.
func (s *SignerInformation) SignedAttributes() Attributes {
	return append(Attributes(nil), s.signedAttrs...)
}

// UnsignedAttributes returns the unsigned attributes, or nil.
func (s *SignerInformation) UnsignedAttributes() Attributes {
	return append(Attributes(nil), s.unsignedAttrs...)
}

// Raw returns the encoding the signer was parsed from.
func (s *SignerInformation) Raw() []byte { return bytes.Clone(s.raw) }

// signedBytes returns the data covered by the signature: the DER SET of
// signed attributes if present, content otherwise.
//
// Reference: RFC 5652 5.4 Message Digest Calculation Process
func (s *SignerInformation) signedBytes(content []byte) ([]byte, error) {
	if s.signedAttrsContent == nil {
		return content, nil
	}
	return asn1.Marshal(asn1.NewRaw(asn1.Universal(asn1.TagSet), s.signedAttrsContent))
}
