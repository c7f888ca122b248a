// Package cms parses, verifies and generates Cryptographic Message Syntax
// (CMS) / PKCS7 structures defined in RFC 5652, and compressed data defined
// in RFC 3274.
package cms

import (
	"bytes"
	encasn1 "encoding/asn1"
	"fmt"
	"math/big"

	"github.com/notaryproject/cms-go/encoding/asn1"
)

// asAny accepts any value unchanged.
var asAny = asn1.Conversion[asn1.Value]{
	Name:      "ANY",
	FromValue: func(v asn1.Value) (asn1.Value, error) { return v, nil },
}

// ContentInfo ::= SEQUENCE {
//
//	contentType ContentType,
//	content     [0] EXPLICIT ANY DEFINED BY contentType }
type ContentInfo struct {
	ContentType encasn1.ObjectIdentifier
	Content     asn1.Value
}

// AsContentInfo converts a value to a ContentInfo.
var AsContentInfo = asn1.Conversion[ContentInfo]{
	Name: "ContentInfo",
	Tag:  asn1.Universal(asn1.TagSequence),
	FromValue: func(v asn1.Value) (ContentInfo, error) {
		fields, err := asn1.Fields(v, "ContentInfo", 2, 2)
		if err != nil {
			return ContentInfo{}, err
		}
		contentType, _, err := asn1.Coerce(fields[0], asn1.AsObjectIdentifier)
		if err != nil {
			return ContentInfo{}, fieldError("ContentInfo", "contentType", err)
		}
		content, err := explicitField(fields[1], 0, asAny)
		if err != nil {
			return ContentInfo{}, fieldError("ContentInfo", "content", err)
		}
		return ContentInfo{ContentType: contentType.OID(), Content: content}, nil
	},
}

// Value returns the ContentInfo as a SEQUENCE.
func (c ContentInfo) Value() (asn1.Value, error) {
	contentType, err := asn1.NewObjectIdentifier(c.ContentType)
	if err != nil {
		return nil, err
	}
	return asn1.NewSequence(contentType, asn1.NewExplicit(asn1.ClassContextSpecific, 0, c.Content)), nil
}

// EncapsulatedContentInfo ::= SEQUENCE {
//
//	eContentType    ContentType,
//	eContent        [0] EXPLICIT OCTET STRING   OPTIONAL }
type EncapsulatedContentInfo struct {
	ContentType encasn1.ObjectIdentifier

	// Content is nil for detached content.
	Content []byte
}

// AsEncapsulatedContentInfo converts a value to an EncapsulatedContentInfo.
var AsEncapsulatedContentInfo = asn1.Conversion[EncapsulatedContentInfo]{
	Name: "EncapsulatedContentInfo",
	Tag:  asn1.Universal(asn1.TagSequence),
	FromValue: func(v asn1.Value) (EncapsulatedContentInfo, error) {
		fields, err := asn1.Fields(v, "EncapsulatedContentInfo", 1, 2)
		if err != nil {
			return EncapsulatedContentInfo{}, err
		}
		contentType, _, err := asn1.Coerce(fields[0], asn1.AsObjectIdentifier)
		if err != nil {
			return EncapsulatedContentInfo{}, fieldError("EncapsulatedContentInfo", "eContentType", err)
		}
		info := EncapsulatedContentInfo{ContentType: contentType.OID()}
		if len(fields) == 2 {
			content, err := explicitField(fields[1], 0, asn1.AsOctetString)
			if err != nil {
				return EncapsulatedContentInfo{}, fieldError("EncapsulatedContentInfo", "eContent", err)
			}
			info.Content = content.Octets()
		}
		return info, nil
	},
}

// Value returns the EncapsulatedContentInfo as a SEQUENCE.
func (e EncapsulatedContentInfo) Value() (asn1.Value, error) {
	contentType, err := asn1.NewObjectIdentifier(e.ContentType)
	if err != nil {
		return nil, err
	}
	if e.Content == nil {
		return asn1.NewSequence(contentType), nil
	}
	return asn1.NewSequence(
		contentType,
		asn1.NewExplicit(asn1.ClassContextSpecific, 0, asn1.NewOctetString(e.Content)),
	), nil
}

// IssuerAndSerialNumber ::= SEQUENCE {
//
//	issuer          Name,
//	serialNumber    CertificateSerialNumber }
type IssuerAndSerialNumber struct {
	// Issuer is the DER encoded Name.
	Issuer       []byte
	SerialNumber *big.Int
}

// AsIssuerAndSerialNumber converts a value to an IssuerAndSerialNumber.
var AsIssuerAndSerialNumber = asn1.Conversion[IssuerAndSerialNumber]{
	Name: "IssuerAndSerialNumber",
	Tag:  asn1.Universal(asn1.TagSequence),
	FromValue: func(v asn1.Value) (IssuerAndSerialNumber, error) {
		fields, err := asn1.Fields(v, "IssuerAndSerialNumber", 2, 2)
		if err != nil {
			return IssuerAndSerialNumber{}, err
		}
		name, _, err := asn1.Coerce(fields[0], asn1.AsSequence)
		if err != nil {
			return IssuerAndSerialNumber{}, fieldError("IssuerAndSerialNumber", "issuer", err)
		}
		issuer, err := asn1.Marshal(name)
		if err != nil {
			return IssuerAndSerialNumber{}, err
		}
		serial, _, err := asn1.Coerce(fields[1], asn1.AsInteger)
		if err != nil {
			return IssuerAndSerialNumber{}, fieldError("IssuerAndSerialNumber", "serialNumber", err)
		}
		return IssuerAndSerialNumber{Issuer: issuer, SerialNumber: serial.BigInt()}, nil
	},
}

// Value returns the IssuerAndSerialNumber as a SEQUENCE.
func (i IssuerAndSerialNumber) Value() (asn1.Value, error) {
	name, err := rawValue(i.Issuer)
	if err != nil {
		return nil, err
	}
	return asn1.NewSequence(name, asn1.NewInteger(i.SerialNumber)), nil
}

// Attribute ::= SEQUENCE {
//
//	attrType    OBJECT IDENTIFIER,
//	attrValues  SET OF AttributeValue }
type Attribute struct {
	Type   encasn1.ObjectIdentifier
	Values []asn1.Value
}

// AsAttribute converts a value to an Attribute.
var AsAttribute = asn1.Conversion[Attribute]{
	Name: "Attribute",
	Tag:  asn1.Universal(asn1.TagSequence),
	FromValue: func(v asn1.Value) (Attribute, error) {
		fields, err := asn1.Fields(v, "Attribute", 2, 2)
		if err != nil {
			return Attribute{}, err
		}
		typ, _, err := asn1.Coerce(fields[0], asn1.AsObjectIdentifier)
		if err != nil {
			return Attribute{}, fieldError("Attribute", "attrType", err)
		}
		values, _, err := asn1.Coerce(fields[1], asn1.AsSet)
		if err != nil {
			return Attribute{}, fieldError("Attribute", "attrValues", err)
		}
		return Attribute{Type: typ.OID(), Values: values.Elements()}, nil
	},
}

// Value returns the Attribute as a SEQUENCE.
func (a Attribute) Value() (asn1.Value, error) {
	typ, err := asn1.NewObjectIdentifier(a.Type)
	if err != nil {
		return nil, err
	}
	return asn1.NewSequence(typ, asn1.NewSet(a.Values...)), nil
}

// Attributes ::= SET SIZE (1..MAX) OF Attribute
type Attributes []Attribute

// parseAttributes reads the attributes of a SET OF Attribute.
func parseAttributes(set asn1.Set) (Attributes, error) {
	var attrs Attributes
	for _, v := range set.Elements() {
		attr, _, err := asn1.Coerce(v, AsAttribute)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// TryGet returns the first value of the attribute with the given
// identifier.
func (a Attributes) TryGet(identifier encasn1.ObjectIdentifier) (asn1.Value, error) {
	for _, attribute := range a {
		if identifier.Equal(attribute.Type) {
			if len(attribute.Values) == 0 {
				return nil, fmt.Errorf("attribute %s has no value", identifier)
			}
			return attribute.Values[0], nil
		}
	}
	return nil, ErrAttributeNotFound
}

// Set returns the attributes as a DER SET.
func (a Attributes) Set() (asn1.Set, error) {
	values := make([]asn1.Value, 0, len(a))
	for _, attr := range a {
		v, err := attr.Value()
		if err != nil {
			return asn1.Set{}, err
		}
		values = append(values, v)
	}
	return asn1.NewSet(values...), nil
}

// explicitField converts an [number] EXPLICIT field.
func explicitField[T any](v asn1.Value, number int, conv asn1.Conversion[T]) (T, error) {
	var zero T
	t, ok := v.(asn1.Tagged)
	if !ok || t.Tag().Class != asn1.ClassContextSpecific || t.Tag().Number != number {
		return zero, &asn1.TypeMismatchError{
			Want: asn1.ContextSpecific(number, true).String(),
			Got:  asn1.VariantName(v),
		}
	}
	return asn1.CoerceTagged(t, true, conv)
}

// contextTag returns the number of a context specific tagged value, or -1.
func contextTag(v asn1.Value) int {
	t, ok := v.(asn1.Tagged)
	if !ok || t.Tag().Class != asn1.ClassContextSpecific {
		return -1
	}
	return t.Tag().Number
}

func fieldError(structure, field string, err error) error {
	return &asn1.SchemaViolationError{Structure: structure, Field: field, Detail: err}
}

// rawValue wraps a complete DER encoding as a value without decoding its
// content, so that it is re-emitted byte for byte.
func rawValue(der []byte) (asn1.Value, error) {
	r := bytes.NewReader(der)
	tag, _, err := asn1.ReadTag(r, true)
	if err != nil {
		return nil, err
	}
	length, _, err := asn1.ReadLength(r, true)
	if err != nil {
		return nil, err
	}
	if length != r.Len() {
		return nil, asn1.ErrTrailingData
	}
	return asn1.NewRaw(tag, der[len(der)-length:]), nil
}
