// Package pkix normalizes X.501 distinguished names so that names encoded
// with different string types or letter case compare equal.
package pkix

import (
	encasn1 "encoding/asn1"
	"encoding/hex"
	"strings"

	ldapv3 "github.com/go-ldap/ldap/v3"
	"github.com/notaryproject/cms-go/encoding/asn1"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// attributeNames maps attribute types to the short names of RFC 4514 3.
var attributeNames = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.5":                    "SERIALNUMBER",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.9":                    "STREET",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"0.9.2342.19200300.100.1.1":  "UID",
	"0.9.2342.19200300.100.1.25": "DC",
}

type attribute struct {
	typ   string
	value string
}

// NormalizeName parses a DER encoded Name and returns a key that is equal
// for names differing only in string type, letter case or insignificant
// spaces. The relative distinguished names keep their order.
//
// Malformed input fails with an *asn1.DecodeError.
func NormalizeName(raw []byte) (string, error) {
	rdns, err := parseName(raw)
	if err != nil {
		return "", err
	}
	dn, err := ldapv3.ParseDN(formatName(rdns))
	if err != nil {
		return "", &asn1.DecodeError{
			Kind:    asn1.MalformedContent,
			Message: "invalid distinguished name",
			Detail:  err,
		}
	}
	return canonical(dn), nil
}

// FormatName returns the RFC 4514 string form of a DER encoded Name.
func FormatName(raw []byte) (string, error) {
	rdns, err := parseName(raw)
	if err != nil {
		return "", err
	}
	return formatName(rdns), nil
}

func malformedName(msg string) error {
	return &asn1.DecodeError{Kind: asn1.MalformedContent, Message: msg}
}

// parseName walks Name ::= SEQUENCE OF SET OF AttributeTypeAndValue.
func parseName(raw []byte) ([][]attribute, error) {
	input := cryptobyte.String(raw)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, malformedName("invalid name")
	}
	var rdns [][]attribute
	for !seq.Empty() {
		var set cryptobyte.String
		if !seq.ReadASN1(&set, cbasn1.SET) {
			return nil, malformedName("invalid relative distinguished name")
		}
		var rdn []attribute
		for !set.Empty() {
			var atv, value cryptobyte.String
			var typ encasn1.ObjectIdentifier
			var tag cbasn1.Tag
			if !set.ReadASN1(&atv, cbasn1.SEQUENCE) ||
				!atv.ReadASN1ObjectIdentifier(&typ) ||
				!atv.ReadAnyASN1Element(&value, &tag) ||
				!atv.Empty() {
				return nil, malformedName("invalid attribute type and value")
			}
			v, err := attributeValue(value)
			if err != nil {
				return nil, err
			}
			rdn = append(rdn, attribute{typ: attributeType(typ), value: v})
		}
		if len(rdn) == 0 {
			return nil, malformedName("empty relative distinguished name")
		}
		rdns = append(rdns, rdn)
	}
	return rdns, nil
}

func attributeType(typ encasn1.ObjectIdentifier) string {
	if name, ok := attributeNames[typ.String()]; ok {
		return name
	}
	return typ.String()
}

// attributeValue renders a value as escaped text, or as '#' followed by the
// hex encoding when it is not a string.
func attributeValue(der []byte) (string, error) {
	v, err := asn1.Unmarshal(der)
	if err != nil {
		return "", err
	}
	if s, ok := v.(asn1.String); ok {
		return escape(s.Text()), nil
	}
	return "#" + hex.EncodeToString(der), nil
}

// formatName renders the RDNs in RFC 4514 order, last one first.
func formatName(rdns [][]attribute) string {
	parts := make([]string, 0, len(rdns))
	for i := len(rdns) - 1; i >= 0; i-- {
		atvs := make([]string, 0, len(rdns[i]))
		for _, a := range rdns[i] {
			atvs = append(atvs, a.typ+"="+a.value)
		}
		parts = append(parts, strings.Join(atvs, "+"))
	}
	return strings.Join(parts, ",")
}

func canonical(dn *ldapv3.DN) string {
	parts := make([]string, 0, len(dn.RDNs))
	for _, rdn := range dn.RDNs {
		atvs := make([]string, 0, len(rdn.Attributes))
		for _, a := range rdn.Attributes {
			value := strings.ToLower(strings.Join(strings.Fields(a.Value), " "))
			atvs = append(atvs, strings.ToUpper(a.Type)+"="+escape(value))
		}
		parts = append(parts, strings.Join(atvs, "+"))
	}
	return strings.Join(parts, ",")
}

// escape escapes the special characters of RFC 4514 2.4.
func escape(s string) string {
	var b strings.Builder
	for i, r := range s {
		special := strings.ContainsRune(",+\"\\<>;=", r) ||
			(i == 0 && (r == '#' || r == ' ')) ||
			(i == len(s)-1 && r == ' ')
		if special {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
