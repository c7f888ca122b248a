package asn1

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// StringKind selects one of the character string types. Its value is the
// universal tag number of the type.
type StringKind int

// String kinds.
const (
	UTF8String      StringKind = TagUTF8String
	NumericString   StringKind = TagNumericString
	PrintableString StringKind = TagPrintableString
	T61String       StringKind = TagT61String
	IA5String       StringKind = TagIA5String
	VisibleString   StringKind = TagVisibleString
	UniversalString StringKind = TagUniversalString
	BMPString       StringKind = TagBMPString
)

func (k StringKind) String() string {
	if name, ok := universalNames[int(k)]; ok && isStringKind(int(k)) {
		return name
	}
	return fmt.Sprintf("StringKind(%d)", int(k))
}

func isStringKind(number int) bool {
	switch StringKind(number) {
	case UTF8String, NumericString, PrintableString, T61String, IA5String,
		VisibleString, UniversalString, BMPString:
		return true
	}
	return false
}

// String is a character string value. It holds the encoded octets; Text
// decodes them according to the kind.
type String struct {
	kind   StringKind
	octets []byte
}

// NewString encodes text as a string of the given kind.
//
// T61String maps every code point in 0-255 to a single octet, without any
// check on control codes. Code points above 255 are rejected.
func NewString(kind StringKind, text string) (String, error) {
	var octets []byte
	switch kind {
	case UTF8String:
		if !utf8.ValidString(text) {
			return String{}, fmt.Errorf("asn1: invalid UTF-8 in %s", kind)
		}
		octets = []byte(text)
	case T61String:
		octets = make([]byte, 0, len(text))
		for _, r := range text {
			if r > 0xff {
				return String{}, fmt.Errorf("asn1: code point %U not representable in %s", r, kind)
			}
			octets = append(octets, byte(r))
		}
	case BMPString:
		for _, u := range utf16.Encode([]rune(text)) {
			octets = binary.BigEndian.AppendUint16(octets, u)
		}
	case UniversalString:
		for _, r := range text {
			octets = binary.BigEndian.AppendUint32(octets, uint32(r))
		}
	case NumericString, PrintableString, IA5String, VisibleString:
		octets = []byte(text)
	default:
		return String{}, fmt.Errorf("asn1: unknown string kind %d", int(kind))
	}
	return NewStringFromOctets(kind, octets)
}

// NewStringFromOctets returns a string of the given kind over encoded
// octets, validating them against the alphabet of the kind.
func NewStringFromOctets(kind StringKind, octets []byte) (String, error) {
	if !isStringKind(int(kind)) {
		return String{}, fmt.Errorf("asn1: unknown string kind %d", int(kind))
	}
	if err := validateString(kind, octets); err != nil {
		return String{}, err
	}
	return String{kind: kind, octets: clone(octets)}, nil
}

func validateString(kind StringKind, octets []byte) error {
	var ok func(byte) bool
	switch kind {
	case UTF8String:
		if !utf8.Valid(octets) {
			return malformed(MalformedContent, "invalid UTF-8 in %s", kind)
		}
		return nil
	case BMPString:
		if len(octets)%2 != 0 {
			return malformed(MalformedContent, "odd length %s", kind)
		}
		return nil
	case UniversalString:
		if len(octets)%4 != 0 {
			return malformed(MalformedContent, "invalid length %s", kind)
		}
		return nil
	case T61String:
		return nil
	case NumericString:
		ok = func(b byte) bool { return b == ' ' || ('0' <= b && b <= '9') }
	case PrintableString:
		ok = isPrintable
	case IA5String:
		ok = func(b byte) bool { return b < 0x80 }
	case VisibleString:
		ok = func(b byte) bool { return 0x20 <= b && b <= 0x7e }
	}
	for _, b := range octets {
		if !ok(b) {
			return malformed(MalformedContent, "invalid character %#02x in %s", b, kind)
		}
	}
	return nil
}

// isPrintable reports whether b is in the PrintableString alphabet.
func isPrintable(b byte) bool {
	return 'a' <= b && b <= 'z' ||
		'A' <= b && b <= 'Z' ||
		'0' <= b && b <= '9' ||
		'\'' <= b && b <= ')' ||
		'+' <= b && b <= '/' ||
		b == ' ' ||
		b == ':' ||
		b == '=' ||
		b == '?'
}

// Kind returns the string kind.
func (v String) Kind() StringKind { return v.kind }

// Octets returns the encoded octets.
func (v String) Octets() []byte { return clone(v.octets) }

// Text decodes the octets.
func (v String) Text() string {
	switch v.kind {
	case T61String:
		runes := make([]rune, len(v.octets))
		for i, b := range v.octets {
			runes[i] = rune(b)
		}
		return string(runes)
	case BMPString:
		units := make([]uint16, len(v.octets)/2)
		for i := range units {
			units[i] = binary.BigEndian.Uint16(v.octets[2*i:])
		}
		return string(utf16.Decode(units))
	case UniversalString:
		runes := make([]rune, len(v.octets)/4)
		for i := range runes {
			runes[i] = rune(binary.BigEndian.Uint32(v.octets[4*i:]))
		}
		return string(runes)
	}
	return string(v.octets)
}

// String returns the decoded text.
func (v String) String() string { return v.Text() }

func (v String) Tag() Tag                          { return Universal(int(v.kind)) }
func (v String) Encode(w ValueWriter) error        { return encode(w, v) }
func (v String) EncodedLen() int                   { return encodedLen(v) }
func (v String) contentLen() int                   { return len(v.octets) }
func (v String) encodeContent(w ValueWriter) error { _, err := w.Write(v.octets); return err }
