package asn1

import (
	"fmt"
	"io"
)

// Class is the class of a tag.
type Class uint8

// Tag classes as encoded in bits 8 and 7 of the identifier octet.
const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

func (c Class) String() string {
	switch c {
	case ClassUniversal:
		return "UNIVERSAL"
	case ClassApplication:
		return "APPLICATION"
	case ClassContextSpecific:
		return "CONTEXT"
	case ClassPrivate:
		return "PRIVATE"
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// Universal tag numbers.
const (
	TagEndOfContents   = 0
	TagBoolean         = 1
	TagInteger         = 2
	TagBitString       = 3
	TagOctetString     = 4
	TagNull            = 5
	TagOID             = 6
	TagEnumerated      = 10
	TagUTF8String      = 12
	TagSequence        = 16
	TagSet             = 17
	TagNumericString   = 18
	TagPrintableString = 19
	TagT61String       = 20
	TagIA5String       = 22
	TagUTCTime         = 23
	TagGeneralizedTime = 24
	TagVisibleString   = 26
	TagUniversalString = 28
	TagBMPString       = 30
)

// maxTagNumber keeps tag numbers within 31 bits.
const maxTagNumber = 1<<31 - 1

// Tag identifies an encoded value. It carries no meaning on its own; the
// type of the content is given by the context the tag appears in.
type Tag struct {
	Class       Class
	Constructed bool
	Number      int
}

// Universal returns a universal tag. SEQUENCE and SET are always
// constructed.
func Universal(number int) Tag {
	return Tag{
		Class:       ClassUniversal,
		Constructed: number == TagSequence || number == TagSet,
		Number:      number,
	}
}

// ContextSpecific returns a context-specific tag.
func ContextSpecific(number int, constructed bool) Tag {
	return Tag{Class: ClassContextSpecific, Constructed: constructed, Number: number}
}

// Is reports whether t and other have the same class and number, ignoring
// the constructed flag.
func (t Tag) Is(other Tag) bool {
	return t.Class == other.Class && t.Number == other.Number
}

// String returns a human readable form like "[CONTEXT 0]" or "SEQUENCE".
func (t Tag) String() string {
	if t.Class == ClassUniversal {
		if name, ok := universalNames[t.Number]; ok {
			return name
		}
	}
	return fmt.Sprintf("[%s %d]", t.Class, t.Number)
}

var universalNames = map[int]string{
	TagEndOfContents:   "END OF CONTENTS",
	TagBoolean:         "BOOLEAN",
	TagInteger:         "INTEGER",
	TagBitString:       "BIT STRING",
	TagOctetString:     "OCTET STRING",
	TagNull:            "NULL",
	TagOID:             "OBJECT IDENTIFIER",
	TagEnumerated:      "ENUMERATED",
	TagUTF8String:      "UTF8String",
	TagSequence:        "SEQUENCE",
	TagSet:             "SET",
	TagNumericString:   "NumericString",
	TagPrintableString: "PrintableString",
	TagT61String:       "T61String",
	TagIA5String:       "IA5String",
	TagUTCTime:         "UTCTime",
	TagGeneralizedTime: "GeneralizedTime",
	TagVisibleString:   "VisibleString",
	TagUniversalString: "UniversalString",
	TagBMPString:       "BMPString",
}

// EncodedLen returns the number of identifier octets of the tag.
func (t Tag) EncodedLen() int {
	if t.Number < 0x1f {
		return 1
	}
	n := 1
	for v := t.Number; v > 0; v >>= 7 {
		n++
	}
	return n
}

// Encode writes the identifier octets of the tag.
func (t Tag) Encode(w io.ByteWriter) error {
	b := byte(t.Class) << 6
	if t.Constructed {
		b |= 0x20
	}

	// low-tag-number form
	if t.Number < 0x1f {
		return w.WriteByte(b | byte(t.Number))
	}

	// high-tag-number form
	if err := w.WriteByte(b | 0x1f); err != nil {
		return err
	}
	for i := t.EncodedLen() - 2; i >= 0; i-- {
		o := byte(t.Number>>(7*i)) & 0x7f
		if i > 0 {
			o |= 0x80
		}
		if err := w.WriteByte(o); err != nil {
			return err
		}
	}
	return nil
}

// ReadTag decodes identifier octets and returns the tag with the number of
// octets consumed. A clean end of input before the first octet is reported
// as io.EOF. In strict mode the high-tag-number form is only accepted for
// numbers above 30.
func ReadTag(r io.ByteReader, strict bool) (Tag, int, error) {
	b, err := r.ReadByte()
	if err != nil {
		return Tag{}, 0, err
	}
	tag := Tag{
		Class:       Class(b >> 6),
		Constructed: b&0x20 != 0,
		Number:      int(b & 0x1f),
	}
	if tag.Number != 0x1f {
		return tag, 1, nil
	}

	// high-tag-number form
	consumed := 1
	number := 0
	for {
		b, err = r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return Tag{}, consumed, malformed(MalformedTag, "unterminated high-tag-number form")
			}
			return Tag{}, consumed, err
		}
		consumed++
		if consumed == 2 && b == 0x80 {
			return Tag{}, consumed, malformed(MalformedTag, "leading zero in tag number")
		}
		if number > maxTagNumber>>7 {
			return Tag{}, consumed, malformed(MalformedTag, "tag number too large")
		}
		number = number<<7 | int(b&0x7f)
		if b&0x80 == 0 {
			break
		}
	}
	if strict && number < 0x1f {
		return Tag{}, consumed, malformed(MalformedTag, "high-tag-number form used for tag %d", number)
	}
	tag.Number = number
	return tag, consumed, nil
}
