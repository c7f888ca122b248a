package asn1

import (
	"bytes"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Value represents an ASN.1 value.
//
// The set of implementations is closed: Boolean, Integer, BitString,
// OctetString, Null, ObjectIdentifier, String, Time, Sequence, Set, Tagged and
// Raw. Values are immutable once constructed.
type Value interface {
	// Tag returns the identifier the value is encoded with.
	Tag() Tag

	// Encode encodes the value to the value writer in DER.
	Encode(ValueWriter) error

	// EncodedLen returns the length in bytes of the encoded data.
	EncodedLen() int

	contentLen() int
	encodeContent(ValueWriter) error
}

// encode writes identifier, length and content octets of v.
func encode(w ValueWriter, v Value) error {
	if err := v.Tag().Encode(w); err != nil {
		return err
	}
	if err := encodeLength(w, v.contentLen()); err != nil {
		return err
	}
	return v.encodeContent(w)
}

// encodedLen returns the full encoded size of v.
func encodedLen(v Value) int {
	n := v.contentLen()
	return v.Tag().EncodedLen() + encodedLengthSize(n) + n
}

// Marshal returns the DER encoding of v.
func Marshal(v Value) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, v.EncodedLen()))
	if err := v.Encode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// content returns the DER content octets of v.
func content(v Value) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, v.contentLen()))
	// writes to a bytes.Buffer do not fail
	_ = v.encodeContent(buf)
	return buf.Bytes()
}

// Equal reports whether a and b have the same decoded content. Incidental
// construction choices, such as building a string from octets or from text,
// do not affect the result.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x.value == y.value
	case Integer:
		y, ok := b.(Integer)
		return ok && bytes.Equal(x.content, y.content)
	case BitString:
		y, ok := b.(BitString)
		return ok && x.bitLength == y.bitLength && bytes.Equal(x.bytes, y.bytes)
	case OctetString:
		y, ok := b.(OctetString)
		return ok && bytes.Equal(x.octets, y.octets)
	case Null:
		_, ok := b.(Null)
		return ok
	case ObjectIdentifier:
		y, ok := b.(ObjectIdentifier)
		return ok && x.oid.Equal(y.oid)
	case String:
		y, ok := b.(String)
		return ok && x.kind == y.kind && bytes.Equal(x.octets, y.octets)
	case Time:
		y, ok := b.(Time)
		return ok && x.kind == y.kind && x.t.Equal(y.t)
	case Sequence:
		y, ok := b.(Sequence)
		return ok && equalElements(x.elements, y.elements)
	case Set:
		y, ok := b.(Set)
		return ok && equalElements(x.elements, y.elements)
	case Tagged:
		y, ok := b.(Tagged)
		return ok && x.Tag() == y.Tag() && bytes.Equal(x.Content(), y.Content())
	case Raw:
		y, ok := b.(Raw)
		return ok && x.tag == y.tag && bytes.Equal(x.content, y.content)
	}
	panic(fmt.Sprintf("asn1: unknown value type %T", a))
}

func equalElements(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Hash returns a hash of the content of v. Values reported equal by Equal
// have the same hash.
func Hash(v Value) uint64 {
	d := xxhash.New()
	// writes to a digest do not fail
	_ = v.Encode(hashWriter{d})
	return d.Sum64()
}

type hashWriter struct {
	*xxhash.Digest
}

func (h hashWriter) WriteByte(c byte) error {
	_, err := h.Write([]byte{c})
	return err
}

// VariantName returns the name of the runtime variant of v, used in error
// messages.
func VariantName(v Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case String:
		return x.kind.String()
	case Time:
		return universalNames[int(x.kind)]
	case Tagged:
		if x.explicit {
			return x.Tag().String() + " EXPLICIT"
		}
		return x.Tag().String() + " IMPLICIT"
	case Raw:
		return "raw " + x.tag.String()
	}
	return universalNames[v.Tag().Number]
}
