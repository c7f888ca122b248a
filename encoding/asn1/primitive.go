package asn1

import (
	encasn1 "encoding/asn1"
	"errors"
	"math/big"
)

// Boolean is a BOOLEAN value.
type Boolean struct {
	value bool
}

// NewBoolean returns a BOOLEAN value.
func NewBoolean(b bool) Boolean { return Boolean{value: b} }

// Bool returns the boolean.
func (v Boolean) Bool() bool { return v.value }

func (v Boolean) Tag() Tag                   { return Universal(TagBoolean) }
func (v Boolean) Encode(w ValueWriter) error { return encode(w, v) }
func (v Boolean) EncodedLen() int            { return encodedLen(v) }
func (v Boolean) contentLen() int            { return 1 }

func (v Boolean) encodeContent(w ValueWriter) error {
	// DER restriction: TRUE is encoded as 0xff
	if v.value {
		return w.WriteByte(0xff)
	}
	return w.WriteByte(0x00)
}

func decodeBoolean(content []byte, strict bool) (Boolean, error) {
	if len(content) != 1 {
		return Boolean{}, malformed(MalformedContent, "invalid boolean length %d", len(content))
	}
	switch content[0] {
	case 0x00:
		return Boolean{}, nil
	case 0xff:
		return Boolean{value: true}, nil
	}
	if strict {
		return Boolean{}, malformed(MalformedContent, "boolean must be 0x00 or 0xff in DER")
	}
	return Boolean{value: true}, nil
}

// Integer is an INTEGER value held as minimal two's complement octets.
type Integer struct {
	content []byte
}

// NewInteger returns an INTEGER value.
func NewInteger(n *big.Int) Integer {
	return Integer{content: twosComplement(n)}
}

// NewInt64 returns an INTEGER value.
func NewInt64(n int64) Integer {
	return NewInteger(big.NewInt(n))
}

// twosComplement returns the minimal two's complement encoding of n.
func twosComplement(n *big.Int) []byte {
	switch n.Sign() {
	case 0:
		return []byte{0x00}
	case 1:
		b := n.Bytes()
		if b[0]&0x80 != 0 {
			// a leading zero keeps the value positive
			b = append([]byte{0x00}, b...)
		}
		return b
	}

	// -n - 1 has the bits of the complement
	m := new(big.Int).Neg(n)
	m.Sub(m, big.NewInt(1))
	b := m.Bytes()
	for i := range b {
		b[i] ^= 0xff
	}
	if len(b) == 0 || b[0]&0x80 == 0 {
		b = append([]byte{0xff}, b...)
	}
	return b
}

// BigInt returns the integer.
func (v Integer) BigInt() *big.Int {
	n := new(big.Int).SetBytes(v.content)
	if len(v.content) > 0 && v.content[0]&0x80 != 0 {
		// negative: subtract 2^(8*len)
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(v.content))*8))
	}
	return n
}

// Int64 returns the integer if it fits 64 bits.
func (v Integer) Int64() (int64, error) {
	n := v.BigInt()
	if !n.IsInt64() {
		return 0, errors.New("asn1: integer too large")
	}
	return n.Int64(), nil
}

// Bytes returns the two's complement content octets.
func (v Integer) Bytes() []byte { return clone(v.content) }

func (v Integer) Tag() Tag                          { return Universal(TagInteger) }
func (v Integer) Encode(w ValueWriter) error        { return encode(w, v) }
func (v Integer) EncodedLen() int                   { return encodedLen(v) }
func (v Integer) contentLen() int                   { return len(v.content) }
func (v Integer) encodeContent(w ValueWriter) error { _, err := w.Write(v.content); return err }

func decodeInteger(content []byte, strict bool) (Integer, error) {
	if len(content) == 0 {
		return Integer{}, malformed(MalformedContent, "empty integer")
	}
	redundant := len(content) > 1 &&
		((content[0] == 0x00 && content[1]&0x80 == 0) ||
			(content[0] == 0xff && content[1]&0x80 != 0))
	if redundant {
		if strict {
			return Integer{}, malformed(MalformedContent, "integer not minimally encoded")
		}
		return NewInteger(Integer{content: content}.BigInt()), nil
	}
	return Integer{content: clone(content)}, nil
}

// BitString is a BIT STRING value.
type BitString struct {
	bytes     []byte
	bitLength int
}

// NewBitString returns a BIT STRING of bitLength bits taken from b. Unused
// trailing bits are cleared.
func NewBitString(b []byte, bitLength int) BitString {
	if bitLength < 0 || bitLength > len(b)*8 {
		bitLength = len(b) * 8
	}
	n := (bitLength + 7) / 8
	out := clone(b[:n])
	if unused := n*8 - bitLength; unused > 0 {
		out[n-1] &= 0xff << unused
	}
	return BitString{bytes: out, bitLength: bitLength}
}

// Bytes returns the bits, packed from the most significant bit.
func (v BitString) Bytes() []byte { return clone(v.bytes) }

// BitLength returns the number of bits.
func (v BitString) BitLength() int { return v.bitLength }

// At returns the bit at index i, or 0 if out of range.
func (v BitString) At(i int) int {
	if i < 0 || i >= v.bitLength {
		return 0
	}
	return int(v.bytes[i/8]>>(7-uint(i%8))) & 1
}

func (v BitString) Tag() Tag                   { return Universal(TagBitString) }
func (v BitString) Encode(w ValueWriter) error { return encode(w, v) }
func (v BitString) EncodedLen() int            { return encodedLen(v) }
func (v BitString) contentLen() int            { return 1 + len(v.bytes) }

func (v BitString) encodeContent(w ValueWriter) error {
	if err := w.WriteByte(byte(len(v.bytes)*8 - v.bitLength)); err != nil {
		return err
	}
	_, err := w.Write(v.bytes)
	return err
}

func decodeBitString(content []byte, strict bool) (BitString, error) {
	if len(content) == 0 {
		return BitString{}, malformed(MalformedContent, "empty bit string")
	}
	unused := int(content[0])
	if unused > 7 || (len(content) == 1 && unused > 0) {
		return BitString{}, malformed(MalformedContent, "invalid padding bits in bit string")
	}
	data := content[1:]
	if strict && unused > 0 && data[len(data)-1]&(1<<unused-1) != 0 {
		return BitString{}, malformed(MalformedContent, "non-zero padding bits in DER bit string")
	}
	return NewBitString(data, len(data)*8-unused), nil
}

// OctetString is an OCTET STRING value.
type OctetString struct {
	octets []byte
}

// NewOctetString returns an OCTET STRING holding a copy of b.
func NewOctetString(b []byte) OctetString { return OctetString{octets: clone(b)} }

// Octets returns the octets.
func (v OctetString) Octets() []byte { return clone(v.octets) }

func (v OctetString) Tag() Tag                          { return Universal(TagOctetString) }
func (v OctetString) Encode(w ValueWriter) error        { return encode(w, v) }
func (v OctetString) EncodedLen() int                   { return encodedLen(v) }
func (v OctetString) contentLen() int                   { return len(v.octets) }
func (v OctetString) encodeContent(w ValueWriter) error { _, err := w.Write(v.octets); return err }

// Null is the NULL value.
type Null struct{}

func (v Null) Tag() Tag                        { return Universal(TagNull) }
func (v Null) Encode(w ValueWriter) error      { return encode(w, v) }
func (v Null) EncodedLen() int                 { return encodedLen(v) }
func (v Null) contentLen() int                 { return 0 }
func (v Null) encodeContent(ValueWriter) error { return nil }

// ObjectIdentifier is an OBJECT IDENTIFIER value.
type ObjectIdentifier struct {
	oid encasn1.ObjectIdentifier
}

// NewObjectIdentifier returns an OBJECT IDENTIFIER value. The first arc must
// be 0, 1 or 2 and the second arc below 40 unless the first is 2.
func NewObjectIdentifier(oid encasn1.ObjectIdentifier) (ObjectIdentifier, error) {
	if len(oid) < 2 || oid[0] < 0 || oid[0] > 2 || oid[1] < 0 || (oid[0] < 2 && oid[1] >= 40) {
		return ObjectIdentifier{}, errors.New("asn1: invalid object identifier " + oid.String())
	}
	for _, arc := range oid[2:] {
		if arc < 0 {
			return ObjectIdentifier{}, errors.New("asn1: invalid object identifier " + oid.String())
		}
	}
	return ObjectIdentifier{oid: append(encasn1.ObjectIdentifier(nil), oid...)}, nil
}

// MustObjectIdentifier is like NewObjectIdentifier but panics on invalid
// input. It is meant for package level OID tables.
func MustObjectIdentifier(oid encasn1.ObjectIdentifier) ObjectIdentifier {
	v, err := NewObjectIdentifier(oid)
	if err != nil {
		panic(err)
	}
	return v
}

// OID returns the arcs of the identifier.
func (v ObjectIdentifier) OID() encasn1.ObjectIdentifier {
	return append(encasn1.ObjectIdentifier(nil), v.oid...)
}

// String returns the dotted form.
func (v ObjectIdentifier) String() string { return v.oid.String() }

func (v ObjectIdentifier) Tag() Tag                   { return Universal(TagOID) }
func (v ObjectIdentifier) Encode(w ValueWriter) error { return encode(w, v) }
func (v ObjectIdentifier) EncodedLen() int            { return encodedLen(v) }

func (v ObjectIdentifier) contentLen() int {
	if len(v.oid) < 2 {
		return 0
	}
	n := base128Len(v.oid[0]*40 + v.oid[1])
	for _, arc := range v.oid[2:] {
		n += base128Len(arc)
	}
	return n
}

func (v ObjectIdentifier) encodeContent(w ValueWriter) error {
	if len(v.oid) < 2 {
		return nil
	}
	if err := writeBase128(w, v.oid[0]*40+v.oid[1]); err != nil {
		return err
	}
	for _, arc := range v.oid[2:] {
		if err := writeBase128(w, arc); err != nil {
			return err
		}
	}
	return nil
}

func base128Len(n int) int {
	if n == 0 {
		return 1
	}
	l := 0
	for ; n > 0; n >>= 7 {
		l++
	}
	return l
}

func writeBase128(w ValueWriter, n int) error {
	for i := base128Len(n) - 1; i >= 0; i-- {
		o := byte(n>>(7*i)) & 0x7f
		if i > 0 {
			o |= 0x80
		}
		if err := w.WriteByte(o); err != nil {
			return err
		}
	}
	return nil
}

func decodeObjectIdentifier(content []byte) (ObjectIdentifier, error) {
	if len(content) == 0 {
		return ObjectIdentifier{}, malformed(MalformedContent, "empty object identifier")
	}
	var arcs []int
	for i := 0; i < len(content); {
		// X.690 8.19.2: no leading 0x80 octet in a subidentifier
		if content[i] == 0x80 {
			return ObjectIdentifier{}, malformed(MalformedContent, "object identifier arc not minimally encoded")
		}
		arc := 0
		for {
			if i >= len(content) {
				return ObjectIdentifier{}, malformed(MalformedContent, "truncated object identifier")
			}
			if arc > maxTagNumber>>7 {
				return ObjectIdentifier{}, malformed(MalformedContent, "object identifier arc too large")
			}
			b := content[i]
			i++
			arc = arc<<7 | int(b&0x7f)
			if b&0x80 == 0 {
				break
			}
		}
		if len(arcs) == 0 {
			switch {
			case arc < 40:
				arcs = append(arcs, 0, arc)
			case arc < 80:
				arcs = append(arcs, 1, arc-40)
			default:
				arcs = append(arcs, 2, arc-80)
			}
			continue
		}
		arcs = append(arcs, arc)
	}
	return ObjectIdentifier{oid: arcs}, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return append([]byte{}, b...)
}
