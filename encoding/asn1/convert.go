package asn1

import (
	"bytes"
	"fmt"
)

// Shape reports which kind of input Coerce matched.
type Shape int

const (
	// ShapeSelf means the input already had the target type.
	ShapeSelf Shape = iota + 1

	// ShapeValue means the input was a decoded Value converted structurally.
	ShapeValue

	// ShapeBytes means the input was an encoding that was decoded first.
	ShapeBytes
)

func (s Shape) String() string {
	switch s {
	case ShapeSelf:
		return "self"
	case ShapeValue:
		return "value"
	case ShapeBytes:
		return "bytes"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Conversion describes how a Value becomes a T.
type Conversion[T any] struct {
	// Name is the name of T used in errors.
	Name string

	// Tag is the native tag of T, used to reinterpret implicitly tagged
	// content.
	Tag Tag

	// FromValue converts a decoded value. It must not return a partially
	// populated T together with an error.
	FromValue func(Value) (T, error)
}

// Coerce converts input to a T. The input may be a T, which is returned
// unchanged, a Value, which is converted structurally, or a []byte holding
// an encoding, which is decoded and then converted. Any other input fails
// with a *TypeMismatchError.
func Coerce[T any](input any, conv Conversion[T]) (T, Shape, error) {
	var zero T
	switch x := input.(type) {
	case T:
		return x, ShapeSelf, nil
	case Value:
		v, err := conv.FromValue(x)
		if err != nil {
			return zero, 0, err
		}
		return v, ShapeValue, nil
	case []byte:
		val, err := Unmarshal(x)
		if err != nil {
			return zero, 0, err
		}
		v, err := conv.FromValue(val)
		if err != nil {
			return zero, 0, err
		}
		return v, ShapeBytes, nil
	}
	return zero, 0, &TypeMismatchError{Want: conv.Name, Got: fmt.Sprintf("%T", input)}
}

// CoerceTagged converts the value wrapped by t to a T.
//
// With explicit set, one tag layer is removed and the inner value is
// converted. Otherwise the content octets of t are read as the native
// encoding of T, unchanged.
func CoerceTagged[T any](t Tagged, explicit bool, conv Conversion[T]) (T, error) {
	var zero T
	if t.inner == nil {
		return zero, &TypeMismatchError{Want: conv.Name, Got: "empty tagged value"}
	}
	if explicit {
		inner := t.inner
		if !t.explicit {
			// decoded from the wire as implicit: the content must hold
			// exactly one value
			v, err := Unmarshal(t.Content())
			if err != nil {
				return zero, &TypeMismatchError{Want: conv.Name, Got: VariantName(t)}
			}
			inner = v
		}
		v, _, err := Coerce(inner, conv)
		return v, err
	}

	tag := conv.Tag
	tag.Constructed = t.Tag().Constructed
	body := t.Content()
	var buf bytes.Buffer
	buf.Grow(tag.EncodedLen() + encodedLengthSize(len(body)) + len(body))
	// writes to a bytes.Buffer do not fail
	_ = tag.Encode(&buf)
	_ = encodeLength(&buf, len(body))
	buf.Write(body)
	v, _, err := Coerce(buf.Bytes(), conv)
	return v, err
}

// variant returns a converter accepting values of the variant V only.
func variant[V Value](name string) func(Value) (V, error) {
	return func(v Value) (V, error) {
		if x, ok := v.(V); ok {
			return x, nil
		}
		var zero V
		return zero, &TypeMismatchError{Want: name, Got: VariantName(v)}
	}
}

// Built-in conversions.
var (
	AsBoolean = Conversion[Boolean]{
		Name:      "BOOLEAN",
		Tag:       Universal(TagBoolean),
		FromValue: variant[Boolean]("BOOLEAN"),
	}
	AsInteger = Conversion[Integer]{
		Name:      "INTEGER",
		Tag:       Universal(TagInteger),
		FromValue: variant[Integer]("INTEGER"),
	}
	AsBitString = Conversion[BitString]{
		Name:      "BIT STRING",
		Tag:       Universal(TagBitString),
		FromValue: variant[BitString]("BIT STRING"),
	}
	AsOctetString = Conversion[OctetString]{
		Name:      "OCTET STRING",
		Tag:       Universal(TagOctetString),
		FromValue: variant[OctetString]("OCTET STRING"),
	}
	AsNull = Conversion[Null]{
		Name:      "NULL",
		Tag:       Universal(TagNull),
		FromValue: variant[Null]("NULL"),
	}
	AsObjectIdentifier = Conversion[ObjectIdentifier]{
		Name:      "OBJECT IDENTIFIER",
		Tag:       Universal(TagOID),
		FromValue: variant[ObjectIdentifier]("OBJECT IDENTIFIER"),
	}
	AsSequence = Conversion[Sequence]{
		Name:      "SEQUENCE",
		Tag:       Universal(TagSequence),
		FromValue: variant[Sequence]("SEQUENCE"),
	}
	AsSet = Conversion[Set]{
		Name:      "SET",
		Tag:       Universal(TagSet),
		FromValue: variant[Set]("SET"),
	}
	AsTime = Conversion[Time]{
		Name:      "Time",
		Tag:       Universal(TagGeneralizedTime),
		FromValue: variant[Time]("Time"),
	}
)

// AsString returns the conversion to a string of the given kind.
func AsString(kind StringKind) Conversion[String] {
	return Conversion[String]{
		Name: kind.String(),
		Tag:  Universal(int(kind)),
		FromValue: func(v Value) (String, error) {
			s, ok := v.(String)
			if !ok || s.kind != kind {
				return String{}, &TypeMismatchError{Want: kind.String(), Got: VariantName(v)}
			}
			return s, nil
		},
	}
}

// Fields returns the elements of the SEQUENCE v, requiring between min and
// max of them. A negative max means no upper bound.
func Fields(v Value, structure string, min, max int) ([]Value, error) {
	seq, ok := v.(Sequence)
	if !ok {
		return nil, &TypeMismatchError{Want: structure, Got: VariantName(v)}
	}
	if n := len(seq.elements); n < min || (max >= 0 && n > max) {
		return nil, &SchemaViolationError{
			Structure: structure,
			Detail:    fmt.Errorf("unexpected number of fields %d", n),
		}
	}
	return seq.Elements(), nil
}
