package asn1

import (
	"bytes"
	"sort"
)

// Sequence is a SEQUENCE value holding an ordered, possibly empty, list of
// elements.
type Sequence struct {
	elements []Value
	length   int
}

// NewSequence returns a SEQUENCE of the given elements.
func NewSequence(elements ...Value) Sequence {
	return Sequence{
		elements: append([]Value(nil), elements...),
		length:   sumEncodedLen(elements),
	}
}

// Elements returns the elements in order.
func (v Sequence) Elements() []Value { return append([]Value(nil), v.elements...) }

// Len returns the number of elements.
func (v Sequence) Len() int { return len(v.elements) }

// At returns the element at index i.
func (v Sequence) At(i int) Value { return v.elements[i] }

func (v Sequence) Tag() Tag                          { return Universal(TagSequence) }
func (v Sequence) Encode(w ValueWriter) error        { return encode(w, v) }
func (v Sequence) EncodedLen() int                   { return encodedLen(v) }
func (v Sequence) contentLen() int                   { return v.length }
func (v Sequence) encodeContent(w ValueWriter) error { return encodeAll(w, v.elements) }

// Set is a SET or SET OF value. Elements are kept in DER order, sorted by
// their encodings.
type Set struct {
	elements []Value
	length   int
}

// NewSet returns a SET of the given elements.
func NewSet(elements ...Value) Set {
	sorted, _ := sortByEncoding(elements)
	return Set{
		elements: sorted,
		length:   sumEncodedLen(sorted),
	}
}

// sortByEncoding returns the elements in DER SET OF order and whether the
// input already was in that order.
func sortByEncoding(elements []Value) ([]Value, bool) {
	type keyed struct {
		v   Value
		der []byte
	}
	items := make([]keyed, len(elements))
	for i, e := range elements {
		der, _ := Marshal(e)
		items[i] = keyed{v: e, der: der}
	}
	inOrder := sort.SliceIsSorted(items, func(i, j int) bool {
		return bytes.Compare(items[i].der, items[j].der) < 0
	})
	sort.SliceStable(items, func(i, j int) bool {
		return bytes.Compare(items[i].der, items[j].der) < 0
	})
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = item.v
	}
	return out, inOrder
}

// Elements returns the elements in DER order.
func (v Set) Elements() []Value { return append([]Value(nil), v.elements...) }

// Len returns the number of elements.
func (v Set) Len() int { return len(v.elements) }

func (v Set) Tag() Tag                          { return Universal(TagSet) }
func (v Set) Encode(w ValueWriter) error        { return encode(w, v) }
func (v Set) EncodedLen() int                   { return encodedLen(v) }
func (v Set) contentLen() int                   { return v.length }
func (v Set) encodeContent(w ValueWriter) error { return encodeAll(w, v.elements) }

func sumEncodedLen(elements []Value) int {
	n := 0
	for _, e := range elements {
		n += e.EncodedLen()
	}
	return n
}

func encodeAll(w ValueWriter, elements []Value) error {
	for _, e := range elements {
		if err := e.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// Tagged wraps a value in a context-specific, application or private tag.
//
// Explicit tagging adds a constructed tag layer around the full encoding of
// the inner value. Implicit tagging replaces the identifier of the inner
// value and reuses its content octets unchanged.
type Tagged struct {
	class    Class
	number   int
	explicit bool
	inner    Value
}

// NewExplicit returns inner explicitly tagged with [class number].
func NewExplicit(class Class, number int, inner Value) Tagged {
	return Tagged{class: class, number: number, explicit: true, inner: inner}
}

// NewImplicit returns inner implicitly tagged with [class number].
func NewImplicit(class Class, number int, inner Value) Tagged {
	return Tagged{class: class, number: number, inner: inner}
}

// Explicit reports whether the value is explicitly tagged.
func (v Tagged) Explicit() bool { return v.explicit }

// Inner returns the wrapped value. For values decoded from the wire the
// inner value is only a best guess, see Decode; use CoerceTagged to read it
// as a specific type.
func (v Tagged) Inner() Value { return v.inner }

// Content returns the content octets of the tagged value: the full encoding
// of the inner value when explicit, its content octets when implicit.
func (v Tagged) Content() []byte {
	return content(v)
}

func (v Tagged) Tag() Tag {
	return Tag{
		Class:       v.class,
		Constructed: v.explicit || v.inner.Tag().Constructed,
		Number:      v.number,
	}
}

func (v Tagged) Encode(w ValueWriter) error { return encode(w, v) }
func (v Tagged) EncodedLen() int            { return encodedLen(v) }

func (v Tagged) contentLen() int {
	if v.explicit {
		return v.inner.EncodedLen()
	}
	return v.inner.contentLen()
}

func (v Tagged) encodeContent(w ValueWriter) error {
	if v.explicit {
		return v.inner.Encode(w)
	}
	return v.inner.encodeContent(w)
}

// Raw is a value of a universal type without a dedicated variant, kept with
// its tag and DER content octets.
type Raw struct {
	tag     Tag
	content []byte
}

// NewRaw returns a value with the given tag and content octets.
func NewRaw(tag Tag, content []byte) Raw {
	return Raw{tag: tag, content: clone(content)}
}

// Bytes returns the content octets.
func (v Raw) Bytes() []byte { return clone(v.content) }

func (v Raw) Tag() Tag                          { return v.tag }
func (v Raw) Encode(w ValueWriter) error        { return encode(w, v) }
func (v Raw) EncodedLen() int                   { return encodedLen(v) }
func (v Raw) contentLen() int                   { return len(v.content) }
func (v Raw) encodeContent(w ValueWriter) error { _, err := w.Write(v.content); return err }
