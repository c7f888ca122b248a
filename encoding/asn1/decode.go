package asn1

import (
	"bytes"
	"errors"
	"io"
)

// DefaultMaxDepth is the nesting limit used when DecodeOptions.MaxDepth is
// not set.
const DefaultMaxDepth = 64

// DecodeOptions controls decoding.
type DecodeOptions struct {
	// Strict accepts DER only. Otherwise BER is accepted: indefinite lengths,
	// constructed strings and non-minimal forms.
	Strict bool

	// MaxDepth bounds the nesting of constructed values.
	MaxDepth int
}

func (o DecodeOptions) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Unmarshal decodes exactly one BER encoded value from data.
func Unmarshal(data []byte) (Value, error) {
	return UnmarshalWithOptions(data, DecodeOptions{})
}

// UnmarshalStrict decodes exactly one DER encoded value from data. Any
// representation other than the canonical one is rejected.
func UnmarshalStrict(data []byte) (Value, error) {
	return UnmarshalWithOptions(data, DecodeOptions{Strict: true})
}

// UnmarshalWithOptions decodes exactly one value from data.
func UnmarshalWithOptions(data []byte, opts DecodeOptions) (Value, error) {
	d := decoder{opts: opts}
	v, n, eoc, err := d.next(data, 0)
	if err != nil {
		return nil, err
	}
	if eoc {
		return nil, malformed(MalformedTag, "unexpected end-of-contents")
	}
	if n != len(data) {
		return nil, ErrTrailingData
	}
	return v, nil
}

// Decode reads one value from r and decodes it. It returns io.EOF if r is
// empty.
func Decode(r io.Reader, opts DecodeOptions) (Value, error) {
	raw, err := readElement(NewValueReader(r), opts)
	if err != nil {
		return nil, err
	}
	return UnmarshalWithOptions(raw, opts)
}

// ConvertToDER converts BER encoded data to DER encoded data.
//
// Constructed strings are flattened, indefinite lengths resolved and SET
// elements sorted.
func ConvertToDER(ber []byte) ([]byte, error) {
	v, err := Unmarshal(ber)
	if err != nil {
		return nil, err
	}
	return Marshal(v)
}

type decoder struct {
	opts DecodeOptions
}

// next decodes the value at the start of data and returns it with the
// number of bytes consumed. eoc reports an end-of-contents marker.
func (d decoder) next(data []byte, depth int) (v Value, n int, eoc bool, err error) {
	if depth > d.opts.maxDepth() {
		return nil, 0, false, ErrTooDeep
	}
	r := bytes.NewReader(data)
	tag, tagLen, err := ReadTag(r, d.opts.Strict)
	if err != nil {
		if err == io.EOF {
			return nil, 0, false, ErrEarlyEOF
		}
		return nil, 0, false, err
	}
	length, lengthLen, err := ReadLength(r, d.opts.Strict)
	if err != nil {
		return nil, 0, false, err
	}
	header := tagLen + lengthLen

	if tag.Class == ClassUniversal && tag.Number == TagEndOfContents {
		if tag.Constructed || length != 0 {
			return nil, 0, false, malformed(MalformedLength, "invalid end-of-contents")
		}
		return nil, header, true, nil
	}

	var body []byte
	var children []Value
	if length == IndefiniteLength {
		if !tag.Constructed {
			return nil, 0, false, malformed(MalformedLength, "indefinite length on primitive value")
		}
		n = header
		for {
			child, childLen, childEOC, err := d.next(data[n:], depth+1)
			if err != nil {
				return nil, 0, false, err
			}
			n += childLen
			if childEOC {
				break
			}
			children = append(children, child)
		}
	} else {
		if length > len(data)-header {
			return nil, 0, false, ErrEarlyEOF
		}
		n = header + length
		body = data[header:n]
		if tag.Constructed {
			if children, err = d.children(body, depth+1); err != nil {
				return nil, 0, false, err
			}
		}
	}

	v, err = d.build(tag, body, children)
	if err != nil {
		return nil, 0, false, err
	}
	return v, n, false, nil
}

// children decodes the members of a definite length constructed value.
func (d decoder) children(body []byte, depth int) ([]Value, error) {
	var values []Value
	for len(body) > 0 {
		v, n, eoc, err := d.next(body, depth)
		if err != nil {
			return nil, err
		}
		if eoc {
			return nil, malformed(MalformedTag, "end-of-contents in definite length value")
		}
		values = append(values, v)
		body = body[n:]
	}
	return values, nil
}

func (d decoder) build(tag Tag, body []byte, children []Value) (Value, error) {
	if tag.Class != ClassUniversal {
		switch {
		case !tag.Constructed:
			return NewImplicit(tag.Class, tag.Number, OctetString{octets: clone(body)}), nil
		case len(children) == 1:
			return NewExplicit(tag.Class, tag.Number, children[0]), nil
		default:
			return NewImplicit(tag.Class, tag.Number, NewSequence(children...)), nil
		}
	}

	if tag.Constructed {
		switch {
		case tag.Number == TagSequence:
			return NewSequence(children...), nil
		case tag.Number == TagSet:
			sorted, inOrder := sortByEncoding(children)
			if d.opts.Strict && !inOrder {
				return nil, malformed(MalformedContent, "SET elements not in DER order")
			}
			return Set{elements: sorted, length: sumEncodedLen(sorted)}, nil
		case tag.Number == TagOctetString || tag.Number == TagBitString || isStringKind(tag.Number):
			if d.opts.Strict {
				return nil, ErrExpectPrimitive
			}
			return flatten(tag.Number, children)
		}
		var buf bytes.Buffer
		if err := encodeAll(&buf, children); err != nil {
			return nil, err
		}
		return Raw{tag: tag, content: buf.Bytes()}, nil
	}

	switch tag.Number {
	case TagSequence, TagSet:
		return nil, ErrExpectConstructed
	case TagBoolean:
		return decodeBoolean(body, d.opts.Strict)
	case TagInteger:
		return decodeInteger(body, d.opts.Strict)
	case TagBitString:
		return decodeBitString(body, d.opts.Strict)
	case TagOctetString:
		return NewOctetString(body), nil
	case TagNull:
		if len(body) != 0 {
			return nil, malformed(MalformedContent, "non-empty NULL")
		}
		return Null{}, nil
	case TagOID:
		return decodeObjectIdentifier(body)
	case TagUTCTime:
		return decodeTime(UTCTime, body, d.opts.Strict)
	case TagGeneralizedTime:
		return decodeTime(GeneralizedTime, body, d.opts.Strict)
	}
	if isStringKind(tag.Number) {
		return NewStringFromOctets(StringKind(tag.Number), body)
	}
	return Raw{tag: tag, content: clone(body)}, nil
}

// flatten joins the segments of a BER constructed string.
func flatten(number int, segments []Value) (Value, error) {
	var octets []byte
	bitLength := 0
	for i, seg := range segments {
		switch s := seg.(type) {
		case OctetString:
			if number != TagOctetString {
				return nil, malformed(MalformedContent, "OCTET STRING segment in %s", Universal(number))
			}
			octets = append(octets, s.octets...)
		case BitString:
			if number != TagBitString {
				return nil, malformed(MalformedContent, "BIT STRING segment in %s", Universal(number))
			}
			if i < len(segments)-1 && s.bitLength%8 != 0 {
				return nil, malformed(MalformedContent, "padding bits in inner BIT STRING segment")
			}
			octets = append(octets, s.bytes...)
			bitLength = len(octets)*8 - (len(s.bytes)*8 - s.bitLength)
		case String:
			if int(s.kind) != number {
				return nil, malformed(MalformedContent, "%s segment in %s", s.kind, Universal(number))
			}
			octets = append(octets, s.octets...)
		default:
			return nil, malformed(MalformedContent, "invalid segment %s in constructed string", VariantName(seg))
		}
	}
	switch number {
	case TagOctetString:
		return NewOctetString(octets), nil
	case TagBitString:
		return BitString{bytes: clone(octets), bitLength: bitLength}, nil
	}
	return NewStringFromOctets(StringKind(number), octets)
}

// readElement reads the complete encoding of the next value from r. It
// returns io.EOF if r is at the end.
func readElement(r ValueReader, opts DecodeOptions) ([]byte, error) {
	rr := &recordingReader{r: r}
	eoc, err := skipElement(rr, opts, 0)
	if err != nil {
		return nil, err
	}
	if eoc {
		return nil, malformed(MalformedTag, "unexpected end-of-contents")
	}
	return rr.buf, nil
}

// skipElement consumes the next value from r without decoding its content.
func skipElement(r ValueReader, opts DecodeOptions, depth int) (eoc bool, err error) {
	if depth > opts.maxDepth() {
		return false, ErrTooDeep
	}
	tag, _, err := ReadTag(r, opts.Strict)
	if err != nil {
		if err == io.EOF && depth > 0 {
			return false, ErrEarlyEOF
		}
		return false, err
	}
	length, _, err := ReadLength(r, opts.Strict)
	if err != nil {
		return false, err
	}
	if tag.Class == ClassUniversal && tag.Number == TagEndOfContents {
		if tag.Constructed || length != 0 {
			return false, malformed(MalformedLength, "invalid end-of-contents")
		}
		return true, nil
	}
	if length == IndefiniteLength {
		if !tag.Constructed {
			return false, malformed(MalformedLength, "indefinite length on primitive value")
		}
		for {
			childEOC, err := skipElement(r, opts, depth+1)
			if err != nil {
				return false, err
			}
			if childEOC {
				return false, nil
			}
		}
	}
	return false, discard(r, length)
}

// discard skips n content bytes, failing with ErrEarlyEOF if r ends first.
func discard(r ValueReader, n int) error {
	if left := remaining(r); left >= 0 && int64(n) > left {
		return ErrEarlyEOF
	}
	if _, err := io.CopyN(io.Discard, r, int64(n)); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEarlyEOF
		}
		return err
	}
	return nil
}
