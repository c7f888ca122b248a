package asn1

import "io"

// IndefiniteLength is returned by ReadLength for the indefinite form. The
// contents then run until an end-of-contents marker (two zero octets).
const IndefiniteLength = -1

// encodedLengthSize gives the number of octets used for encoding the length.
func encodedLengthSize(length int) int {
	if length < 0x80 {
		return 1
	}

	lengthSize := 1
	for ; length > 0; lengthSize++ {
		length >>= 8
	}
	return lengthSize
}

// encodeLength encodes length octets in DER.
func encodeLength(w io.ByteWriter, length int) error {
	// DER restriction: short form must be used for length less than 128
	if length < 0x80 {
		return w.WriteByte(byte(length))
	}

	// DER restriction: long form must be encoded in the minimum number of octets
	lengthSize := encodedLengthSize(length)
	err := w.WriteByte(0x80 | byte(lengthSize-1))
	if err != nil {
		return err
	}
	for i := lengthSize - 1; i > 0; i-- {
		if err = w.WriteByte(byte(length >> (8 * (i - 1)))); err != nil {
			return err
		}
	}
	return nil
}

// ReadLength decodes length octets and returns the length with the number
// of octets consumed. The indefinite form yields IndefiniteLength and is
// rejected in strict mode, as are long forms that are not minimal.
func ReadLength(r io.ByteReader, strict bool) (int, int, error) {
	b, err := r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, 0, ErrEarlyEOF
		}
		return 0, 0, err
	}
	switch {
	case b < 0x80:
		// short form
		return int(b), 1, nil
	case b == 0x80:
		if strict {
			return 0, 1, malformed(MalformedLength, "indefinite length in DER")
		}
		return IndefiniteLength, 1, nil
	case b == 0xff:
		return 0, 1, malformed(MalformedLength, "reserved length octet")
	}

	// long form
	n := int(b & 0x7f)
	if n > 4 {
		// length must fit the memory space of the int type.
		return 0, 1, ErrUnsupportedLength
	}
	var length int
	for i := 0; i < n; i++ {
		b, err = r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, 1 + i, ErrEarlyEOF
			}
			return 0, 1 + i, err
		}
		if strict && i == 0 && b == 0 {
			return 0, 1 + i, malformed(MalformedLength, "length not minimally encoded")
		}
		length = (length << 8) | int(b)
	}
	if length < 0 || length > maxTagNumber {
		// double check in case that length is over 31 bits.
		return 0, 1 + n, ErrUnsupportedLength
	}
	if strict && length < 0x80 {
		return 0, 1 + n, malformed(MalformedLength, "long form used for short length")
	}
	return length, 1 + n, nil
}
