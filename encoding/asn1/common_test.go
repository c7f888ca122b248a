package asn1

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func Test_encodeLength(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		want    []byte
		wantErr bool
	}{
		{
			name:   "zero length",
			length: 0,
			want:   []byte{0x00},
		},
		{
			name:   "short form",
			length: 42,
			want:   []byte{0x2a},
		},
		{
			name:   "short form in max",
			length: 127,
			want:   []byte{0x7f},
		},
		{
			name:   "long form in min",
			length: 128,
			want:   []byte{0x81, 0x80},
		},
		{
			name:   "long form",
			length: 1234567890,
			want:   []byte{0x84, 0x49, 0x96, 0x02, 0xd2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			if err := encodeLength(buf, tt.length); (err != nil) != tt.wantErr {
				t.Errorf("encodeLength() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got := buf.Bytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("encoded length = %v, want %v", got, tt.want)
			}
			if got := encodedLengthSize(tt.length); got != len(tt.want) {
				t.Errorf("encodedLengthSize() = %v, want %v", got, len(tt.want))
			}
		})
	}
}

func TestReadTag(t *testing.T) {
	tests := []struct {
		name     string
		encoded  []byte
		strict   bool
		want     Tag
		consumed int
		wantErr  bool
	}{
		{
			name:     "low-tag-number form",
			encoded:  []byte{0x02},
			want:     Universal(TagInteger),
			consumed: 1,
		},
		{
			name:     "no extra read in low-tag-number form",
			encoded:  []byte{0x30, 0x42},
			want:     Universal(TagSequence),
			consumed: 1,
		},
		{
			name:     "context-specific constructed",
			encoded:  []byte{0xa3},
			want:     ContextSpecific(3, true),
			consumed: 1,
		},
		{
			name:     "high-tag-number form",
			encoded:  []byte{0xbf, 0x81, 0x00, 0x42},
			want:     ContextSpecific(128, true),
			consumed: 3,
		},
		{
			name:     "high-tag-number form for small number in BER",
			encoded:  []byte{0x9f, 0x1e},
			want:     ContextSpecific(30, false),
			consumed: 2,
		},
		{
			name:    "high-tag-number form for small number in DER",
			encoded: []byte{0x9f, 0x1e},
			strict:  true,
			wantErr: true,
		},
		{
			name:    "leading zero in tag number",
			encoded: []byte{0x1f, 0x80, 0x1f},
			wantErr: true,
		},
		{
			name:    "high-tag-number form (no termination)",
			encoded: []byte{0x1f, 0x81, 0x82},
			wantErr: true,
		},
		{
			name:    "tag number overflow",
			encoded: []byte{0x1f, 0x88, 0x80, 0x80, 0x80, 0x80, 0x00},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := ReadTag(bytes.NewReader(tt.encoded), tt.strict)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadTag() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var de *DecodeError
				if !errors.As(err, &de) || de.Kind != MalformedTag {
					t.Errorf("ReadTag() error = %v, want MalformedTag", err)
				}
				return
			}
			if got != tt.want || n != tt.consumed {
				t.Errorf("ReadTag() = %v, %d, want %v, %d", got, n, tt.want, tt.consumed)
			}

			buf := bytes.NewBuffer(nil)
			if err := got.Encode(buf); err != nil {
				t.Fatalf("Tag.Encode() error = %v", err)
			}
			if !tt.strict && n == 2 && tt.want.Number < 31 {
				// the BER-only form is not reproduced
				return
			}
			if !bytes.Equal(buf.Bytes(), tt.encoded[:n]) {
				t.Errorf("Tag.Encode() = %x, want %x", buf.Bytes(), tt.encoded[:n])
			}
			if got.EncodedLen() != n {
				t.Errorf("Tag.EncodedLen() = %d, want %d", got.EncodedLen(), n)
			}
		})
	}
}

func TestReadTag_EOF(t *testing.T) {
	if _, _, err := ReadTag(bytes.NewReader(nil), false); err != io.EOF {
		t.Errorf("ReadTag() error = %v, want io.EOF", err)
	}
}

func TestReadLength(t *testing.T) {
	tests := []struct {
		name    string
		encoded []byte
		strict  bool
		want    int
		wantErr bool
	}{
		{
			name:    "empty length",
			wantErr: true,
		},
		{
			name:    "short form",
			encoded: []byte{0x2a},
			want:    42,
		},
		{
			name:    "no extra read in short form",
			encoded: []byte{0x2a, 0x42},
			want:    42,
		},
		{
			name:    "long form",
			encoded: []byte{0x84, 0x49, 0x96, 0x02, 0xd2},
			want:    1234567890,
		},
		{
			name:    "long form in BER",
			encoded: []byte{0x81, 0x2a},
			want:    42,
		},
		{
			name:    "long form for short length in DER",
			encoded: []byte{0x81, 0x2a},
			strict:  true,
			wantErr: true,
		},
		{
			name:    "leading zero in DER",
			encoded: []byte{0x82, 0x00, 0x80},
			strict:  true,
			wantErr: true,
		},
		{
			name:    "no extra read in long form",
			encoded: []byte{0x84, 0x49, 0x96, 0x02, 0xd2, 0x42},
			want:    1234567890,
		},
		{
			name:    "indefinite in BER",
			encoded: []byte{0x80, 0x42, 0x00, 0x00},
			want:    IndefiniteLength,
		},
		{
			name:    "indefinite in DER",
			encoded: []byte{0x80, 0x42, 0x00, 0x00},
			strict:  true,
			wantErr: true,
		},
		{
			name:    "too many length octets",
			encoded: []byte{0x85, 0x01, 0x00, 0x00, 0x00, 0x00},
			wantErr: true,
		},
		{
			name:    "reserved",
			encoded: []byte{0xff},
			wantErr: true,
		},
		{
			name:    "long form (EOF)",
			encoded: []byte{0x84, 0x49, 0x96, 0x02},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := ReadLength(bytes.NewReader(tt.encoded), tt.strict)
			if (err != nil) != tt.wantErr {
				t.Errorf("ReadLength() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				var de *DecodeError
				if !errors.As(err, &de) || de.Kind != MalformedLength {
					t.Errorf("ReadLength() error = %v, want MalformedLength", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ReadLength() = %v, want %v", got, tt.want)
			}
		})
	}
}
