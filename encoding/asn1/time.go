package asn1

import (
	"fmt"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// TimeKind selects UTCTime or GeneralizedTime.
type TimeKind int

// Time kinds.
const (
	UTCTime         TimeKind = TagUTCTime
	GeneralizedTime TimeKind = TagGeneralizedTime
)

const (
	utcTimeLayout          = "060102150405Z0700"
	generalizedTimeLayout  = "20060102150405Z0700"
	generalizedTimeLenient = "20060102150405.999999999Z0700"
)

// Time is a UTCTime or GeneralizedTime value, held in UTC with second
// precision.
type Time struct {
	kind TimeKind
	t    time.Time
}

// NewGeneralizedTime returns a GeneralizedTime value.
func NewGeneralizedTime(t time.Time) Time {
	return Time{kind: GeneralizedTime, t: t.UTC().Truncate(time.Second)}
}

// NewUTCTime returns a UTCTime value. UTCTime covers the years 1950 to 2049.
func NewUTCTime(t time.Time) (Time, error) {
	t = t.UTC().Truncate(time.Second)
	if y := t.Year(); y < 1950 || y >= 2050 {
		return Time{}, fmt.Errorf("asn1: year %d out of UTCTime range", y)
	}
	return Time{kind: UTCTime, t: t}, nil
}

// Time returns the time.
func (v Time) Time() time.Time { return v.t }

// Kind returns the time kind.
func (v Time) Kind() TimeKind { return v.kind }

func (v Time) Tag() Tag                   { return Universal(int(v.kind)) }
func (v Time) Encode(w ValueWriter) error { return encode(w, v) }
func (v Time) EncodedLen() int            { return encodedLen(v) }
func (v Time) contentLen() int            { return len(v.text()) }

func (v Time) encodeContent(w ValueWriter) error {
	_, err := w.Write(v.text())
	return err
}

func (v Time) text() []byte {
	if v.kind == UTCTime {
		return []byte(v.t.Format(utcTimeLayout))
	}
	var b cryptobyte.Builder
	b.AddASN1GeneralizedTime(v.t)
	der := b.BytesOrPanic()
	// short form header: tag and one length octet
	return der[2:]
}

func decodeTime(kind TimeKind, content []byte, strict bool) (Time, error) {
	if kind == UTCTime {
		t, err := time.Parse(utcTimeLayout, string(content))
		if err != nil {
			if strict {
				return Time{}, &DecodeError{Kind: MalformedContent, Message: "invalid UTCTime", Detail: err}
			}
			// seconds are optional in BER
			if t, err = time.Parse("0601021504Z0700", string(content)); err != nil {
				return Time{}, &DecodeError{Kind: MalformedContent, Message: "invalid UTCTime", Detail: err}
			}
		}
		// DER form is YYMMDDhhmmssZ
		if strict && (len(content) != 13 || content[12] != 'Z') {
			return Time{}, malformed(MalformedContent, "UTCTime not in DER form")
		}
		if t.Year() >= 2050 {
			// RFC 5280 4.1.2.5.1
			t = t.AddDate(-100, 0, 0)
		}
		return Time{kind: UTCTime, t: t.UTC().Truncate(time.Second)}, nil
	}

	var t time.Time
	der := cryptobyte.String(append([]byte{byte(cbasn1.GeneralizedTime), byte(len(content))}, content...))
	if len(content) < 0x80 && der.ReadASN1GeneralizedTime(&t) && content[len(content)-1] == 'Z' {
		return Time{kind: GeneralizedTime, t: t.UTC()}, nil
	}
	if strict {
		return Time{}, malformed(MalformedContent, "GeneralizedTime not in DER form")
	}
	t, err := time.Parse(generalizedTimeLenient, string(content))
	if err != nil {
		return Time{}, &DecodeError{Kind: MalformedContent, Message: "invalid GeneralizedTime", Detail: err}
	}
	return NewGeneralizedTime(t), nil
}
