package timestamp

import (
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
	"github.com/notaryproject/cms-go/signature"
)

func testTSTInfo() TSTInfo {
	return TSTInfo{
		Version: 1,
		Policy:  oid.TSTInfo,
		MessageImprint: MessageImprint{
			HashAlgorithm: signature.AlgorithmIdentifier{Algorithm: oid.SHA256},
			HashedMessage: make([]byte, 32),
		},
		SerialNumber: big.NewInt(42),
		GenTime:      time.Date(2021, 9, 18, 11, 54, 34, 0, time.UTC),
	}
}

func TestTSTInfo_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*TSTInfo)
		want   time.Duration
	}{
		{name: "minimal"},
		{
			name:   "accuracy",
			modify: func(info *TSTInfo) { info.Accuracy = Accuracy{Seconds: 1, Milliseconds: 500, Microseconds: 20} },
			want:   time.Second + 500*time.Millisecond + 20*time.Microsecond,
		},
		{
			name:   "milliseconds only",
			modify: func(info *TSTInfo) { info.Accuracy = Accuracy{Milliseconds: 10} },
			want:   10 * time.Millisecond,
		},
		{
			name: "ordering and nonce",
			modify: func(info *TSTInfo) {
				info.Ordering = true
				info.Nonce = big.NewInt(7)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := testTSTInfo()
			if tt.modify != nil {
				tt.modify(&info)
			}
			v, err := info.Value()
			if err != nil {
				t.Fatalf("Value() error = %v", err)
			}
			der, err := asn1.Marshal(v)
			if err != nil {
				t.Fatal(err)
			}
			got, shape, err := asn1.Coerce(der, AsTSTInfo)
			if err != nil {
				t.Fatalf("Coerce() error = %v", err)
			}
			if shape != asn1.ShapeBytes {
				t.Errorf("Coerce() shape = %v", shape)
			}
			if !reflect.DeepEqual(got, info) {
				t.Errorf("Coerce() = %+v, want %+v", got, info)
			}
			if _, accuracy := got.Timestamp(); accuracy != tt.want {
				t.Errorf("Timestamp() accuracy = %v, want %v", accuracy, tt.want)
			}
		})
	}
}

func TestTSTInfo_Errors(t *testing.T) {
	info := testTSTInfo()
	v, err := info.Value()
	if err != nil {
		t.Fatal(err)
	}
	fields := v.(asn1.Sequence).Elements()
	utc, err := asn1.NewUTCTime(info.GenTime)
	if err != nil {
		t.Fatal(err)
	}
	withField := func(i int, f asn1.Value) []asn1.Value {
		out := append([]asn1.Value(nil), fields...)
		out[i] = f
		return out
	}

	tests := []struct {
		name   string
		fields []asn1.Value
	}{
		{name: "version 2", fields: withField(0, asn1.NewInt64(2))},
		{name: "UTCTime", fields: withField(4, utc)},
		{name: "too few fields", fields: fields[:4]},
		{name: "nonce before accuracy", fields: append(append([]asn1.Value(nil), fields...), asn1.NewInt64(1), Accuracy{Seconds: 1}.Value())},
		{name: "millis out of range", fields: append(append([]asn1.Value(nil), fields...), Accuracy{Milliseconds: 1000}.Value())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := asn1.Coerce(asn1.NewSequence(tt.fields...), AsTSTInfo); err == nil {
				t.Error("Coerce() expected error")
			}
		})
	}
}

func TestParseSignedToken_WrongContentType(t *testing.T) {
	if _, err := ParseSignedToken([]byte{0x30, 0x00}); err == nil {
		t.Error("ParseSignedToken() expected error")
	}
}
