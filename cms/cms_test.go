package cms

import (
	"errors"
	"math/big"
	"testing"

	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
	"github.com/notaryproject/cms-go/signature"
	"github.com/notaryproject/notation-core-go/testhelper"
)

func TestAttributes_TryGet(t *testing.T) {
	attrs := Attributes{
		{Type: oid.ContentType, Values: []asn1.Value{asn1.MustObjectIdentifier(oid.Data)}},
		{Type: oid.SigningTime},
	}
	v, err := attrs.TryGet(oid.ContentType)
	if err != nil {
		t.Fatalf("TryGet() error = %v", err)
	}
	if !asn1.Equal(v, asn1.MustObjectIdentifier(oid.Data)) {
		t.Errorf("TryGet() = %v, want %v", v, oid.Data)
	}
	if _, err := attrs.TryGet(oid.MessageDigest); !errors.Is(err, ErrAttributeNotFound) {
		t.Errorf("TryGet() error = %v, want ErrAttributeNotFound", err)
	}
	if _, err := attrs.TryGet(oid.SigningTime); err == nil {
		t.Error("TryGet() expected error for attribute without values")
	}
}

func TestIssuerAndSerialNumber(t *testing.T) {
	cert := testhelper.GetRSARootCertificate().Cert
	ias := IssuerAndSerialNumber{Issuer: cert.RawIssuer, SerialNumber: cert.SerialNumber}
	v, err := ias.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	der, err := asn1.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, shape, err := asn1.Coerce(der, AsIssuerAndSerialNumber)
	if err != nil {
		t.Fatalf("Coerce() error = %v", err)
	}
	if shape != asn1.ShapeBytes {
		t.Errorf("Coerce() shape = %v, want %v", shape, asn1.ShapeBytes)
	}
	if string(got.Issuer) != string(cert.RawIssuer) || got.SerialNumber.Cmp(cert.SerialNumber) != 0 {
		t.Errorf("Coerce() = %+v, want issuer and serial of the certificate", got)
	}

	if _, err := rawValue(append(append([]byte(nil), cert.RawIssuer...), 0x00)); !errors.Is(err, asn1.ErrTrailingData) {
		t.Errorf("rawValue() error = %v, want ErrTrailingData", err)
	}
}

func TestParseSignerInfo_Errors(t *testing.T) {
	cert := testhelper.GetRSARootCertificate().Cert
	sid, _ := IssuerAndSerialNumber{Issuer: cert.RawIssuer, SerialNumber: big.NewInt(1)}.Value()
	digestAlg, _ := signature.AlgorithmIdentifier{Algorithm: oid.SHA256}.Value()
	sigAlg, _ := signature.AlgorithmIdentifier{Algorithm: oid.Ed25519}.Value()
	sig := asn1.NewOctetString([]byte{0x01})

	tests := []struct {
		name    string
		fields  []asn1.Value
		wantErr bool
	}{
		{
			name:   "minimal",
			fields: []asn1.Value{asn1.NewInt64(1), sid, digestAlg, sigAlg, sig},
		},
		{
			name: "subject key identifier",
			fields: []asn1.Value{
				asn1.NewInt64(3),
				asn1.NewImplicit(asn1.ClassContextSpecific, 0, asn1.NewOctetString([]byte{0x01})),
				digestAlg, sigAlg, sig,
			},
		},
		{
			name:    "unsupported version",
			fields:  []asn1.Value{asn1.NewInt64(2), sid, digestAlg, sigAlg, sig},
			wantErr: true,
		},
		{
			name:    "too few fields",
			fields:  []asn1.Value{asn1.NewInt64(1), sid, digestAlg, sigAlg},
			wantErr: true,
		},
		{
			name: "empty signed attributes",
			fields: []asn1.Value{
				asn1.NewInt64(1), sid, digestAlg,
				asn1.NewImplicit(asn1.ClassContextSpecific, 0, asn1.NewSet()),
				sigAlg, sig,
			},
			wantErr: true,
		},
		{
			name: "unexpected trailing field",
			fields: []asn1.Value{
				asn1.NewInt64(1), sid, digestAlg, sigAlg, sig,
				asn1.NewImplicit(asn1.ClassContextSpecific, 2, asn1.NewSet()),
			},
			wantErr: true,
		},
		{
			name: "wrong sid tag",
			fields: []asn1.Value{
				asn1.NewInt64(3),
				asn1.NewImplicit(asn1.ClassContextSpecific, 1, asn1.NewOctetString([]byte{0x01})),
				digestAlg, sigAlg, sig,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			der, err := asn1.Marshal(asn1.NewSequence(tt.fields...))
			if err != nil {
				t.Fatal(err)
			}
			signer, err := ParseSignerInfo(der, asn1.DecodeOptions{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSignerInfo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && string(signer.Raw()) != string(der) {
				t.Error("Raw() differs from the input")
			}
		})
	}
}
