package cms

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"io"
	"testing"

	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
	"github.com/notaryproject/notation-core-go/testhelper"
)

func generateSignedData(t *testing.T, content []byte) []byte {
	t.Helper()
	root := testhelper.GetRSARootCertificate()
	leaf := testhelper.GetRSACertTuple(2048)
	var g SignedDataGenerator
	if err := g.AddSigner(newLocalSigner(t, []*x509.Certificate{leaf.Cert, root.Cert}, leaf.PrivateKey), SignerOptions{}); err != nil {
		t.Fatalf("AddSigner() error = %v", err)
	}
	der, err := g.Generate(context.Background(), nil, content, false)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return der
}

func TestSignedDataParser(t *testing.T) {
	content := bytes.Repeat([]byte("streamed content "), 1024)
	der := generateSignedData(t, content)

	info, err := NewContentInfoParser(bytes.NewReader(der), asn1.DecodeOptions{})
	if err != nil {
		t.Fatalf("NewContentInfoParser() error = %v", err)
	}
	if !oid.SignedData.Equal(info.ContentType()) {
		t.Fatalf("ContentType() = %v, want %v", info.ContentType(), oid.SignedData)
	}
	signed, err := info.SignedData()
	if err != nil {
		t.Fatalf("SignedData() error = %v", err)
	}

	version, err := signed.Version()
	if err != nil || version != 1 {
		t.Fatalf("Version() = %d, %v, want 1", version, err)
	}
	algs, err := signed.DigestAlgorithms()
	if err != nil || len(algs) != 1 {
		t.Fatalf("DigestAlgorithms() = %v, %v, want 1 algorithm", algs, err)
	}
	if !oid.SHA256.Equal(algs[0].Algorithm) {
		t.Errorf("DigestAlgorithms()[0] = %v, want %v", algs[0].Algorithm, oid.SHA256)
	}

	encap, err := signed.EncapContentInfo()
	if err != nil {
		t.Fatalf("EncapContentInfo() error = %v", err)
	}
	if !oid.Data.Equal(encap.ContentType()) {
		t.Errorf("encap ContentType() = %v, want %v", encap.ContentType(), oid.Data)
	}
	r, err := encap.Content()
	if err != nil {
		t.Fatalf("encap Content() error = %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("streamed content does not match")
	}

	certs, err := signed.Certificates()
	if err != nil || len(certs) != 2 {
		t.Fatalf("Certificates() = %d certificates, %v, want 2", len(certs), err)
	}
	crls, err := signed.CRLs()
	if err != nil || crls != nil {
		t.Fatalf("CRLs() = %v, %v, want nil", crls, err)
	}
	store, err := signed.SignerInfos()
	if err != nil {
		t.Fatalf("SignerInfos() error = %v", err)
	}
	if store.Get(SignerIDFromCertificate(certs[0])) == nil {
		t.Error("signer of the leaf certificate not found")
	}

	_, err = signed.Version()
	var sv *asn1.SchemaViolationError
	if !errors.As(err, &sv) {
		t.Errorf("Version() after SignerInfos() error = %v, want SchemaViolationError", err)
	}
}

func TestSignedDataParser_SkipToSignerInfos(t *testing.T) {
	der := generateSignedData(t, []byte("content"))
	info, err := NewContentInfoParser(bytes.NewReader(der), asn1.DecodeOptions{Strict: true})
	if err != nil {
		t.Fatalf("NewContentInfoParser() error = %v", err)
	}
	signed, err := info.SignedData()
	if err != nil {
		t.Fatalf("SignedData() error = %v", err)
	}
	store, err := signed.SignerInfos()
	if err != nil {
		t.Fatalf("SignerInfos() error = %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}

	// the signer keeps its original encoding
	parsed, err := ParseSignedData(der)
	if err != nil {
		t.Fatalf("ParseSignedData() error = %v", err)
	}
	if !bytes.Equal(store.Signers()[0].Raw(), parsed.Signers.Signers()[0].Raw()) {
		t.Error("Raw() differs between streaming and in-memory parsing")
	}
}

func TestSignedDataParser_PartialContent(t *testing.T) {
	der := generateSignedData(t, bytes.Repeat([]byte{0x42}, 4096))
	info, err := NewContentInfoParser(bytes.NewReader(der), asn1.DecodeOptions{})
	if err != nil {
		t.Fatalf("NewContentInfoParser() error = %v", err)
	}
	signed, err := info.SignedData()
	if err != nil {
		t.Fatalf("SignedData() error = %v", err)
	}
	encap, err := signed.EncapContentInfo()
	if err != nil {
		t.Fatalf("EncapContentInfo() error = %v", err)
	}
	r, err := encap.Content()
	if err != nil {
		t.Fatalf("Content() error = %v", err)
	}
	if _, err := io.ReadFull(r, make([]byte, 10)); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	store, err := signed.SignerInfos()
	if err != nil {
		t.Fatalf("SignerInfos() error = %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestSignedDataParser_MissingFields(t *testing.T) {
	encap, _ := EncapsulatedContentInfo{ContentType: oid.Data}.Value()
	tests := []struct {
		name   string
		fields []asn1.Value
		read   func(*SignedDataParser) error
	}{
		{
			name:   "missing signer infos",
			fields: []asn1.Value{asn1.NewInt64(1), asn1.NewSet(), encap},
			read: func(p *SignedDataParser) error {
				_, err := p.SignerInfos()
				return err
			},
		},
		{
			name:   "missing encapsulated content",
			fields: []asn1.Value{asn1.NewInt64(1), asn1.NewSet()},
			read: func(p *SignedDataParser) error {
				_, err := p.EncapContentInfo()
				return err
			},
		},
		{
			name:   "empty",
			fields: nil,
			read: func(p *SignedDataParser) error {
				_, err := p.Version()
				return err
			},
		},
		{
			name:   "trailing field",
			fields: []asn1.Value{asn1.NewInt64(1), asn1.NewSet(), encap, asn1.NewSet(), asn1.NewInt64(0)},
			read: func(p *SignedDataParser) error {
				_, err := p.SignerInfos()
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, _ := ContentInfo{ContentType: oid.SignedData, Content: asn1.NewSequence(tt.fields...)}.Value()
			der, err := asn1.Marshal(info)
			if err != nil {
				t.Fatal(err)
			}
			p, err := NewContentInfoParser(bytes.NewReader(der), asn1.DecodeOptions{})
			if err != nil {
				t.Fatalf("NewContentInfoParser() error = %v", err)
			}
			signed, err := p.SignedData()
			if err != nil {
				t.Fatalf("SignedData() error = %v", err)
			}
			var sv *asn1.SchemaViolationError
			if err := tt.read(signed); !errors.As(err, &sv) {
				t.Errorf("error = %v, want SchemaViolationError", err)
			}
		})
	}
}

func TestContentInfoParser_WrongType(t *testing.T) {
	der := generateSignedData(t, []byte("content"))
	info, err := NewContentInfoParser(bytes.NewReader(der), asn1.DecodeOptions{})
	if err != nil {
		t.Fatalf("NewContentInfoParser() error = %v", err)
	}
	if _, err := info.CompressedData(); !errors.Is(err, ErrExpectCompressedData) {
		t.Errorf("CompressedData() error = %v, want ErrExpectCompressedData", err)
	}
	if _, err := NewContentInfoParser(bytes.NewReader([]byte{0x04, 0x00}), asn1.DecodeOptions{}); err == nil {
		t.Error("NewContentInfoParser() expected error for OCTET STRING input")
	}
}
