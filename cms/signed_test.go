package cms

import (
	"bytes"
	"context"
	"crypto"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	encasn1 "encoding/asn1"
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
	"github.com/notaryproject/cms-go/signature"
	"github.com/notaryproject/notation-core-go/testhelper"
	"github.com/opencontainers/go-digest"
)

// testSigner signs with a key not covered by notation key specs.
type testSigner struct {
	alg  encasn1.ObjectIdentifier
	key  crypto.PrivateKey
	cert *x509.Certificate
}

func (s *testSigner) Algorithm() encasn1.ObjectIdentifier    { return s.alg }
func (s *testSigner) CertificateChain() []*x509.Certificate { return []*x509.Certificate{s.cert} }
func (s *testSigner) Sign(data []byte, rand io.Reader) ([]byte, error) {
	return signature.DefaultEngine{}.Sign(s.alg, s.key, data, rand)
}

func newEd25519Signer(t *testing.T) *testSigner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey() error = %v", err)
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(42),
		Subject:               pkix.Name{CommonName: "CMS Test Ed25519"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}
	return &testSigner{alg: oid.Ed25519, key: priv, cert: cert}
}

func newLocalSigner(t *testing.T, certs []*x509.Certificate, key crypto.PrivateKey) *signature.LocalSigner {
	t.Helper()
	signer, err := signature.NewLocalSigner(certs, key, nil)
	if err != nil {
		t.Fatalf("NewLocalSigner() error = %v", err)
	}
	return signer
}

func verifyOptions(roots ...*x509.Certificate) VerifyOptions {
	pool := x509.NewCertPool()
	for _, root := range roots {
		pool.AddCert(root)
	}
	return VerifyOptions{
		VerifyOptions: x509.VerifyOptions{
			Roots:     pool,
			KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
		},
	}
}

func TestGenerateAndVerify(t *testing.T) {
	rsaRoot := testhelper.GetRSARootCertificate()
	rsaLeaf := testhelper.GetRSACertTuple(2048)
	ecRoot := testhelper.GetECRootCertificate()
	ecLeaf := testhelper.GetECCertTuple(elliptic.P256())
	edSigner := newEd25519Signer(t)

	tests := []struct {
		name        string
		signer      Signer
		opts        SignerOptions
		root        *x509.Certificate
		wantVersion int
	}{
		{
			name:        "RSA issuer and serial",
			signer:      newLocalSigner(t, []*x509.Certificate{rsaLeaf.Cert, rsaRoot.Cert}, rsaLeaf.PrivateKey),
			opts:        SignerOptions{SigningTime: time.Now()},
			root:        rsaRoot.Cert,
			wantVersion: 1,
		},
		{
			name:        "RSA subject key identifier",
			signer:      newLocalSigner(t, []*x509.Certificate{rsaRoot.Cert}, rsaRoot.PrivateKey),
			opts:        SignerOptions{SubjectKeyID: true},
			root:        rsaRoot.Cert,
			wantVersion: 3,
		},
		{
			name:        "ECDSA with SHA-384 digest",
			signer:      newLocalSigner(t, []*x509.Certificate{ecLeaf.Cert, ecRoot.Cert}, ecLeaf.PrivateKey),
			opts:        SignerOptions{Digest: digest.SHA384},
			root:        ecRoot.Cert,
			wantVersion: 1,
		},
		{
			name:        "Ed25519",
			signer:      edSigner,
			opts:        SignerOptions{SubjectKeyID: true, SigningTime: time.Now()},
			root:        edSigner.cert,
			wantVersion: 3,
		},
	}
	content := []byte("hello cms")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g SignedDataGenerator
			if err := g.AddSigner(tt.signer, tt.opts); err != nil {
				t.Fatalf("AddSigner() error = %v", err)
			}
			der, err := g.Generate(context.Background(), nil, content, false)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}

			signed, err := ParseSignedData(der)
			if err != nil {
				t.Fatalf("ParseSignedData() error = %v", err)
			}
			if signed.Version != tt.wantVersion {
				t.Errorf("Version = %d, want %d", signed.Version, tt.wantVersion)
			}
			if !bytes.Equal(signed.Content, content) {
				t.Errorf("Content = %q, want %q", signed.Content, content)
			}
			if !oid.Data.Equal(signed.ContentType) {
				t.Errorf("ContentType = %v, want %v", signed.ContentType, oid.Data)
			}
			if signed.Signers.Len() != 1 {
				t.Fatalf("Signers.Len() = %d, want 1", signed.Signers.Len())
			}
			signer := signed.Signers.Signers()[0]
			if signer.Version() != tt.wantVersion {
				t.Errorf("signer Version() = %d, want %d", signer.Version(), tt.wantVersion)
			}
			if got := signer.SID().HasSubjectKeyID(); got != tt.opts.SubjectKeyID {
				t.Errorf("SID().HasSubjectKeyID() = %v, want %v", got, tt.opts.SubjectKeyID)
			}

			leaf := tt.signer.CertificateChain()[0]
			if signed.Signers.Get(SignerIDFromCertificate(leaf)) != signer {
				t.Error("signer not found by the signing certificate")
			}
			verified, err := signed.Verify(context.Background(), verifyOptions(tt.root))
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if len(verified) != 1 || !verified[0].Equal(leaf) {
				t.Errorf("Verify() = %v, want the signing certificate", verified)
			}
		})
	}
}

func TestVerify_Failures(t *testing.T) {
	root := testhelper.GetRSARootCertificate()
	leaf := testhelper.GetRSACertTuple(2048)
	signer := newLocalSigner(t, []*x509.Certificate{leaf.Cert, root.Cert}, leaf.PrivateKey)

	generate := func(opts SignerOptions, detached bool) *ParsedSignedData {
		t.Helper()
		var g SignedDataGenerator
		if err := g.AddSigner(signer, opts); err != nil {
			t.Fatalf("AddSigner() error = %v", err)
		}
		der, err := g.Generate(context.Background(), nil, []byte("content"), detached)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		signed, err := ParseSignedData(der)
		if err != nil {
			t.Fatalf("ParseSignedData() error = %v", err)
		}
		return signed
	}

	t.Run("unknown authority", func(t *testing.T) {
		signed := generate(SignerOptions{}, false)
		_, err := signed.Verify(context.Background(), verifyOptions())
		var vErr VerificationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Verify() error = %v, want VerificationError", err)
		}
		if _, ok := vErr.Detail.(x509.UnknownAuthorityError); !ok {
			t.Errorf("VerificationError.Detail = %v, want UnknownAuthorityError", vErr.Detail)
		}
	})

	t.Run("corrupted content", func(t *testing.T) {
		signed := generate(SignerOptions{}, false)
		signed.Content = []byte("corrupted data")
		_, err := signed.Verify(context.Background(), verifyOptions(root.Cert))
		var vErr VerificationError
		if !errors.As(err, &vErr) || vErr.Message != "mismatch message digest" {
			t.Errorf("Verify() error = %v, want mismatch message digest", err)
		}
	})

	t.Run("detached content", func(t *testing.T) {
		signed := generate(SignerOptions{}, true)
		if signed.Content != nil {
			t.Fatalf("Content = %q, want nil", signed.Content)
		}
		signed.Content = []byte("content")
		if _, err := signed.Verify(context.Background(), verifyOptions(root.Cert)); err != nil {
			t.Errorf("Verify() error = %v", err)
		}
	})

	t.Run("signing time out of validity", func(t *testing.T) {
		signed := generate(SignerOptions{SigningTime: leaf.Cert.NotBefore.Add(-24 * time.Hour)}, false)
		_, err := signed.Verify(context.Background(), verifyOptions(root.Cert))
		var vErr VerificationError
		if !errors.As(err, &vErr) || vErr.Message != "signature signed when cert is inactive" {
			t.Errorf("Verify() error = %v, want signing time failure", err)
		}
	})

	t.Run("algorithm not allowed", func(t *testing.T) {
		signed := generate(SignerOptions{}, false)
		opts := verifyOptions(root.Cert)
		opts.AllowedSignatureAlgorithms = []encasn1.ObjectIdentifier{oid.Ed25519}
		if _, err := signed.Verify(context.Background(), opts); err == nil {
			t.Error("Verify() expected error for disallowed algorithm")
		}
	})

	t.Run("no certificates", func(t *testing.T) {
		signed := generate(SignerOptions{}, false)
		signed.Certificates = nil
		if _, err := signed.Verify(context.Background(), verifyOptions(root.Cert)); !errors.Is(err, ErrCertificateNotFound) {
			t.Errorf("Verify() error = %v, want ErrCertificateNotFound", err)
		}
	})
}

func TestGenerate_MultipleSigners(t *testing.T) {
	root := testhelper.GetRSARootCertificate()
	leaf := testhelper.GetRSACertTuple(3072)
	edSigner := newEd25519Signer(t)

	var g SignedDataGenerator
	if err := g.AddSigner(newLocalSigner(t, []*x509.Certificate{leaf.Cert, root.Cert}, leaf.PrivateKey), SignerOptions{}); err != nil {
		t.Fatalf("AddSigner() error = %v", err)
	}
	if err := g.AddSigner(edSigner, SignerOptions{}); err != nil {
		t.Fatalf("AddSigner() error = %v", err)
	}
	der, err := g.Generate(context.Background(), nil, []byte("content"), false)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	signed, err := ParseSignedData(der)
	if err != nil {
		t.Fatalf("ParseSignedData() error = %v", err)
	}
	if got := len(signed.Certificates); got != 3 {
		t.Errorf("len(Certificates) = %d, want 3", got)
	}
	if got := len(signed.DigestAlgorithms); got != 2 {
		t.Errorf("len(DigestAlgorithms) = %d, want 2", got)
	}
	verified, err := signed.Verify(context.Background(), verifyOptions(root.Cert, edSigner.cert))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(verified) != 2 {
		t.Errorf("Verify() returned %d certificates, want 2", len(verified))
	}
}

func TestGenerate_Errors(t *testing.T) {
	var g SignedDataGenerator
	if _, err := g.Generate(context.Background(), nil, []byte("content"), false); err == nil {
		t.Error("Generate() expected error without signers")
	}
	leaf := testhelper.GetRSACertTuple(2048)
	cert := *leaf.Cert
	cert.SubjectKeyId = nil
	signer := &testSigner{alg: oid.SHA256WithRSA, key: leaf.PrivateKey, cert: &cert}
	if err := g.AddSigner(signer, SignerOptions{SubjectKeyID: true}); err == nil {
		t.Error("AddSigner() expected error for certificate without subject key identifier")
	}
	unknown := &testSigner{alg: oid.SHA1, key: leaf.PrivateKey, cert: leaf.Cert}
	if err := g.AddSigner(unknown, SignerOptions{}); err != nil {
		t.Fatalf("AddSigner() error = %v", err)
	}
	if _, err := g.Generate(context.Background(), nil, []byte("content"), false); !errors.Is(err, signature.ErrUnsupportedAlgorithm) {
		t.Errorf("Generate() error = %v, want ErrUnsupportedAlgorithm", err)
	}
}

func TestParseSignedData_Errors(t *testing.T) {
	compressed, err := Compress(nil, []byte("content"))
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "not signed data", data: compressed, want: ErrExpectSignedData},
		{name: "garbage", data: []byte{0x04, 0x01}},
		{name: "empty", data: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSignedData(tt.data)
			if err == nil {
				t.Fatal("ParseSignedData() expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("ParseSignedData() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseSignedData_MissingSignerInfos(t *testing.T) {
	encap, _ := EncapsulatedContentInfo{ContentType: oid.Data}.Value()
	info, err := ContentInfo{
		ContentType: oid.SignedData,
		Content:     asn1.NewSequence(asn1.NewInt64(1), asn1.NewSet(), encap),
	}.Value()
	if err != nil {
		t.Fatal(err)
	}
	der, err := asn1.Marshal(info)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ParseSignedData(der)
	var sv *asn1.SchemaViolationError
	if !errors.As(err, &sv) {
		t.Errorf("ParseSignedData() error = %v, want SchemaViolationError", err)
	}
}
