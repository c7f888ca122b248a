// Package timestamptest provides utilities for timestamp testing
package timestamptest

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	encasn1 "encoding/asn1"
	"math"
	"math/big"
	"time"

	"github.com/notaryproject/cms-go/cms"
	"github.com/notaryproject/cms-go/crypto/timestamp"
	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
	"github.com/notaryproject/cms-go/internal/crypto/pki"
	"github.com/notaryproject/cms-go/keygen"
	"github.com/notaryproject/cms-go/signature"
)

// rejection returns a response rejecting a request for the given reason.
func rejection(text string, failure int) *timestamp.Response {
	return &timestamp.Response{
		Status: pki.StatusInfo{
			Status:       pki.StatusRejection,
			StatusString: []string{text},
			FailInfo:     pki.FailureInfo(failure),
		},
	}
}

// TSA is a Timestamping Authority for testing purpose.
type TSA struct {
	// key is the TSA signing key.
	key crypto.PrivateKey

	// cert is the self-signed certificate by the TSA signing key.
	cert *x509.Certificate

	// NowFunc provides the current time. time.Now() is used if nil.
	NowFunc func() time.Time
}

// NewTSA creates a TSA with random credentials of the given key type,
// using the default strength of the key type. DSA keys are not supported.
func NewTSA(keyType keygen.KeyType) (*TSA, error) {
	// generate key
	generator, err := keygen.New(keyType)
	if err != nil {
		return nil, err
	}
	key, err := generator.GenerateKey()
	if err != nil {
		return nil, err
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, x509.ErrUnsupportedAlgorithm
	}

	// generate certificate
	serialNumber, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName: "timestamp test",
		},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(365 * 24 * time.Hour), // 1 year
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageTimeStamping},
		BasicConstraintsValid: true,
	}
	certBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, signer.Public(), signer)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(certBytes)
	if err != nil {
		return nil, err
	}

	return &TSA{
		key:  key,
		cert: cert,
	}, nil
}

// Certificate returns the certificate used by the server.
func (tsa *TSA) Certificate() *x509.Certificate {
	return tsa.cert
}

// Timestamp stamps the time with the given request. The TSA certificate is
// always included in the token.
func (tsa *TSA) Timestamp(ctx context.Context, req *timestamp.Request) (*timestamp.Response, error) {
	// validate request
	if req.Version != 1 {
		return rejection("unsupported request version", pki.FailureInfoBadRequest), nil
	}
	hash, ok := oid.ConvertToHash(req.MessageImprint.HashAlgorithm.Algorithm)
	if !ok {
		return rejection("request contains unknown algorithm", pki.FailureInfoBadAlg), nil
	}
	if hashedMessage := req.MessageImprint.HashedMessage; len(hashedMessage) != hash.Size() {
		return rejection("hashed message size mismatch", pki.FailureInfoBadDataFormat), nil
	}

	// generate token info
	policy := encasn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 4146, 2} // time-stamp-policies
	switch hash {
	case crypto.SHA1:
		policy = append(policy, 2)
	case crypto.SHA256, crypto.SHA384, crypto.SHA512:
		policy = append(policy, 3)
	default:
		return rejection("request contains unknown algorithm", pki.FailureInfoBadAlg), nil
	}
	infoBytes, err := tsa.generateTokenInfo(req, policy)
	if err != nil {
		return nil, err
	}

	// generate signed data
	token, err := tsa.generateSignedData(ctx, infoBytes)
	if err != nil {
		return nil, err
	}

	// generate response
	return &timestamp.Response{
		Status: pki.StatusInfo{
			Status: pki.StatusGranted,
		},
		TimeStampToken: token,
	}, nil
}

// generateTokenInfo generate timestamp token info.
func (tsa *TSA) generateTokenInfo(req *timestamp.Request, policy encasn1.ObjectIdentifier) ([]byte, error) {
	serialNumber, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	nowFunc := tsa.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}
	info := timestamp.TSTInfo{
		Version:        1,
		Policy:         policy,
		MessageImprint: req.MessageImprint,
		SerialNumber:   serialNumber,
		GenTime:        nowFunc().UTC().Truncate(time.Second),
		Accuracy: timestamp.Accuracy{
			Seconds: 1,
		},
		Nonce: req.Nonce,
	}
	v, err := info.Value()
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(v)
}

// generateSignedData signs the token info as CMS SignedData.
func (tsa *TSA) generateSignedData(ctx context.Context, infoBytes []byte) ([]byte, error) {
	signer, err := signature.NewLocalSigner([]*x509.Certificate{tsa.cert}, tsa.key, nil)
	if err != nil {
		return nil, err
	}
	var generator cms.SignedDataGenerator
	if err := generator.AddSigner(signer, cms.SignerOptions{SigningTime: time.Now()}); err != nil {
		return nil, err
	}
	return generator.Generate(ctx, oid.TSTInfo, infoBytes, false)
}
