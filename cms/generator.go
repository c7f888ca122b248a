package cms

import (
	"bytes"
	"context"
	"crypto/x509"
	encasn1 "encoding/asn1"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/hashutil"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
	"github.com/notaryproject/cms-go/log"
	"github.com/notaryproject/cms-go/signature"
	"github.com/opencontainers/go-digest"
)

// Signer signs the data of a SignerInfo. *signature.LocalSigner implements
// Signer.
type Signer interface {
	// Algorithm returns the signature algorithm.
	Algorithm() encasn1.ObjectIdentifier

	// CertificateChain returns the certificate chain, leaf first.
	CertificateChain() []*x509.Certificate

	// Sign signs data.
	Sign(data []byte, rand io.Reader) ([]byte, error)
}

// SignerOptions contains parameters for adding a signer.
type SignerOptions struct {
	// Digest is the message digest algorithm. It defaults to the hash of
	// the signature algorithm, or SHA-512 for algorithms signing the message
	// itself.
	Digest digest.Algorithm

	// SubjectKeyID identifies the signer by the subject key identifier of
	// its certificate instead of its issuer and serial number.
	SubjectKeyID bool

	// SigningTime is set as the signing time attribute when not zero.
	SigningTime time.Time
}

type signerEntry struct {
	signer Signer
	opts   SignerOptions
}

// SignedDataGenerator builds SignedData messages. It is not safe for
// concurrent use.
type SignedDataGenerator struct {
	signers      []signerEntry
	certificates []*x509.Certificate

	// Rand is the source of randomness of signers. crypto/rand is used when
	// nil.
	Rand io.Reader
}

// AddSigner adds a signer. Its certificate chain is included in the
// message.
func (g *SignedDataGenerator) AddSigner(signer Signer, opts SignerOptions) error {
	certs := signer.CertificateChain()
	if len(certs) == 0 {
		return errors.New("cms: signer has no certificate")
	}
	if opts.SubjectKeyID && len(certs[0].SubjectKeyId) == 0 {
		return errors.New("cms: signer certificate has no subject key identifier")
	}
	g.signers = append(g.signers, signerEntry{signer: signer, opts: opts})
	g.AddCertificates(certs...)
	return nil
}

// AddCertificates adds certificates to the message. Duplicates are ignored.
func (g *SignedDataGenerator) AddCertificates(certs ...*x509.Certificate) {
	for _, cert := range certs {
		found := false
		for _, c := range g.certificates {
			if c.Equal(cert) {
				found = true
				break
			}
		}
		if !found {
			g.certificates = append(g.certificates, cert)
		}
	}
}

// Generate returns the DER encoded ContentInfo of a SignedData message
// signing content of the given type. With detached set, the content is left
// out of the message.
//
// Reference: RFC 5652 5 Signed-data Content Type
func (g *SignedDataGenerator) Generate(ctx context.Context, contentType encasn1.ObjectIdentifier, content []byte, detached bool) ([]byte, error) {
	logger := log.GetLogger(ctx)
	if len(g.signers) == 0 {
		return nil, errors.New("cms: no signer")
	}
	if contentType == nil {
		contentType = oid.Data
	}

	version := 1
	if !oid.Data.Equal(contentType) {
		version = 3
	}
	var digestAlgorithms []asn1.Value
	seen := map[string]bool{}
	signerInfos := make([]asn1.Value, 0, len(g.signers))
	for _, entry := range g.signers {
		info, digestAlg, err := g.signerInfo(ctx, entry, contentType, content)
		if err != nil {
			return nil, err
		}
		if entry.opts.SubjectKeyID {
			version = 3
		}
		signerInfos = append(signerInfos, info)
		if key := digestAlg.String(); !seen[key] {
			seen[key] = true
			digestAlgorithms = append(digestAlgorithms, asn1.NewSequence(asn1.MustObjectIdentifier(digestAlg)))
		}
	}

	encap := EncapsulatedContentInfo{ContentType: contentType}
	if !detached {
		encap.Content = content
		if encap.Content == nil {
			encap.Content = []byte{}
		}
	}
	encapValue, err := encap.Value()
	if err != nil {
		return nil, err
	}

	fields := []asn1.Value{
		asn1.NewInt64(int64(version)),
		asn1.NewSet(digestAlgorithms...),
		encapValue,
	}
	if len(g.certificates) > 0 {
		certs := make([]asn1.Value, 0, len(g.certificates))
		for _, cert := range g.certificates {
			v, err := rawValue(cert.Raw)
			if err != nil {
				return nil, err
			}
			certs = append(certs, v)
		}
		fields = append(fields, asn1.NewImplicit(asn1.ClassContextSpecific, 0, asn1.NewSet(certs...)))
	}
	fields = append(fields, asn1.NewSet(signerInfos...))

	contentInfo, err := ContentInfo{ContentType: oid.SignedData, Content: asn1.NewSequence(fields...)}.Value()
	if err != nil {
		return nil, err
	}
	logger.Debugf("Generated signed data version %d with %d signers", version, len(signerInfos))
	return asn1.Marshal(contentInfo)
}

// signerInfo builds the SignerInfo of a signer, and returns it along with
// its digest algorithm.
func (g *SignedDataGenerator) signerInfo(ctx context.Context, entry signerEntry, contentType encasn1.ObjectIdentifier, content []byte) (asn1.Value, encasn1.ObjectIdentifier, error) {
	logger := log.GetLogger(ctx)
	alg, ok := signature.Lookup(entry.signer.Algorithm())
	if !ok {
		return nil, nil, &signature.SignatureError{Algorithm: entry.signer.Algorithm().String(), Detail: signature.ErrUnsupportedAlgorithm}
	}
	digestAlg := entry.opts.Digest
	if digestAlg == "" {
		digestAlg = digest.SHA512
		if a, ok := oid.DigestAlgorithm(alg.Hash); ok {
			digestAlg = a
		}
	}
	digestOID, ok := oid.FromDigestAlgorithm(digestAlg)
	if !ok {
		return nil, nil, fmt.Errorf("cms: unsupported digest algorithm %q", digestAlg)
	}
	contentDigest, sum, err := hashutil.ComputeDigest(digestAlg, bytes.NewReader(content))
	if err != nil {
		return nil, nil, err
	}
	logger.Debugf("Signing content digest %s with %s", contentDigest, alg.Name)

	// signed attributes
	contentTypeValue, err := asn1.NewObjectIdentifier(contentType)
	if err != nil {
		return nil, nil, err
	}
	attrs := Attributes{
		{Type: oid.ContentType, Values: []asn1.Value{contentTypeValue}},
		{Type: oid.MessageDigest, Values: []asn1.Value{asn1.NewOctetString(sum)}},
	}
	if !entry.opts.SigningTime.IsZero() {
		attrs = append(attrs, Attribute{Type: oid.SigningTime, Values: []asn1.Value{signingTime(entry.opts.SigningTime)}})
	}
	attrSet, err := attrs.Set()
	if err != nil {
		return nil, nil, err
	}
	signed, err := asn1.Marshal(attrSet)
	if err != nil {
		return nil, nil, err
	}
	sig, err := entry.signer.Sign(signed, g.Rand)
	if err != nil {
		return nil, nil, err
	}

	cert := entry.signer.CertificateChain()[0]
	version := 1
	var sid asn1.Value
	if entry.opts.SubjectKeyID {
		version = 3
		sid = asn1.NewImplicit(asn1.ClassContextSpecific, 0, asn1.NewOctetString(cert.SubjectKeyId))
	} else {
		if sid, err = (IssuerAndSerialNumber{Issuer: cert.RawIssuer, SerialNumber: cert.SerialNumber}).Value(); err != nil {
			return nil, nil, err
		}
	}
	digestAlgValue, err := signature.AlgorithmIdentifier{Algorithm: digestOID}.Value()
	if err != nil {
		return nil, nil, err
	}
	sigAlgValue, err := alg.Identifier().Value()
	if err != nil {
		return nil, nil, err
	}
	return asn1.NewSequence(
		asn1.NewInt64(int64(version)),
		sid,
		digestAlgValue,
		asn1.NewImplicit(asn1.ClassContextSpecific, 0, attrSet),
		sigAlgValue,
		asn1.NewOctetString(sig),
	), digestOID, nil
}

// signingTime encodes t as UTCTime for the years 1950 to 2049 and as
// GeneralizedTime otherwise.
//
// Reference: RFC 5652 11.3 Signing Time
func signingTime(t time.Time) asn1.Value {
	t = t.UTC().Truncate(time.Second)
	if v, err := asn1.NewUTCTime(t); err == nil {
		return v
	}
	return asn1.NewGeneralizedTime(t)
}

var _ Signer = (*signature.LocalSigner)(nil)
