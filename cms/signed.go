package cms

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	encasn1 "encoding/asn1"
	"encoding/hex"
	"errors"

	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/hashutil"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
	"github.com/notaryproject/cms-go/log"
	"github.com/notaryproject/cms-go/signature"
)

// ParsedSignedData is a parsed SignedData structure for golang friendly types.
//
//	SignedData ::= SEQUENCE {
//	  version             CMSVersion,
//	  digestAlgorithms    DigestAlgorithmIdentifiers,
//	  encapContentInfo    EncapsulatedContentInfo,
//	  certificates        [0] IMPLICIT CertificateSet             OPTIONAL,
//	  crls                [1] IMPLICIT CertificateRevocationLists OPTIONAL,
//	  signerInfos         SignerInfos }
type ParsedSignedData struct {
	Version          int
	DigestAlgorithms []signature.AlgorithmIdentifier
	Content          []byte
	ContentType      encasn1.ObjectIdentifier
	Certificates     []*x509.Certificate
	CRLs             []*x509.RevocationList
	Signers          *SignerInformationStore
}

// VerifyOptions contains parameters for ParsedSignedData.Verify.
type VerifyOptions struct {
	// VerifyOptions verifies the signer certificates. Intermediates are
	// replaced by the certificates of the signed data.
	x509.VerifyOptions

	// Engine verifies the signatures. DefaultEngine is used when nil.
	Engine signature.Engine

	// AllowedSignatureAlgorithms restricts the signature algorithms
	// accepted. Any supported algorithm is accepted when empty.
	AllowedSignatureAlgorithms []encasn1.ObjectIdentifier
}

// ParseSignedData parses a BER or DER encoded ContentInfo holding a
// SignedData structure.
func ParseSignedData(data []byte) (*ParsedSignedData, error) {
	return ParseSignedDataWithOptions(data, asn1.DecodeOptions{})
}

// ParseSignedDataWithOptions is like ParseSignedData with explicit decoding
// options.
func ParseSignedDataWithOptions(data []byte, opts asn1.DecodeOptions) (*ParsedSignedData, error) {
	v, err := asn1.UnmarshalWithOptions(data, opts)
	if err != nil {
		return nil, SyntaxError{Message: "invalid content info", Detail: err}
	}
	contentInfo, _, err := asn1.Coerce(v, AsContentInfo)
	if err != nil {
		return nil, SyntaxError{Message: "invalid content info", Detail: err}
	}
	if !oid.SignedData.Equal(contentInfo.ContentType) {
		return nil, ErrExpectSignedData
	}
	signed, err := parseSignedData(contentInfo.Content)
	if err != nil {
		return nil, SyntaxError{Message: "invalid signed data", Detail: err}
	}
	return signed, nil
}

func parseSignedData(v asn1.Value) (*ParsedSignedData, error) {
	fields, err := asn1.Fields(v, "SignedData", 4, 6)
	if err != nil {
		return nil, err
	}
	d := &ParsedSignedData{}
	version, _, err := asn1.Coerce(fields[0], asn1.AsInteger)
	if err != nil {
		return nil, fieldError("SignedData", "version", err)
	}
	n, err := version.Int64()
	if err != nil {
		return nil, fieldError("SignedData", "version", err)
	}
	d.Version = int(n)

	if d.DigestAlgorithms, err = parseDigestAlgorithms(fields[1]); err != nil {
		return nil, fieldError("SignedData", "digestAlgorithms", err)
	}
	encap, _, err := asn1.Coerce(fields[2], AsEncapsulatedContentInfo)
	if err != nil {
		return nil, fieldError("SignedData", "encapContentInfo", err)
	}
	d.ContentType = encap.ContentType
	d.Content = encap.Content

	i := 3
	if contextTag(fields[i]) == 0 {
		if d.Certificates, err = x509.ParseCertificates(fields[i].(asn1.Tagged).Content()); err != nil {
			return nil, fieldError("SignedData", "certificates", err)
		}
		i++
	}
	if i < len(fields) && contextTag(fields[i]) == 1 {
		if d.CRLs, err = parseCRLs(fields[i].(asn1.Tagged)); err != nil {
			return nil, fieldError("SignedData", "crls", err)
		}
		i++
	}
	if i != len(fields)-1 {
		return nil, &asn1.SchemaViolationError{Structure: "SignedData", Field: "signerInfos", Detail: errors.New("unexpected fields")}
	}
	signerInfos, _, err := asn1.Coerce(fields[i], asn1.AsSet)
	if err != nil {
		return nil, fieldError("SignedData", "signerInfos", err)
	}
	var signers []*SignerInformation
	for _, si := range signerInfos.Elements() {
		signer, _, err := asn1.Coerce(si, AsSignerInformation)
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	d.Signers = NewSignerInformationStore(signers)
	return d, nil
}

// DigestAlgorithmIdentifiers ::= SET OF DigestAlgorithmIdentifier
func parseDigestAlgorithms(v asn1.Value) ([]signature.AlgorithmIdentifier, error) {
	set, _, err := asn1.Coerce(v, asn1.AsSet)
	if err != nil {
		return nil, err
	}
	algs := make([]signature.AlgorithmIdentifier, 0, set.Len())
	for _, e := range set.Elements() {
		alg, _, err := asn1.Coerce(e, signature.AsAlgorithmIdentifier)
		if err != nil {
			return nil, err
		}
		algs = append(algs, alg)
	}
	return algs, nil
}

// CertificateRevocationLists ::= SET OF RevocationInfoChoice
//
// Only the CertificateList choice is supported.
func parseCRLs(t asn1.Tagged) ([]*x509.RevocationList, error) {
	set, err := asn1.CoerceTagged(t, false, asn1.AsSet)
	if err != nil {
		return nil, err
	}
	crls := make([]*x509.RevocationList, 0, set.Len())
	for _, e := range set.Elements() {
		der, err := asn1.Marshal(e)
		if err != nil {
			return nil, err
		}
		crl, err := x509.ParseRevocationList(der)
		if err != nil {
			return nil, err
		}
		crls = append(crls, crl)
	}
	return crls, nil
}

// Verify attempts to verify the content in the parsed signed data against the signer
// information. The `Intermediates` in the verify options will be ignored and
// re-contrusted using the certificates in the parsed signed data.
// Signers are matched to certificates through SignerIDFromCertificate.
// If more than one signature is present, the successful validation of any signature
// implies that the content in the parsed signed data is valid.
// On successful verification, the list of signing certificates that successfully
// verify is returned.
// If all signatures fail to verify, the last error is returned.
// References:
// - RFC 5652 5   Signed-data Content Type
// - RFC 5652 5.4 Message Digest Calculation Process
// - RFC 5652 5.6 Signature Verification Process
// WARNING: this function doesn't do any revocation checking.
func (d *ParsedSignedData) Verify(ctx context.Context, opts VerifyOptions) ([]*x509.Certificate, error) {
	logger := log.GetLogger(ctx)
	if d.Signers == nil || d.Signers.Len() == 0 {
		return nil, ErrSignerNotFound
	}
	if len(d.Certificates) == 0 {
		return nil, ErrCertificateNotFound
	}
	if opts.Engine == nil {
		opts.Engine = signature.DefaultEngine{}
	}

	intermediates := x509.NewCertPool()
	for _, cert := range d.Certificates {
		intermediates.AddCert(cert)
	}
	opts.Intermediates = intermediates
	verifiedSignerMap := map[string]*x509.Certificate{}
	var verifiedSigners []*x509.Certificate
	var lastErr error = ErrCertificateNotFound
	for _, cert := range d.Certificates {
		sid := SignerIDFromCertificate(cert)
		for _, signer := range d.Signers.GetSigners(sid) {
			logger.Debugf("Verifying signer %v against certificate %q", signer.SID(), cert.Subject)
			if err := d.verify(ctx, signer, cert, opts); err != nil {
				logger.Debugf("Signer %v failed to verify: %v", signer.SID(), err)
				lastErr = err
				continue
			}
			thumbprint, err := hashutil.ComputeHash(crypto.SHA256, cert.Raw)
			if err != nil {
				return nil, err
			}
			key := hex.EncodeToString(thumbprint)
			if _, ok := verifiedSignerMap[key]; !ok {
				verifiedSignerMap[key] = cert
				verifiedSigners = append(verifiedSigners, cert)
			}
		}
	}
	if len(verifiedSigners) == 0 {
		return nil, lastErr
	}
	return verifiedSigners, nil
}

// verify verifies the trust in a top-down manner.
// References:
// - RFC 5652 5.4 Message Digest Calculation Process
// - RFC 5652 5.6 Signature Verification Process
func (d *ParsedSignedData) verify(ctx context.Context, signer *SignerInformation, cert *x509.Certificate, opts VerifyOptions) error {
	// verify signer certificate
	if _, err := cert.Verify(opts.VerifyOptions); err != nil {
		return VerificationError{Detail: err}
	}

	// verify signature
	return verifySignature(ctx, signer, cert, d.Content, d.ContentType, opts)
}

// verifySignature verifies the signature with a trusted certificate.
// References:
// - RFC 5652 5.4 Message Digest Calculation Process
// - RFC 5652 5.6 Signature Verification Process
func verifySignature(ctx context.Context, signer *SignerInformation, cert *x509.Certificate, content []byte, contentType encasn1.ObjectIdentifier, opts VerifyOptions) error {
	logger := log.GetLogger(ctx)
	alg, err := signatureAlgorithm(signer.digestAlgorithm, signer.signatureAlgorithm)
	if err != nil {
		return VerificationError{Message: "unknown signature algorithm", Detail: err}
	}
	if !allowed(alg.OID, opts.AllowedSignatureAlgorithms) {
		return VerificationError{Message: "signature algorithm " + alg.Name + " is not allowed"}
	}
	signed, err := signer.signedBytes(content)
	if err != nil {
		return VerificationError{Message: "invalid signed attributes", Detail: err}
	}
	if err := opts.Engine.Verify(alg.OID, cert.PublicKey, signed, signer.signature); err != nil {
		return VerificationError{Detail: err}
	}

	// verify attributes if present
	if len(signer.signedAttrs) == 0 {
		return nil
	}

	v, err := signer.signedAttrs.TryGet(oid.ContentType)
	if err != nil {
		return VerificationError{Message: "invalid content type", Detail: err}
	}
	attrContentType, _, err := asn1.Coerce(v, asn1.AsObjectIdentifier)
	if err != nil {
		return VerificationError{Message: "invalid content type", Detail: err}
	}
	if !contentType.Equal(attrContentType.OID()) {
		return VerificationError{Message: "mismatch content type"}
	}

	v, err = signer.signedAttrs.TryGet(oid.MessageDigest)
	if err != nil {
		return VerificationError{Message: "invalid message digest", Detail: err}
	}
	expectedDigest, _, err := asn1.Coerce(v, asn1.AsOctetString)
	if err != nil {
		return VerificationError{Message: "invalid message digest", Detail: err}
	}
	hash, ok := oid.ConvertToHash(signer.digestAlgorithm.Algorithm)
	if !ok {
		return VerificationError{Message: "unsupported digest algorithm"}
	}
	digestAlg, ok := oid.DigestAlgorithm(hash)
	if !ok {
		return VerificationError{Message: "unsupported digest algorithm"}
	}
	contentDigest, actualDigest, err := hashutil.ComputeDigest(digestAlg, bytes.NewReader(content))
	if err != nil {
		return VerificationError{Message: "hash failure", Detail: err}
	}
	logger.Debugf("Content digest: %s", contentDigest)
	if !bytes.Equal(expectedDigest.Octets(), actualDigest) {
		return VerificationError{Message: "mismatch message digest"}
	}

	// sanity check on signing time
	v, err = signer.signedAttrs.TryGet(oid.SigningTime)
	if err != nil {
		if errors.Is(err, ErrAttributeNotFound) {
			return nil
		}
		return VerificationError{Message: "invalid signing time", Detail: err}
	}
	signingTime, _, err := asn1.Coerce(v, asn1.AsTime)
	if err != nil {
		return VerificationError{Message: "invalid signing time", Detail: err}
	}
	if t := signingTime.Time(); t.Before(cert.NotBefore) || t.After(cert.NotAfter) {
		return VerificationError{Message: "signature signed when cert is inactive"}
	}
	return nil
}

// signatureAlgorithm resolves the signature algorithm of a signer. The
// rsaEncryption identifier takes its hash from the digest algorithm.
func signatureAlgorithm(digestAlg, sigAlg signature.AlgorithmIdentifier) (signature.Algorithm, error) {
	if oid.RSA.Equal(sigAlg.Algorithm) {
		hash, ok := oid.ConvertToHash(digestAlg.Algorithm)
		if !ok {
			return signature.Algorithm{}, signature.ErrUnsupportedAlgorithm
		}
		var id encasn1.ObjectIdentifier
		switch hash {
		case crypto.SHA256:
			id = oid.SHA256WithRSA
		case crypto.SHA384:
			id = oid.SHA384WithRSA
		case crypto.SHA512:
			id = oid.SHA512WithRSA
		default:
			return signature.Algorithm{}, signature.ErrUnsupportedAlgorithm
		}
		alg, _ := signature.Lookup(id)
		return alg, nil
	}
	v, err := sigAlg.Value()
	if err != nil {
		return signature.Algorithm{}, err
	}
	return signature.ParseAlgorithmIdentifier(v)
}

func allowed(id encasn1.ObjectIdentifier, list []encasn1.ObjectIdentifier) bool {
	if len(list) == 0 {
		return true
	}
	for _, a := range list {
		if a.Equal(id) {
			return true
		}
	}
	return false
}
