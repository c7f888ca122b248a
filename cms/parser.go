package cms

import (
	"crypto/x509"
	encasn1 "encoding/asn1"
	"errors"
	"fmt"
	"io"

	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
	"github.com/notaryproject/cms-go/signature"
)

// ContentInfoParser reads a ContentInfo from a stream. The content is
// handed off to a parser of its own, so that large messages are never held
// in memory.
type ContentInfoParser struct {
	seq         *asn1.Parser
	contentType encasn1.ObjectIdentifier
	opened      bool
}

// NewContentInfoParser reads the header and content type of the ContentInfo
// in r.
func NewContentInfoParser(r io.Reader, opts asn1.DecodeOptions) (*ContentInfoParser, error) {
	seq, err := asn1.NewParser(r, opts).NextSequence()
	if err != nil {
		return nil, err
	}
	contentType, err := nextField(seq, "ContentInfo", "contentType", asn1.AsObjectIdentifier)
	if err != nil {
		return nil, err
	}
	return &ContentInfoParser{seq: seq, contentType: contentType.OID()}, nil
}

// ContentType returns the content type.
func (p *ContentInfoParser) ContentType() encasn1.ObjectIdentifier {
	return p.contentType
}

// Content opens the [0] EXPLICIT content. The returned parser yields the
// content as its single element. Content can be called only once.
func (p *ContentInfoParser) Content() (*asn1.Parser, error) {
	if p.opened {
		return nil, asn1.ErrExhaustedParser
	}
	p.opened = true
	return p.seq.NextConstructed(asn1.ContextSpecific(0, true))
}

// SignedData opens the content as a SignedData.
func (p *ContentInfoParser) SignedData() (*SignedDataParser, error) {
	if !oid.SignedData.Equal(p.contentType) {
		return nil, ErrExpectSignedData
	}
	seq, err := p.contentSequence()
	if err != nil {
		return nil, err
	}
	return NewSignedDataParser(seq), nil
}

// CompressedData opens the content as a CompressedData.
func (p *ContentInfoParser) CompressedData() (*CompressedDataParser, error) {
	if !oid.CompressedData.Equal(p.contentType) {
		return nil, ErrExpectCompressedData
	}
	seq, err := p.contentSequence()
	if err != nil {
		return nil, err
	}
	return NewCompressedDataParser(seq)
}

func (p *ContentInfoParser) contentSequence() (*asn1.Parser, error) {
	explicit, err := p.Content()
	if err != nil {
		return nil, err
	}
	return explicit.NextSequence()
}

// EncapsulatedContentInfoParser reads an EncapsulatedContentInfo from a
// stream.
type EncapsulatedContentInfoParser struct {
	seq         *asn1.Parser
	contentType encasn1.ObjectIdentifier
	opened      bool
}

func newEncapsulatedContentInfoParser(seq *asn1.Parser) (*EncapsulatedContentInfoParser, error) {
	contentType, err := nextField(seq, "EncapsulatedContentInfo", "eContentType", asn1.AsObjectIdentifier)
	if err != nil {
		return nil, err
	}
	return &EncapsulatedContentInfoParser{seq: seq, contentType: contentType.OID()}, nil
}

// ContentType returns the content type.
func (p *EncapsulatedContentInfoParser) ContentType() encasn1.ObjectIdentifier {
	return p.contentType
}

// Content returns a reader over the content octets, or nil for detached
// content. Content can be called only once.
func (p *EncapsulatedContentInfoParser) Content() (io.Reader, error) {
	if p.opened {
		return nil, asn1.ErrExhaustedParser
	}
	p.opened = true
	if _, err := p.seq.PeekTag(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	explicit, err := p.seq.NextConstructed(asn1.ContextSpecific(0, true))
	if err != nil {
		return nil, err
	}
	return explicit.NextOctetString()
}

// SignedData stages, in schema order.
const (
	stageVersion = iota
	stageDigestAlgorithms
	stageEncapContentInfo
	stageCertificates
	stageCRLs
	stageSignerInfos
	stageDone
)

var stageNames = [...]string{
	stageVersion:          "version",
	stageDigestAlgorithms: "digestAlgorithms",
	stageEncapContentInfo: "encapContentInfo",
	stageCertificates:     "certificates",
	stageCRLs:             "crls",
	stageSignerInfos:      "signerInfos",
}

// SignedDataParser reads a SignedData from a stream. Its fields are read in
// schema order, each at most once; fields skipped over are discarded. The
// encapsulated content can be streamed before the signer infos are read.
type SignedDataParser struct {
	seq   *asn1.Parser
	stage int
}

// NewSignedDataParser returns a parser over the SignedData SEQUENCE seq.
func NewSignedDataParser(seq *asn1.Parser) *SignedDataParser {
	return &SignedDataParser{seq: seq}
}

// advance moves to the given stage, discarding the fields in between.
func (p *SignedDataParser) advance(stage int) error {
	if p.stage > stage {
		return &asn1.SchemaViolationError{
			Structure: "SignedData",
			Field:     stageNames[stage],
			Detail:    errors.New("field already read"),
		}
	}
	for p.stage < stage {
		switch p.stage {
		case stageCertificates, stageCRLs:
			if _, _, err := p.optional(p.stage - stageCertificates); err != nil {
				return err
			}
		default:
			if err := p.seq.Skip(); err != nil {
				return missingField(stageNames[p.stage], err)
			}
		}
		p.stage++
	}
	return nil
}

// optional consumes the [number] IMPLICIT field if present.
func (p *SignedDataParser) optional(number int) (asn1.Tagged, bool, error) {
	tag, err := p.seq.PeekTag()
	if err == io.EOF || (err == nil && !tag.Is(asn1.ContextSpecific(number, true))) {
		return asn1.Tagged{}, false, nil
	}
	if err != nil {
		return asn1.Tagged{}, false, err
	}
	v, err := p.seq.Next()
	if err != nil {
		return asn1.Tagged{}, false, err
	}
	t, ok := v.(asn1.Tagged)
	if !ok {
		return asn1.Tagged{}, false, &asn1.TypeMismatchError{Want: tag.String(), Got: asn1.VariantName(v)}
	}
	return t, true, nil
}

// Version reads the syntax version.
func (p *SignedDataParser) Version() (int, error) {
	if err := p.advance(stageVersion); err != nil {
		return 0, err
	}
	v, err := nextField(p.seq, "SignedData", "version", asn1.AsInteger)
	if err != nil {
		return 0, err
	}
	p.stage++
	n, err := v.Int64()
	if err != nil {
		return 0, fieldError("SignedData", "version", err)
	}
	return int(n), nil
}

// DigestAlgorithms reads the digest algorithms.
func (p *SignedDataParser) DigestAlgorithms() ([]signature.AlgorithmIdentifier, error) {
	if err := p.advance(stageDigestAlgorithms); err != nil {
		return nil, err
	}
	v, err := nextField(p.seq, "SignedData", "digestAlgorithms", asn1.AsSet)
	if err != nil {
		return nil, err
	}
	p.stage++
	algs, err := parseDigestAlgorithms(v)
	if err != nil {
		return nil, fieldError("SignedData", "digestAlgorithms", err)
	}
	return algs, nil
}

// EncapContentInfo opens the encapsulated content.
func (p *SignedDataParser) EncapContentInfo() (*EncapsulatedContentInfoParser, error) {
	if err := p.advance(stageEncapContentInfo); err != nil {
		return nil, err
	}
	seq, err := p.seq.NextSequence()
	if err != nil {
		return nil, missingField("encapContentInfo", err)
	}
	p.stage++
	return newEncapsulatedContentInfoParser(seq)
}

// Certificates reads the certificates, or nil if absent.
func (p *SignedDataParser) Certificates() ([]*x509.Certificate, error) {
	if err := p.advance(stageCertificates); err != nil {
		return nil, err
	}
	t, ok, err := p.optional(0)
	if err != nil {
		return nil, err
	}
	p.stage++
	if !ok {
		return nil, nil
	}
	certs, err := x509.ParseCertificates(t.Content())
	if err != nil {
		return nil, fieldError("SignedData", "certificates", err)
	}
	return certs, nil
}

// CRLs reads the certificate revocation lists, or nil if absent.
func (p *SignedDataParser) CRLs() ([]*x509.RevocationList, error) {
	if err := p.advance(stageCRLs); err != nil {
		return nil, err
	}
	t, ok, err := p.optional(1)
	if err != nil {
		return nil, err
	}
	p.stage++
	if !ok {
		return nil, nil
	}
	crls, err := parseCRLs(t)
	if err != nil {
		return nil, fieldError("SignedData", "crls", err)
	}
	return crls, nil
}

// SignerInfos reads the signer infos, the last field of the SignedData.
// Each SignerInfo keeps the encoding it was read from.
func (p *SignedDataParser) SignerInfos() (*SignerInformationStore, error) {
	if err := p.advance(stageSignerInfos); err != nil {
		return nil, err
	}
	set, err := p.seq.NextSet()
	if err != nil {
		return nil, missingField("signerInfos", err)
	}
	p.stage++
	var signers []*SignerInformation
	for {
		raw, err := set.NextRaw()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		signer, err := ParseSignerInfo(raw, p.seq.Options())
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	if err := p.seq.Finish(); err != nil {
		return nil, err
	}
	return NewSignerInformationStore(signers), nil
}

// nextField reads the next element of seq as a T.
func nextField[T any](seq *asn1.Parser, structure, field string, conv asn1.Conversion[T]) (T, error) {
	var zero T
	v, err := seq.Next()
	if err != nil {
		if err == io.EOF {
			err = errors.New("missing")
		}
		return zero, fieldError(structure, field, err)
	}
	t, _, err := asn1.Coerce(v, conv)
	if err != nil {
		return zero, fieldError(structure, field, err)
	}
	return t, nil
}

func missingField(field string, err error) error {
	var sv *asn1.SchemaViolationError
	if errors.As(err, &sv) {
		return err
	}
	if err == io.EOF || errors.Is(err, asn1.ErrExhaustedParser) {
		err = fmt.Errorf("missing %s", field)
	}
	return fieldError("SignedData", field, err)
}
