package timestamp

import (
	encasn1 "encoding/asn1"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
	"github.com/notaryproject/cms-go/signature"
	digest "github.com/opencontainers/go-digest"
)

// MessageImprint contains the hash of the datum to be time-stamped.
// MessageImprint ::= SEQUENCE {
//  hashAlgorithm   AlgorithmIdentifier,
//  hashedMessage   OCTET STRING }
type MessageImprint struct {
	HashAlgorithm signature.AlgorithmIdentifier
	HashedMessage []byte
}

// Value returns the MessageImprint as a SEQUENCE.
func (m MessageImprint) Value() (asn1.Value, error) {
	alg, err := m.HashAlgorithm.Value()
	if err != nil {
		return nil, err
	}
	return asn1.NewSequence(alg, asn1.NewOctetString(m.HashedMessage)), nil
}

// AsMessageImprint converts a value to a MessageImprint.
var AsMessageImprint = asn1.Conversion[MessageImprint]{
	Name: "MessageImprint",
	Tag:  asn1.Universal(asn1.TagSequence),
	FromValue: func(v asn1.Value) (MessageImprint, error) {
		fields, err := asn1.Fields(v, "MessageImprint", 2, 2)
		if err != nil {
			return MessageImprint{}, err
		}
		alg, _, err := asn1.Coerce(fields[0], signature.AsAlgorithmIdentifier)
		if err != nil {
			return MessageImprint{}, err
		}
		hashed, _, err := asn1.Coerce(fields[1], asn1.AsOctetString)
		if err != nil {
			return MessageImprint{}, err
		}
		return MessageImprint{HashAlgorithm: alg, HashedMessage: hashed.Octets()}, nil
	},
}

// Request is a time-stamping request.
// TimeStampReq ::= SEQUENCE {
//  version         INTEGER                 { v1(1) },
//  messageImprint  MessageImprint,
//  reqPolicy       TSAPolicyID              OPTIONAL,
//  nonce           INTEGER                  OPTIONAL,
//  certReq         BOOLEAN                  DEFAULT FALSE,
//  extensions      [0] IMPLICIT Extensions  OPTIONAL }
//
// Requests with extensions are not supported.
type Request struct {
	Version        int // fixed to 1 as defined in RFC 3161 2.4.1 Request Format
	MessageImprint MessageImprint
	ReqPolicy      encasn1.ObjectIdentifier
	Nonce          *big.Int
	CertReq        bool
}

// NewRequest creates a request based on the given digest.
func NewRequest(contentDigest digest.Digest) (*Request, error) {
	if err := contentDigest.Validate(); err != nil {
		return nil, err
	}
	hashAlgorithm, ok := oid.FromDigestAlgorithm(contentDigest.Algorithm())
	if !ok {
		return nil, digest.ErrDigestUnsupported
	}
	hashedMessage, err := hex.DecodeString(contentDigest.Encoded())
	if err != nil {
		return nil, err
	}
	return &Request{
		Version: 1,
		MessageImprint: MessageImprint{
			HashAlgorithm: signature.AlgorithmIdentifier{
				Algorithm: hashAlgorithm,
			},
			HashedMessage: hashedMessage,
		},
		CertReq: true,
	}, nil
}

// NewRequestFromBytes creates a request based on the given byte slice.
func NewRequestFromBytes(content []byte) (*Request, error) {
	return NewRequest(digest.FromBytes(content))
}

// NewRequestFromString creates a request based on the given string.
func NewRequestFromString(content string) (*Request, error) {
	return NewRequest(digest.FromString(content))
}

// MarshalBinary encodes the request to binary form.
// This method implements encoding.BinaryMarshaler
func (r *Request) MarshalBinary() ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil request")
	}
	imprint, err := r.MessageImprint.Value()
	if err != nil {
		return nil, err
	}
	fields := []asn1.Value{asn1.NewInt64(int64(r.Version)), imprint}
	if r.ReqPolicy != nil {
		policy, err := asn1.NewObjectIdentifier(r.ReqPolicy)
		if err != nil {
			return nil, err
		}
		fields = append(fields, policy)
	}
	if r.Nonce != nil {
		fields = append(fields, asn1.NewInteger(r.Nonce))
	}
	if r.CertReq {
		fields = append(fields, asn1.NewBoolean(true))
	}
	return asn1.Marshal(asn1.NewSequence(fields...))
}

// UnmarshalBinary decodes the request from binary form.
// This method implements encoding.BinaryUnmarshaler
func (r *Request) UnmarshalBinary(data []byte) error {
	v, err := asn1.UnmarshalStrict(data)
	if err != nil {
		return err
	}
	fields, err := asn1.Fields(v, "TimeStampReq", 2, 5)
	if err != nil {
		return err
	}
	version, _, err := asn1.Coerce(fields[0], asn1.AsInteger)
	if err != nil {
		return err
	}
	n, err := version.Int64()
	if err != nil {
		return err
	}
	imprint, _, err := asn1.Coerce(fields[1], AsMessageImprint)
	if err != nil {
		return err
	}
	req := Request{Version: int(n), MessageImprint: imprint}

	// optional fields in order: reqPolicy, nonce, certReq
	next := 0
	for _, field := range fields[2:] {
		order := -1
		switch x := field.(type) {
		case asn1.ObjectIdentifier:
			order = 0
			req.ReqPolicy = x.OID()
		case asn1.Integer:
			order = 1
			req.Nonce = x.BigInt()
		case asn1.Boolean:
			order = 2
			req.CertReq = x.Bool()
		}
		if order < next {
			return &asn1.SchemaViolationError{
				Structure: "TimeStampReq",
				Detail:    fmt.Errorf("unexpected %s", asn1.VariantName(field)),
			}
		}
		next = order + 1
	}
	*r = req
	return nil
}
