package timestamp

import (
	"bytes"
	"context"
	"crypto/x509"
	encasn1 "encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/notaryproject/cms-go/cms"
	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/hashutil"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
)

// SignedToken is a parsed timestamp token with signatures.
type SignedToken cms.ParsedSignedData

// ParseSignedToken parses ASN.1 BER-encoded structure to SignedToken
// without verification.
// Callers should invoke Verify to verify the content before comsumption.
func ParseSignedToken(data []byte) (*SignedToken, error) {
	data, err := asn1.ConvertToDER(data)
	if err != nil {
		return nil, err
	}
	signed, err := cms.ParseSignedData(data)
	if err != nil {
		return nil, err
	}
	if !oid.TSTInfo.Equal(signed.ContentType) {
		return nil, fmt.Errorf("unexpected content type: %v", signed.ContentType)
	}
	return (*SignedToken)(signed), nil
}

// Verify verifies the signed token as CMS SignedData. Unless set in opts,
// the signer certificate must be valid for time stamping.
func (t *SignedToken) Verify(ctx context.Context, opts x509.VerifyOptions) ([]*x509.Certificate, error) {
	if len(opts.KeyUsages) == 0 {
		opts.KeyUsages = []x509.ExtKeyUsage{x509.ExtKeyUsageTimeStamping}
	}
	return (*cms.ParsedSignedData)(t).Verify(ctx, cms.VerifyOptions{VerifyOptions: opts})
}

// Info returns the timestamping information.
func (t *SignedToken) Info() (*TSTInfo, error) {
	v, err := asn1.UnmarshalStrict(t.Content)
	if err != nil {
		return nil, err
	}
	info, _, err := asn1.Coerce(v, AsTSTInfo)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Accuracy ::= SEQUENCE {
//  seconds     INTEGER             OPTIONAL,
//  millis  [0] INTEGER (1..999)    OPTIONAL,
//  micros  [1] INTEGER (1..999)    OPTIONAL }
type Accuracy struct {
	Seconds      int
	Milliseconds int
	Microseconds int
}

// Value returns the Accuracy as a SEQUENCE. Zero components are left out.
func (a Accuracy) Value() asn1.Value {
	var fields []asn1.Value
	if a.Seconds != 0 {
		fields = append(fields, asn1.NewInt64(int64(a.Seconds)))
	}
	if a.Milliseconds != 0 {
		fields = append(fields, asn1.NewImplicit(asn1.ClassContextSpecific, 0, asn1.NewInt64(int64(a.Milliseconds))))
	}
	if a.Microseconds != 0 {
		fields = append(fields, asn1.NewImplicit(asn1.ClassContextSpecific, 1, asn1.NewInt64(int64(a.Microseconds))))
	}
	return asn1.NewSequence(fields...)
}

func parseAccuracy(seq asn1.Sequence) (Accuracy, error) {
	var a Accuracy
	next := 0
	for _, field := range seq.Elements() {
		var (
			order int
			n     asn1.Integer
			err   error
		)
		switch x := field.(type) {
		case asn1.Integer:
			order, n = 0, x
		case asn1.Tagged:
			order = x.Tag().Number + 1
			if x.Tag().Class != asn1.ClassContextSpecific || order > 2 {
				order = -1
				break
			}
			n, err = asn1.CoerceTagged(x, false, asn1.AsInteger)
		default:
			order = -1
		}
		if err != nil {
			return Accuracy{}, err
		}
		if order < next {
			return Accuracy{}, &asn1.SchemaViolationError{
				Structure: "Accuracy",
				Detail:    fmt.Errorf("unexpected %s", asn1.VariantName(field)),
			}
		}
		next = order + 1
		value, err := n.Int64()
		if err != nil || value < 0 || (order > 0 && (value < 1 || value > 999)) {
			return Accuracy{}, &asn1.SchemaViolationError{
				Structure: "Accuracy",
				Detail:    fmt.Errorf("component out of range: %v", n.BigInt()),
			}
		}
		switch order {
		case 0:
			a.Seconds = int(value)
		case 1:
			a.Milliseconds = int(value)
		case 2:
			a.Microseconds = int(value)
		}
	}
	return a, nil
}

// TSTInfo ::= SEQUENCE {
//  version         INTEGER                 { v1(1) },
//  policy          TSAPolicyId,
//  messageImprint  MessageImprint,
//  serialNumber    INTEGER,
//  genTime         GeneralizedTime,
//  accuracy        Accuracy                OPTIONAL,
//  ordering        BOOLEAN                 DEFAULT FALSE,
//  nonce           INTEGER                 OPTIONAL,
//  tsa             [0] GeneralName         OPTIONAL,
//  extensions      [1] IMPLICIT Extensions OPTIONAL }
type TSTInfo struct {
	Version        int // fixed to 1 as defined in RFC 3161 2.4.2 Response Format
	Policy         encasn1.ObjectIdentifier
	MessageImprint MessageImprint
	SerialNumber   *big.Int
	GenTime        time.Time
	Accuracy       Accuracy
	Ordering       bool
	Nonce          *big.Int

	// TSA and Extensions are kept undecoded. They are nil when absent.
	TSA        asn1.Value
	Extensions asn1.Value
}

// Value returns the TSTInfo as a SEQUENCE.
func (tst *TSTInfo) Value() (asn1.Value, error) {
	policy, err := asn1.NewObjectIdentifier(tst.Policy)
	if err != nil {
		return nil, err
	}
	imprint, err := tst.MessageImprint.Value()
	if err != nil {
		return nil, err
	}
	fields := []asn1.Value{
		asn1.NewInt64(int64(tst.Version)),
		policy,
		imprint,
		asn1.NewInteger(tst.SerialNumber),
		asn1.NewGeneralizedTime(tst.GenTime),
	}
	if tst.Accuracy != (Accuracy{}) {
		fields = append(fields, tst.Accuracy.Value())
	}
	if tst.Ordering {
		fields = append(fields, asn1.NewBoolean(true))
	}
	if tst.Nonce != nil {
		fields = append(fields, asn1.NewInteger(tst.Nonce))
	}
	if tst.TSA != nil {
		fields = append(fields, asn1.NewExplicit(asn1.ClassContextSpecific, 0, tst.TSA))
	}
	if tst.Extensions != nil {
		fields = append(fields, asn1.NewImplicit(asn1.ClassContextSpecific, 1, tst.Extensions))
	}
	return asn1.NewSequence(fields...), nil
}

// AsTSTInfo converts a value to a TSTInfo.
var AsTSTInfo = asn1.Conversion[TSTInfo]{
	Name: "TSTInfo",
	Tag:  asn1.Universal(asn1.TagSequence),
	FromValue: func(v asn1.Value) (TSTInfo, error) {
		fields, err := asn1.Fields(v, "TSTInfo", 5, 10)
		if err != nil {
			return TSTInfo{}, err
		}
		version, _, err := asn1.Coerce(fields[0], asn1.AsInteger)
		if err != nil {
			return TSTInfo{}, tstInfoError("version", err)
		}
		if n, err := version.Int64(); err != nil || n != 1 {
			return TSTInfo{}, tstInfoError("version", fmt.Errorf("unsupported version %v", version.BigInt()))
		}
		policy, _, err := asn1.Coerce(fields[1], asn1.AsObjectIdentifier)
		if err != nil {
			return TSTInfo{}, tstInfoError("policy", err)
		}
		imprint, _, err := asn1.Coerce(fields[2], AsMessageImprint)
		if err != nil {
			return TSTInfo{}, tstInfoError("messageImprint", err)
		}
		serial, _, err := asn1.Coerce(fields[3], asn1.AsInteger)
		if err != nil {
			return TSTInfo{}, tstInfoError("serialNumber", err)
		}
		genTime, _, err := asn1.Coerce(fields[4], asn1.AsTime)
		if err != nil || genTime.Kind() != asn1.GeneralizedTime {
			return TSTInfo{}, tstInfoError("genTime", &asn1.TypeMismatchError{Want: "GeneralizedTime", Got: asn1.VariantName(fields[4])})
		}
		info := TSTInfo{
			Version:        1,
			Policy:         policy.OID(),
			MessageImprint: imprint,
			SerialNumber:   serial.BigInt(),
			GenTime:        genTime.Time(),
		}

		// optional fields in order: accuracy, ordering, nonce, tsa, extensions
		next := 0
		for _, field := range fields[5:] {
			order := -1
			switch x := field.(type) {
			case asn1.Sequence:
				order = 0
				if info.Accuracy, err = parseAccuracy(x); err != nil {
					return TSTInfo{}, tstInfoError("accuracy", err)
				}
			case asn1.Boolean:
				order = 1
				info.Ordering = x.Bool()
			case asn1.Integer:
				order = 2
				info.Nonce = x.BigInt()
			case asn1.Tagged:
				if x.Tag().Class != asn1.ClassContextSpecific {
					break
				}
				switch x.Tag().Number {
				case 0:
					order = 3
					if info.TSA, err = asn1.CoerceTagged(x, true, asAny); err != nil {
						return TSTInfo{}, tstInfoError("tsa", err)
					}
				case 1:
					order = 4
					if info.Extensions, err = asn1.CoerceTagged(x, false, asn1.AsSequence); err != nil {
						return TSTInfo{}, tstInfoError("extensions", err)
					}
				}
			}
			if order < next {
				return TSTInfo{}, &asn1.SchemaViolationError{
					Structure: "TSTInfo",
					Detail:    fmt.Errorf("unexpected %s", asn1.VariantName(field)),
				}
			}
			next = order + 1
		}
		return info, nil
	},
}

// asAny accepts any value.
var asAny = asn1.Conversion[asn1.Value]{
	Name:      "ANY",
	FromValue: func(v asn1.Value) (asn1.Value, error) { return v, nil },
}

func tstInfoError(field string, err error) error {
	return &asn1.SchemaViolationError{Structure: "TSTInfo", Field: field, Detail: err}
}

// Verify verifies the message against the timestamp token information.
func (tst *TSTInfo) Verify(message []byte) error {
	hashAlg := tst.MessageImprint.HashAlgorithm.Algorithm
	hash, ok := oid.ConvertToHash(hashAlg)
	if !ok {
		return fmt.Errorf("unrecognized hash algorithm: %v", hashAlg)
	}
	messageDigest, err := hashutil.ComputeHash(hash, message)
	if err != nil {
		return err
	}
	if !bytes.Equal(tst.MessageImprint.HashedMessage, messageDigest) {
		return errors.New("mismatch message digest")
	}
	return nil
}

// Timestamp returns the timestamp by TSA and its accuracy.
func (tst *TSTInfo) Timestamp() (time.Time, time.Duration) {
	accuracy := time.Duration(tst.Accuracy.Seconds)*time.Second +
		time.Duration(tst.Accuracy.Milliseconds)*time.Millisecond +
		time.Duration(tst.Accuracy.Microseconds)*time.Microsecond
	return tst.GenTime, accuracy
}
