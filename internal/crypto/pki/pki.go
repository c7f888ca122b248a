// Package pki contains certificate management protocol structures
// defined in RFC 2510.
package pki

import (
	"fmt"

	"github.com/notaryproject/cms-go/encoding/asn1"
)

// PKIStatus is defined in RFC 2510 3.2.3.
const (
	StatusGranted                = 0 // you got exactly what you asked for
	StatusGrantedWithMods        = 1 // you got something like what you asked for
	StatusRejection              = 2 // you don't get it, more information elsewhere in the message
	StatusWaiting                = 3 // the request body part has not yet been processed, expect to hear more later
	StatusRevocationWarning      = 4 // this message contains a warning that a revocation is imminent
	StatusRevocationNotification = 5 // notification that a revocation has occurred
	StatusKeyUpdateWarning       = 6 // update already done for the oldCertId specified in the key update request message
)

// PKIFailureInfo is defined in RFC 2510 3.2.3 and RFC 3161 2.4.2.
const (
	FailureInfoBadAlg              = 0  // unrecognized or unsupported Algorithm Identifier
	FailureInfoBadMessageCheck     = 1  // integrity check failed (e.g., signature did not verify)
	FailureInfoBadRequest          = 2  // transaction not permitted or supported
	FailureInfoBadTime             = 3  // messageTime was not sufficiently close to the system time, as defined by local policy
	FailureInfoBadCertID           = 4  // no certificate could be found matching the provided criteria
	FailureInfoBadDataFormat       = 5  // the data submitted has the wrong format
	FailureInfoWrongAuthority      = 6  // the authority indicated in the request is different from the one creating the response token
	FailureInfoIncorrectData       = 7  // the requester's data is incorrect (used for notary services)
	FailureInfoMissingTimeStamp    = 8  // the timestamp is missing but should be there (by policy)
	FailureInfoBadPOP              = 9  // the proof-of-possession failed
	FailureInfoTimeNotAvailable    = 14 // the TSA's time source is not available
	FailureInfoUnacceptedPolicy    = 15 // the requested TSA policy is not supported by the TSA.
	FailureInfoUnacceptedExtension = 16 // the requested extension is not supported by the TSA.
	FailureInfoAddInfoNotAvailable = 17 // the additional information requested could not be understood or is not available
	FailureInfoSystemFailure       = 25 // the request cannot be handled due to system failure
)

// StatusInfo contains status codes and failure information for PKI messages.
// PKIStatusInfo ::= SEQUENCE {
//  status          PKIStatus,
//  statusString    PKIFreeText     OPTIONAL,
//  failInfo        PKIFailureInfo  OPTIONAL }
// PKIStatus        ::= INTEGER
// PKIFreeText      ::= SEQUENCE SIZE (1..MAX) OF UTF8String
// PKIFailureInfo   ::= BIT STRING
// Reference: RFC 2510 3.2.3 Status codes and Failure Information for PKI messages.
type StatusInfo struct {
	Status       int
	StatusString []string
	FailInfo     *asn1.BitString
}

// FailureInfo returns a PKIFailureInfo with the given bits set.
func FailureInfo(bits ...int) *asn1.BitString {
	n := 0
	for _, bit := range bits {
		n = max(n, bit+1)
	}
	b := make([]byte, (n+7)/8)
	for _, bit := range bits {
		b[bit/8] |= 0x80 >> (bit % 8)
	}
	fail := asn1.NewBitString(b, n)
	return &fail
}

// Value returns the StatusInfo as a SEQUENCE.
func (s StatusInfo) Value() (asn1.Value, error) {
	fields := []asn1.Value{asn1.NewInt64(int64(s.Status))}
	if len(s.StatusString) > 0 {
		texts := make([]asn1.Value, 0, len(s.StatusString))
		for _, text := range s.StatusString {
			v, err := asn1.NewString(asn1.UTF8String, text)
			if err != nil {
				return nil, err
			}
			texts = append(texts, v)
		}
		fields = append(fields, asn1.NewSequence(texts...))
	}
	if s.FailInfo != nil {
		fields = append(fields, *s.FailInfo)
	}
	return asn1.NewSequence(fields...), nil
}

// AsStatusInfo converts a value to a StatusInfo.
var AsStatusInfo = asn1.Conversion[StatusInfo]{
	Name: "PKIStatusInfo",
	Tag:  asn1.Universal(asn1.TagSequence),
	FromValue: func(v asn1.Value) (StatusInfo, error) {
		fields, err := asn1.Fields(v, "PKIStatusInfo", 1, 3)
		if err != nil {
			return StatusInfo{}, err
		}
		status, _, err := asn1.Coerce(fields[0], asn1.AsInteger)
		if err != nil {
			return StatusInfo{}, err
		}
		n, err := status.Int64()
		if err != nil || n < 0 || n > StatusKeyUpdateWarning {
			return StatusInfo{}, &asn1.SchemaViolationError{
				Structure: "PKIStatusInfo",
				Field:     "status",
				Detail:    fmt.Errorf("unknown status %v", status.BigInt()),
			}
		}
		info := StatusInfo{Status: int(n)}
		for _, field := range fields[1:] {
			switch x := field.(type) {
			case asn1.Sequence:
				if info.StatusString != nil || info.FailInfo != nil || x.Len() == 0 {
					return StatusInfo{}, &asn1.SchemaViolationError{Structure: "PKIStatusInfo", Field: "statusString", Detail: fmt.Errorf("unexpected field")}
				}
				for _, e := range x.Elements() {
					text, _, err := asn1.Coerce(e, asn1.AsString(asn1.UTF8String))
					if err != nil {
						return StatusInfo{}, err
					}
					info.StatusString = append(info.StatusString, text.Text())
				}
			case asn1.BitString:
				if info.FailInfo != nil {
					return StatusInfo{}, &asn1.SchemaViolationError{Structure: "PKIStatusInfo", Field: "failInfo", Detail: fmt.Errorf("unexpected field")}
				}
				info.FailInfo = &x
			default:
				return StatusInfo{}, &asn1.TypeMismatchError{Want: "PKIFreeText or PKIFailureInfo", Got: asn1.VariantName(field)}
			}
		}
		return info, nil
	},
}
