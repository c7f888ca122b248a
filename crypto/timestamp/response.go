package timestamp

import (
	"errors"

	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/pki"
)

// Response is a time-stamping response.
// TimeStampResp ::= SEQUENCE {
//  status          PKIStatusInfo,
//  timeStampToken  TimeStampToken  OPTIONAL }
type Response struct {
	Status pki.StatusInfo

	// TimeStampToken is the DER encoded token, or nil when absent.
	TimeStampToken []byte
}

// MarshalBinary encodes the response to binary form.
// This method implements encoding.BinaryMarshaler
func (r *Response) MarshalBinary() ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil response")
	}
	status, err := r.Status.Value()
	if err != nil {
		return nil, err
	}
	fields := []asn1.Value{status}
	if r.TimeStampToken != nil {
		token, err := asn1.UnmarshalStrict(r.TimeStampToken)
		if err != nil {
			return nil, err
		}
		fields = append(fields, token)
	}
	return asn1.Marshal(asn1.NewSequence(fields...))
}

// UnmarshalBinary decodes the response from binary form. The token may be
// BER encoded; it is kept in DER.
// This method implements encoding.BinaryUnmarshaler
func (r *Response) UnmarshalBinary(data []byte) error {
	v, err := asn1.Unmarshal(data)
	if err != nil {
		return err
	}
	fields, err := asn1.Fields(v, "TimeStampResp", 1, 2)
	if err != nil {
		return err
	}
	status, _, err := asn1.Coerce(fields[0], pki.AsStatusInfo)
	if err != nil {
		return err
	}
	resp := Response{Status: status}
	if len(fields) == 2 {
		if _, ok := fields[1].(asn1.Sequence); !ok {
			return &asn1.TypeMismatchError{Want: "TimeStampToken", Got: asn1.VariantName(fields[1])}
		}
		if resp.TimeStampToken, err = asn1.Marshal(fields[1]); err != nil {
			return err
		}
	}
	*r = resp
	return nil
}

// TokenBytes returns the bytes of the timestamp token.
func (r *Response) TokenBytes() []byte {
	return r.TimeStampToken
}

// SignedToken returns the timestamp token with signatures.
// Callers should invoke Verify to verify the content before comsumption.
func (r *Response) SignedToken() (*SignedToken, error) {
	if r.Status.Status != pki.StatusGranted && r.Status.Status != pki.StatusGrantedWithMods {
		return nil, errors.New("timestamp request was not granted")
	}
	if r.TimeStampToken == nil {
		return nil, errors.New("missing timestamp token")
	}
	return ParseSignedToken(r.TokenBytes())
}
