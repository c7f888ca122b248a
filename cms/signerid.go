package cms

import (
	"bytes"
	"crypto/x509"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/notaryproject/cms-go/internal/pkix"
)

// SignerID selects signers by issuer name and serial number, by subject
// key identifier, or by both. It is an immutable value.
//
// Reference: RFC 5652 5.3 SignerInfo Type
type SignerID struct {
	issuer       []byte
	serialNumber *big.Int
	subjectKeyID []byte
}

// NewIssuerAndSerialSignerID returns a selector for the certificate issued
// by the DER encoded Name issuer with the given serial number.
func NewIssuerAndSerialSignerID(issuer []byte, serialNumber *big.Int) SignerID {
	return SignerID{
		issuer:       bytes.Clone(issuer),
		serialNumber: new(big.Int).Set(serialNumber),
	}
}

// NewSubjectKeyIDSignerID returns a selector for the certificate with the
// given subject key identifier.
func NewSubjectKeyIDSignerID(subjectKeyID []byte) SignerID {
	return SignerID{subjectKeyID: bytes.Clone(subjectKeyID)}
}

// NewSignerID returns a selector carrying both criteria.
func NewSignerID(issuer []byte, serialNumber *big.Int, subjectKeyID []byte) SignerID {
	id := NewIssuerAndSerialSignerID(issuer, serialNumber)
	id.subjectKeyID = bytes.Clone(subjectKeyID)
	return id
}

// SignerIDFromCertificate returns the selector matching signers of cert. It
// carries the subject key identifier as well when cert has one.
func SignerIDFromCertificate(cert *x509.Certificate) SignerID {
	if len(cert.SubjectKeyId) == 0 {
		return NewIssuerAndSerialSignerID(cert.RawIssuer, cert.SerialNumber)
	}
	return NewSignerID(cert.RawIssuer, cert.SerialNumber, cert.SubjectKeyId)
}

// Issuer returns the DER encoded issuer Name, or nil.
func (id SignerID) Issuer() []byte { return bytes.Clone(id.issuer) }

// SerialNumber returns the serial number, or nil.
func (id SignerID) SerialNumber() *big.Int {
	if id.serialNumber == nil {
		return nil
	}
	return new(big.Int).Set(id.serialNumber)
}

// SubjectKeyID returns the subject key identifier, or nil.
func (id SignerID) SubjectKeyID() []byte { return bytes.Clone(id.subjectKeyID) }

// HasIssuerAndSerial reports whether id selects by issuer and serial number.
func (id SignerID) HasIssuerAndSerial() bool { return id.issuer != nil && id.serialNumber != nil }

// HasSubjectKeyID reports whether id selects by subject key identifier.
func (id SignerID) HasSubjectKeyID() bool { return id.subjectKeyID != nil }

// Equal reports whether id and other carry the same criteria.
func (id SignerID) Equal(other SignerID) bool {
	if id.HasIssuerAndSerial() != other.HasIssuerAndSerial() ||
		id.HasSubjectKeyID() != other.HasSubjectKeyID() {
		return false
	}
	if id.HasIssuerAndSerial() {
		if !sameName(id.issuer, other.issuer) || id.serialNumber.Cmp(other.serialNumber) != 0 {
			return false
		}
	}
	return bytes.Equal(id.subjectKeyID, other.subjectKeyID)
}

// Match reports whether cert satisfies every criterion of id.
func (id SignerID) Match(cert *x509.Certificate) bool {
	if !id.HasIssuerAndSerial() && !id.HasSubjectKeyID() {
		return false
	}
	if id.HasIssuerAndSerial() {
		if !sameName(id.issuer, cert.RawIssuer) || id.serialNumber.Cmp(cert.SerialNumber) != 0 {
			return false
		}
	}
	if id.HasSubjectKeyID() && !bytes.Equal(id.subjectKeyID, cert.SubjectKeyId) {
		return false
	}
	return true
}

// String returns a human readable form of id.
func (id SignerID) String() string {
	var parts []string
	if id.HasIssuerAndSerial() {
		issuer, err := pkix.FormatName(id.issuer)
		if err != nil {
			issuer = "#" + hex.EncodeToString(id.issuer)
		}
		parts = append(parts, "issuer="+issuer, "serial="+id.serialNumber.String())
	}
	if id.HasSubjectKeyID() {
		parts = append(parts, "ski="+hex.EncodeToString(id.subjectKeyID))
	}
	return "SignerID{" + strings.Join(parts, " ") + "}"
}

// issuerAndSerialKey returns the index key of the issuer and serial number
// criterion. It fails when the issuer is not a valid Name.
func (id SignerID) issuerAndSerialKey() (string, error) {
	name, err := pkix.NormalizeName(id.issuer)
	if err != nil {
		return "", err
	}
	return "is:" + name + "#" + id.serialNumber.Text(16), nil
}

// subjectKeyIDKey returns the index key of the subject key identifier
// criterion.
func (id SignerID) subjectKeyIDKey() string {
	return "ski:" + hex.EncodeToString(id.subjectKeyID)
}

// exactIssuerAndSerialKey is like issuerAndSerialKey but falls back to the
// raw issuer bytes, so that a malformed issuer still matches itself.
func (id SignerID) exactIssuerAndSerialKey() string {
	if key, err := id.issuerAndSerialKey(); err == nil {
		return key
	}
	return "is#raw:" + hex.EncodeToString(id.issuer) + "#" + id.serialNumber.Text(16)
}

// sameName compares two DER encoded Names, ignoring string types and
// letter case.
func sameName(a, b []byte) bool {
	if bytes.Equal(a, b) {
		return true
	}
	na, err := pkix.NormalizeName(a)
	if err != nil {
		return false
	}
	nb, err := pkix.NormalizeName(b)
	if err != nil {
		return false
	}
	return na == nb
}
