// Package oid collects object identifiers for crypto algorithms and CMS
// content types.
package oid

import "encoding/asn1"

// OIDs for hash algorithms
var (
	// SHA1 (id-sha1) is defined in RFC 8017 B.1 Hash Functions
	SHA1 = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}

	// SHA256 (id-sha256) is defined in RFC 8017 B.1 Hash Functions
	SHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}

	// SHA384 (id-sha384) is defined in RFC 8017 B.1 Hash Functions
	SHA384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}

	// SHA512 (id-sha512) is defined in RFC 8017 B.1 Hash Functions
	SHA512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}
)

// OIDs for signature algorithms
var (
	// RSA is defined in RFC 8017 C ASN.1 Module
	RSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}

	// SHA256WithRSA is defined in RFC 8017 C ASN.1 Module
	SHA256WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}

	// SHA384WithRSA is defined in RFC 8017 C ASN.1 Module
	SHA384WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}

	// SHA512WithRSA is defined in RFC 8017 C ASN.1 Module
	SHA512WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}

	// RSASSAPSS (id-RSASSA-PSS) is defined in RFC 8017 C ASN.1 Module
	RSASSAPSS = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}

	// MGF1 (id-mgf1) is defined in RFC 8017 C ASN.1 Module
	MGF1 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 8}

	// ECDSAWithSHA256 is defined in RFC 5758 3.2 ECDSA Signature Algorithm
	ECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}

	// ECDSAWithSHA384 is defined in RFC 5758 3.2 ECDSA Signature Algorithm
	ECDSAWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}

	// ECDSAWithSHA512 is defined in RFC 5758 3.2 ECDSA Signature Algorithm
	ECDSAWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}

	// DSAWithSHA256 (id-dsa-with-sha256) is defined in RFC 5758 3.1 DSA
	// Signature Algorithm
	DSAWithSHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 2}

	// Ed25519 (id-Ed25519) is defined in RFC 8410 3 Curve25519 and Curve448
	// Algorithm Identifiers
	Ed25519 = asn1.ObjectIdentifier{1, 3, 101, 112}

	// Ed448 (id-Ed448) is defined in RFC 8410 3 Curve25519 and Curve448
	// Algorithm Identifiers
	Ed448 = asn1.ObjectIdentifier{1, 3, 101, 113}

	// MLDSA87 (id-ml-dsa-87) is defined in FIPS 204 and registered in the
	// NIST Computer Security Objects Register
	MLDSA87 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 19}
)

// OIDs defined in RFC 5652 Cryptographic Message Syntax (CMS)
var (
	// Data (id-data) is defined in RFC 5652 4 Data Content Type
	Data = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}

	// SignedData (id-signedData) is defined in RFC 5652 5.1 SignedData Type
	SignedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}

	// ContentType (id-ct-contentType) is defined in RFC 5652 3 General Syntax
	ContentType = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 3}

	// MessageDigest (id-messageDigest) is defined in RFC 5652 11.2 Message Digest
	MessageDigest = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 4}

	// SigningTime (id-signingTime) is defined in RFC 5652 11.3 Signing Time
	SigningTime = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 5}
)

// OIDs defined in RFC 3274 Compressed Data Content Type for CMS
var (
	// CompressedData (id-ct-compressedData) is defined in RFC 3274 1.1
	// Compressed-data Content Type
	CompressedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 1, 9}

	// ZlibCompress (id-alg-zlibCompress) is defined in RFC 3274 2
	// Compression Algorithms
	ZlibCompress = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 3, 8}
)

// OIDs defined in RFC 3161 Time-Stamp Protocol (TSP)
var (
	// TSTInfo (id-ct-TSTInfo) is defined in RFC 3161 2.4.2 Response Format
	TSTInfo = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 1, 4}
)

// OIDs for certificate extensions and attributes
var (
	// SubjectKeyIdentifier (id-ce-subjectKeyIdentifier) is defined in
	// RFC 5280 4.2.1.2 Subject Key Identifier
	SubjectKeyIdentifier = asn1.ObjectIdentifier{2, 5, 29, 14}

	// AuthorityKeyIdentifier (id-ce-authorityKeyIdentifier) is defined in
	// RFC 5280 4.2.1.1 Authority Key Identifier
	AuthorityKeyIdentifier = asn1.ObjectIdentifier{2, 5, 29, 35}

	// NoRevAvail (id-ce-noRevAvail) is defined in RFC 5755 4.3.6 No
	// Revocation Available
	NoRevAvail = asn1.ObjectIdentifier{2, 5, 29, 56}

	// TargetInformation (id-ce-targetInformation) is defined in RFC 5755
	// 4.3.2 Targeting Information
	TargetInformation = asn1.ObjectIdentifier{2, 5, 29, 55}

	// Role (id-at-role) is defined in RFC 5755 4.4.5 Role
	Role = asn1.ObjectIdentifier{2, 5, 4, 72}
)
