// Package asn1 decodes BER-encoded ASN.1 data structures and encodes in DER.
// Note: DER is a subset of BER.
//
// Decoded data is either materialized into a tree of immutable Values with
// Unmarshal and Decode, or read element by element with a Parser when the
// structure is too large to hold in memory. Coerce and CoerceTagged turn
// generic values, encodings and tagged wrappers into typed values.
//
// Reference: http://luca.ntop.org/Teaching/Appunti/asn1.html
package asn1
