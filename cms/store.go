package cms

// SignerInformationStore is an immutable collection of signers, indexed by
// signer identifier.
//
// A signer is indexed under each criterion of its identifier: its issuer
// and serial number, and its subject key identifier.
type SignerInformationStore struct {
	all   []*SignerInformation
	table map[string][]*SignerInformation
}

// NewSignerInformationStore returns a store holding signers in the given
// order.
func NewSignerInformationStore(signers []*SignerInformation) *SignerInformationStore {
	s := &SignerInformationStore{
		all:   append([]*SignerInformation(nil), signers...),
		table: make(map[string][]*SignerInformation),
	}
	for _, signer := range s.all {
		sid := signer.SID()
		if sid.HasIssuerAndSerial() {
			key := sid.exactIssuerAndSerialKey()
			s.table[key] = append(s.table[key], signer)
		}
		if sid.HasSubjectKeyID() {
			key := sid.subjectKeyIDKey()
			s.table[key] = append(s.table[key], signer)
		}
	}
	return s
}

// Len returns the number of signers in the store.
func (s *SignerInformationStore) Len() int {
	return len(s.all)
}

// Signers returns all signers in the store.
func (s *SignerInformationStore) Signers() []*SignerInformation {
	return append([]*SignerInformation(nil), s.all...)
}

// Get returns the first signer matching selector, or nil.
func (s *SignerInformationStore) Get(selector SignerID) *SignerInformation {
	signers := s.GetSigners(selector)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// GetSigners returns the signers matching selector, possibly none.
//
// A selector with a single criterion is looked up directly. A selector with
// both criteria returns the signers matching its issuer and serial number
// followed by the signers matching its subject key identifier; a signer
// matching both appears twice. If the issuer of such a selector is not a
// valid Name, only the subject key identifier contributes.
func (s *SignerInformationStore) GetSigners(selector SignerID) []*SignerInformation {
	switch {
	case selector.HasIssuerAndSerial() && selector.HasSubjectKeyID():
		var results []*SignerInformation
		if key, err := selector.issuerAndSerialKey(); err == nil {
			results = append(results, s.table[key]...)
		}
		return append(results, s.table[selector.subjectKeyIDKey()]...)
	case selector.HasIssuerAndSerial():
		return append([]*SignerInformation(nil), s.table[selector.exactIssuerAndSerialKey()]...)
	case selector.HasSubjectKeyID():
		return append([]*SignerInformation(nil), s.table[selector.subjectKeyIDKey()]...)
	}
	return nil
}
