// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package attrcert

import (
	"bytes"
	"context"
	"crypto"
	encasn1 "encoding/asn1"
	"errors"
	"io"
	"math/big"
	"time"

	"github.com/notaryproject/cms-go/cms"
	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/log"
	"github.com/notaryproject/cms-go/signature"
)

// Generator stages the fields of a version 2 attribute certificate and
// builds signed certificates from them.
//
// A Generator is not safe for concurrent use. The zero value is an empty
// generator.
type Generator struct {
	holder       *Holder
	issuer       *Issuer
	serialNumber *big.Int
	notBefore    time.Time
	notAfter     time.Time
	algorithm    *signature.Algorithm
	attributes   []cms.Attribute

	extensions map[string]Extension
	extOrder   []string
}

// NewGenerator returns an empty generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Reset returns g to its empty state.
func (g *Generator) Reset() {
	*g = Generator{}
}

// SetHolder sets the holder.
func (g *Generator) SetHolder(holder Holder) {
	h := Holder{EntityName: bytes.Clone(holder.EntityName)}
	if id := holder.BaseCertificateID; id != nil {
		h.BaseCertificateID = &IssuerSerial{Issuer: bytes.Clone(id.Issuer), Serial: new(big.Int).Set(id.Serial)}
	}
	g.holder = &h
}

// SetIssuer sets the issuer.
func (g *Generator) SetIssuer(issuer Issuer) {
	g.issuer = &Issuer{Name: bytes.Clone(issuer.Name)}
}

// SetSerialNumber sets the serial number.
func (g *Generator) SetSerialNumber(serialNumber *big.Int) {
	g.serialNumber = new(big.Int).Set(serialNumber)
}

// SetNotBefore sets the start of the validity period.
func (g *Generator) SetNotBefore(t time.Time) {
	g.notBefore = t
}

// SetNotAfter sets the end of the validity period.
func (g *Generator) SetNotAfter(t time.Time) {
	g.notAfter = t
}

// SetSignatureAlgorithm sets the signature algorithm. It fails for an
// algorithm unknown to the signature package.
func (g *Generator) SetSignatureAlgorithm(id encasn1.ObjectIdentifier) error {
	alg, ok := signature.Lookup(id)
	if !ok {
		return &signature.SignatureError{Algorithm: id.String(), Detail: signature.ErrUnsupportedAlgorithm}
	}
	g.algorithm = &alg
	return nil
}

// AddAttribute appends an attribute.
func (g *Generator) AddAttribute(attr cms.Attribute) {
	g.attributes = append(g.attributes, cms.Attribute{
		Type:   append(encasn1.ObjectIdentifier(nil), attr.Type...),
		Values: append([]asn1.Value(nil), attr.Values...),
	})
}

// AddExtension adds an extension. Extensions are encoded in the order they
// are first added; adding an extension again replaces it in place.
func (g *Generator) AddExtension(id encasn1.ObjectIdentifier, critical bool, value []byte) {
	key := id.String()
	if g.extensions == nil {
		g.extensions = make(map[string]Extension)
	}
	if _, ok := g.extensions[key]; !ok {
		g.extOrder = append(g.extOrder, key)
	}
	g.extensions[key] = Extension{
		ID:       append(encasn1.ObjectIdentifier(nil), id...),
		Critical: critical,
		Value:    bytes.Clone(value),
	}
}

// Build encodes the staged fields, signs them with key and returns the
// attribute certificate. A nil engine selects signature.DefaultEngine.
// Build does not change the state of g.
func (g *Generator) Build(ctx context.Context, engine signature.Engine, key crypto.PrivateKey, rand io.Reader) (*AttributeCertificate, error) {
	logger := log.GetLogger(ctx)
	if missing := g.missing(); len(missing) > 0 {
		return nil, &IncompleteStateError{Missing: missing}
	}
	if engine == nil {
		engine = signature.DefaultEngine{}
	}

	algID, err := g.algorithm.Identifier().Value()
	if err != nil {
		return nil, err
	}
	info, err := g.info(algID)
	if err != nil {
		return nil, err
	}
	rawInfo, err := asn1.Marshal(info)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Signing attribute certificate %s with %s", g.serialNumber, g.algorithm.Name)
	sig, err := engine.Sign(g.algorithm.OID, key, rawInfo, rand)
	if err != nil {
		return nil, err
	}
	der, err := asn1.Marshal(asn1.NewSequence(info, algID, asn1.NewBitString(sig, len(sig)*8)))
	if err != nil {
		return nil, err
	}
	return ParseAttributeCertificate(der)
}

func (g *Generator) missing() []string {
	var missing []string
	if g.holder == nil {
		missing = append(missing, "holder")
	}
	if g.issuer == nil {
		missing = append(missing, "issuer")
	}
	if g.serialNumber == nil {
		missing = append(missing, "serialNumber")
	}
	if g.notBefore.IsZero() {
		missing = append(missing, "notBefore")
	}
	if g.notAfter.IsZero() {
		missing = append(missing, "notAfter")
	}
	if g.algorithm == nil {
		missing = append(missing, "signatureAlgorithm")
	}
	return missing
}

// info returns the AttributeCertificateInfo.
func (g *Generator) info(algID asn1.Value) (asn1.Value, error) {
	holder, err := g.holder.value()
	if err != nil {
		return nil, err
	}
	issuerNames, err := generalNames(g.issuer.Name)
	if err != nil {
		return nil, err
	}
	attrs := make([]asn1.Value, 0, len(g.attributes))
	for _, attr := range g.attributes {
		v, err := attr.Value()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, v)
	}

	fields := []asn1.Value{
		asn1.NewInt64(version),
		holder,
		asn1.NewImplicit(asn1.ClassContextSpecific, 0, asn1.NewSequence(issuerNames)),
		algID,
		asn1.NewInteger(g.serialNumber),
		asn1.NewSequence(asn1.NewGeneralizedTime(g.notBefore), asn1.NewGeneralizedTime(g.notAfter)),
		asn1.NewSequence(attrs...),
	}
	if len(g.extOrder) > 0 {
		exts := make([]asn1.Value, 0, len(g.extOrder))
		for _, key := range g.extOrder {
			ext := g.extensions[key]
			id, err := asn1.NewObjectIdentifier(ext.ID)
			if err != nil {
				return nil, err
			}
			if ext.Critical {
				exts = append(exts, asn1.NewSequence(id, asn1.NewBoolean(true), asn1.NewOctetString(ext.Value)))
			} else {
				exts = append(exts, asn1.NewSequence(id, asn1.NewOctetString(ext.Value)))
			}
		}
		fields = append(fields, asn1.NewSequence(exts...))
	}
	return asn1.NewSequence(fields...), nil
}

func (h *Holder) value() (asn1.Value, error) {
	var fields []asn1.Value
	if id := h.BaseCertificateID; id != nil {
		names, err := generalNames(id.Issuer)
		if err != nil {
			return nil, err
		}
		fields = append(fields, asn1.NewImplicit(asn1.ClassContextSpecific, 0,
			asn1.NewSequence(names, asn1.NewInteger(id.Serial))))
	}
	if h.EntityName != nil {
		names, err := generalNames(h.EntityName)
		if err != nil {
			return nil, err
		}
		fields = append(fields, asn1.NewImplicit(asn1.ClassContextSpecific, 1, names))
	}
	if len(fields) == 0 {
		return nil, errors.New("attrcert: holder has no identifier")
	}
	return asn1.NewSequence(fields...), nil
}

// generalNames returns GeneralNames holding the directoryName name.
func generalNames(name []byte) (asn1.Value, error) {
	v, err := asn1.Unmarshal(name)
	if err != nil {
		return nil, err
	}
	if _, ok := v.(asn1.Sequence); !ok {
		return nil, &asn1.TypeMismatchError{Want: "Name", Got: asn1.VariantName(v)}
	}
	return asn1.NewSequence(asn1.NewExplicit(asn1.ClassContextSpecific, 4, v)), nil
}
