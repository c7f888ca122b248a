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

// Package keygen generates DSA, ECDSA and RSA key pairs for use with the
// signature package.
package keygen

import (
	"crypto"
	"crypto/dsa"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	encasn1 "encoding/asn1"
	"fmt"
	"io"
	"sync"

	"github.com/notaryproject/cms-go/internal/crypto/oid"
)

// KeyType is the family of keys a Generator produces.
type KeyType int

const (
	DSA KeyType = iota + 1
	ECDSA
	RSA
)

// String returns the name of the key type.
func (t KeyType) String() string {
	switch t {
	case DSA:
		return "DSA"
	case ECDSA:
		return "ECDSA"
	case RSA:
		return "RSA"
	}
	return fmt.Sprintf("KeyType(%d)", int(t))
}

// DefaultStrength returns the strength used by a generator that was never
// initialized.
func (t KeyType) DefaultStrength() int {
	switch t {
	case DSA:
		return 1024
	case ECDSA:
		return 256
	case RSA:
		return 2048
	}
	return 0
}

// State is the configuration state of a Generator.
type State int

const (
	Unconfigured State = iota
	Configured
)

// String returns the name of the state.
func (s State) String() string {
	if s == Configured {
		return "configured"
	}
	return "unconfigured"
}

// StrengthError is returned when a strength is not valid for a key type.
type StrengthError struct {
	KeyType  KeyType
	Strength int
}

// Error returns error message.
func (e *StrengthError) Error() string {
	return fmt.Sprintf("keygen: invalid %s strength %d", e.KeyType, e.Strength)
}

// Generator generates key pairs of a single key type.
//
// A Generator is not safe for concurrent use.
type Generator struct {
	keyType  KeyType
	state    State
	strength int
	rand     io.Reader
	dsa      *dsa.Parameters
}

// New returns an unconfigured generator for keys of type t.
func New(t KeyType) (*Generator, error) {
	switch t {
	case DSA, ECDSA, RSA:
		return &Generator{keyType: t}, nil
	}
	return nil, fmt.Errorf("keygen: unsupported key type %v", t)
}

// KeyType returns the key type of g.
func (g *Generator) KeyType() KeyType {
	return g.keyType
}

// State returns the configuration state of g.
func (g *Generator) State() State {
	return g.state
}

// Strength returns the configured strength, or the default strength when g
// is unconfigured.
func (g *Generator) Strength() int {
	if g.state == Unconfigured {
		return g.keyType.DefaultStrength()
	}
	return g.strength
}

// Initialize configures g for keys of the given strength in bits. Valid
// strengths are 1024, 2048 and 3072 for DSA, 256, 384 and 521 for ECDSA, and
// 2048 or more for RSA. A nil rand selects crypto/rand.Reader.
//
// DSA domain parameters are generated once per strength and shared by all
// generators in the process.
func (g *Generator) Initialize(strength int, rand io.Reader) error {
	if err := validate(g.keyType, strength); err != nil {
		return err
	}
	rand = randOrDefault(rand)
	var params *dsa.Parameters
	if g.keyType == DSA {
		var err error
		if params, err = dsaParameters(strength, rand); err != nil {
			return err
		}
	}
	g.state = Configured
	g.strength = strength
	g.rand = rand
	g.dsa = params
	return nil
}

// InitializeWithParameters configures a DSA generator with explicit domain
// parameters. The parameters are not added to the shared cache.
func (g *Generator) InitializeWithParameters(params dsa.Parameters, rand io.Reader) error {
	if g.keyType != DSA {
		return fmt.Errorf("keygen: %s generator does not take DSA parameters", g.keyType)
	}
	if params.P == nil || params.Q == nil || params.G == nil {
		return fmt.Errorf("keygen: incomplete DSA parameters")
	}
	g.state = Configured
	g.strength = params.P.BitLen()
	g.rand = randOrDefault(rand)
	g.dsa = &params
	return nil
}

// GenerateKey returns a new private key: a *dsa.PrivateKey, *ecdsa.PrivateKey
// or *rsa.PrivateKey depending on the key type. An unconfigured generator is
// first initialized with the default strength of its key type.
func (g *Generator) GenerateKey() (crypto.PrivateKey, error) {
	if g.state == Unconfigured {
		if err := g.Initialize(g.keyType.DefaultStrength(), nil); err != nil {
			return nil, err
		}
	}
	switch g.keyType {
	case DSA:
		key := &dsa.PrivateKey{PublicKey: dsa.PublicKey{Parameters: *g.dsa}}
		if err := dsa.GenerateKey(key, g.rand); err != nil {
			return nil, err
		}
		return key, nil
	case ECDSA:
		return ecdsa.GenerateKey(curve(g.strength), g.rand)
	case RSA:
		return rsa.GenerateKey(g.rand, g.strength)
	}
	return nil, fmt.Errorf("keygen: unsupported key type %v", g.keyType)
}

// SignatureAlgorithm returns the signature algorithm paired with keys from
// g: DSA and RSA keys sign with SHA-256, ECDSA keys with the hash matching
// the curve.
func (g *Generator) SignatureAlgorithm() encasn1.ObjectIdentifier {
	switch g.keyType {
	case DSA:
		return oid.DSAWithSHA256
	case ECDSA:
		switch g.Strength() {
		case 384:
			return oid.ECDSAWithSHA384
		case 521:
			return oid.ECDSAWithSHA512
		}
		return oid.ECDSAWithSHA256
	case RSA:
		return oid.SHA256WithRSA
	}
	return nil
}

func validate(t KeyType, strength int) error {
	ok := false
	switch t {
	case DSA:
		_, ok = dsaSizes[strength]
	case ECDSA:
		ok = curve(strength) != nil
	case RSA:
		ok = strength >= 2048
	}
	if !ok {
		return &StrengthError{KeyType: t, Strength: strength}
	}
	return nil
}

func curve(strength int) elliptic.Curve {
	switch strength {
	case 256:
		return elliptic.P256()
	case 384:
		return elliptic.P384()
	case 521:
		return elliptic.P521()
	}
	return nil
}

func randOrDefault(r io.Reader) io.Reader {
	if r == nil {
		return rand.Reader
	}
	return r
}

var dsaSizes = map[int]dsa.ParameterSizes{
	1024: dsa.L1024N160,
	2048: dsa.L2048N256,
	3072: dsa.L3072N256,
}

// dsaCache holds DSA domain parameters by strength.
var dsaCache = struct {
	sync.Mutex
	params map[int]*dsa.Parameters
}{params: make(map[int]*dsa.Parameters)}

// dsaParameters returns the cached parameters for strength, generating them
// on first use. The lock is held during generation.
func dsaParameters(strength int, rand io.Reader) (*dsa.Parameters, error) {
	dsaCache.Lock()
	defer dsaCache.Unlock()
	if params, ok := dsaCache.params[strength]; ok {
		return params, nil
	}
	params := new(dsa.Parameters)
	if err := dsa.GenerateParameters(params, rand, dsaSizes[strength]); err != nil {
		return nil, fmt.Errorf("keygen: failed to generate DSA parameters: %w", err)
	}
	dsaCache.params[strength] = params
	return params, nil
}
