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

package keygen

import (
	"crypto/dsa"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"sync"
	"testing"

	"github.com/notaryproject/cms-go/internal/crypto/oid"
	"github.com/notaryproject/cms-go/signature"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		keyType  KeyType
		strength int
		wantErr  bool
	}{
		{keyType: ECDSA, strength: 256},
		{keyType: ECDSA, strength: 384},
		{keyType: ECDSA, strength: 521},
		{keyType: ECDSA, strength: 224, wantErr: true},
		{keyType: RSA, strength: 2048},
		{keyType: RSA, strength: 3000},
		{keyType: RSA, strength: 1024, wantErr: true},
		{keyType: DSA, strength: 1024},
		{keyType: DSA, strength: 512, wantErr: true},
		{keyType: DSA, strength: 1536, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.keyType.String(), func(t *testing.T) {
			g, err := New(tt.keyType)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			err = g.Initialize(tt.strength, rand.Reader)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Initialize(%d) error = %v, wantErr %v", tt.strength, err, tt.wantErr)
			}
			if tt.wantErr {
				var strengthErr *StrengthError
				if !errors.As(err, &strengthErr) {
					t.Errorf("Initialize() error = %v, want StrengthError", err)
				}
				if g.State() != Unconfigured {
					t.Errorf("State() = %v, want %v", g.State(), Unconfigured)
				}
				return
			}
			if g.State() != Configured || g.Strength() != tt.strength {
				t.Errorf("State() = %v, Strength() = %d", g.State(), g.Strength())
			}
		})
	}
}

func TestNew_UnsupportedKeyType(t *testing.T) {
	if _, err := New(KeyType(42)); err == nil {
		t.Error("New() expected error")
	}
}

func TestGenerateKey(t *testing.T) {
	ec, _ := New(ECDSA)
	if err := ec.Initialize(384, nil); err != nil {
		t.Fatal(err)
	}
	key, err := ec.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	ecKey, ok := key.(*ecdsa.PrivateKey)
	if !ok || ecKey.Curve.Params().BitSize != 384 {
		t.Fatalf("GenerateKey() = %T, want a P-384 key", key)
	}
	if !ec.SignatureAlgorithm().Equal(oid.ECDSAWithSHA384) {
		t.Errorf("SignatureAlgorithm() = %v", ec.SignatureAlgorithm())
	}

	r, _ := New(RSA)
	key, err = r.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if rsaKey, ok := key.(*rsa.PrivateKey); !ok || rsaKey.N.BitLen() != 2048 {
		t.Errorf("GenerateKey() = %T, want a 2048-bit RSA key", key)
	}
	if r.State() != Configured {
		t.Errorf("State() = %v, want %v after GenerateKey", r.State(), Configured)
	}
}

func TestGenerateKey_Sign(t *testing.T) {
	for _, keyType := range []KeyType{DSA, ECDSA, RSA} {
		t.Run(keyType.String(), func(t *testing.T) {
			g, _ := New(keyType)
			key, err := g.GenerateKey()
			if err != nil {
				t.Fatalf("GenerateKey() error = %v", err)
			}
			var pub any
			switch k := key.(type) {
			case *dsa.PrivateKey:
				pub = &k.PublicKey
			case *ecdsa.PrivateKey:
				pub = &k.PublicKey
			case *rsa.PrivateKey:
				pub = &k.PublicKey
			}
			engine := signature.DefaultEngine{}
			data := []byte("attribute certificate info")
			sig, err := engine.Sign(g.SignatureAlgorithm(), key, data, rand.Reader)
			if err != nil {
				t.Fatalf("Sign() error = %v", err)
			}
			if err := engine.Verify(g.SignatureAlgorithm(), pub, data, sig); err != nil {
				t.Errorf("Verify() error = %v", err)
			}
		})
	}
}

func TestDSAParameterCache(t *testing.T) {
	var wg sync.WaitGroup
	gens := make([]*Generator, 4)
	errs := make([]error, len(gens))
	for i := range gens {
		gens[i], _ = New(DSA)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = gens[i].Initialize(1024, nil)
		}(i)
	}
	wg.Wait()
	for i, g := range gens {
		if errs[i] != nil {
			t.Fatalf("Initialize() error = %v", errs[i])
		}
		if g.dsa != gens[0].dsa {
			t.Error("generators of the same strength do not share DSA parameters")
		}
	}

	key1, err := gens[0].GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	key2, err := gens[1].GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	k1, k2 := key1.(*dsa.PrivateKey), key2.(*dsa.PrivateKey)
	if k1.P.Cmp(k2.P) != 0 || k1.X.Cmp(k2.X) == 0 {
		t.Error("keys should share parameters but not private values")
	}
}

func TestInitializeWithParameters(t *testing.T) {
	cached, _ := New(DSA)
	if err := cached.Initialize(1024, nil); err != nil {
		t.Fatal(err)
	}
	g, _ := New(DSA)
	if err := g.InitializeWithParameters(*cached.dsa, nil); err != nil {
		t.Fatalf("InitializeWithParameters() error = %v", err)
	}
	if g.Strength() != 1024 {
		t.Errorf("Strength() = %d, want 1024", g.Strength())
	}
	if err := g.InitializeWithParameters(dsa.Parameters{}, nil); err == nil {
		t.Error("InitializeWithParameters() expected error for empty parameters")
	}
	ec, _ := New(ECDSA)
	if err := ec.InitializeWithParameters(*cached.dsa, nil); err == nil {
		t.Error("InitializeWithParameters() expected error for ECDSA generator")
	}
}
