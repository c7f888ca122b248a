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

// Package config provides the ability to load and save codec profiles.
//
// A profile is stored as JSON, or as YAML when the file name ends in ".yaml"
// or ".yml".
package config

import (
	"bytes"
	encasn1 "encoding/asn1"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/notaryproject/cms-go/cms"
	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/file"
	"github.com/notaryproject/cms-go/signature"
	"gopkg.in/yaml.v3"
)

// Profile reflects a codec profile file.
type Profile struct {
	// Strict restricts decoding to DER.
	Strict bool `json:"strict" yaml:"strict"`

	// MaxDepth bounds the nesting of decoded values. Zero selects
	// asn1.DefaultMaxDepth.
	MaxDepth int `json:"maxDepth,omitempty" yaml:"maxDepth,omitempty" validate:"gte=0,lte=10000"`

	// MaxContentSize bounds the size of decompressed content in bytes. Zero
	// means no limit.
	MaxContentSize int64 `json:"maxContentSize,omitempty" yaml:"maxContentSize,omitempty" validate:"gte=0"`

	// AllowedSignatureAlgorithms lists the names of the signature algorithms
	// accepted during verification, such as "ECDSA-SHA256". Empty allows
	// every supported algorithm.
	AllowedSignatureAlgorithms []string `json:"allowedSignatureAlgorithms,omitempty" yaml:"allowedSignatureAlgorithms,omitempty" validate:"dive,required"`
}

// NewProfile creates a new profile with default settings.
func NewProfile() *Profile {
	return &Profile{}
}

// LoadProfile reads the profile at path, or returns a default profile if
// the file does not exist.
func LoadProfile(path string) (*Profile, error) {
	f, err := file.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewProfile(), nil
		}
		return nil, err
	}
	defer f.Close()
	return ReadProfile(f, isYAML(path))
}

// ReadProfile decodes and validates a profile from r. Unknown fields are
// rejected.
func ReadProfile(r io.Reader, yamlFormat bool) (*Profile, error) {
	var p Profile
	if yamlFormat {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
			return nil, &InvalidProfileError{Err: err}
		}
	} else {
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, &InvalidProfileError{Err: err}
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save stores the profile to path.
func (p *Profile) Save(path string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return file.Save(path, func(w io.Writer) error {
		if isYAML(path) {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(p); err != nil {
				return err
			}
			return enc.Close()
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "    ")
		return encoder.Encode(p)
	})
}

// Validate checks the field constraints of p and resolves every allowed
// algorithm name.
func (p *Profile) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return &InvalidProfileError{Err: err}
	}
	_, err := p.SignatureAlgorithms()
	return err
}

// DecodeOptions returns the decoding options of p.
func (p *Profile) DecodeOptions() asn1.DecodeOptions {
	return asn1.DecodeOptions{
		Strict:   p.Strict,
		MaxDepth: p.MaxDepth,
	}
}

// SignatureAlgorithms resolves the allowed algorithm names of p. It
// returns nil when every algorithm is allowed.
func (p *Profile) SignatureAlgorithms() ([]encasn1.ObjectIdentifier, error) {
	if len(p.AllowedSignatureAlgorithms) == 0 {
		return nil, nil
	}
	algs := make([]encasn1.ObjectIdentifier, 0, len(p.AllowedSignatureAlgorithms))
	for _, name := range p.AllowedSignatureAlgorithms {
		alg, ok := signature.LookupName(name)
		if !ok {
			return nil, UnknownAlgorithmError{Name: name}
		}
		algs = append(algs, alg.OID)
	}
	return algs, nil
}

// ApplyTo restricts the signature algorithms accepted by opts to those
// allowed by p.
func (p *Profile) ApplyTo(opts *cms.VerifyOptions) error {
	algs, err := p.SignatureAlgorithms()
	if err != nil {
		return err
	}
	opts.AllowedSignatureAlgorithms = algs
	return nil
}

// Decompress reads the CompressedData in data using the decoding options
// and content size limit of p.
func (p *Profile) Decompress(data []byte) (encasn1.ObjectIdentifier, []byte, error) {
	var buf bytes.Buffer
	contentType, err := cms.DecompressTo(&buf, bytes.NewReader(data), p.DecodeOptions(), p.MaxContentSize)
	if err != nil {
		return nil, nil, err
	}
	return contentType, buf.Bytes(), nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
