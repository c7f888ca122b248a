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

package config

import (
	"bytes"
	encasn1 "encoding/asn1"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/notaryproject/cms-go/cms"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
	cmsio "github.com/notaryproject/cms-go/internal/io"
)

var sampleProfile = &Profile{
	Strict:                     true,
	MaxDepth:                   32,
	MaxContentSize:             1 << 20,
	AllowedSignatureAlgorithms: []string{"ECDSA-SHA256", "Ed25519"},
}

func TestReadProfile(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		yaml    bool
		want    *Profile
		wantErr bool
	}{
		{
			name: "json",
			data: `{"strict":true,"maxDepth":32,"maxContentSize":1048576,"allowedSignatureAlgorithms":["ECDSA-SHA256","Ed25519"]}`,
			want: sampleProfile,
		},
		{
			name: "yaml",
			data: "strict: true\nmaxDepth: 32\nmaxContentSize: 1048576\nallowedSignatureAlgorithms:\n  - ECDSA-SHA256\n  - Ed25519\n",
			yaml: true,
			want: sampleProfile,
		},
		{
			name: "empty yaml",
			yaml: true,
			want: &Profile{},
		},
		{
			name:    "unknown json field",
			data:    `{"strict":true,"lenient":false}`,
			wantErr: true,
		},
		{
			name:    "unknown yaml field",
			data:    "lenient: true\n",
			yaml:    true,
			wantErr: true,
		},
		{
			name:    "negative depth",
			data:    `{"maxDepth":-1}`,
			wantErr: true,
		},
		{
			name:    "negative content size",
			data:    `{"maxContentSize":-1}`,
			wantErr: true,
		},
		{
			name:    "empty algorithm name",
			data:    `{"allowedSignatureAlgorithms":[""]}`,
			wantErr: true,
		},
		{
			name:    "unknown algorithm",
			data:    `{"allowedSignatureAlgorithms":["SHA1-RSA"]}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadProfile(strings.NewReader(tt.data), tt.yaml)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadProfile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadProfile() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadProfile_ErrorTypes(t *testing.T) {
	_, err := ReadProfile(strings.NewReader(`{"maxDepth":-1}`), false)
	var invalid *InvalidProfileError
	if !errors.As(err, &invalid) {
		t.Errorf("ReadProfile() error = %v, want InvalidProfileError", err)
	}
	_, err = ReadProfile(strings.NewReader(`{"allowedSignatureAlgorithms":["MD5-RSA"]}`), false)
	var unknown UnknownAlgorithmError
	if !errors.As(err, &unknown) || unknown.Name != "MD5-RSA" {
		t.Errorf("ReadProfile() error = %v, want UnknownAlgorithmError", err)
	}
}

func TestSaveAndLoadProfile(t *testing.T) {
	for _, name := range []string{"profile.json", "profile.yaml", "profile.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := sampleProfile.Save(path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := LoadProfile(path)
			if err != nil {
				t.Fatalf("LoadProfile() error = %v", err)
			}
			if !reflect.DeepEqual(got, sampleProfile) {
				t.Errorf("LoadProfile() = %+v, want %+v", got, sampleProfile)
			}
		})
	}
}

func TestLoadProfile_Missing(t *testing.T) {
	got, err := LoadProfile(filepath.Join(t.TempDir(), "non-existent.json"))
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if !reflect.DeepEqual(got, NewProfile()) {
		t.Errorf("LoadProfile() = %+v, want default profile", got)
	}
}

func TestLoadProfile_Symlink(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "profile.json")
	if err := sampleProfile.Save(target); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "link.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if _, err := LoadProfile(link); err == nil {
		t.Error("LoadProfile() expected error for symlink")
	}
}

func TestSave_Invalid(t *testing.T) {
	p := &Profile{MaxDepth: -1}
	if err := p.Save(filepath.Join(t.TempDir(), "profile.json")); err == nil {
		t.Error("Save() expected error for invalid profile")
	}
}

func TestProfile_Options(t *testing.T) {
	opts := sampleProfile.DecodeOptions()
	if !opts.Strict || opts.MaxDepth != 32 {
		t.Errorf("DecodeOptions() = %+v", opts)
	}

	var verifyOpts cms.VerifyOptions
	if err := sampleProfile.ApplyTo(&verifyOpts); err != nil {
		t.Fatalf("ApplyTo() error = %v", err)
	}
	want := []encasn1.ObjectIdentifier{oid.ECDSAWithSHA256, oid.Ed25519}
	if !reflect.DeepEqual(verifyOpts.AllowedSignatureAlgorithms, want) {
		t.Errorf("AllowedSignatureAlgorithms = %v, want %v", verifyOpts.AllowedSignatureAlgorithms, want)
	}

	if err := NewProfile().ApplyTo(&verifyOpts); err != nil {
		t.Fatalf("ApplyTo() error = %v", err)
	}
	if verifyOpts.AllowedSignatureAlgorithms != nil {
		t.Errorf("AllowedSignatureAlgorithms = %v, want nil", verifyOpts.AllowedSignatureAlgorithms)
	}
}

func TestProfile_Decompress(t *testing.T) {
	content := bytes.Repeat([]byte{'a'}, 2048)
	der, err := cms.Compress(nil, content)
	if err != nil {
		t.Fatal(err)
	}

	p := &Profile{Strict: true, MaxContentSize: 2048}
	contentType, got, err := p.Decompress(der)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if !contentType.Equal(oid.Data) || !bytes.Equal(got, content) {
		t.Errorf("Decompress() = %v, %d bytes", contentType, len(got))
	}

	p.MaxContentSize = 1024
	if _, _, err := p.Decompress(der); !errors.Is(err, cmsio.ErrLimitExceeded) {
		t.Errorf("Decompress() error = %v, want ErrLimitExceeded", err)
	}

	p.MaxDepth = 1
	if _, _, err := p.Decompress(der); err == nil {
		t.Error("Decompress() expected error for depth limit")
	}
}
