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

package file

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profile.json")
	err := Save(path, func(w io.Writer) error {
		_, err := io.WriteString(w, `{"strict":true}`)
		return err
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"strict":true}` {
		t.Errorf("content = %q", data)
	}
}

func TestSave_EncodeError(t *testing.T) {
	want := errors.New("encode failed")
	err := Save(filepath.Join(t.TempDir(), "profile.json"), func(io.Writer) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("Save() error = %v, want %v", err, want)
	}
}

func TestOpen_Errors(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "profile.json")
	if err := os.WriteFile(target, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "symlink")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	if _, err := Open(filepath.Join(root, "non-existent")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open() error = %v, want ErrNotExist", err)
	}
	if _, err := Open(link); err == nil {
		t.Error("Open() expected error for symlink")
	}
	if _, err := Open(root); err == nil {
		t.Error("Open() expected error for directory")
	}
}
