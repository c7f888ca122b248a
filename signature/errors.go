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

package signature

import "errors"

var (
	// ErrUnsupportedAlgorithm is the detail of a SignatureError raised for
	// an algorithm the engine does not implement.
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")

	// ErrKeyMismatch is the detail of a SignatureError raised when the key
	// does not belong to the algorithm family.
	ErrKeyMismatch = errors.New("key does not match signature algorithm")

	// ErrInvalidSignature is the detail of a SignatureError raised when a
	// signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")
)

// SignatureError is returned by an Engine that failed to sign or verify.
type SignatureError struct {
	Algorithm string
	Detail    error
}

// Error returns error message.
func (e *SignatureError) Error() string {
	msg := "signature error"
	if e.Algorithm != "" {
		msg += " (" + e.Algorithm + ")"
	}
	if e.Detail != nil {
		msg += ": " + e.Detail.Error()
	}
	return msg
}

// Unwrap returns the internal error.
func (e *SignatureError) Unwrap() error {
	return e.Detail
}
