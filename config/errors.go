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

import "fmt"

// InvalidProfileError is used when a profile cannot be decoded or violates
// a field constraint.
type InvalidProfileError struct {
	Err error
}

// Error returns the error message.
func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("invalid profile: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *InvalidProfileError) Unwrap() error {
	return e.Err
}

// UnknownAlgorithmError is used when a profile names a signature algorithm
// that is not supported.
type UnknownAlgorithmError struct {
	Name string
}

// Error returns the error message.
func (e UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("unknown signature algorithm %q", e.Name)
}
