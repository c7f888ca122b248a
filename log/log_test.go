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

package log

import (
	"context"
	"testing"
)

type countingLogger struct {
	discardLogger
	debug int
}

func (l *countingLogger) Debugf(string, ...any) { l.debug++ }

func TestWithLoggerAndGetLogger(t *testing.T) {
	tl := &countingLogger{}
	ctx := WithLogger(context.Background(), tl)

	GetLogger(ctx).Debugf("signing %d signers", 2)
	if tl.debug != 1 {
		t.Errorf("Debugf calls = %d, want 1", tl.debug)
	}
}

func TestGetLoggerWithNoLogger(t *testing.T) {
	if got := GetLogger(context.Background()); got != Discard {
		t.Errorf("GetLogger() = %v, want Discard", got)
	}
}

func TestDiscardLogger(t *testing.T) {
	calls := map[string]func(){
		"Debug":   func() { Discard.Debug("test") },
		"Debugf":  func() { Discard.Debugf("test %s", "format") },
		"Debugln": func() { Discard.Debugln("test") },
		"Info":    func() { Discard.Info("test") },
		"Infof":   func() { Discard.Infof("test %s", "format") },
		"Infoln":  func() { Discard.Infoln("test") },
		"Warn":    func() { Discard.Warn("test") },
		"Warnf":   func() { Discard.Warnf("test %s", "format") },
		"Warnln":  func() { Discard.Warnln("test") },
		"Error":   func() { Discard.Error("test") },
		"Errorf":  func() { Discard.Errorf("test %s", "format") },
		"Errorln": func() { Discard.Errorln("test") },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("method panicked")
				}
			}()
			call()
		})
	}
}
