// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package convertd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"unsupported", &UnsupportedConversionError{Input: ".a", Output: ".b"}, SeverityClient},
		{"invalid payload", &InvalidPayloadError{Reason: "bad base64"}, SeverityClient},
		{"wrapped unsupported", fmt.Errorf("route: %w", &UnsupportedConversionError{}), SeverityClient},
		{"conversion", &ConversionError{Converter: "x", Err: errors.New("boom")}, SeverityServer},
		{"timeout", &ConversionError{Err: ErrTimeout}, SeverityServer},
		{"staging", &StagingError{Op: "create", Err: errors.New("disk full")}, SeverityServer},
		{"other", errors.New("other"), SeverityServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeverityOf(tt.err))
		})
	}
	assert.Equal(t, "client", SeverityClient.String())
	assert.Equal(t, "server", SeverityServer.String())
}

func TestErrorMessages(t *testing.T) {
	assert.EqualError(t, &UnsupportedConversionError{Input: ".xyz", Output: ".abc"},
		"conversion from .xyz to .abc not supported")
	assert.EqualError(t, &UnsupportedConversionError{Input: ".xyz"},
		`conversion from .xyz to "" not supported`)
	assert.EqualError(t, &ConversionError{Converter: "image", Err: ErrNoOutput},
		"conversion failed in image: converter produced no output file")
	assert.EqualError(t, &StagingError{Op: "write", Err: errors.New("EACCES")}, "staging write: EACCES")

	err := &ConversionError{Converter: "media", Err: fmt.Errorf("%w after 1s", ErrTimeout)}
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsConversionFailed(err))
	assert.False(t, IsStaging(err))
}
