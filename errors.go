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
)

var (
	// ErrTimeout is wrapped by ConversionError when a converter exceeds its
	// time budget or no worker slot frees up in time.
	ErrTimeout = errors.New("conversion timed out")
	// ErrNoOutput is wrapped by ConversionError when a converter reported
	// success without creating the output file.
	ErrNoOutput = errors.New("converter produced no output file")
	// ErrEmptyOutput is wrapped by ConversionError when the output file is empty.
	ErrEmptyOutput = errors.New("converter produced an empty output file")
)

// UnsupportedConversionError is returned when no registered converter handles
// the requested pair.
type UnsupportedConversionError struct {
	Input  Format
	Output Format
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("conversion from %s to %s not supported", displayFormat(e.Input), displayFormat(e.Output))
}

func displayFormat(f Format) string {
	if f == "" {
		return `""`
	}
	return string(f)
}

// InvalidPayloadError is returned by protocol adapters when the request
// payload cannot be turned into bytes (bad base64, missing upload).
type InvalidPayloadError struct {
	Reason string
}

func (e *InvalidPayloadError) Error() string {
	return e.Reason
}

// StagingError is returned when temporary storage for a conversion cannot be
// created, written or read back.
type StagingError struct {
	Op  string
	Err error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %s: %v", e.Op, e.Err)
}

func (e *StagingError) Unwrap() error {
	return e.Err
}

// ConversionError is returned when a converter was invoked but failed.
type ConversionError struct {
	Converter string
	Err       error
}

func (e *ConversionError) Error() string {
	if e.Converter == "" {
		return fmt.Sprintf("conversion failed: %v", e.Err)
	}
	return fmt.Sprintf("conversion failed in %s: %v", e.Converter, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// IsUnsupportedConversion reports whether err is an UnsupportedConversionError.
func IsUnsupportedConversion(err error) bool {
	var target *UnsupportedConversionError
	return errors.As(err, &target)
}

// IsInvalidPayload reports whether err is an InvalidPayloadError.
func IsInvalidPayload(err error) bool {
	var target *InvalidPayloadError
	return errors.As(err, &target)
}

// IsStaging reports whether err is a StagingError.
func IsStaging(err error) bool {
	var target *StagingError
	return errors.As(err, &target)
}

// IsConversionFailed reports whether err is a ConversionError.
func IsConversionFailed(err error) bool {
	var target *ConversionError
	return errors.As(err, &target)
}

// Severity says who caused a failure.
type Severity int

const (
	// SeverityServer marks failures of the service or its environment.
	SeverityServer Severity = iota
	// SeverityClient marks failures caused by the request itself.
	SeverityClient
)

func (s Severity) String() string {
	if s == SeverityClient {
		return "client"
	}
	return "server"
}

// SeverityOf classifies err. Both protocol adapters map wire codes from this
// value so that REST and MCP agree on who is at fault.
func SeverityOf(err error) Severity {
	switch {
	case IsUnsupportedConversion(err), IsInvalidPayload(err):
		return SeverityClient
	default:
		return SeverityServer
	}
}
