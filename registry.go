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

// Entry is a registered converter together with the capabilities captured at
// registration time.
type Entry struct {
	Name         string
	Converter    Converter
	Capabilities Capabilities
}

// FormatList is the JSON projection of a capability descriptor.
type FormatList struct {
	Input  []string `json:"input"`
	Output []string `json:"output"`
}

// Registry holds converters in registration order. It is populated once at
// startup and is read-only afterwards, so lookups take no locks.
type Registry struct {
	entries []Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a converter. Registration order decides which converter
// wins when several support the same pair.
func (r *Registry) Register(name string, c Converter) error {
	if name == "" {
		return errors.New("register converter: empty name")
	}
	if c == nil {
		return fmt.Errorf("register converter %q: nil converter", name)
	}
	for _, e := range r.entries {
		if e.Name == name {
			return fmt.Errorf("register converter %q: already registered", name)
		}
	}
	r.entries = append(r.entries, Entry{
		Name:         name,
		Converter:    c,
		Capabilities: c.Capabilities().normalized(),
	})
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, c Converter) {
	if err := r.Register(name, c); err != nil {
		panic(err)
	}
}

// Find returns the first converter that reads in and writes out.
func (r *Registry) Find(in, out Format) (Entry, bool) {
	in, out = NormalizeFormat(string(in)), NormalizeFormat(string(out))
	for _, e := range r.entries {
		if e.Capabilities.Supports(in, out) {
			return e, true
		}
	}
	return Entry{}, false
}

// List returns all entries in registration order.
func (r *Registry) List() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered converters.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Formats maps converter names to their declared formats.
func (r *Registry) Formats() map[string]FormatList {
	out := make(map[string]FormatList, len(r.entries))
	for _, e := range r.entries {
		out[e.Name] = FormatList{
			Input:  formatStrings(e.Capabilities.Inputs),
			Output: formatStrings(e.Capabilities.Outputs),
		}
	}
	return out
}

func formatStrings(fs []Format) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}
