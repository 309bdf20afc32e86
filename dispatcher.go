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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// DefaultTimeout bounds a converter invocation unless WithTimeout says otherwise.
const DefaultTimeout = 2 * time.Minute

const stagingPrefix = "dispatch-"

// Dispatcher resolves a converter for a format pair, stages the payload on
// disk, runs the converter once and returns its output.
type Dispatcher struct {
	registry      *Registry
	stagingDir    string
	timeout       time.Duration
	maxConcurrent int64
	allowEmpty    bool
	metrics       *Metrics

	slots *semaphore.Weighted
}

// NewDispatcher creates a Dispatcher over reg.
func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:      reg,
		stagingDir:    os.TempDir(),
		timeout:       DefaultTimeout,
		maxConcurrent: int64(runtime.NumCPU()),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.slots = semaphore.NewWeighted(d.maxConcurrent)
	return d
}

// Registry returns the registry the dispatcher routes over.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch converts payload from format in to format out. The staging files
// it creates are removed whatever the outcome: before Dispatch returns, or,
// when a converter outlives the timeout, as soon as that converter returns.
func (d *Dispatcher) Dispatch(ctx context.Context, in, out Format, payload []byte) ([]byte, error) {
	in, out = NormalizeFormat(string(in)), NormalizeFormat(string(out))

	entry, ok := d.registry.Find(in, out)
	if !ok {
		d.metrics.observe("", OutcomeUnsupported)
		return nil, &UnsupportedConversionError{Input: in, Output: out}
	}

	if err := d.acquire(ctx); err != nil {
		d.metrics.observe(entry.Name, OutcomeTimeout)
		return nil, &ConversionError{Converter: entry.Name, Err: err}
	}
	d.metrics.slotAcquired()
	release := func() {
		d.metrics.slotReleased()
		d.slots.Release(1)
	}

	dir, err := d.stage()
	if err != nil {
		release()
		d.metrics.observe(entry.Name, OutcomeStaging)
		return nil, &StagingError{Op: "create", Err: err}
	}
	// A converter still running past the timeout owns dir until it returns.
	detached := false
	defer func() {
		if !detached {
			_ = os.RemoveAll(dir)
		}
	}()

	inPath := filepath.Join(dir, "input"+string(in))
	outPath := filepath.Join(dir, "output"+string(out))

	if err := os.WriteFile(inPath, payload, 0o600); err != nil {
		release()
		d.metrics.observe(entry.Name, OutcomeStaging)
		return nil, &StagingError{Op: "write", Err: err}
	}

	detached, err = d.invoke(ctx, entry, inPath, outPath, release, func() { _ = os.RemoveAll(dir) })
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			d.metrics.observe(entry.Name, OutcomeTimeout)
		} else {
			d.metrics.observe(entry.Name, OutcomeFailed)
		}
		return nil, err
	}

	data, err := os.ReadFile(outPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		d.metrics.observe(entry.Name, OutcomeFailed)
		return nil, &ConversionError{Converter: entry.Name, Err: ErrNoOutput}
	case err != nil:
		d.metrics.observe(entry.Name, OutcomeStaging)
		return nil, &StagingError{Op: "read", Err: err}
	case len(data) == 0 && !d.allowEmpty:
		d.metrics.observe(entry.Name, OutcomeFailed)
		return nil, &ConversionError{Converter: entry.Name, Err: ErrEmptyOutput}
	}

	d.metrics.observe(entry.Name, OutcomeSuccess)
	return data, nil
}

// acquire waits for a worker slot, for at most the conversion timeout.
func (d *Dispatcher) acquire(ctx context.Context) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.slots.Acquire(ctx, 1); err != nil {
		return contextError(err)
	}
	return nil
}

// invoke runs the converter in its own goroutine so that a converter ignoring
// ctx cannot hold the caller past the timeout. release is called as soon as
// the converter returns, which may be after invoke itself has returned. In
// that case invoke reports detached and cleanup runs once the converter is
// done with its files; otherwise cleanup is left to the caller.
func (d *Dispatcher) invoke(ctx context.Context, entry Entry, inPath, outPath string, release, cleanup func()) (detached bool, err error) {
	convCtx, cancel := ctx, context.CancelFunc(func() {})
	if d.timeout > 0 {
		convCtx, cancel = context.WithTimeout(ctx, d.timeout)
	}
	defer cancel()

	done := make(chan error, 1)
	start := time.Now()
	go func() {
		err := safeConvert(convCtx, entry.Converter, inPath, outPath)
		release()
		done <- err
	}()

	select {
	case err = <-done:
	case <-convCtx.Done():
		select {
		case err = <-done:
		default:
			err = convCtx.Err()
			detached = true
			go func() {
				<-done
				cleanup()
			}()
		}
	}
	d.metrics.observeDuration(entry.Name, time.Since(start))

	if err == nil {
		return detached, nil
	}
	if ctxErr := convCtx.Err(); ctxErr != nil {
		err = contextError(ctxErr)
		if errors.Is(err, ErrTimeout) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s", ErrTimeout, d.timeout)
		}
	}
	return detached, &ConversionError{Converter: entry.Name, Err: err}
}

func (d *Dispatcher) stage() (string, error) {
	dir := filepath.Join(d.stagingDir, stagingPrefix+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func safeConvert(ctx context.Context, c Converter, inPath, outPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("converter panic: %v", r)
		}
	}()
	return c.Convert(ctx, inPath, outPath)
}

// contextError maps deadline expiry to ErrTimeout and keeps other errors.
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
