package convertd

import "time"

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStagingDir sets the directory under which per-dispatch staging
// directories are created (default: os.TempDir()).
func WithStagingDir(dir string) Option {
	return func(d *Dispatcher) {
		d.stagingDir = dir
	}
}

// WithTimeout bounds a single converter invocation. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithMaxConcurrent limits how many converters may run at once
// (default: runtime.NumCPU()).
func WithMaxConcurrent(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxConcurrent = int64(n)
		}
	}
}

// WithMetrics records dispatch outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithAllowEmptyOutput makes an empty output file a success. A missing output
// file is always a failure.
func WithAllowEmptyOutput(allow bool) Option {
	return func(d *Dispatcher) {
		d.allowEmpty = allow
	}
}
