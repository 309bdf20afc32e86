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
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcConverter struct {
	caps    Capabilities
	convert func(ctx context.Context, in, out string) error
}

func (f funcConverter) Capabilities() Capabilities { return f.caps }

func (f funcConverter) Convert(ctx context.Context, in, out string) error {
	return f.convert(ctx, in, out)
}

func TestDispatcherMetrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	m := NewMetrics(promReg)

	reg := NewRegistry()
	reg.MustRegister("ok", funcConverter{
		caps: NewCapabilities([]string{".a"}, []string{".b"}),
		convert: func(_ context.Context, _, out string) error {
			return os.WriteFile(out, []byte("x"), 0o600)
		},
	})
	reg.MustRegister("bad", funcConverter{
		caps:    NewCapabilities([]string{".c"}, []string{".d"}),
		convert: func(context.Context, string, string) error { return errors.New("nope") },
	})
	d := NewDispatcher(reg, WithStagingDir(t.TempDir()), WithMetrics(m))

	_, err := d.Dispatch(context.Background(), ".a", ".b", []byte("in"))
	require.NoError(t, err)
	_, err = d.Dispatch(context.Background(), ".c", ".d", []byte("in"))
	require.Error(t, err)
	_, err = d.Dispatch(context.Background(), ".x", ".y", []byte("in"))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversions.WithLabelValues("ok", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversions.WithLabelValues("bad", OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversions.WithLabelValues("none", OutcomeUnsupported)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observe("x", OutcomeSuccess)
		m.slotAcquired()
		m.slotReleased()
	})
}
