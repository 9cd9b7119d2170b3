package xlockstat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/opencpi/xkit/pkg/sync/xsync"
)

// newTestMeterProvider 创建用于测试的 MeterProvider
func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

// collect 收集指标，返回名称到指标数据的映射。
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

// countByKind 汇总计数器按 kind 属性的取值。
func countByKind(t *testing.T, m metricdata.Metrics) map[string]int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "unexpected data type %T", m.Data)
	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(AttrKind))
		out[v.AsString()] += dp.Value
	}
	return out
}

func TestNew_Default(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	require.NotNil(t, s)
	s.Contended(xsync.KindMutex, time.Millisecond) // 全局 noop provider，不应 panic
}

func TestStats_NilReceiver(t *testing.T) {
	var s *Stats
	assert.NotPanics(t, func() { s.Contended(xsync.KindSpin, time.Second) })
}

func TestStats_Contended(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	s, err := New(WithMeterProvider(mp), WithName("test.lockstat"))
	require.NoError(t, err)

	s.Contended(xsync.KindMutex, 2*time.Millisecond)
	s.Contended(xsync.KindMutex, 3*time.Millisecond)
	s.Contended(xsync.KindSemaphore, time.Millisecond)
	s.Contended(xsync.Kind(42), time.Millisecond)

	metrics := collect(t, reader)
	require.Contains(t, metrics, MetricContendedTotal)
	require.Contains(t, metrics, MetricWaitDuration)

	counts := countByKind(t, metrics[MetricContendedTotal])
	assert.Equal(t, map[string]int64{"mutex": 2, "semaphore": 1, "unknown": 1}, counts)

	hist, ok := metrics[MetricWaitDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var total uint64
	var sum float64
	for _, dp := range hist.DataPoints {
		total += dp.Count
		sum += dp.Sum
	}
	assert.EqualValues(t, 4, total)
	assert.InDelta(t, 0.007, sum, 1e-9)
}

func TestStats_ScopeName(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	s, err := New(WithMeterProvider(mp), WithName(""), WithMeterProvider(nil))
	require.NoError(t, err)
	s.Contended(xsync.KindSpin, time.Microsecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, defaultMeterName, rm.ScopeMetrics[0].Scope.Name)
	assert.Equal(t, instrumentationVersion, rm.ScopeMetrics[0].Scope.Version)
}

// 通过真实的互斥锁竞争驱动观测者。
func TestStats_WithMutex(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	s, err := New(WithMeterProvider(mp))
	require.NoError(t, err)

	m, err := xsync.NewMutex(xsync.WithObserver(s), xsync.WithErrorCheck(false))
	require.NoError(t, err)
	require.NoError(t, m.Lock())

	done := make(chan struct{})
	go func() {
		assert.NoError(t, m.Lock())
		assert.NoError(t, m.Unlock())
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, m.Unlock())
	<-done

	counts := countByKind(t, collect(t, reader)[MetricContendedTotal])
	assert.EqualValues(t, 1, counts["mutex"])
}
