package xlockstat

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/opencpi/xkit/pkg/sync/xsync"
)

const (
	// MetricContendedTotal 阻塞获取次数计数器
	MetricContendedTotal = "xsync.contended.total"
	// MetricWaitDuration 阻塞等待耗时直方图
	MetricWaitDuration = "xsync.wait.duration"

	// AttrKind 原语类别属性键
	AttrKind = "kind"

	instrumentationVersion = "1.0.0"
)

// waitBuckets 等待耗时直方图的桶边界（秒），覆盖自旋级到秒级的等待。
var waitBuckets = []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1, 1.0, 10.0}

// kinds 预先计算属性集的原语类别。
var kinds = []xsync.Kind{
	xsync.KindMutex,
	xsync.KindRWLockRead,
	xsync.KindRWLockWrite,
	xsync.KindSemaphore,
	xsync.KindSpin,
}

// Stats 基于 OpenTelemetry 的竞争观测者，实现 xsync.Observer。
// 可被任意多个原语共享，并发安全。
type Stats struct {
	contended metric.Int64Counter
	wait      metric.Float64Histogram

	// attrs 按 Kind 预先构造的属性选项，记录时不分配
	attrs   map[xsync.Kind]metric.MeasurementOption
	unknown metric.MeasurementOption
}

var _ xsync.Observer = (*Stats)(nil)

// New 创建竞争观测者。
func New(opts ...Option) (*Stats, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	meter := o.meterProvider.Meter(o.name,
		metric.WithInstrumentationVersion(instrumentationVersion),
	)

	s := &Stats{
		attrs:   make(map[xsync.Kind]metric.MeasurementOption, len(kinds)),
		unknown: kindOption(xsync.Kind(0)),
	}
	var err error
	if s.contended, err = meter.Int64Counter(MetricContendedTotal,
		metric.WithDescription("同步原语阻塞获取次数"), metric.WithUnit("{acquire}")); err != nil {
		return nil, fmt.Errorf("xlockstat: create counter: %w", err)
	}
	if s.wait, err = meter.Float64Histogram(MetricWaitDuration,
		metric.WithDescription("同步原语阻塞等待耗时"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(waitBuckets...)); err != nil {
		return nil, fmt.Errorf("xlockstat: create histogram: %w", err)
	}
	for _, k := range kinds {
		s.attrs[k] = kindOption(k)
	}
	return s, nil
}

func kindOption(k xsync.Kind) metric.MeasurementOption {
	return metric.WithAttributeSet(attribute.NewSet(attribute.String(AttrKind, k.String())))
}

// Contended 记录一次阻塞获取。nil 接收者安全。
func (s *Stats) Contended(kind xsync.Kind, wait time.Duration) {
	if s == nil {
		return
	}
	opt, ok := s.attrs[kind]
	if !ok {
		opt = s.unknown
	}
	ctx := context.Background()
	s.contended.Add(ctx, 1, opt)
	s.wait.Record(ctx, wait.Seconds(), opt)
}
