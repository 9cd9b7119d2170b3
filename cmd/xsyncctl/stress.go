package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	"golang.org/x/sync/errgroup"

	"github.com/opencpi/xkit/pkg/observability/xlockstat"
	"github.com/opencpi/xkit/pkg/sync/xsync"
)

// 压力自检上限。
const (
	maxGoroutines = 1024
	maxIterations = 10_000_000
)

// primitives 支持压力自检的原语。
var primitives = []string{"mutex", "rwlock", "sem", "spin"}

// errStressMismatch 压力自检计数结果与预期不一致。
var errStressMismatch = errors.New("xsyncctl: stress counter mismatch")

type stressConfig struct {
	primitive  string
	goroutines int
	iterations int
}

func (c stressConfig) validate() error {
	if !slices.Contains(primitives, c.primitive) {
		return &usageError{msg: fmt.Sprintf("未知原语 %q，可选: %s", c.primitive, strings.Join(primitives, ", "))}
	}
	if c.goroutines <= 0 || c.goroutines > maxGoroutines {
		return &usageError{msg: fmt.Sprintf("goroutines 必须在 1~%d 之间", maxGoroutines)}
	}
	if c.iterations <= 0 || c.iterations > maxIterations {
		return &usageError{msg: fmt.Sprintf("iterations 必须在 1~%d 之间", maxIterations)}
	}
	return nil
}

// stressResult 压力自检结果。
type stressResult struct {
	Primitive string
	Counter   int64
	Expected  int64
	Contended int64
	Elapsed   time.Duration
}

func (r stressResult) String() string {
	status := "OK"
	if r.Counter != r.Expected {
		status = "MISMATCH"
	}
	return fmt.Sprintf("%s: counter=%d expected=%d contended=%d elapsed=%s %s",
		r.Primitive, r.Counter, r.Expected, r.Contended, r.Elapsed.Round(time.Microsecond), status)
}

func (r stressResult) check() error {
	if r.Counter != r.Expected {
		return fmt.Errorf("%w: %s got %d, want %d", errStressMismatch, r.Primitive, r.Counter, r.Expected)
	}
	return nil
}

// section 一次临界区：获取、修改计数器、释放。
type section func(counter *int64) error

// newSection 按原语类型构造临界区，返回销毁函数。
func newSection(primitive string, obs xsync.Observer) (section, func() error, error) {
	opt := xsync.WithObserver(obs)
	switch primitive {
	case "mutex":
		m, err := xsync.NewMutex(opt)
		if err != nil {
			return nil, nil, err
		}
		return func(c *int64) error {
			if err := m.Lock(); err != nil {
				return err
			}
			*c++
			return m.Unlock()
		}, m.Destroy, nil

	case "rwlock":
		l, err := xsync.NewRWLock(opt)
		if err != nil {
			return nil, nil, err
		}
		return func(c *int64) error {
			if err := l.RLock(); err != nil {
				return err
			}
			snapshot := *c
			if err := l.RUnlock(); err != nil {
				return err
			}
			if snapshot < 0 {
				return fmt.Errorf("negative counter %d observed under read lock", snapshot)
			}
			if err := l.Lock(); err != nil {
				return err
			}
			*c++
			return l.Unlock()
		}, l.Destroy, nil

	case "sem":
		// 初始计数为 1 的信号量作为二元锁
		s, err := xsync.NewSemaphore(1, opt)
		if err != nil {
			return nil, nil, err
		}
		return func(c *int64) error {
			if err := s.Wait(); err != nil {
				return err
			}
			*c++
			return s.Post()
		}, s.Destroy, nil

	case "spin":
		l, err := xsync.NewSpinLock(opt)
		if err != nil {
			return nil, nil, err
		}
		return func(c *int64) error {
			if err := l.Lock(); err != nil {
				return err
			}
			*c++
			return l.Unlock()
		}, l.Destroy, nil
	}
	return nil, nil, &usageError{msg: fmt.Sprintf("未知原语 %q", primitive)}
}

// runStress 以 cfg.goroutines 个 goroutine 并发执行临界区，
// 竞争次数通过 xlockstat 与进程内 ManualReader 统计。
func runStress(ctx context.Context, cfg stressConfig) (stressResult, error) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "xsyncctl"),
			attribute.String("xsync.primitive", cfg.primitive),
		)),
	)
	defer func() { _ = mp.Shutdown(context.Background()) }()

	stats, err := xlockstat.New(xlockstat.WithMeterProvider(mp), xlockstat.WithName("xsyncctl"))
	if err != nil {
		return stressResult{}, err
	}
	enter, destroy, err := newSection(cfg.primitive, stats)
	if err != nil {
		return stressResult{}, err
	}

	var counter int64
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for range cfg.goroutines {
		g.Go(func() error {
			for range cfg.iterations {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := enter(&counter); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stressResult{}, errors.Join(err, destroy())
	}
	elapsed := time.Since(start)

	if err := destroy(); err != nil {
		return stressResult{}, err
	}

	contended, err := contendedTotal(ctx, reader)
	if err != nil {
		return stressResult{}, err
	}
	return stressResult{
		Primitive: cfg.primitive,
		Counter:   counter,
		Expected:  int64(cfg.goroutines) * int64(cfg.iterations),
		Contended: contended,
		Elapsed:   elapsed,
	}, nil
}

// contendedTotal 汇总 xsync.contended.total 计数器。
func contendedTotal(ctx context.Context, reader *sdkmetric.ManualReader) (int64, error) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.WithoutCancel(ctx), &rm); err != nil {
		return 0, fmt.Errorf("collect metrics: %w", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != xlockstat.MetricContendedTotal {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total, nil
}
