package xlockstat_test

import (
	"context"
	"fmt"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/opencpi/xkit/pkg/observability/xlockstat"
	"github.com/opencpi/xkit/pkg/sync/xsync"
)

func ExampleNew() {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	stats, err := xlockstat.New(xlockstat.WithMeterProvider(mp))
	if err != nil {
		fmt.Println(err)
		return
	}

	sem, _ := xsync.NewSemaphore(0, xsync.WithObserver(stats))
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = sem.Post()
	}()
	_ = sem.Wait() // 计数为零，进入阻塞路径

	var rm metricdata.ResourceMetrics
	_ = reader.Collect(context.Background(), &rm)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		fmt.Println(m.Name)
	}
	// Unordered output:
	// xsync.contended.total
	// xsync.wait.duration
}
