package xlockstat

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// defaultMeterName 默认的 Meter scope 名称。
const defaultMeterName = "xsync"

// Option 定义 Stats 可选配置。
type Option func(*options)

type options struct {
	meterProvider metric.MeterProvider
	name          string
}

func defaultOptions() options {
	return options{
		meterProvider: otel.GetMeterProvider(),
		name:          defaultMeterName,
	}
}

// WithMeterProvider 设置 MeterProvider，nil 时保持默认（全局 MeterProvider）。
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// WithName 设置 Meter scope 名称，空字符串时保持默认 "xsync"。
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}
