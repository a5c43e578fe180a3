package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var countGauge, _ = otel.Meter("boilerroom.telemetry").Int64Gauge(
	"report_count",
	metric.WithDescription("point-in-time counts reported through telemetry.API"),
)

func recordCount(ctx context.Context, id string, count int64) {
	if countGauge == nil {
		return
	}
	countGauge.Record(ctx, count, metric.WithAttributes(attribute.String("id", id)))
}
