package batch

import (
	"brutto-netto/lib/telemetry"

	"go.opentelemetry.io/otel"
)

var tracer = telemetry.Tracer("brutto-netto.lib.batch")

var meter = otel.Meter("brutto-netto.lib.batch")
var calculationCounter, _ = meter.Int64Counter(
	"brutto_netto.calculations",
)
var calculationDuration, _ = meter.Float64Histogram(
	"brutto_netto.calculation_duration",
)
