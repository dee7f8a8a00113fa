package wynagrodzenia

import (
	"brutto-netto/lib/telemetry"
)

var tracer = telemetry.Tracer("brutto-netto.lib.scrapers.wynagrodzenia")
