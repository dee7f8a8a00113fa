package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"brutto-netto/cmd/brutto-netto/commands"
	"brutto-netto/lib/telemetry"
	"brutto-netto/lib/util/serviceutil"
)

func run() int {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()

	telemetry.InitSlog(false)
	tel, err := telemetry.SetupFromEnv(ctx, "brutto-netto")
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := tel.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	}()

	return commands.ExecuteContext(ctx)
}

func main() {
	os.Exit(run())
}
