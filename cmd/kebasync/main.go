package main

import (
	"context"
	"log/slog"

	"kebasync/cmd/kebasync/commands"
	"kebasync/lib/osutil"
	"kebasync/lib/telemetry"
)

func main() {
	ctx := osutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "kebasync")
	if err != nil {
		slog.Warn("telemetry setup failed", "err", err)
	} else {
		defer tel.Shutdown(context.Background())
	}

	commands.ExecuteContext(ctx)
}
