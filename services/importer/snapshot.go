package importer

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

// writeSnapshot dumps shaped records as a json array to a well-known
// path. Snapshots are a debugging side artifact: a failed write warns
// and the import carries on.
func writeSnapshot[T any](ctx context.Context, dir, name string, recs []T, enabled bool) {
	if !enabled {
		return
	}
	contents, err := json.Marshal(recs)
	if err != nil {
		slog.WarnContext(ctx, "failed to marshal snapshot", "file", name, "err", err)
		return
	}
	path := filepath.Join(dir, name)
	err = os.WriteFile(path, contents, 0644)
	if err != nil {
		slog.WarnContext(ctx, "failed to write snapshot", "path", path, "err", err)
		return
	}
	slog.InfoContext(ctx, "wrote snapshot", "path", path, "records", len(recs))
}
