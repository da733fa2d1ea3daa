package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTarget     = "target"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyRepo       = "repository"
	KeyRevision   = "revision"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyCategory   = "category"
	KeyTool       = "tool"
	KeyCount      = "count"
	KeyRunID      = "run_id"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Target(name string) slog.Attr    { return slog.String(KeyTarget, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Revision(r string) slog.Attr     { return slog.String(KeyRevision, r) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Tool(t string) slog.Attr         { return slog.String(KeyTool, t) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Error(err error) slog.Attr {
	if err == nil { return slog.String(KeyError, "") }
	return slog.String(KeyError, err.Error())
}
