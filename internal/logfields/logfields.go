package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyPass       = "pass"
	KeyExitCode   = "exit_code"
	KeyDurationMS = "duration_ms"
	KeyBranch     = "branch"
	KeyRef        = "ref"
	KeyOrdinal    = "ordinal"
	KeyFragment   = "fragment"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyStore      = "store"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Pass(name string) slog.Attr      { return slog.String(KeyPass, name) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Branch(name string) slog.Attr    { return slog.String(KeyBranch, name) }
func Ref(name string) slog.Attr       { return slog.String(KeyRef, name) }
func Ordinal(n int) slog.Attr         { return slog.Int(KeyOrdinal, n) }
func Fragment(path string) slog.Attr  { return slog.String(KeyFragment, path) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(name string) slog.Attr      { return slog.String(KeyFile, name) }
func Store(kind string) slog.Attr     { return slog.String(KeyStore, kind) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
