// Package log provides a simplified structured logging interface based on
// [log/slog].
//
// A [Logger] is created with [Make] and configured with functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
// Each level has a context-aware and a context-unaware method. The
// context-unaware variants use [DefaultContextProvider].
//
//	logger.DebugContext(ctx, "feed block", slog.Int("tokens", n))
//	logger.Info("ready")
//
// The zero [Logger] discards everything, so packages may hold one as an
// optional field without nil checks.
//
// The package also maintains a process-wide default logger, configured with
// [Config] and used by the package-level functions such as [InfoContext].
//
// # Levels
//
// [LevelTrace] is one step below [LevelDebug] and is used by the
// interpreter to report individual statements.
//
// # Pretty Output
//
// With [WithPretty] enabled, the text format renders levels and attribute
// keys with lipgloss styles. Pretty output has no effect on JSON.
package log
