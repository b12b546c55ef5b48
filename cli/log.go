package cli

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ipml/log"
)

// logFormat configures the default logger's format as soon as kong decodes
// the --log-format flag, so that errors raised while parsing the remaining
// flags are already rendered in the requested format.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the default logger's level as soon as kong decodes the
// --log-level flag.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"${logLevelDefault}"  enum:"${logLevelEnum}"  help:"Set log level (${enum})."`
	Format     logFormat `default:"${logFormatDefault}" enum:"${logFormatEnum}" help:"Set log format (${enum})."`
	TimeLayout string    `default:"RFC3339"                                     help:"Set timestamp format."`
	Caller     bool      `default:"false"                                       help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                                        help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelDefault":  log.DefaultLevel.String(),
		"logLevelEnum":     joinSeq(log.Levels()),
		"logFormatDefault": log.DefaultFormat.String(),
		"logFormatEnum":    joinSeq(log.Formats()),
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

// start applies the parsed flags to the default logger. The returned func is
// deferred by [Run] and flushes nothing; it only records the shutdown.
func (f *logConfig) start(ctx context.Context) func() {
	log.Config(f.options()...)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)

	return func() { log.TraceContext(ctx, "logger stopped") }
}

func (f *logConfig) options() []log.Option {
	return []log.Option{
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	}
}

// scan applies logger flags found in args before kong parses them, so the
// logger is configured no matter where the flags appear. Boolean flags never
// reach UnmarshalText, which is why they are handled here as well.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		name, value, assigned := strings.Cut(args[i], "=")

		negate := strings.HasPrefix(name, "--no-log-")

		switch {
		case negate:
			name = strings.TrimPrefix(name, "--no-log-")
		case strings.HasPrefix(name, "--log-"):
			name = strings.TrimPrefix(name, "--log-")
		default:
			continue
		}

		switch name {
		case "level", "format":
			if negate {
				continue
			}

			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				value = args[i]
			}

			if name == "level" {
				_ = f.Level.UnmarshalText([]byte(value))
			} else {
				_ = f.Format.UnmarshalText([]byte(value))
			}

		case "pretty":
			if on, ok := scanBool(value, assigned, negate); ok {
				f.Pretty = on
				log.Config(log.WithPretty(on))
			}

		case "caller":
			if on, ok := scanBool(value, assigned, negate); ok {
				f.Caller = on
				log.Config(log.WithCaller(on))
			}
		}
	}
}

// scanBool interprets a boolean flag occurrence. A bare flag is true, or false
// when negated; an explicit value that fails to parse is ignored.
func scanBool(value string, assigned, negate bool) (on, ok bool) {
	on = true

	if assigned {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return false, false
		}

		on = v
	}

	return on != negate, true
}
