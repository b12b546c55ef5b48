package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// prettyStyles holds the lipgloss styles used by prettyHandler. Styles are
// bound to a renderer for the handler's writer so that color is dropped
// automatically when the writer is not a terminal.
type prettyStyles struct {
	time, key, source lipgloss.Style
	level             map[Level]lipgloss.Style
}

func makePrettyStyles(w io.Writer) prettyStyles {
	r := lipgloss.NewRenderer(w)
	level := func(color string) lipgloss.Style {
		return r.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
	}

	return prettyStyles{
		time:   r.NewStyle().Faint(true),
		key:    r.NewStyle().Foreground(lipgloss.Color("8")),
		source: r.NewStyle().Faint(true).Italic(true),
		level: map[Level]lipgloss.Style{
			LevelTrace: level("13"),
			LevelDebug: level("12"),
			LevelInfo:  level("10"),
			LevelWarn:  level("11"),
			LevelError: level("9"),
		},
	}
}

// prettyHandler is a slog.Handler producing one styled line per record:
//
//	TIME LEVEL message key=value group.key=value
type prettyHandler struct {
	mu         *sync.Mutex
	w          io.Writer
	opts       *slog.HandlerOptions
	formatTime FormatTime
	styles     prettyStyles
	prefix     string
	attrs      []byte
}

func newPrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyHandler {
	return &prettyHandler{
		mu:         &sync.Mutex{},
		w:          w,
		opts:       opts,
		formatTime: formatTime,
		styles:     makePrettyStyles(w),
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.opts.Level == nil || level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		if ts := h.formatTime(r.Time); ts != "" {
			buf.WriteString(h.styles.time.Render(ts))
			buf.WriteByte(' ')
		}
	}

	name := strings.ToUpper(Level(r.Level).String())
	style, ok := h.styles.level[Level(r.Level)]
	if !ok {
		style = h.styles.level[LevelInfo]
	}

	buf.WriteString(style.Render(padRight(name, 5)))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	if h.opts.AddSource && r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		if f, _ := frames.Next(); f.File != "" {
			buf.WriteByte(' ')
			buf.WriteString(h.styles.source.Render(
				shortFile(f.File) + ":" + strconv.Itoa(f.Line),
			))
		}
	}

	buf.Write(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, h.prefix, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	var buf bytes.Buffer
	for _, a := range attrs {
		h.writeAttr(&buf, h.prefix, a)
	}

	c := *h
	c.attrs = append(append([]byte(nil), h.attrs...), buf.Bytes()...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, ga := range group {
			h.writeAttr(buf, prefix, ga)
		}

		return
	}

	buf.WriteByte(' ')
	buf.WriteString(h.styles.key.Render(prefix + a.Key + "="))

	s := a.Value.String()
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		s = strconv.Quote(s)
	}

	buf.WriteString(s)
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}

	return s + strings.Repeat(" ", n-len(s))
}

// shortFile trims a source path to its parent directory and base name.
func shortFile(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}

	if j := strings.LastIndexByte(path[:i], '/'); j >= 0 {
		return path[j+1:]
	}

	return path
}
