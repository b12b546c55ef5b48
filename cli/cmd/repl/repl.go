package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"
)

// editDoneMsg is sent when an edit reloaded the session.
type editDoneMsg struct{ output string }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after an error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process failed for another reason.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

const helpMessage = `
: Commands (press Esc to toggle mode):

  help     Print this text
  list     List the bindings of the root scope
  edit     Edit the root scope in $EDITOR and reload it
  reset    Discard every binding and start over
  clear    Clear screen
  quit     Exit REPL

Usage:
  Type IPML statements to feed them into the root scope, e.g.
    x = 1   print!(V = x)   [s] = (y = 2)
  Bindings persist between lines; the value of the last statement is shown
  Press Tab / Shift-Tab to cycle through completions, Space to accept
  Press Esc to toggle between eval and command modes
  Use Up/Down for history, Shift+Up/Down for history of the current mode
  Use Alt+Up/Alt+Down to browse command history
  Press Ctrl+C on empty line or Ctrl+D to exit
`

// inputMode is the prompt the user is typing into.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	outputStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

func (m inputMode) echo(input string) string {
	if m == modeCtrl {
		return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
	}

	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// saved is the input line and cursor of one mode.
type saved struct {
	text   string
	cursor int
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc    func() context.Context
	input      textinput.Model
	session    *session
	history    *History
	historyIdx int

	matches   fuzzy.Matches
	members   map[string]member
	wordStart int
	wordEnd   int
	suggIdx   int
	tabActive bool
	preTab    saved

	altNavActive bool
	altNavMode   inputMode
	altNav       saved

	width    int
	quitting bool
	mode     inputMode
	inputs   [2]saved // indexed by inputMode
}

// Run starts an interactive session and blocks until the user quits.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	cfg.Logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cfg.CacheDir),
		slog.Int("preload_bytes", len(cfg.Preload)),
	)

	sess, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}

	history := NewHistory(filepath.Join(cfg.CacheDir, baseHistory))
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	cfg.Logger.TraceContext(ctx, "repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	p := tea.NewProgram(newModel(ctx, sess, history), tea.WithContext(ctx))
	_, err = p.Run()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, sess *session, history *History) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    sess,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		cmds := []tea.Cmd{tea.Println(resultStyle.Render("✔ — scope reloaded"))}
		if msg.output != "" {
			cmds = append(cmds, tea.Println(outputStyle.Render(strings.TrimRight(msg.output, "\n"))))
		}

		return m, tea.Sequence(cmds...)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 — edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("🗴 — error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.hint())
	b.WriteString("\n")

	return b.String()
}

// hint renders the line below the prompt.
func (m model) hint() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeEval {
			return hintStyle.Render("Type IPML statements or press Esc for commands")
		}

		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")
	}

	if m.mode == modeEval && (!m.tabActive || len(m.matches) == 0) {
		if call := detectFunctionCall(input, m.input.Position()); call.inCall {
			if params, ok := m.session.signature(call.name); ok {
				return renderSignatureHint(call.name, params, call.assigned)
			}
		}
	}

	return renderCandidateBar(m.matches, m.members, m.suggIdx, m.tabActive, m.width)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.session.cfg.Logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		m.altNavActive = false

		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		if msg.Alt {
			return m.historyCtrl(-1), nil
		}

		return m.historyStep(-1, false), nil

	case tea.KeyDown:
		if msg.Alt {
			return m.historyCtrl(1), nil
		}

		return m.historyStep(1, false), nil

	case tea.KeyShiftUp:
		return m.historyStep(-1, true), nil

	case tea.KeyShiftDown:
		return m.historyStep(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.restore(m.preTab)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNavActive = false

		return m.switchToMode(1 - m.mode), nil

	case tea.KeyRunes:
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Backspace, delete, cursor movement and the like edit freely without
	// auto-confirming a completion.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping around. A single candidate
// is completed at once.
func (m model) cycle(step int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + n) % n
	} else {
		m.tabActive = true
		m.preTab = m.current()

		if step > 0 {
			m.suggIdx = 0
		} else {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord substitutes replacement for the word under the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.wordEnd = m.wordStart + len(replacement)
	m.input.SetCursor(m.wordEnd)
}

// refreshMatches recomputes completions. With autoConfirm, a word that
// already equals the sole candidate is accepted; deletions and cursor motion
// pass false so editing never completes unexpectedly.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.members, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if candidate := m.matches[0].Str; m.input.Value()[m.wordStart:m.wordEnd] == candidate {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	mode := m.mode

	m.inputs = [2]saved{}
	m.input.SetValue("")

	if err := m.history.Add(input, mode); err != nil {
		m.session.cfg.Logger.WarnContext(m.ctxFunc(), "could not save history",
			slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	echo := tea.Println(mode.echo(input))

	if mode == modeCtrl {
		return m.executeCommand(input, echo)
	}

	r, err := m.session.eval(m.ctxFunc(), input)

	cmds := []tea.Cmd{echo}
	if r.output != "" {
		cmds = append(cmds, tea.Println(outputStyle.Render(strings.TrimRight(r.output, "\n"))))
	}

	switch {
	case err != nil:
		cmds = append(cmds, tea.Println(errorStyle.Render("error: "+err.Error())))
	case r.result != "":
		cmds = append(cmds, tea.Println(resultStyle.Render(r.result)))
	}

	return m, tea.Sequence(cmds...)
}

func (m model) executeCommand(input string, echo tea.Cmd) (model, tea.Cmd) {
	cmd, _, _ := strings.Cut(input, " ")

	m.session.cfg.Logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", cmd),
	)

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Printf("%s", helpMessage))

	case "l", "list":
		return m, tea.Sequence(echo, tea.Println(m.session.describe()))

	case "r", "reset":
		if _, err := m.session.load(m.ctxFunc(), ""); err != nil {
			return m, tea.Sequence(echo, tea.Println(errorStyle.Render("error: "+err.Error())))
		}

		return m, tea.Sequence(echo, tea.Println(hintStyle.Render("scope reset")))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())

	default:
		return m, tea.Sequence(echo,
			tea.Println(errorStyle.Render("Unknown command: "+cmd+" (try 'help')")))
	}
}

func (m model) edit() tea.Cmd {
	ec := &editCommand{session: m.session, ctxFunc: m.ctxFunc}

	return tea.Exec(ec, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case ec.cancelled:
			return editCancelledMsg{}
		default:
			return editDoneMsg{output: ec.output}
		}
	})
}

func (m model) current() saved {
	return saved{text: m.input.Value(), cursor: m.input.Position()}
}

func (m *model) restore(s saved) {
	m.input.SetValue(s.text)
	m.input.SetCursor(s.cursor)
}

// show loads history entry i into the prompt, switching mode if needed.
func (m model) show(i int) model {
	entry, err := m.history.Entry(i)
	if err != nil {
		return m
	}

	if m.mode != entry.Mode {
		m = m.switchToMode(entry.Mode)
	}

	m.historyIdx = i
	m.restore(saved{text: entry.Line, cursor: len(entry.Line)})
	refreshMatches(&m, false)

	return m
}

// historyStep moves through history by step. With sameMode only entries of
// the current mode are visited. Moving past the newest entry clears the
// prompt.
func (m model) historyStep(step int, sameMode bool) model {
	var keep func(HistoryEntry) bool

	if sameMode {
		mode := m.mode
		keep = func(e HistoryEntry) bool { return e.Mode == mode }
	}

	if i := m.history.Seek(m.historyIdx, step, keep); i >= 0 {
		return m.show(i)
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

// historyCtrl browses command history, switching to command mode on the
// first step and restoring the original prompt when history runs out.
func (m model) historyCtrl(step int) model {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavMode = m.mode
		m.altNav = m.current()
		m = m.switchToMode(modeCtrl)
	}

	isCtrl := func(e HistoryEntry) bool { return e.Mode == modeCtrl }

	if i := m.history.Seek(m.historyIdx, step, isCtrl); i >= 0 {
		return m.show(i)
	}

	m.altNavActive = false
	m = m.switchToMode(m.altNavMode)
	m.restore(m.altNav)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m
}

// switchToMode changes the prompt, keeping each mode's pending input.
func (m model) switchToMode(mode inputMode) model {
	m.inputs[m.mode] = m.current()
	m.mode = mode

	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.restore(m.inputs[mode])
	refreshMatches(&m, false)

	return m
}
