package repl

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/log"
	"github.com/ardnew/klisp/session"
)

// evalDoneMsg carries the reply to a buffer evaluated after editing.
type evalDoneMsg struct {
	reply session.Reply
	err   error
}

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a parse
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-parse error.
type editErrorMsg struct{ err error }

const (
	evalPrompt     = session.Prompt
	continuePrompt = session.ContinuePrompt
	ctrlPrompt     = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help     Print this help
  list     List global definitions
  edit     Write and evaluate a buffer in $EDITOR
  reset    Discard incomplete input
  clear    Clear screen
  quit     Exit REPL

Usage:
  Type an expression to evaluate it; unbalanced input continues on the next line
  Completions appear automatically as you type (λ marks procedures)
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C to discard input, or on an empty line (or Ctrl+D) to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	outputStyle     = lipgloss.NewStyle()
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = suggestionStyle.Bold(true).Underline(true)
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true).Underline(true)
)

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc          func() context.Context
	sess             *session.Session
	input            textinput.Model
	logger           log.Logger
	history          *History
	historyIdx       int
	matches          fuzzy.Matches // current fuzzy match results
	candidates       []candidate   // backing candidate list
	wordStart        int           // byte offset of current word start
	wordEnd          int           // byte offset of current word end
	suggIdx          int           // selected candidate index
	tabActive        bool          // whether user is tab-cycling
	preTabText       string        // input text before tab-cycling began
	preTabCursor     int           // cursor position before tab-cycling began
	altNavActive     bool          // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode     // original mode before Alt navigation
	altNavOrigText   string        // original text before Alt navigation
	altNavOrigCursor int           // original cursor position before Alt navigation
	pending          bool          // session holds incomplete input
	width            int           // terminal width for ellipsization
	quitting         bool
	mode             inputMode
	evalText         string
	evalCursor       int
	ctrlText         string
	ctrlCursor       int
}

// Run starts the interactive REPL on sess. History is kept under cacheDir;
// an empty cacheDir keeps it in memory.
func Run(
	ctx context.Context,
	sess *session.Session,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cacheDir),
		log.Session(sess.ID()),
	)

	var path string
	if cacheDir != "" {
		path = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(path)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", log.Err(err))
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	p := tea.NewProgram(newModel(ctx, sess, history, logger), tea.WithContext(ctx))
	_, err = p.Run()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	sess *session.Session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		sess:       sess,
		input:      ti,
		logger:     logger,
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
		m.input.Width = max(msg.Width-lipgloss.Width(evalPrompt)-2, 1)

		return m, nil

	case evalDoneMsg:
		if msg.err != nil {
			return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
		}

		return m, printReply(msg.reply)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		return m, tea.Println(hintStyle.Render("edit discarded"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
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
	b.WriteString(m.hintLine())
	b.WriteString("\n")

	return b.String()
}

// hintLine renders the line below the input: the history position, a usage
// hint, the signature of the enclosing call, or the completion bar.
func (m model) hintLine() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		switch {
		case m.mode == modeCtrl:
			return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")
		case m.pending:
			return hintStyle.Render("Continue the expression, or press Ctrl+C to discard it")
		default:
			return hintStyle.Render("Type an expression or press Esc for commands")
		}
	}

	if m.mode == modeEval && !m.tabActive {
		if call := detectFunctionCall(input, m.input.Position()); call.inCall {
			if d, ok := lookupDefinition(m.sess, call.name); ok && d.Detail != "" {
				return renderSignatureHint(d.Detail, call.argIndex)
			}
		}
	}

	return renderCandidateBar(m.matches, m.candidates, m.suggIdx, m.tabActive, m.width)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" && !m.pending {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		m = m.discardPending()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			m.altNavActive = false

			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		m.altNavActive = false
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
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNavActive = false

		return m.toggleMode(), nil

	case tea.KeyRunes, tea.KeySpace:
		// Space breaks out of tab-cycling, keeping the candidate.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, msg.Type == tea.KeyRunes)

		return m, cmd
	}

	// Other keys edit or move without completing.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by dir. A single candidate is completed
// immediately.
func (m model) cycle(dir int) model {
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

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + dir + n) % n
	case dir > 0:
		m.tabActive = true
		m.preTabText, m.preTabCursor = m.input.Value(), m.input.Position()
		m.suggIdx = 0
	default:
		m.tabActive = true
		m.preTabText, m.preTabCursor = m.input.Value(), m.input.Position()
		m.suggIdx = n - 1
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// With autoConfirm set, a sole candidate equal to the typed word is
// accepted. Deletions and cursor movement pass false so that editing never
// completes unexpectedly.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	if m.input.Value()[m.wordStart:m.wordEnd] == candidate {
		replaceCurrentWord(m, candidate)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	raw := m.input.Value()
	input := strings.TrimSpace(raw)

	if input == "" && !m.pending {
		return m, nil
	}

	m.evalText, m.evalCursor = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.input.SetValue("")
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	if m.mode == modeCtrl {
		m.addHistory(input, modeCtrl)
		m.logger.TraceContext(m.ctxFunc(), "repl command", slog.String("input", input))

		return m.executeCommand(input)
	}

	m.addHistory(input, modeEval)

	prompt := evalPrompt
	if m.pending {
		prompt = continuePrompt
	}

	echo := tea.Println(promptStyle.Render(prompt) + inputStyle.Render(raw))

	reply, err := m.sess.Eval(m.ctxFunc(), raw)
	if err != nil {
		m.logger.DebugContext(m.ctxFunc(), "repl eval failed", log.Err(err))

		return m, tea.Sequence(echo, tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	m.pending = reply.More
	m.input.Prompt = promptStyle.Render(reply.Prompt)

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl eval result",
		slog.Bool("more", reply.More),
		slog.Int("forms", len(reply.Results)),
		slog.Bool("failed", reply.Err != nil),
	)

	if reply.More {
		return m, echo
	}

	return m, tea.Sequence(echo, printReply(reply))
}

func (m model) addHistory(line string, mode inputMode) {
	if err := m.history.Add(line, mode); err != nil {
		m.logger.DebugContext(m.ctxFunc(), "history write failed", log.Err(err))
	}
}

// discardPending drops incomplete input held by the session.
func (m model) discardPending() model {
	if m.pending {
		m.sess.Reset()
		m.pending = false
	}

	if m.mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	}

	return m
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", parts[0]),
		slog.Any("args", parts[1:]),
	)

	switch parts[0] {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "l", "list":
		return m, tea.Sequence(echo, tea.Println(listDefinitions(m.sess)))

	case "r", "reset":
		m = m.discardPending()

		return m, tea.Sequence(echo, tea.Println(hintStyle.Render("input discarded")))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		m = m.discardPending()

		return m, tea.Sequence(echo, m.edit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + parts[0] + " (try 'help')"),
		)
	}
}

// edit opens the editor and evaluates the accepted buffer in the session.
func (m model) edit() tea.Cmd {
	cmd := &editBufferCommand{
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.source == "":
			return editCancelledMsg{}
		}

		reply, err := m.sess.Eval(m.ctxFunc(), cmd.source)

		return evalDoneMsg{reply: reply, err: err}
	})
}

// historyStep moves one entry through history in dir. With sameMode set,
// entries of the other mode are skipped; otherwise the mode follows the
// entry. Stepping past the newest entry clears the input.
func (m model) historyStep(dir int, sameMode bool) model {
	want := m.mode

	i, entry, ok := m.seek(dir, func(e HistoryEntry) bool { return !sameMode || e.Mode == want })
	if !ok {
		if dir > 0 && m.historyIdx < m.history.Len() {
			m.historyIdx = m.history.Len()
			m.input.SetValue("")
			refreshMatches(&m, false)
		}

		return m
	}

	m.historyIdx = i
	if m.mode != entry.Mode {
		m = m.switchToMode(entry.Mode)
	}

	return m.showEntry(entry)
}

// historyCtrl walks command-mode history only. The mode and input before
// the walk are restored once it runs off either end.
func (m model) historyCtrl(dir int) model {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavOrigMode = m.mode
		m.altNavOrigText = m.input.Value()
		m.altNavOrigCursor = m.input.Position()

		if m.mode != modeCtrl {
			m = m.switchToMode(modeCtrl)
		}
	}

	if i, entry, ok := m.seek(dir, func(e HistoryEntry) bool { return e.Mode == modeCtrl }); ok {
		m.historyIdx = i

		return m.showEntry(entry)
	}

	m.altNavActive = false
	if m.altNavOrigMode != m.mode {
		m = m.switchToMode(m.altNavOrigMode)
	}

	m.input.SetValue(m.altNavOrigText)
	m.input.SetCursor(m.altNavOrigCursor)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m
}

// seek finds the next entry from historyIdx in dir satisfying match.
func (m model) seek(dir int, match func(HistoryEntry) bool) (int, HistoryEntry, bool) {
	for i := m.historyIdx + dir; i >= 0 && i < m.history.Len(); i += dir {
		if e, err := m.history.Entry(i); err == nil && match(e) {
			return i, e, true
		}
	}

	return 0, HistoryEntry{}, false
}

func (m model) showEntry(e HistoryEntry) model {
	m.input.SetValue(e.Line)
	m.input.SetCursor(len(e.Line))
	refreshMatches(&m, false)

	return m
}

// toggleMode switches between eval and control modes.
func (m model) toggleMode() model {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to mode, keeping each mode's partial input.
func (m model) switchToMode(mode inputMode) model {
	if m.mode == modeEval {
		m.evalText, m.evalCursor = m.input.Value(), m.input.Position()
	} else {
		m.ctrlText, m.ctrlCursor = m.input.Value(), m.input.Position()
	}

	m.mode = mode

	if mode == modeEval {
		prompt := evalPrompt
		if m.pending {
			prompt = continuePrompt
		}

		m.input.Prompt = promptStyle.Render(prompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m
}

// printReply prints the output, errors and value of an evaluation.
func printReply(r session.Reply) tea.Cmd {
	var cmds []tea.Cmd

	for _, l := range replyLines(r) {
		style := resultStyle

		switch l.kind {
		case lineOutput:
			style = outputStyle
		case lineError:
			style = errorStyle
		}

		cmds = append(cmds, tea.Println(style.Render(l.text)))
	}

	return tea.Sequence(cmds...)
}

type lineKind uint8

const (
	lineOutput lineKind = iota
	lineError
	lineValue
)

type replyLine struct {
	kind lineKind
	text string
}

// replyLines lists what a reply shows: printed output, then one line per
// failed form, then the value of the last form when every form succeeded.
func replyLines(r session.Reply) []replyLine {
	var out []replyLine

	if s := strings.TrimSuffix(r.Output, "\n"); s != "" {
		out = append(out, replyLine{lineOutput, s})
	}

	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, replyLine{lineError, formatError(res.Err)})
		}
	}

	if r.Err == nil && r.Value != nil {
		out = append(out, replyLine{lineValue, lang.Print(r.Value)})
	}

	return out
}

// formatError renders e with its position when it has one.
func formatError(e *lang.Error) string {
	if e.Span().IsZero() {
		return e.Error()
	}

	return e.Span().Start.String() + ": " + e.Error()
}

// listDefinitions renders the bindings made in the global frame, sorted by
// name. Builtins carry no source span and are left out.
func listDefinitions(sess *session.Session) string {
	var bindings []*lang.Binding

	for b := range sess.Global().Snapshot().Local() {
		if !b.Span.IsZero() {
			bindings = append(bindings, b)
		}
	}

	if len(bindings) == 0 {
		return hintStyle.Render("  (no definitions)")
	}

	slices.SortFunc(bindings, func(a, b *lang.Binding) int { return cmp.Compare(a.Name(), b.Name()) })

	var b strings.Builder

	for i, bind := range bindings {
		if i > 0 {
			b.WriteByte('\n')
		}

		fmt.Fprintf(&b, "  %s %s", bind.Name(), hintStyle.Render(preview(bind.Value)))
	}

	return b.String()
}
