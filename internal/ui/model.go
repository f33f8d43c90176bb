package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	aderrors "github.com/askdoc/askdoc/internal/errors"
	"github.com/askdoc/askdoc/internal/rag"
)

// EngineBuilder constructs the Engine once the user has entered an API
// key interactively.
type EngineBuilder func(apiKey string) (Service, error)

// ModelConfig wires the session model to the rest of the application.
type ModelConfig struct {
	// Service is the live Engine when credentials resolved before
	// startup. Nil means the session opens on the key-entry view.
	Service Service

	// Build constructs the Engine from an interactively entered key.
	// Required when Service is nil.
	Build EngineBuilder

	// KeyNote describes where the API key came from, shown in the
	// header ("secrets file", "env OPENAI_API_KEY", ...).
	KeyNote string

	NoColor bool
}

type mode int

const (
	modeKeyEntry mode = iota
	modeMain
	modePicker
)

type focusArea int

const (
	focusPath focusArea = iota
	focusQuestion
)

// Messages produced by the session's commands.
type (
	engineReadyMsg struct {
		svc Service
		err error
	}
	indexDoneMsg struct {
		count int
		err   error
	}
	queryDoneMsg struct {
		answer *rag.Answer
		err    error
	}
	clearDoneMsg struct {
		err error
	}
)

// Model is the Bubble Tea model for the interactive session. Each
// action runs as a single command; new submissions are ignored while
// one is in flight.
type Model struct {
	session *Session
	build   EngineBuilder
	keyNote string
	styles  Styles

	mode     mode
	focus    focusArea
	busy     bool
	busyVerb string

	keyInput      textinput.Model
	pathInput     textinput.Model
	questionInput textinput.Model
	picker        filepicker.Model
	vp            viewport.Model
	spin          spinner.Model

	answer   *rag.Answer
	status   string
	warning  string
	errMsg   string
	width    int
	height   int
	ready    bool
	quitting bool
}

// NewModel builds the session model from the wiring config.
func NewModel(cfg ModelConfig) Model {
	styles := GetStyles(cfg.NoColor || DetectNoColor())

	keyInput := textinput.New()
	keyInput.Placeholder = "sk-..."
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.EchoCharacter = '•'

	pathInput := textinput.New()
	pathInput.Placeholder = "/path/to/document.pdf"

	questionInput := textinput.New()
	questionInput.Placeholder = "Ask a question about the document"

	picker := filepicker.New()
	picker.AllowedTypes = []string{".pdf"}
	if home, err := os.UserHomeDir(); err == nil {
		picker.CurrentDirectory = home
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	session := NewSession()
	if cfg.Service != nil {
		session.Attach(cfg.Service)
	}

	m := Model{
		session:       session,
		build:         cfg.Build,
		keyNote:       cfg.KeyNote,
		styles:        styles,
		keyInput:      keyInput,
		pathInput:     pathInput,
		questionInput: questionInput,
		picker:        picker,
		vp:            viewport.New(0, 0),
		spin:          spin,
	}

	switch session.State() {
	case StateNoModel:
		m.mode = modeKeyEntry
		m.keyInput.Focus()
		m.status = "An API key is required to start."
	case StateReadyIndexed:
		m.mode = modeMain
		m.focus = focusPath
		m.pathInput.Focus()
		m.status = fmt.Sprintf("Resumed index with %d chunks. Ask away.", session.Service().Size())
	default:
		m.mode = modeMain
		m.focus = focusPath
		m.pathInput.Focus()
		m.status = "Upload a PDF document to begin."
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case engineReadyMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = aderrors.UserMessage(msg.err)
			m.keyInput.SetValue("")
			m.keyInput.Focus()
			return m, textinput.Blink
		}
		m.session.Attach(msg.svc)
		if m.keyNote == "" {
			m.keyNote = "entered this session"
		}
		m.mode = modeMain
		m.focus = focusPath
		m.pathInput.Focus()
		m.clearNotices()
		if m.session.Indexed() {
			m.status = fmt.Sprintf("Resumed index with %d chunks. Ask away.", m.session.Service().Size())
		} else {
			m.status = "Upload a PDF document to begin."
		}
		return m, textinput.Blink

	case indexDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = aderrors.UserMessage(msg.err)
			return m, nil
		}
		m.session.Refresh()
		m.clearNotices()
		m.status = fmt.Sprintf("Indexed %d chunks (%d total). Ask a question.", msg.count, m.session.Service().Size())
		m.setFocus(focusQuestion)
		return m, textinput.Blink

	case queryDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = aderrors.UserMessage(msg.err)
			return m, nil
		}
		m.answer = msg.answer
		m.vp.SetContent(m.renderAnswer())
		m.vp.GotoTop()
		m.clearNotices()
		m.status = fmt.Sprintf("Answered from %d contexts.", len(msg.answer.Contexts))
		return m, nil

	case clearDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = aderrors.UserMessage(msg.err)
			return m, nil
		}
		m.session.Refresh()
		m.answer = nil
		m.vp.SetContent(m.renderAnswer())
		m.clearNotices()
		m.status = "Index cleared."
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Remaining messages are the picker's directory reads and the
	// input cursor's blink ticks.
	if m.mode == modePicker {
		return m.updatePicker(msg)
	}
	return m.updateFocusedInput(msg)
}

func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.mode == modeKeyEntry:
		m.keyInput, cmd = m.keyInput.Update(msg)
	case m.focus == focusPath:
		m.pathInput, cmd = m.pathInput.Update(msg)
	default:
		m.questionInput, cmd = m.questionInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		if m.mode == modePicker {
			m.mode = modeMain
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	}

	if m.busy {
		return m, nil
	}

	switch m.mode {
	case modeKeyEntry:
		return m.handleKeyEntryKey(msg)
	case modePicker:
		return m.updatePicker(msg)
	}
	return m.handleMainKey(msg)
}

func (m Model) handleKeyEntryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		key := strings.TrimSpace(m.keyInput.Value())
		if key == "" {
			m.setWarning("API key cannot be empty.")
			return m, nil
		}
		m.busy = true
		m.busyVerb = "Starting engine"
		m.clearNotices()
		return m, tea.Batch(m.spin.Tick, m.buildEngineCmd(key))
	}
	return m.updateFocusedInput(msg)
}

func (m Model) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		if m.focus == focusPath {
			m.setFocus(focusQuestion)
		} else {
			m.setFocus(focusPath)
		}
		return m, textinput.Blink
	case "ctrl+o":
		m.mode = modePicker
		return m, m.picker.Init()
	case "ctrl+r":
		m.busy = true
		m.busyVerb = "Clearing index"
		m.clearNotices()
		return m, tea.Batch(m.spin.Tick, m.clearCmd())
	case "enter":
		return m.submitFocused()
	case "up", "down", "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}
	return m.updateFocusedInput(msg)
}

func (m Model) submitFocused() (tea.Model, tea.Cmd) {
	if m.focus == focusPath {
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			m.setWarning("Enter a path to a PDF document, or press ctrl+o to browse.")
			return m, nil
		}
		m.busy = true
		m.busyVerb = "Processing document"
		m.clearNotices()
		return m, tea.Batch(m.spin.Tick, m.indexCmd(path))
	}

	question := strings.TrimSpace(m.questionInput.Value())
	if question == "" {
		m.setWarning("Type a question first.")
		return m, nil
	}
	if !m.session.Indexed() {
		m.setWarning("Please upload and process a document first.")
		return m, nil
	}
	m.busy = true
	m.busyVerb = "Thinking"
	m.clearNotices()
	return m, tea.Batch(m.spin.Tick, m.queryCmd(question))
}

func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.pathInput.SetValue(path)
		m.mode = modeMain
		m.setFocus(focusPath)
		m.clearNotices()
		m.status = fmt.Sprintf("Selected %s. Press enter to process.", filepath.Base(path))
		return m, tea.Batch(cmd, textinput.Blink)
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.setWarning(fmt.Sprintf("%s is not a PDF.", filepath.Base(path)))
	}
	return m, cmd
}

func (m *Model) clearNotices() {
	m.warning = ""
	m.errMsg = ""
}

func (m *Model) setWarning(text string) {
	m.warning = text
	m.errMsg = ""
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusPath {
		m.pathInput.Focus()
		m.questionInput.Blur()
	} else {
		m.questionInput.Focus()
		m.pathInput.Blur()
	}
}

func (m *Model) layout() {
	inner := m.width - 4
	if inner < 40 {
		inner = 40
	}
	m.keyInput.Width = inner - 4
	m.pathInput.Width = inner - 4
	m.questionInput.Width = inner - 4
	m.vp.Width = inner

	// Header, two input panels, status, and help take fixed rows; the
	// viewport gets the rest.
	vpHeight := m.height - 14
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.vp.Height = vpHeight
	m.vp.SetContent(m.renderAnswer())

	pickerHeight := m.height - 6
	if pickerHeight < 5 {
		pickerHeight = 5
	}
	m.picker.Height = pickerHeight
}

func (m Model) buildEngineCmd(key string) tea.Cmd {
	build := m.build
	return func() tea.Msg {
		if build == nil {
			return engineReadyMsg{err: fmt.Errorf("no engine builder configured")}
		}
		svc, err := build(key)
		return engineReadyMsg{svc: svc, err: err}
	}
}

func (m Model) indexCmd(path string) tea.Cmd {
	svc := m.session.Service()
	return func() tea.Msg {
		staged, cleanup, err := stageUpload(path)
		if err != nil {
			return indexDoneMsg{err: err}
		}
		defer cleanup()

		count, err := svc.IndexDocument(context.Background(), staged)
		return indexDoneMsg{count: count, err: err}
	}
}

func (m Model) queryCmd(question string) tea.Cmd {
	svc := m.session.Service()
	return func() tea.Msg {
		answer, err := svc.Query(context.Background(), question, 0)
		return queryDoneMsg{answer: answer, err: err}
	}
}

func (m Model) clearCmd() tea.Cmd {
	svc := m.session.Service()
	return func() tea.Msg {
		return clearDoneMsg{err: svc.ClearIndex()}
	}
}

// stageUpload copies the chosen document to a scoped temp file so
// processing never touches the original. The returned cleanup removes
// the temp file regardless of how processing went.
func stageUpload(path string) (string, func(), error) {
	src, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "askdoc-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to stage document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to stage document: %w", err)
	}
	return tmp.Name(), func() { _ = os.Remove(tmp.Name()) }, nil
}
