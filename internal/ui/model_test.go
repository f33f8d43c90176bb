package ui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aderrors "github.com/askdoc/askdoc/internal/errors"
	"github.com/askdoc/askdoc/internal/rag"
)

func resize(t *testing.T, m Model) Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func press(t *testing.T, m Model, key tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(tea.KeyMsg{Type: key})
	return updated.(Model), cmd
}

func newMainModel(t *testing.T, svc Service) Model {
	t.Helper()
	m := NewModel(ModelConfig{Service: svc, KeyNote: "env OPENAI_API_KEY", NoColor: true})
	return resize(t, m)
}

func TestNewModel_WithoutService_OpensKeyEntry(t *testing.T) {
	// Given: no engine could be built before startup
	m := NewModel(ModelConfig{NoColor: true})
	m = resize(t, m)

	// Then: the session opens on the key prompt
	assert.Equal(t, modeKeyEntry, m.mode)
	assert.Contains(t, m.View(), "OpenAI API key")
}

func TestNewModel_WithService_OpensMain(t *testing.T) {
	// Given: a ready engine with an empty index
	m := newMainModel(t, &fakeService{})

	// Then: the session opens on the main view asking for a document
	assert.Equal(t, modeMain, m.mode)
	assert.Equal(t, focusPath, m.focus)
	assert.Contains(t, m.View(), "Upload a PDF document to begin.")
}

func TestNewModel_WithIndexedService_ReportsResume(t *testing.T) {
	// Given: an engine that loaded a persisted index
	m := newMainModel(t, &fakeService{size: 4})

	// Then: the session reports the resumed chunk count
	assert.Contains(t, m.View(), "Resumed index with 4 chunks.")
	assert.Contains(t, m.View(), "4 chunks")
}

func TestModel_EmptyKeySubmit_Warns(t *testing.T) {
	// Given: the key prompt with no input
	m := resize(t, NewModel(ModelConfig{NoColor: true}))

	// When: pressing enter
	m, cmd := press(t, m, tea.KeyEnter)

	// Then: a warning is shown and nothing starts
	assert.Nil(t, cmd)
	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "API key cannot be empty.")
}

func TestModel_KeySubmit_StartsEngineBuild(t *testing.T) {
	// Given: the key prompt with a key typed in
	m := resize(t, NewModel(ModelConfig{
		NoColor: true,
		Build:   func(string) (Service, error) { return &fakeService{}, nil },
	}))
	m.keyInput.SetValue("sk-test")

	// When: pressing enter
	m, cmd := press(t, m, tea.KeyEnter)

	// Then: the engine build runs as a command
	assert.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Equal(t, "Starting engine", m.busyVerb)
}

func TestModel_EngineReady_EntersMainMode(t *testing.T) {
	// Given: a key-entry session waiting on the engine build
	m := resize(t, NewModel(ModelConfig{NoColor: true}))

	// When: the engine comes up
	updated, _ := m.Update(engineReadyMsg{svc: &fakeService{}})
	m = updated.(Model)

	// Then: the main view opens with the session key noted
	assert.Equal(t, modeMain, m.mode)
	assert.Equal(t, "entered this session", m.keyNote)
	assert.Contains(t, m.View(), "Upload a PDF document to begin.")
}

func TestModel_EngineReady_ErrorReturnsToKeyEntry(t *testing.T) {
	// Given: a key-entry session with a rejected key
	m := resize(t, NewModel(ModelConfig{NoColor: true}))
	m.keyInput.SetValue("sk-bad")

	// When: the engine build fails
	err := aderrors.New(aderrors.ErrCodeMissingAPIKey, "API key was rejected").
		WithSuggestion("check the key or set OPENAI_API_KEY")
	updated, _ := m.Update(engineReadyMsg{err: err})
	m = updated.(Model)

	// Then: the prompt is cleared and the failure is shown
	assert.Equal(t, modeKeyEntry, m.mode)
	assert.Empty(t, m.keyInput.Value())
	assert.Contains(t, m.View(), "API key was rejected (check the key or set OPENAI_API_KEY)")
}

func TestModel_QuestionWithoutDocument_Warns(t *testing.T) {
	// Given: a ready engine with nothing indexed, question focused
	svc := &fakeService{}
	m := newMainModel(t, svc)
	m, _ = press(t, m, tea.KeyTab)
	m.questionInput.SetValue("When was the treaty signed?")

	// When: submitting the question
	m, cmd := press(t, m, tea.KeyEnter)

	// Then: the session refuses without calling the engine
	assert.Nil(t, cmd)
	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "Please upload and process a document first.")
	assert.Empty(t, svc.questions)
}

func TestModel_EmptyQuestion_Warns(t *testing.T) {
	// Given: question focus with blank input
	m := newMainModel(t, &fakeService{size: 2})
	m, _ = press(t, m, tea.KeyTab)
	m.questionInput.SetValue("   ")

	// When: submitting
	m, cmd := press(t, m, tea.KeyEnter)

	// Then: a warning is shown
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Type a question first.")
}

func TestModel_EmptyPath_Warns(t *testing.T) {
	// Given: path focus with blank input
	m := newMainModel(t, &fakeService{})

	// When: submitting
	m, cmd := press(t, m, tea.KeyEnter)

	// Then: a warning points at the picker
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Enter a path to a PDF document, or press ctrl+o to browse.")
}

func TestModel_SubmitPath_StartsIndexing(t *testing.T) {
	// Given: a document path typed in
	m := newMainModel(t, &fakeService{})
	m.pathInput.SetValue("/tmp/westphalia.pdf")

	// When: submitting the path
	m, cmd := press(t, m, tea.KeyEnter)

	// Then: indexing runs as a command
	assert.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Equal(t, "Processing document", m.busyVerb)
}

func TestModel_SubmitQuestion_StartsQuery(t *testing.T) {
	// Given: an indexed document and a question
	m := newMainModel(t, &fakeService{size: 2})
	m, _ = press(t, m, tea.KeyTab)
	m.questionInput.SetValue("When was the treaty signed?")

	// When: submitting the question
	m, cmd := press(t, m, tea.KeyEnter)

	// Then: the query runs as a command
	assert.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Equal(t, "Thinking", m.busyVerb)
}

func TestModel_IndexDone_FocusesQuestion(t *testing.T) {
	// Given: a busy session finishing document processing
	svc := &fakeService{}
	m := newMainModel(t, svc)
	m.busy = true
	svc.size = 2

	// When: indexing completes
	updated, _ := m.Update(indexDoneMsg{count: 2})
	m = updated.(Model)

	// Then: the status reports counts and focus moves to the question
	assert.False(t, m.busy)
	assert.Equal(t, focusQuestion, m.focus)
	assert.Contains(t, m.View(), "Indexed 2 chunks (2 total). Ask a question.")
}

func TestModel_IndexDone_ErrorShowsMessage(t *testing.T) {
	// Given: a busy session whose document had no text
	m := newMainModel(t, &fakeService{})
	m.busy = true

	// When: indexing fails
	err := aderrors.New(aderrors.ErrCodeNoText, "no text found in document").
		WithSuggestion("try a text-based PDF")
	updated, _ := m.Update(indexDoneMsg{err: err})
	m = updated.(Model)

	// Then: the failure is shown and the session is usable again
	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "no text found in document (try a text-based PDF)")
}

func TestModel_QueryDone_ShowsAnswer(t *testing.T) {
	// Given: a busy session waiting on an answer
	m := newMainModel(t, &fakeService{size: 2})
	m.busy = true

	// When: the answer arrives
	answer := &rag.Answer{
		Text:      "The treaty was signed in 1648.",
		Contexts:  []string{"A short paragraph.", "Another one."},
		Distances: []float32{0.25, 0.5},
	}
	updated, _ := m.Update(queryDoneMsg{answer: answer})
	m = updated.(Model)

	// Then: the answer and its contexts are rendered
	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "Answered from 2 contexts.")
	assert.Contains(t, m.renderAnswer(), "The treaty was signed in 1648.")
	assert.Contains(t, m.renderAnswer(), "Retrieved contexts")
}

func TestModel_ClearDone_ResetsAnswer(t *testing.T) {
	// Given: a session with a rendered answer
	svc := &fakeService{size: 2}
	m := newMainModel(t, svc)
	m.answer = &rag.Answer{Text: "stale", Contexts: []string{"c"}}
	m.busy = true
	svc.size = 0

	// When: the clear completes
	updated, _ := m.Update(clearDoneMsg{})
	m = updated.(Model)

	// Then: the answer is gone and the status confirms
	assert.Nil(t, m.answer)
	assert.Contains(t, m.View(), "Index cleared.")
	assert.False(t, m.session.Indexed())
}

func TestModel_BusyIgnoresSubmissions(t *testing.T) {
	// Given: a session mid-operation
	svc := &fakeService{size: 2}
	m := newMainModel(t, svc)
	m.busy = true
	m.questionInput.SetValue("another question")

	// When: pressing enter anyway
	m, cmd := press(t, m, tea.KeyEnter)

	// Then: the key is ignored
	assert.Nil(t, cmd)
	assert.True(t, m.busy)
	assert.Empty(t, svc.questions)
}

func TestModel_TabTogglesFocus(t *testing.T) {
	// Given: the main view focused on the path
	m := newMainModel(t, &fakeService{})
	assert.Equal(t, focusPath, m.focus)

	// When: pressing tab twice
	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, focusQuestion, m.focus)
	m, _ = press(t, m, tea.KeyTab)

	// Then: focus is back on the path
	assert.Equal(t, focusPath, m.focus)
}

func TestModel_CtrlR_StartsClear(t *testing.T) {
	// Given: an indexed session
	m := newMainModel(t, &fakeService{size: 2})

	// When: pressing ctrl+r
	m, cmd := press(t, m, tea.KeyCtrlR)

	// Then: the clear runs as a command
	assert.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Equal(t, "Clearing index", m.busyVerb)
}

func TestModel_CtrlO_OpensPicker(t *testing.T) {
	// Given: the main view
	m := newMainModel(t, &fakeService{})

	// When: pressing ctrl+o
	m, cmd := press(t, m, tea.KeyCtrlO)

	// Then: the picker opens and starts reading its directory
	assert.Equal(t, modePicker, m.mode)
	assert.NotNil(t, cmd)
}

func TestModel_EscClosesPicker(t *testing.T) {
	// Given: the picker is open
	m := newMainModel(t, &fakeService{})
	m, _ = press(t, m, tea.KeyCtrlO)
	assert.Equal(t, modePicker, m.mode)

	// When: pressing esc
	m, cmd := press(t, m, tea.KeyEsc)

	// Then: the main view returns without quitting
	assert.Equal(t, modeMain, m.mode)
	assert.False(t, m.quitting)
	assert.Nil(t, cmd)
}

func TestModel_CtrlC_Quits(t *testing.T) {
	// Given: any view
	m := newMainModel(t, &fakeService{})

	// When: pressing ctrl+c
	m, cmd := press(t, m, tea.KeyCtrlC)

	// Then: the program quits and the view goes blank
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}

func TestStageUpload_CopiesAndCleansUp(t *testing.T) {
	// Given: a document on disk
	src := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4 fake"), 0644))

	// When: staging it for processing
	staged, cleanup, err := stageUpload(src)
	require.NoError(t, err)

	// Then: the staged copy holds the same bytes under a scoped name
	data, err := os.ReadFile(staged)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), data)
	assert.Contains(t, filepath.Base(staged), "askdoc-")
	assert.Equal(t, ".pdf", filepath.Ext(staged))

	// When: cleaning up
	cleanup()

	// Then: the staged copy is gone
	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err))
}

func TestStageUpload_MissingSource(t *testing.T) {
	// When: staging a path that does not exist
	_, _, err := stageUpload(filepath.Join(t.TempDir(), "missing.pdf"))

	// Then: the failure names the open
	assert.ErrorContains(t, err, "failed to open document")
}

func TestRenderAnswer_ListsContextsWithDistances(t *testing.T) {
	// Given: a model holding an answer
	m := newMainModel(t, &fakeService{})
	m.answer = &rag.Answer{
		Text:      "Sweden and France gained territories.",
		Contexts:  []string{"A short paragraph.", "Another one."},
		Distances: []float32{0.25, 1.5},
	}

	// When: rendering
	out := m.renderAnswer()

	// Then: the answer and numbered contexts with distances appear
	assert.Contains(t, out, "Sweden and France gained territories.")
	assert.Contains(t, out, "1. ")
	assert.Contains(t, out, "0.2500")
	assert.Contains(t, out, "2. ")
	assert.Contains(t, out, "1.5000")
	assert.Contains(t, out, "Another one.")
}

func TestRenderAnswer_Placeholder(t *testing.T) {
	// Given: no answer yet
	m := newMainModel(t, &fakeService{})

	// Then: the placeholder renders
	assert.Contains(t, m.renderAnswer(), "Answers will appear here.")
}
