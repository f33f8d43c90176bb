package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const helpLine = "tab focus • enter submit • ctrl+o browse • ctrl+r clear index • esc quit"

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	switch m.mode {
	case modeKeyEntry:
		return m.keyEntryView()
	case modePicker:
		return m.pickerView()
	}
	return m.mainView()
}

func (m Model) keyEntryView() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("askdoc"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Label.Render("OpenAI API key"))
	b.WriteString("\n")
	b.WriteString(m.styles.FocusPanel.Render(m.keyInput.View()))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")
	b.WriteString(m.styles.Dim.Render("enter submit • ctrl+c quit"))
	return b.String()
}

func (m Model) pickerView() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("askdoc"))
	b.WriteString(m.styles.Dim.Render("  select a PDF document"))
	b.WriteString("\n\n")
	b.WriteString(m.picker.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.styles.Dim.Render("enter select • esc back"))
	return b.String()
}

func (m Model) mainView() string {
	var b strings.Builder
	b.WriteString(m.headerLine())
	b.WriteString("\n\n")

	pathPanel := m.styles.Panel
	questionPanel := m.styles.Panel
	if m.focus == focusPath {
		pathPanel = m.styles.FocusPanel
	} else {
		questionPanel = m.styles.FocusPanel
	}

	b.WriteString(m.styles.Label.Render("Document"))
	b.WriteString("\n")
	b.WriteString(pathPanel.Render(m.pathInput.View()))
	b.WriteString("\n")
	b.WriteString(m.styles.Label.Render("Question"))
	b.WriteString("\n")
	b.WriteString(questionPanel.Render(m.questionInput.View()))
	b.WriteString("\n")
	b.WriteString(m.vp.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.styles.Dim.Render(helpLine))
	return b.String()
}

func (m Model) headerLine() string {
	header := m.styles.Header.Render("askdoc")
	note := m.session.State().String()
	if m.keyNote != "" {
		note += " • key: " + m.keyNote
	}
	if m.session.Indexed() {
		note += fmt.Sprintf(" • %d chunks", m.session.Service().Size())
	}
	return header + m.styles.Dim.Render("  "+note)
}

func (m Model) statusLine() string {
	if m.busy {
		return m.spin.View() + m.styles.Active.Render(m.busyVerb+"...")
	}
	if m.errMsg != "" {
		return m.styles.Error.Render(m.errMsg)
	}
	if m.warning != "" {
		return m.styles.Warning.Render(m.warning)
	}
	if m.status != "" {
		return m.styles.Success.Render(m.status)
	}
	return ""
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return m.styles.Dim.Render("Answers will appear here.")
	}

	var b strings.Builder
	b.WriteString(m.styles.Label.Render("Answer"))
	b.WriteString("\n")
	b.WriteString(m.answer.Text)
	b.WriteString("\n\n")
	b.WriteString(m.styles.Label.Render("Retrieved contexts"))
	b.WriteString("\n")
	for i, chunk := range m.answer.Contexts {
		line := fmt.Sprintf("%d. ", i+1)
		if i < len(m.answer.Distances) {
			line += m.styles.Dim.Render(fmt.Sprintf("(distance %.4f) ", m.answer.Distances[i]))
		}
		b.WriteString(line)
		b.WriteString(chunk)
		b.WriteString("\n")
	}
	return b.String()
}

// Run starts the interactive session and blocks until it exits.
func Run(cfg ModelConfig) error {
	p := tea.NewProgram(NewModel(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("session failed: %w", err)
	}
	return nil
}
