package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/display"
)

const (
	placeholder     = "Esperando graduandos..."
	fallbackName    = "Nombre del Estudiante"
	fallbackCareer  = "Programa Académico"
	defaultWidth    = 80
	defaultHeight   = 24
	maxFrameWidth   = 72
	frameHorizontal = 4
)

var (
	gold    = lipgloss.Color("#D4AF37")
	crimson = lipgloss.Color("#990000")

	titleStyle  = lipgloss.NewStyle().Foreground(gold).Bold(true)
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	careerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Italic(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0A0A0"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	frameStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(gold).
			Background(crimson).
			Padding(1, 3)
)

// snapshotMsg carries a display change into the program.
type snapshotMsg display.Snapshot

type slideshowModel struct {
	title    string
	term     string
	endpoint string
	snap     display.Snapshot
	width    int
	height   int
}

func newSlideshowModel(title, term, endpoint string) slideshowModel {
	return slideshowModel{
		title:    title,
		term:     term,
		endpoint: endpoint,
		width:    defaultWidth,
		height:   defaultHeight,
	}
}

func (m slideshowModel) Init() tea.Cmd {
	return nil
}

func (m slideshowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = display.Snapshot(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m slideshowModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(strings.TrimSpace(m.title + " " + m.term)))
	b.WriteString("\n\n")

	current, ok := m.snap.Current()
	if !ok {
		b.WriteString(frameStyle.Width(m.frameWidth()).Render(placeholder))
	} else {
		name := current.StudentName
		if name == "" {
			name = fallbackName
		}
		career := current.StudentCareer
		if career == "" {
			career = fallbackCareer
		}
		body := lipgloss.JoinVertical(lipgloss.Left,
			nameStyle.Render(name),
			careerStyle.Render(career),
			"",
			mutedStyle.Render(current.Key),
		)
		b.WriteString(frameStyle.Width(m.frameWidth()).Render(body))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d/%d", m.snap.Index+1, len(m.snap.Images))))
	}

	b.WriteString("\n")
	if m.snap.Err != nil {
		b.WriteString(errorStyle.Render("refresh failed: " + m.snap.Err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(m.endpoint + "  ·  q to quit"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}

func (m slideshowModel) frameWidth() int {
	w := m.width - frameHorizontal
	if w > maxFrameWidth {
		w = maxFrameWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}
