package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/stepviz/internal/step"
)

// Entry is one algorithm offered by the menu.
type Entry struct {
	ID          string
	Name        string
	Category    string
	Description string
	Presets     []string
}

// LoadFunc generates the sequence for an algorithm under a preset.
type LoadFunc func(id, preset string) (step.Sequence, error)

const (
	stateMenu = iota
	statePresets
	statePlay
)

var (
	menuTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#61afef")).Bold(true)
	menuSub      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5c6370"))
	menuCursor   = lipgloss.NewStyle().Foreground(lipgloss.Color("#56b6c2")).Bold(true)
	menuSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDesc     = lipgloss.NewStyle().Foreground(lipgloss.Color("#c678dd"))
	menuDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4b5263"))
	menuKey      = lipgloss.NewStyle().Foreground(lipgloss.Color("#56b6c2")).Bold(true)
	menuErr      = lipgloss.NewStyle().Foreground(lipgloss.Color("#e06c75"))
)

// Menu picks an algorithm and a preset, then hands the terminal to a Player.
// Esc in the player returns to the menu.
type Menu struct {
	state   int
	cursor  int
	pcursor int
	entries []Entry
	load    LoadFunc
	opts    Options
	player  Player
	err     string
}

func NewMenu(entries []Entry, load LoadFunc, opts Options) Menu {
	return Menu{entries: entries, load: load, opts: opts}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == statePlay {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.player.Close()
			m.state = statePresets
			return m, nil
		}
		next, cmd := m.player.Update(msg)
		m.player = next.(Player)
		return m, cmd
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch m.state {
	case stateMenu:
		return m.menuKey(k)
	case statePresets:
		return m.presetKey(k)
	}
	return m, nil
}

func (m Menu) menuKey(msg tea.KeyMsg) (Menu, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.entries) > 0 {
			m.state, m.pcursor, m.err = statePresets, 0, ""
		}
	}
	return m, nil
}

func (m Menu) presetKey(msg tea.KeyMsg) (Menu, tea.Cmd) {
	e := m.entries[m.cursor]
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state, m.err = stateMenu, ""
	case "up", "k":
		if m.pcursor > 0 {
			m.pcursor--
		}
	case "down", "j":
		if m.pcursor < len(e.Presets)-1 {
			m.pcursor++
		}
	case "enter", " ":
		return m.start()
	}
	return m, nil
}

func (m Menu) start() (Menu, tea.Cmd) {
	e := m.entries[m.cursor]
	preset := ""
	if len(e.Presets) > 0 {
		preset = e.Presets[m.pcursor]
	}
	seq, err := m.load(e.ID, preset)
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	opts := m.opts
	opts.Title = e.Name
	p, err := NewPlayer(seq, opts)
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.player, m.state, m.err = p, statePlay, ""
	return m, p.Init()
}

func (m Menu) View() string {
	switch m.state {
	case statePresets:
		return m.viewPresets()
	case statePlay:
		return m.player.View()
	}
	return m.viewMenu()
}

func (m Menu) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("STEPVIZ") + "\n    " + menuSub.Render("algorithm step visualizer") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	category := ""
	for i, e := range m.entries {
		if e.Category != category {
			category = e.Category
			b.WriteString("    " + menuSub.Render(strings.ToUpper(category)) + "\n")
		}
		desc := e.Description
		if len(desc) > 40 {
			desc = desc[:37] + "..."
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuSelected.Render(fmt.Sprintf("%-26s", e.Name)), menuDesc.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", menuDim.Render(fmt.Sprintf("  %-26s", e.Name)), menuDim.Render(desc)))
		}
	}
	b.WriteString("\n    " + keys("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m Menu) viewPresets() string {
	e := m.entries[m.cursor]
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render(strings.ToUpper(e.Name)) + "\n    " + menuSub.Render(e.Description) + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range e.Presets {
		if i == m.pcursor {
			b.WriteString(fmt.Sprintf("    %s %s\n", menuCursor.Render("▸"), menuSelected.Render(name)))
		} else {
			b.WriteString("    " + menuDim.Render("  "+name) + "\n")
		}
	}
	if m.err != "" {
		b.WriteString("\n    " + menuErr.Render(m.err) + "\n")
	}
	b.WriteString("\n    " + keys("j/k", "select", "enter", "play", "esc", "back") + "\n")
	return b.String()
}

// keys renders alternating key/description pairs as a hint line.
func keys(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(menuKey.Render(pairs[i]) + menuSub.Render(" "+pairs[i+1]+"  "))
	}
	return strings.TrimRight(b.String(), " ")
}

// RunMenu runs the full-screen menu until the user quits.
func RunMenu(entries []Entry, load LoadFunc, opts Options) error {
	final, err := tea.NewProgram(NewMenu(entries, load, opts), tea.WithAltScreen()).Run()
	if m, ok := final.(Menu); ok && m.state == statePlay {
		m.player.Close()
	}
	return err
}
