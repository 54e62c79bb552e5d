package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// MenuOption is one menu entry. Hint is shown next to the focused entry.
type MenuOption struct {
	Label string
	Value string
	Hint  string
}

// MenuModel is the bubbletea model for single-choice menus.
// The first nine entries can also be picked with their number key.
type MenuModel struct {
	title    string
	options  []MenuOption
	cursor   int
	selected string
}

// NewMenuModel creates a menu focused on the first option
func NewMenuModel(title string, options []MenuOption) MenuModel {
	return MenuModel{title: title, options: options}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	n := len(m.options)
	switch k := km.String(); k {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if n > 0 {
			m.cursor = (m.cursor + n - 1) % n
		}
	case "down", "j", "tab":
		if n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
	case "enter":
		if n > 0 {
			m.selected = m.options[m.cursor].Value
		}
		return m, tea.Quit
	default:
		if len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
			if i := int(k[0] - '1'); i < n {
				m.selected = m.options[i].Value
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m MenuModel) View() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "? %s\n\n", m.title)

	for i, opt := range m.options {
		label := opt.Label
		if i < 9 {
			label = fmt.Sprintf("%d. %s", i+1, opt.Label)
		}
		if i != m.cursor {
			fmt.Fprintf(&sb, "  %s\n", normalStyle.Render(label))
			continue
		}
		fmt.Fprintf(&sb, "> %s", selectedStyle.Render(label))
		if opt.Hint != "" {
			sb.WriteString("  " + hintStyle.Render(opt.Hint))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n(up/down or number to choose, enter to select, q to quit)\n")
	return sb.String()
}

// Selected returns the selected value, empty if cancelled
func (m MenuModel) Selected() string {
	return m.selected
}

// RunMenu displays the menu and returns the selection
func RunMenu(title string, options []MenuOption) (string, error) {
	final, err := tea.NewProgram(NewMenuModel(title, options)).Run()
	if err != nil {
		return "", err
	}
	return final.(MenuModel).Selected(), nil
}

// ConfirmModel is a yes/no prompt answered with y or n. Enter takes the
// default, which is no.
type ConfirmModel struct {
	question string
	answered bool
	yes      bool
}

func NewConfirmModel(question string) ConfirmModel {
	return ConfirmModel{question: question}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch strings.ToLower(km.String()) {
	case "y":
		m.answered, m.yes = true, true
		return m, tea.Quit
	case "n", "enter", "q", "esc", "ctrl+c":
		m.answered = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if m.answered {
		answer := "no"
		if m.yes {
			answer = "yes"
		}
		return fmt.Sprintf("? %s %s\n", m.question, hintStyle.Render(answer))
	}
	return fmt.Sprintf("? %s %s ", m.question, hintStyle.Render("[y/N]"))
}

// Yes reports whether the question was answered yes
func (m ConfirmModel) Yes() bool {
	return m.yes
}

// Confirm asks a yes/no question; cancelling counts as no
func Confirm(question string) (bool, error) {
	final, err := tea.NewProgram(NewConfirmModel(question)).Run()
	if err != nil {
		return false, err
	}
	return final.(ConfirmModel).Yes(), nil
}
