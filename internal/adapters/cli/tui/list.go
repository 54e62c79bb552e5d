package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	checkedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	uncheckedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle     = lipgloss.NewStyle().Bold(true)
)

// pickerWindow is how many rows are visible at once.
const pickerWindow = 15

// PickItem is one selectable record
type PickItem struct {
	Label string
	Value string
}

// PickerModel is the bubbletea model for multi-selecting records
type PickerModel struct {
	title    string
	items    []PickItem
	cursor   int
	offset   int
	selected map[int]bool
	done     bool
}

// NewPickerModel creates a new record picker
func NewPickerModel(title string, items []PickItem) PickerModel {
	return PickerModel{
		title:    title,
		items:    items,
		selected: make(map[int]bool),
	}
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case " ":
			if m.selected[m.cursor] {
				delete(m.selected, m.cursor)
			} else {
				m.selected[m.cursor] = true
			}
		case "enter":
			m.done = true
			return m, tea.Quit
		case "q", "ctrl+c", "esc":
			m.selected = make(map[int]bool)
			return m, tea.Quit
		case "a":
			for i := range m.items {
				m.selected[i] = true
			}
		case "n":
			m.selected = make(map[int]bool)
		}
	}

	// Keep the cursor inside the visible window
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+pickerWindow {
		m.offset = m.cursor - pickerWindow + 1
	}
	return m, nil
}

func (m PickerModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n\n")

	end := min(m.offset+pickerWindow, len(m.items))
	for i := m.offset; i < end; i++ {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		checkbox := "[ ]"
		style := uncheckedStyle
		if m.selected[i] {
			checkbox = "[x]"
			style = checkedStyle
		}

		line := fmt.Sprintf("%s %s %s", cursor, checkbox, m.items[i].Label)
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}
	if len(m.items) > pickerWindow {
		fmt.Fprintf(&sb, "  (%d-%d of %d)\n", m.offset+1, end, len(m.items))
	}

	fmt.Fprintf(&sb, "\n%d selected | space=toggle, a=all, n=none, enter=confirm, q=cancel\n", len(m.selected))

	return sb.String()
}

// SelectedValues returns the selected values in list order
func (m PickerModel) SelectedValues() []string {
	indexes := make([]int, 0, len(m.selected))
	for i, ok := range m.selected {
		if ok && i < len(m.items) {
			indexes = append(indexes, i)
		}
	}
	sort.Ints(indexes)

	result := make([]string, 0, len(indexes))
	for _, i := range indexes {
		result = append(result, m.items[i].Value)
	}
	return result
}

// RunPicker displays the list and returns selected values
func RunPicker(title string, items []PickItem) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	model := NewPickerModel(title, items)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	return finalModel.(PickerModel).SelectedValues(), nil
}
