package tui

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Column is one entry of the column picker. Locked columns stay checked.
type Column struct {
	Name    string
	Checked bool
	Locked  bool
}

// ColumnPickerModel is the bubbletea model for choosing export columns
type ColumnPickerModel struct {
	title     string
	columns   []Column
	cursor    int
	confirmed bool
}

// NewColumnPicker starts with every column checked. Columns listed in
// required cannot be unchecked.
func NewColumnPicker(title string, all, required []string) ColumnPickerModel {
	cols := make([]Column, len(all))
	for i, name := range all {
		locked := slices.Contains(required, name)
		cols[i] = Column{Name: name, Checked: true, Locked: locked}
	}
	return ColumnPickerModel{title: title, columns: cols}
}

func (m ColumnPickerModel) Init() tea.Cmd {
	return nil
}

func (m ColumnPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	k := km.String()
	if k == "q" || k == "esc" || k == "ctrl+c" {
		return m, tea.Quit
	}
	if len(m.columns) == 0 {
		return m, nil
	}

	switch k {
	case "up", "k":
		m.cursor = (m.cursor + len(m.columns) - 1) % len(m.columns)
	case "down", "j":
		m.cursor = (m.cursor + 1) % len(m.columns)
	case " ", "x":
		if c := &m.columns[m.cursor]; !c.Locked {
			c.Checked = !c.Checked
		}
	case "a":
		m.setAll(true)
	case "n":
		m.setAll(false)
	case "enter":
		if m.count() > 0 {
			m.confirmed = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *ColumnPickerModel) setAll(checked bool) {
	for i := range m.columns {
		if !m.columns[i].Locked {
			m.columns[i].Checked = checked
		}
	}
}

func (m ColumnPickerModel) count() int {
	n := 0
	for _, c := range m.columns {
		if c.Checked {
			n++
		}
	}
	return n
}

func (m ColumnPickerModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n\n")

	for i, c := range m.columns {
		pointer := "  "
		if i == m.cursor {
			pointer = "> "
		}
		box, style := "[ ]", uncheckedStyle
		if c.Checked {
			box, style = "[x]", checkedStyle
		}
		line := fmt.Sprintf("%s%s %s", pointer, box, c.Name)
		if c.Locked {
			line += " (required)"
		}
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\n%d of %d columns", m.count(), len(m.columns))
	if m.count() == 0 {
		sb.WriteString(", check at least one")
	}
	sb.WriteString("\n(space=toggle, a=all, n=none, enter=export, q=cancel)\n")
	return sb.String()
}

// Selected returns the checked column names in their original order
func (m ColumnPickerModel) Selected() []string {
	var out []string
	for _, c := range m.columns {
		if c.Checked {
			out = append(out, c.Name)
		}
	}
	return out
}

// Cancelled reports whether the picker was closed without confirming
func (m ColumnPickerModel) Cancelled() bool {
	return !m.confirmed
}

// RunColumnPicker shows the picker and returns the chosen columns, nil if cancelled
func RunColumnPicker(title string, all, required []string) ([]string, error) {
	final, err := tea.NewProgram(NewColumnPicker(title, all, required)).Run()
	if err != nil {
		return nil, err
	}
	m := final.(ColumnPickerModel)
	if m.Cancelled() {
		return nil, nil
	}
	return m.Selected(), nil
}
