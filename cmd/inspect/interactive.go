package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/vmi-runtime/image"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	sigStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type viewState int

const (
	stateBrowse viewState = iota
	stateDetail
	stateCalc
)

type row struct {
	export bool
	entry  uint64
	meta   image.FnMeta
}

type inspectModel struct {
	filename string
	rows     []row
	selected int
	state    viewState
	calc     textinput.Model
	calcOut  string
	calcErr  error
	width    int
}

func newInspectModel(img *image.Image, filename string) *inspectModel {
	var rows []row
	for _, e := range img.Exports {
		rows = append(rows, row{export: true, entry: e.Entry, meta: e.Meta})
	}
	for _, m := range img.Imports {
		rows = append(rows, row{meta: m})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].export != rows[j].export {
			return rows[i].export
		}
		return rows[i].meta.Name < rows[j].meta.Name
	})

	ti := textinput.New()
	ti.Placeholder = "name(u32,char)->own-buf"
	ti.Prompt = "shape: "
	ti.Width = 48

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	return &inspectModel{
		filename: filename,
		rows:     rows,
		calc:     ti,
		width:    width,
	}
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state == stateBrowse {
				return m, tea.Quit
			}
			m.state = stateBrowse
			m.calc.Blur()

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.rows)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateBrowse:
				if len(m.rows) > 0 {
					m.state = stateDetail
				}
			case stateDetail:
				m.state = stateBrowse
			case stateCalc:
				m.runCalc()
			}

		case "c":
			if m.state == stateBrowse {
				m.state = stateCalc
				m.calcOut = ""
				m.calcErr = nil
				m.calc.SetValue("")
				m.calc.Focus()
				return m, textinput.Blink
			}

		case "esc":
			m.state = stateBrowse
			m.calc.Blur()
		}
	}

	if m.state == stateCalc {
		var cmd tea.Cmd
		m.calc, cmd = m.calc.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *inspectModel) runCalc() {
	name, params, ret, err := parseFuncSpec(strings.TrimSpace(m.calc.Value()))
	if err != nil {
		m.calcErr = err
		m.calcOut = ""
		return
	}
	m.calcErr = nil
	m.calcOut = identityString(name, params, ret)
}

func (m *inspectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("VMI Inspector"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse:
		if len(m.rows) == 0 {
			b.WriteString("No metadata records.\n")
			break
		}
		for i, r := range m.rows {
			line := m.formatRow(r)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter detail • c identity calculator • q quit"))

	case stateDetail:
		r := m.rows[m.selected]
		kind := "import"
		if r.export {
			kind = "export"
		}
		b.WriteString(fmt.Sprintf("%s %s\n\n", kind, funcStyle.Render(r.meta.Name)))
		b.WriteString(fmt.Sprintf("identity:  %s\n", sigStyle.Render(fmt.Sprintf("%#016x", uint64(r.meta.Sig)))))
		if r.export {
			b.WriteString(fmt.Sprintf("entry:     %#08x\n", r.entry))
		}
		if len(r.meta.ParamTypes) > 0 {
			b.WriteString("params:    ")
			b.WriteString(typeStyle.Render(strings.Join(r.meta.ParamTypes, ", ")))
			b.WriteString("\n")
		}
		if r.meta.ReturnType != "" {
			b.WriteString("returns:   ")
			b.WriteString(typeStyle.Render(r.meta.ReturnType))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter/esc back • q quit"))

	case stateCalc:
		b.WriteString("Identity calculator\n\n")
		b.WriteString(m.calc.View())
		b.WriteString("\n\n")
		if m.calcErr != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.calcErr)))
			b.WriteString("\n")
		} else if m.calcOut != "" {
			b.WriteString(sigStyle.Render(m.calcOut))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter compute • esc back"))
	}

	return b.String()
}

func (m *inspectModel) formatRow(r row) string {
	tag := "[imp]"
	if r.export {
		tag = "[exp]"
	}
	line := fmt.Sprintf("%s %s  %s",
		tag,
		sigStyle.Render(fmt.Sprintf("%#016x", uint64(r.meta.Sig))),
		funcStyle.Render(formatMeta(r.meta)))
	if m.width > 4 && lipgloss.Width(line) > m.width-4 {
		line = line[:m.width-4]
	}
	return line
}

func runInteractive(img *image.Image, filename string) error {
	p := tea.NewProgram(newInspectModel(img, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
