package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/tape-runtime/bytecode"
	"github.com/wippyai/tape-runtime/tape"
)

const (
	stepsPerTick = 4096
	tickInterval = 16 * time.Millisecond
	codeContext  = 6  // ops shown on each side of the pc
	tapeContext  = 10 // cells shown on each side of the pointer
	outputWidth  = 64
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	cellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	breakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#666666")).
			Padding(0, 1)
)

type keyMap struct {
	Step       key.Binding
	Run        key.Binding
	Reset      key.Binding
	Breakpoint key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Run, k.Breakpoint, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Step, k.Run, k.Reset},
		{k.Breakpoint, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Step:       key.NewBinding(key.WithKeys("s", " "), key.WithHelp("s/space", "step")),
	Run:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "run/pause")),
	Reset:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset")),
	Breakpoint: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "toggle breakpoint")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more help")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type state int

const (
	statePaused state = iota
	stateRunning
	stateEditing
	stateFinished
	stateFaulted
)

func (s state) String() string {
	switch s {
	case stateRunning:
		return "running"
	case stateEditing:
		return "breakpoint"
	case stateFinished:
		return "finished"
	case stateFaulted:
		return "faulted"
	default:
		return "paused"
	}
}

type tickMsg struct{}

type debuggerModel struct {
	err         error
	vm          *bytecode.VM
	out         *bytes.Buffer
	breakpoints map[int]bool
	filename    string
	help        help.Model
	input       textinput.Model
	state       state
}

func newDebuggerModel(filename string, code bytecode.Code) *debuggerModel {
	out := &bytes.Buffer{}
	ti := textinput.New()
	ti.Placeholder = "pc"
	ti.Prompt = "breakpoint at: "
	ti.Width = 12
	ti.CharLimit = 10

	return &debuggerModel{
		vm:          bytecode.New(code, out),
		out:         out,
		breakpoints: make(map[int]bool),
		filename:    filename,
		help:        help.New(),
		input:       ti,
		state:       statePaused,
	}
}

func (m *debuggerModel) Init() tea.Cmd {
	if m.vm.Done() {
		m.state = stateFinished
	}
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *debuggerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tickMsg:
		if m.state != stateRunning {
			return m, nil
		}
		m.runBatch()
		if m.state == stateRunning {
			return m, tick()
		}

	case tea.KeyMsg:
		if m.state == stateEditing {
			return m.updateEditing(msg)
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, keys.Step):
			if m.state == statePaused {
				m.step()
			}
		case key.Matches(msg, keys.Run):
			switch m.state {
			case statePaused:
				m.state = stateRunning
				return m, tick()
			case stateRunning:
				m.state = statePaused
			}
		case key.Matches(msg, keys.Reset):
			m.vm.Reset()
			m.out.Reset()
			m.err = nil
			m.state = statePaused
			if m.vm.Done() {
				m.state = stateFinished
			}
		case key.Matches(msg, keys.Breakpoint):
			if m.state == statePaused || m.state == stateRunning {
				m.state = stateEditing
				m.input.SetValue(strconv.Itoa(m.vm.PC()))
				m.input.CursorEnd()
				return m, m.input.Focus()
			}
		}
	}
	return m, nil
}

func (m *debuggerModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if pc, err := strconv.Atoi(strings.TrimSpace(m.input.Value())); err == nil && pc >= 0 && pc < len(m.vm.Code()) {
			m.breakpoints[pc] = !m.breakpoints[pc]
			if !m.breakpoints[pc] {
				delete(m.breakpoints, pc)
			}
		}
		m.input.Blur()
		m.state = statePaused
		return m, nil
	case tea.KeyEsc:
		m.input.Blur()
		m.state = statePaused
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *debuggerModel) step() {
	done, err := m.vm.Step()
	switch {
	case err != nil:
		m.err = err
		m.state = stateFaulted
	case done:
		m.state = stateFinished
	}
}

// runBatch executes up to stepsPerTick ops, stopping early at a breakpoint.
func (m *debuggerModel) runBatch() {
	for i := 0; i < stepsPerTick; i++ {
		m.step()
		if m.state != stateRunning {
			return
		}
		if m.breakpoints[m.vm.PC()] {
			m.state = statePaused
			return
		}
	}
}

func (m *debuggerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tape Debugger"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	status := fmt.Sprintf("pc %d/%d  steps %d  ptr %d  [%s]",
		m.vm.PC(), len(m.vm.Code()), m.vm.Steps(), m.vm.Machine().Pointer(), m.state)
	b.WriteString(status)
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Render(m.codeView()),
		" ",
		paneStyle.Render(m.tapeView()),
	))
	b.WriteString("\n")

	b.WriteString(paneStyle.Render("output\n" + resultStyle.Render(m.outputView())))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	if m.state == stateEditing {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "toggle")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}))
	} else {
		b.WriteString(m.help.View(keys))
	}
	return b.String()
}

func (m *debuggerModel) codeView() string {
	code := m.vm.Code()
	pc := m.vm.PC()
	from := max(0, pc-codeContext)
	to := min(len(code), pc+codeContext+1)

	var b strings.Builder
	b.WriteString("code\n")
	for i := from; i < to; i++ {
		mark := "  "
		if m.breakpoints[i] {
			mark = breakStyle.Render("● ")
		}
		line := fmt.Sprintf("%4d  %-16s", i, code[i])
		if i == pc {
			line = selectedStyle.Render(line)
		} else {
			line = opStyle.Render(line)
		}
		b.WriteString(mark + line + "\n")
	}
	if pc >= len(code) {
		b.WriteString(selectedStyle.Render(fmt.Sprintf("  %4d  %-16s", pc, "end")) + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *debuggerModel) tapeView() string {
	mach := m.vm.Machine()
	ptr := mach.Pointer()
	from := max(0, ptr-tapeContext)
	to := min(tape.Size, ptr+tapeContext+1)

	var b strings.Builder
	b.WriteString("tape\n")
	for i := from; i < to; i++ {
		line := fmt.Sprintf("%5d  %3d  %s", i, mach.Cell(i), printable(mach.Cell(i)))
		if i == ptr {
			line = selectedStyle.Render(line)
		} else {
			line = cellStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// outputView shows the tail of the output with control bytes escaped.
func (m *debuggerModel) outputView() string {
	var b strings.Builder
	for _, c := range m.out.Bytes() {
		switch {
		case c == '\n':
			b.WriteString("\n")
		case c >= 0x20 && c < 0x7f:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "\\x%02x", c)
		}
	}
	lines := strings.Split(b.String(), "\n")
	if len(lines) > 8 {
		lines = lines[len(lines)-8:]
	}
	for i, l := range lines {
		if len(l) > outputWidth {
			lines[i] = l[len(l)-outputWidth:]
		}
	}
	return strings.Join(lines, "\n")
}

func printable(c byte) string {
	if c >= 0x20 && c < 0x7f {
		return string(rune(c))
	}
	return "."
}

func runInteractive(filename string, code bytecode.Code) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}
	p := tea.NewProgram(newDebuggerModel(filename, code), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
