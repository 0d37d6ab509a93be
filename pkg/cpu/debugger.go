package cpu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
)

// StepInstruction runs cycles until the next instruction boundary, returning
// true on a trap. The interactive debugger steps with this.
func (c *CPU) StepInstruction() bool {
	if c.Cycle() {
		return true
	}
	for c.busy > 0 {
		if c.Cycle() {
			return true
		}
	}
	return false
}

type debugModel struct {
	cpu    *CPU
	prevPC uint16
	err    error
}

var (
	debugPane  = lipgloss.NewStyle().Padding(0, 1)
	debugTitle = lipgloss.NewStyle().Bold(true)
)

func (m debugModel) Init() tea.Cmd {
	return nil
}

func (m debugModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "j":
			m.prevPC = m.cpu.PC
			if m.cpu.StepInstruction() {
				m.err = fmt.Errorf("trap: unsupported opcode 0x%02X at 0x%04X", m.cpu.TrapOpcode, m.cpu.PC)
				return m, tea.Quit
			}
		case "f":
			// step 10k instructions, stopping early only on a trap
			for i := 0; i < 10000; i++ {
				m.prevPC = m.cpu.PC
				if m.cpu.StepInstruction() {
					m.err = fmt.Errorf("trap: unsupported opcode 0x%02X at 0x%04X", m.cpu.TrapOpcode, m.cpu.PC)
					return m, tea.Quit
				}
			}
		}
	}
	return m, nil
}

// memoryRow renders sixteen bytes from start, bracketing the PC's byte when it
// falls in the row.
func (m debugModel) memoryRow(start uint16) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04X | ", start)
	for i := uint16(0); i < 16; i++ {
		value := m.cpu.bus.Read(start + i)
		if start+i == m.cpu.PC {
			fmt.Fprintf(&b, "[%02X] ", value)
		} else {
			fmt.Fprintf(&b, " %02X  ", value)
		}
	}
	return b.String()
}

func (m debugModel) memoryPane() string {
	rows := []string{debugTitle.Render("memory")}
	base := m.cpu.PC &^ 0x000F
	for i := -2; i <= 2; i++ {
		rows = append(rows, m.memoryRow(base+uint16(i*16)))
	}
	return strings.Join(rows, "\n")
}

func (m debugModel) registerPane() string {
	flags := ""
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"N", m.cpu.Sign}, {"V", m.cpu.Overflow}, {"D", m.cpu.Decimal},
		{"I", m.cpu.InterruptDisable}, {"Z", m.cpu.Zero}, {"C", m.cpu.Carry},
	} {
		if f.set {
			flags += f.name + " "
		} else {
			flags += ". "
		}
	}
	return fmt.Sprintf(`%s
PC: %04X (%04X)
 A: %02X
 X: %02X
 Y: %02X
SP: %02X
%s`,
		debugTitle.Render("registers"),
		m.cpu.PC, m.prevPC, m.cpu.A, m.cpu.X, m.cpu.Y, m.cpu.SP, flags)
}

func (m debugModel) View() string {
	next := instructions[m.cpu.bus.Read(m.cpu.PC)]
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			debugPane.Render(m.memoryPane()),
			debugPane.Render(m.registerPane()),
		),
		debugPane.Render(spew.Sdump(struct {
			Mnemonic string
			Mode     AddressingMode
			Cycles   int
		}{next.mnemonic, next.mode, next.cycles})),
		"space/j: step  f: step 10k  q: quit",
	)
}

// Debug opens an interactive stepping TUI over the CPU. It returns when the
// user quits or the CPU traps.
func (c *CPU) Debug() error {
	final, err := tea.NewProgram(debugModel{cpu: c}).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(debugModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
