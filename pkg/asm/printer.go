package asm

import (
	"fmt"
	"io"
	"strings"
)

// Printer outputs AVR assembly lines
type Printer struct {
	w      io.Writer
	indent string
}

// NewPrinter creates a new assembly printer indenting instructions with a tab
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, indent: "\t"}
}

// SetIndent changes the instruction indentation
func (p *Printer) SetIndent(indent string) {
	p.indent = indent
}

// PrintOutput outputs an entire compilation unit
func (p *Printer) PrintOutput(o *Output) {
	for _, l := range o.Lines() {
		p.printLine(l)
	}
}

func (p *Printer) printLine(l Line) {
	switch l.Kind {
	case LineInstruction:
		p.printInstruction(l.Inst)
	case LineLabel:
		fmt.Fprintf(p.w, "%s:\n", l.Text)
	case LineComment:
		fmt.Fprintf(p.w, "%s%s\n", p.indent, l.Text)
	default:
		fmt.Fprintf(p.w, "%s\n", l.Text)
	}
}

func (p *Printer) printInstruction(inst Instruction) {
	fmt.Fprintf(p.w, "%s\n", FormatInstruction(p.indent, inst))
}

// FormatInstruction renders one instruction as
// <indent><mnemonic>\t<arg1>, <arg2>\t\t<comment>
func FormatInstruction(indent string, inst Instruction) string {
	var sb strings.Builder
	sb.WriteString(indent)
	sb.WriteString(inst.Mnemonic)
	if len(inst.Args) > 0 {
		sb.WriteByte('\t')
		sb.WriteString(strings.Join(inst.Args, ", "))
	}
	if inst.Comment != "" {
		sb.WriteString("\t\t")
		sb.WriteString(inst.Comment)
	}
	return sb.String()
}
