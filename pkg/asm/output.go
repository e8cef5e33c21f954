// Package asm defines the AVR assembly representation.
// This is the final output of the compiler: instructions, labels and
// pass-through lines in source order, printed in GNU as or native syntax.
package asm

// Label represents a branch target label
type Label string

// Instruction is one emitted AVR instruction. Args holds at most two
// operand texts.
type Instruction struct {
	Mnemonic string
	Args     []string
	Comment  string
}

// LineKind tells the printer how to render a Line
type LineKind int

const (
	LineInstruction LineKind = iota
	LineLabel
	LineRaw     // copied verbatim, indentation included
	LineComment // a comment on its own line
)

// Line is one line of output
type Line struct {
	Kind LineKind
	Inst Instruction
	Text string
}

// Output collects the lines of one compilation unit in emission order
type Output struct {
	lines []Line
}

// NewOutput creates an empty output
func NewOutput() *Output {
	return &Output{}
}

// Append adds an instruction
func (o *Output) Append(mnemonic string, args ...string) {
	o.lines = append(o.lines, Line{
		Kind: LineInstruction,
		Inst: Instruction{Mnemonic: mnemonic, Args: args},
	})
}

// AppendLabel adds a label definition
func (o *Output) AppendLabel(name Label) {
	o.lines = append(o.lines, Line{Kind: LineLabel, Text: string(name)})
}

// AppendRaw adds a line that is printed as is
func (o *Output) AppendRaw(text string) {
	o.lines = append(o.lines, Line{Kind: LineRaw, Text: text})
}

// AppendOutput adds all lines of other
func (o *Output) AppendOutput(other *Output) {
	o.lines = append(o.lines, other.lines...)
}

// AddComment attaches a comment to the last instruction, or adds it on its
// own line when the output does not end with an instruction.
func (o *Output) AddComment(text string) {
	if n := len(o.lines); n > 0 && o.lines[n-1].Kind == LineInstruction {
		o.setComment(n-1, text)
		return
	}
	o.lines = append(o.lines, Line{Kind: LineComment, Text: text})
}

// AttachComment attaches a comment to the first instruction at or after
// line from, or adds it on its own line when there is none.
func (o *Output) AttachComment(from int, text string) {
	for i := from; i < len(o.lines); i++ {
		if o.lines[i].Kind == LineInstruction {
			o.setComment(i, text)
			return
		}
	}
	o.lines = append(o.lines, Line{Kind: LineComment, Text: text})
}

func (o *Output) setComment(i int, text string) {
	inst := o.lines[i].Inst
	if inst.Comment != "" {
		text = inst.Comment + " " + text
	}
	inst.Comment = text
	o.lines[i].Inst = inst
}

// Len returns the number of lines
func (o *Output) Len() int {
	return len(o.lines)
}

// Lines returns all lines in emission order
func (o *Output) Lines() []Line {
	return o.lines
}

// Instructions returns only the instructions
func (o *Output) Instructions() []Instruction {
	var insts []Instruction
	for _, l := range o.lines {
		if l.Kind == LineInstruction {
			insts = append(insts, l.Inst)
		}
	}
	return insts
}

// Last returns the last instruction, if any
func (o *Output) Last() (Instruction, bool) {
	for i := len(o.lines) - 1; i >= 0; i-- {
		if o.lines[i].Kind == LineInstruction {
			return o.lines[i].Inst, true
		}
	}
	return Instruction{}, false
}

// Truncate drops all lines from index n on
func (o *Output) Truncate(n int) {
	if n < len(o.lines) {
		o.lines = o.lines[:n]
	}
}
