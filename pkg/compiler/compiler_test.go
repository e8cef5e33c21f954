package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/raymyers/rasm/pkg/asm"
	"github.com/raymyers/rasm/pkg/symbols"
	"github.com/raymyers/rasm/pkg/token"
)

func newTestCompiler(d asm.Dialect) *Compiler {
	env := symbols.New()
	env.DefineVariable("counter", token.TypeByte)
	env.DefineVariable("total", token.TypeWord)
	env.DefineVariable("buffer", token.TypePtr)
	env.DefineVariable("table", token.TypePrgPtr)
	env.DefineConstant("SIZE", []string{"10"})
	env.DefineConstant("LED", []string{"PB3"})
	env.DefineAlias("tmp", []string{"r16"})
	send := env.DefineProcedure("send")
	send.SetArg("data", []string{"r24"})
	send.SetArg("len", []string{"r22"})
	delay := env.DefineProcedure("delay")
	delay.SetArg("count", []string{"r25", ".", "r24"})
	return New(env, d)
}

// render formats the output one line per entry with spaces for tabs
func render(o *asm.Output) []string {
	var lines []string
	for _, l := range o.Lines() {
		switch l.Kind {
		case asm.LineLabel:
			lines = append(lines, l.Text+":")
		case asm.LineInstruction:
			lines = append(lines, strings.ReplaceAll(asm.FormatInstruction("", l.Inst), "\t", " "))
		default:
			lines = append(lines, l.Text)
		}
	}
	return lines
}

func compileLines(d asm.Dialect, lines ...string) ([]string, error) {
	c := newTestCompiler(d)
	for i, line := range lines {
		c.SetLine(i + 1)
		if err := c.CompileString(line); err != nil {
			return render(c.Output()), err
		}
	}
	if err := c.Finish(); err != nil {
		return render(c.Output()), err
	}
	return render(c.Output()), nil
}

type compileTest struct {
	input string
	want  []string
}

func runCompileTests(t *testing.T, d asm.Dialect, tests []compileTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := compileLines(d, strings.Split(tt.input, "\n")...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, " | ") != strings.Join(tt.want, " | ") {
				t.Errorf("got:\n  %s\nwant:\n  %s", strings.Join(got, "\n  "), strings.Join(tt.want, "\n  "))
			}
		})
	}
}

func TestRegisterAssign(t *testing.T) {
	runCompileTests(t, asm.GNU, []compileTest{
		{"r20 = 0", []string{"clr r20"}},
		{"r1 = r1", nil},
		{"R1 = r1", nil},
		{"r16 = r17", []string{"mov r16, r17"}},
		{"r16 = 0x10", []string{"ldi r16, 0x10"}},
		{"r16 = -5", []string{"ldi r16, -5"}},
		{"r16 = SIZE", []string{"ldi r16, 10"}},
		{"r16 = SIZE * 2 + 1", []string{"ldi r16, 21"}},
		{"r16 = LED", []string{"ldi r16, PB3"}},
		{"r16 = -r17", []string{"mov r16, r17", "neg r16"}},
		{"r16 = -r16", []string{"neg r16"}},
		{"r16 = counter", []string{"lds r16, counter"}},
		{"r16 = io[PINB]", []string{"in r16, PINB"}},
		{"r16 = ram[X++]", []string{"ld r16, X+"}},
		{"r16 = ram[--Y]", []string{"ld r16, -Y"}},
		{"r0 = prg[Z++]", []string{"lpm r0, Z+"}},
		{"r16 = r17 + 1", []string{"mov r16, r17", "inc r16"}},
		{"r16 = r17 - 1", []string{"mov r16, r17", "dec r16"}},
		{"r16 = r17 + r18 - r19", []string{"mov r16, r17", "add r16, r18", "sub r16, r19"}},
		{"r16 = r17 & 0x0F", []string{"mov r16, r17", "andi r16, 0x0F"}},
		{"r16 = r17 | r18", []string{"mov r16, r17", "or r16, r18"}},
		{"r16 = r17 + 5", []string{"mov r16, r17", "subi r16, -5"}},
		{"r16 = r17 << 2", []string{"mov r16, r17", "lsl r16", "lsl r16"}},
		{"r16 = r17 >> 1", []string{"mov r16, r17", "lsr r16"}},
		{"r16++", []string{"inc r16"}},
		{"r16--", []string{"dec r16"}},
		{"r16 += 5", []string{"subi r16, -5"}},
		{"r16 += 1", []string{"subi r16, -1"}},
		{"r16 += r17", []string{"add r16, r17"}},
		{"r16 -= 3", []string{"subi r16, 3"}},
		{"r16 -= SIZE", []string{"subi r16, 10"}},
		{"r16 += LED", []string{"subi r16, -PB3"}},
		{"r16 &= 0xF0", []string{"andi r16, 0xF0"}},
		{"r16 |= r17", []string{"or r16, r17"}},
		{"r16 ^= r17", []string{"eor r16, r17"}},
		{"r16 <<= 3", []string{"lsl r16", "lsl r16", "lsl r16"}},
		{"r16 >>= 1", []string{"lsr r16"}},
		{"tmp = 1", []string{"ldi r16, 1"}},
		{"XL = 0", []string{"clr XL"}},
	})
}

func TestChainedAssign(t *testing.T) {
	chained, err := compileLines(asm.GNU, "r16 = r17 = 5")
	if err != nil {
		t.Fatal(err)
	}
	split, err := compileLines(asm.GNU, "r17 = 5", "r16 = r17")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(chained, "|") != strings.Join(split, "|") {
		t.Errorf("got %v, want %v", chained, split)
	}
	if strings.Join(chained, "|") != "ldi r17, 5|mov r16, r17" {
		t.Errorf("got %v", chained)
	}
}

func TestGroupAssign(t *testing.T) {
	runCompileTests(t, asm.GNU, []compileTest{
		{"r25.r24 = 5000", []string{"ldi r24, 0x88", "ldi r25, 0x13"}},
		{"X = 0", []string{"clr XL", "clr XH"}},
		{"r25.r24 = SIZE", []string{"ldi r24, 0x0A", "ldi r25, 0x00"}},
		{"r25.r24 = -1", []string{"ldi r24, 0xFF", "ldi r25, 0xFF"}},
		{"r19.r18.r17.r16 = 0x12345678", []string{"ldi r16, 0x78", "ldi r17, 0x56", "ldi r18, 0x34", "ldi r19, 0x12"}},
		{"Z = table", []string{"ldi ZL, lo8(table)", "ldi ZH, hi8(table)"}},
		{"X = buffer", []string{"ldi XL, lo8(buffer)", "ldi XH, hi8(buffer)"}},
		{"r25.r24 = LED", []string{"ldi r24, lo8(PB3)", "ldi r25, hi8(PB3)"}},
		{"r25.r24 = total", []string{"lds r25, total", "lds r24, total+1"}},
		{"r25.r24 = r23.r22", []string{"movw r24, r22"}},
		{"r25.r24 = r22.r21", []string{"mov r25, r22", "mov r24, r21"}},
		{"r24.r23 = r25.r24", []string{"mov r23, r24", "mov r24, r25"}},
		{"r25.r24 = r24.r23", []string{"mov r25, r24", "mov r24, r23"}},
		{"X = iow[SP]", []string{"in XL, SPL", "in XH, SPH"}},
		{"Z += 12", []string{"adiw ZL, 12"}},
		{"Z += 1000", []string{"subi ZL, 0x18", "sbci ZH, 0xFC"}},
		{"Z -= 2", []string{"sbiw ZL, 2"}},
		{"Z += -3", []string{"sbiw ZL, 3"}},
		{"X++", []string{"adiw XL, 1"}},
		{"r25.r24--", []string{"sbiw r24, 1"}},
		{"r17.r16 += 1", []string{"subi r16, 0xFF", "sbci r17, 0xFF"}},
		{"r17.r16 -= 0x0102", []string{"subi r16, 0x02", "sbci r17, 0x01"}},
		{"Z += table", []string{"subi ZL, lo8(-(table))", "sbci ZH, hi8(-(table))"}},
		{"r25.r24 -= LED", []string{"subi r24, lo8(PB3)", "sbci r25, hi8(PB3)"}},
		{"r25.r24 += LED", []string{"subi r24, lo8(-(PB3))", "sbci r25, hi8(-(PB3))"}},
		{"r25.r24 += r23.r22", []string{"add r24, r22", "adc r25, r23"}},
		{"r25.r24 -= r23.r22", []string{"sub r24, r22", "sbc r25, r23"}},
	})
}

func TestNativeDialect(t *testing.T) {
	runCompileTests(t, asm.Native, []compileTest{
		{"Z = table", []string{"ldi ZL, LOW(2*table)", "ldi ZH, HIGH(2*table)"}},
		{"X = buffer", []string{"ldi XL, LOW(buffer)", "ldi XH, HIGH(buffer)"}},
		{"X -= buffer", []string{"subi XL, LOW(buffer)", "sbci XH, HIGH(buffer)"}},
		{"Z += table", []string{"subi ZL, LOW(-2*table)", "sbci ZH, HIGH(-2*table)"}},
		{"r25.r24 = LED", []string{"ldi r24, LOW(PB3)", "ldi r25, HIGH(PB3)"}},
		{".db {\n1, 2\n}", []string{".db 1, 2"}},
	})
}

func TestMemoryAssign(t *testing.T) {
	runCompileTests(t, asm.GNU, []compileTest{
		{"total = r25.r24", []string{"sts total, r25", "sts total+1, r24"}},
		{"counter = r16", []string{"sts counter, r16"}},
		{"io[PORTB] = r16", []string{"out PORTB, r16"}},
		{"iow[SP] = Y", []string{"out SPH, YH", "out SPL, YL"}},
		{"iow[0x3D] = X", []string{"out 0x3E, XH", "out 0x3D, XL"}},
		{"ram[X] = r16", []string{"st X, r16"}},
		{"ram[Z++] = r0", []string{"st Z+, r0"}},
		{"ram[--Y] = r16", []string{"st -Y, r16"}},
	})
}

func TestBitAssign(t *testing.T) {
	runCompileTests(t, asm.GNU, []compileTest{
		{"F_CARRY = 1", []string{"sec"}},
		{"F_GLOBAL_INT = 0", []string{"cli"}},
		{"F_BIT_COPY = r16[3]", []string{"bst r16, 3"}},
		{"F_ZERO = r16[3]", []string{"clz", "sbrc r16, 3", "sez"}},
		{"F_CARRY = !r16[3]", []string{"clc", "sbrs r16, 3", "sec"}},
		{"F_CARRY = io[PINB].2", []string{"clc", "sbic PINB, 2", "sec"}},
		{"r16[3] = 1", []string{"sbr r16, 0x08"}},
		{"r16[7] = 0", []string{"cbr r16, 0x80"}},
		{"r16[LED] = 1", []string{"sbr r16, 1<<PB3"}},
		{"r16[2] = F_BIT_COPY", []string{"bld r16, 2"}},
		{"r17[1] = r16[0]", []string{"bst r16, 0", "bld r17, 1"}},
		{"io[PORTC].0 = r16[4]", []string{"sbrs r16, 4", "cbi PORTC, 0", "sbrc r16, 4", "sbi PORTC, 0"}},
		{"io[PORTC].0 = !r16[4]", []string{"sbrc r16, 4", "cbi PORTC, 0", "sbrs r16, 4", "sbi PORTC, 0"}},
		{"io[PORTB].5 = 1", []string{"sbi PORTB, 5"}},
		{"io[PORTB].5 = 0", []string{"cbi PORTB, 5"}},
	})
}

func TestInstructions(t *testing.T) {
	runCompileTests(t, asm.GNU, []compileTest{
		{"ret", []string{"ret"}},
		{"ld r16, X+", []string{"ld r16, X+"}},
		{"ldd r16, Y+2", []string{"ldd r16, Y+2"}},
		{"st -X, r16", []string{"st -X, r16"}},
		{"out PORTB, tmp", []string{"out PORTB, r16"}},
		{"NOP", []string{"nop"}},
		{"goto done", []string{"rjmp done"}},
	})
}

func TestConditions(t *testing.T) {
	runCompileTests(t, asm.GNU, []compileTest{
		{"if (r21 == 0) goto lbl", []string{"tst r21", "breq lbl"}},
		{"if (r1 > 5) goto L", []string{"cpi r1, 6", "brsh L"}},
		{"if (r1 >= 6) goto L", []string{"cpi r1, 6", "brsh L"}},
		{"if (r16 != r17) goto L", []string{"cp r16, r17", "brne L"}},
		{"if s (r16 < r17) goto L", []string{"cp r16, r17", "brlt L"}},
		{"if (s r16 < r17) goto L", []string{"cp r16, r17", "brlt L"}},
		{"if u (r16 < r17) goto L", []string{"cp r16, r17", "brlo L"}},
		{"if (r16 >= 10) goto L", []string{"cpi r16, 10", "brsh L"}},
		{"if s (r16 >= SIZE) goto L", []string{"cpi r16, 10", "brge L"}},
		{"if (r16 > r17) goto L", []string{"cp r17, r16", "brlo L"}},
		{"if (r16 <= r17) goto L", []string{"cp r17, r16", "brsh L"}},
		{"if (r16 <= 7) goto L", []string{"cpi r16, 8", "brlo L"}},
		{"if (r16 <= 255) goto L", []string{"rjmp L"}},
		{"if (r16 > 255) goto L", nil},
		{"if s (r16 > 127) goto L", nil},
		{"if s (r16 > 126) goto L", []string{"cpi r16, 127", "brge L"}},
		{"if (r16 > 255) inc r17", []string{"rjmp __skip1", "inc r17", "__skip1:"}},
		{"if (r16 > LED) goto L", []string{"cpi r16, PB3+1", "brsh L"}},
		{"if (5 == r16) goto L", []string{"cpi r16, 5", "breq L"}},
		{"if (r16 < 0) goto L", []string{"tst r16", "brmi L"}},
		{"if (r16 >= 0) goto L", []string{"tst r16", "brpl L"}},
		{"if (!(r16 == 0)) goto L", []string{"tst r16", "brne L"}},
		{"if (F_CARRY) goto L", []string{"brcs L"}},
		{"if (!F_ZERO) goto L", []string{"brne L"}},
		{"if (r16[3]) goto L", []string{"sbrc r16, 3", "rjmp L"}},
		{"if (!io[PINB].0) goto L", []string{"sbis PINB, 0", "rjmp L"}},
		{"if (r25.r24 == r23.r22) goto L", []string{"cp r24, r22", "cpc r25, r23", "breq L"}},
		{"if (r16 == 1 || r17 == 2) goto L", []string{"cpi r16, 1", "breq L", "cpi r17, 2", "breq L"}},
		{"if (r16 == 1 && r17 == 2) goto L", []string{"cpi r16, 1", "brne __and1", "cpi r17, 2", "breq L", "__and1:"}},
		{"if (r16 == 0) rjmp done", []string{"tst r16", "breq done"}},
		{"if (r16 == 0) r17 = 1", []string{"tst r16", "brne __skip1", "ldi r17, 1", "__skip1:"}},
		{"if (r16 != r17) inc r18", []string{"cpse r16, r17", "inc r18"}},
		{"if (r16 == r17) inc r18", []string{"cp r16, r17", "brne __skip1", "inc r18", "__skip1:"}},
		{"if (r16[0]) ret", []string{"sbrc r16, 0", "ret"}},
		{"if (!r16[0]) ret", []string{"sbrs r16, 0", "ret"}},
		{"if (io[PINB].1) r16 = 0", []string{"sbic PINB, 1", "clr r16"}},
		{"if (r16 == 1 || r17 == 2) clr r18", []string{
			"cpi r16, 1", "breq __then2", "cpi r17, 2", "brne __skip1", "__then2:", "clr r18", "__skip1:",
		}},
		{"if (r16 == 1 && r17 == 2) clr r18", []string{
			"cpi r16, 1", "brne __skip1", "cpi r17, 2", "brne __skip1", "clr r18", "__skip1:",
		}},
	})
}

func TestBlocks(t *testing.T) {
	runCompileTests(t, asm.GNU, []compileTest{
		{"loop (r16 = 1) {\n}", []string{"ldi r16, 1", "__loop1:", "dec r16", "brne __loop1"}},
		{"loop(r16 = 1) { }", []string{"ldi r16, 1", "__loop1:", "dec r16", "brne __loop1"}},
		{"loop (r16) {\nnop\n}", []string{"__loop1:", "nop", "dec r16", "brne __loop1"}},
		{"loop {\nif (r16 == 0) break\ninc r16\n}", []string{
			"__loop1:", "tst r16", "breq __endloop2", "inc r16", "rjmp __loop1", "__endloop2:",
		}},
		{"loop {\nif (r16 == 0) continue\nbreak\n}", []string{
			"__loop1:", "tst r16", "breq __loop1", "rjmp __endloop2", "rjmp __loop1", "__endloop2:",
		}},
		{"loop (r17 = 10) {\nif (r16 == 0) continue\ninc r16\n}", []string{
			"ldi r17, 10", "__loop1:", "tst r16", "breq __cont2", "inc r16", "__cont2:", "dec r17", "brne __loop1",
		}},
		{"loop (X = 300) {\n}", []string{"ldi XL, 0x2C", "ldi XH, 0x01", "__loop1:", "sbiw XL, 1", "brne __loop1"}},
		{"loop {\nloop (r16 = 2) {\nbreak\n}\n}", []string{
			"__loop1:", "ldi r16, 2", "__loop2:", "rjmp __endloop3", "dec r16", "brne __loop2", "__endloop3:", "rjmp __loop1",
		}},
		{"if (r16 == 0) {\ninc r17\n}", []string{"tst r16", "brne __else1", "inc r17", "__else1:"}},
		{"if (r16 == 0) {\ninc r17\n} else {\ndec r17\n}", []string{
			"tst r16", "brne __else1", "inc r17", "rjmp __endif2", "__else1:", "dec r17", "__endif2:",
		}},
		{"if (r16 == 0) {\ninc r17\n}\nelse {\ndec r17\n}", []string{
			"tst r16", "brne __else1", "inc r17", "rjmp __endif2", "__else1:", "dec r17", "__endif2:",
		}},
		{"if (r16 == 1 || r17 == 2) {\nclr r18\n}", []string{
			"cpi r16, 1", "breq __then2", "cpi r17, 2", "brne __else1", "__then2:", "clr r18", "__else1:",
		}},
		{"if (r16 == 1 && r17 == 2) {\nclr r18\n}", []string{
			"cpi r16, 1", "brne __else1", "cpi r17, 2", "brne __else1", "clr r18", "__else1:",
		}},
		{"do {\ndec r16\n} while (r16 != 0)", []string{"__do1:", "dec r16", "tst r16", "brne __do1"}},
		{"do {\nif (r17 == 0) break\ndec r16\n} while (r16 != 0)", []string{
			"__do1:", "tst r17", "breq __endloop2", "dec r16", "tst r16", "brne __do1", "__endloop2:",
		}},
		{".loop (r16 = 3)\nnop\n.endloop", []string{"ldi r16, 3", "__loop1:", "nop", "dec r16", "brne __loop1"}},
		{".db {\n1, 2, 3\n'a', 0\n}", []string{".byte 1, 2, 3", ".byte 'a', 0"}},
		{".db { 1, 2 }", []string{".byte 1, 2"}},
	})
}

func TestCalls(t *testing.T) {
	runCompileTests(t, asm.GNU, []compileTest{
		{"rcall send(data: r16, len: 5)", []string{"mov r24, r16", "ldi r22, 5", "rcall send"}},
		{"rcall send(r16, 5)", []string{"mov r24, r16", "ldi r22, 5", "rcall send"}},
		{"rcall send(len: 0)", []string{"clr r22", "rcall send"}},
		{"call delay()", []string{"call delay"}},
		{"rcall delay(count: 1000)", []string{"ldi r24, 0xE8", "ldi r25, 0x03", "rcall delay"}},
		{"rjmp delay(total)", []string{"lds r25, total", "lds r24, total+1", "rjmp delay"}},
	})
}

func TestProcedureScope(t *testing.T) {
	c := newTestCompiler(asm.GNU)
	c.Env.EnterProc("send")
	if err := c.CompileString("data = len"); err != nil {
		t.Fatal(err)
	}
	c.Env.LeaveProc()
	if err := c.CompileString("data = 1"); err == nil {
		t.Error("expected error for argument name outside its procedure")
	}
	got := render(c.Output())
	if len(got) != 1 || got[0] != "mov r24, r22" {
		t.Errorf("got %v, want [mov r24, r22]", got)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"r16 = r17 + r16", ErrUnexpectedExpression},
		{"= r16", ErrUnexpectedExpression},
		{"foo = 1", ErrUnexpectedExpression},
		{"r16 = r17 r18", ErrUnexpectedExpression},
		{"r16 = r17 ^ 5", ErrUnsupportedOperation},
		{"r16 <<= r17", ErrUnsupportedOperation},
		{"ram[++X] = r16", ErrUnsupportedOperation},
		{"ram[X--] = r16", ErrUnsupportedOperation},
		{"ram[r16] = r17", ErrUnsupportedOperation},
		{"prg[Z] = r16", ErrUnsupportedOperation},
		{"r16 = prg[X]", ErrUnsupportedOperation},
		{"counter += r16", ErrUnsupportedOperation},
		{"F_CARRY += 1", ErrUnsupportedOperation},
		{"r25.r24 &= 3", ErrUnsupportedOperation},
		{"if (r25.r24 == 5) goto x", ErrUnsupportedOperation},
		{"r25.r24 = counter", ErrSizeMismatch},
		{"r16 = total", ErrSizeMismatch},
		{"total = r16", ErrSizeMismatch},
		{"r25.r24 = r18.r17.r16", ErrSizeMismatch},
		{"io[PORTB] = X", ErrSizeMismatch},
		{"if (r16 == 0) r17 = r18 + 1", ErrInvalidExpression},
		{"if (r16 == 0 || r17 == 0 && r18 == 0) goto x", ErrInvalidExpression},
		{"if r16 == 0 goto x", ErrInvalidExpression},
		{"break", ErrInvalidExpression},
		{"if (r16 == 0) continue", ErrInvalidExpression},
		{"rcall nothing(1)", ErrUndefinedProcedure},
		{"rcall delay(foo: 1)", ErrWrongArgument},
		{"rcall delay(1, 2)", ErrWrongArgument},
		{"rcall delay(1", ErrWrongCallSyntax},
		{"rcall send(data:)", ErrWrongCallSyntax},
		{"r16[-1] = 1", ErrUnsupportedOperation},
		{"r16[9] = 1", ErrUnsupportedOperation},
		{"r16[3] = r17[8]", ErrUnsupportedOperation},
		{"io[PORTB].8 = 1", ErrUnsupportedOperation},
		{"r20.r19.r18.r17.r16 = LED", ErrSizeMismatch},
		{"r20.r19.r18.r17.r16 += LED", ErrSizeMismatch},
		{"r25.r24 = r24.r25", ErrUnsupportedOperation},
		{"}", ErrBracketNotFound},
		{"loop {", ErrBracketNotFound},
		{"do {\nnop\n}", ErrUnexpectedExpression},
		{"else {", ErrUnexpectedExpression},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := compileLines(asm.GNU, strings.Split(tt.input, "\n")...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestErrorLines(t *testing.T) {
	_, err := compileLines(asm.GNU, "nop", "}", "nop")
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if cerr.Line != 2 {
		t.Errorf("got line %d, want 2", cerr.Line)
	}
	if cerr.Error() != "open bracket not found: }" {
		t.Errorf("got %q", cerr.Error())
	}

	_, err = compileLines(asm.GNU, "nop", "loop {", "nop")
	if !errors.As(err, &cerr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if cerr.Line != 2 || !strings.Contains(cerr.Detail, "line 2") {
		t.Errorf("got line %d detail %q, want block opened at line 2", cerr.Line, cerr.Detail)
	}
	if want := "open bracket not found: loop block opened at line 2 is not closed"; cerr.Error() != want {
		t.Errorf("got %q, want %q", cerr.Error(), want)
	}
}
