package token

import (
	"strconv"
	"strings"

	"github.com/coregx/coregex"
)

func mustCompile(pattern string) *coregex.Regexp {
	re, err := coregex.Compile(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

var (
	registerRE   = mustCompile(`^[rR]([0-9]|[12][0-9]|3[01])$`)
	identifierRE = mustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	decimalRE    = mustCompile(`^[+-]?[0-9]+$`)
	hexRE        = mustCompile(`^[+-]?(0[xX][0-9a-fA-F]+|\$[0-9a-fA-F]+)$`)
	binaryRE     = mustCompile(`^[+-]?0[bB][01]+$`)
	charRE       = mustCompile(`^'(\\.|[^'\\])'$`)
)

// named register bytes of the pointer pairs
var pointerBytes = map[string]int{
	"XL": 26, "XH": 27,
	"YL": 28, "YH": 29,
	"ZL": 30, "ZH": 31,
}

// RegisterNumber returns the index of a register name, or -1
func RegisterNumber(name string) int {
	if n, ok := pointerBytes[strings.ToUpper(name)]; ok {
		return n
	}
	if registerRE.MatchString(name) {
		n, _ := strconv.Atoi(name[1:])
		return n
	}
	return -1
}

// IsRegister reports whether name is r0..r31 or a pointer byte name
func IsRegister(name string) bool {
	return RegisterNumber(name) >= 0
}

// SameRegister compares register names by number
func SameRegister(a, b string) bool {
	na := RegisterNumber(a)
	return na >= 0 && na == RegisterNumber(b)
}

// IsPair reports whether name is one of the pointer pairs X, Y, Z
func IsPair(name string) bool {
	return name == "X" || name == "Y" || name == "Z"
}

// IsIdentifier reports whether s is a plain identifier
func IsIdentifier(s string) bool {
	return identifierRE.MatchString(s)
}

// ParseNumber parses decimal, 0x/$ hex, 0b binary and 'c' literals
func ParseNumber(s string) (int64, bool) {
	switch {
	case decimalRE.MatchString(s):
		v, err := strconv.ParseInt(s, 10, 64)
		return v, err == nil
	case hexRE.MatchString(s):
		neg := strings.HasPrefix(s, "-")
		digits := strings.TrimLeft(s, "+-")
		digits = strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X"), "$")
		v, err := strconv.ParseInt(digits, 16, 64)
		if neg {
			v = -v
		}
		return v, err == nil
	case binaryRE.MatchString(s):
		neg := strings.HasPrefix(s, "-")
		digits := strings.TrimLeft(s, "+-")[2:]
		v, err := strconv.ParseInt(digits, 2, 64)
		if neg {
			v = -v
		}
		return v, err == nil
	case charRE.MatchString(s):
		c, _, _, err := strconv.UnquoteChar(s[1:len(s)-1], '\'')
		return int64(c), err == nil
	}
	return 0, false
}

// IsNumber reports whether s is a numeric literal
func IsNumber(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}

// Parenthesize wraps an operand expression unless it is a single operand
// or already one parenthesised group.
func Parenthesize(text string) string {
	if IsIdentifier(text) || IsNumber(text) || enclosed(text) {
		return text
	}
	return "(" + text + ")"
}

func enclosed(text string) bool {
	if len(text) < 2 || text[0] != '(' || text[len(text)-1] != ')' {
		return false
	}
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(text)-1 {
				return false
			}
		}
	}
	return true
}

var keywords = map[string]bool{
	"if": true, "else": true, "goto": true, "loop": true,
	"continue": true, "break": true, "do": true, "while": true,
}

// IsKeyword reports whether s is a control keyword
func IsKeyword(s string) bool {
	return keywords[s]
}

var operators = map[string]bool{
	"=": true, "==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"&": true, "|": true, "^": true, "~": true, "!": true,
	"<<": true, ">>": true, "&&": true, "||": true, "++": true, "--": true,
	"+=": true, "-=": true, "&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
	"(": true, ")": true, "[": true, "]": true, "{": true, "}": true,
	",": true, ":": true, ".": true,
}

// IsOperator reports whether s is an operator or punctuation string
func IsOperator(s string) bool {
	return operators[s]
}

// IsArrayName reports whether s names one of the memory spaces
func IsArrayName(s string) bool {
	switch s {
	case "ram", "prg", "io", "iow":
		return true
	}
	return false
}

// FlagInfo describes one status register flag
type FlagInfo struct {
	Set, Clear             string // sec / clc
	BranchSet, BranchClear string // brcs / brcc
}

var flags = map[string]FlagInfo{
	"F_GLOBAL_INT": {"sei", "cli", "brie", "brid"},
	"F_BIT_COPY":   {"set", "clt", "brts", "brtc"},
	"F_HALF_CARRY": {"seh", "clh", "brhs", "brhc"},
	"F_SIGN":       {"ses", "cls", "brlt", "brge"},
	"F_TCO":        {"sev", "clv", "brvs", "brvc"},
	"F_NEG":        {"sen", "cln", "brmi", "brpl"},
	"F_ZERO":       {"sez", "clz", "breq", "brne"},
	"F_CARRY":      {"sec", "clc", "brcs", "brcc"},
}

// LookupFlag returns the instructions for a status flag name
func LookupFlag(name string) (FlagInfo, bool) {
	f, ok := flags[name]
	return f, ok
}

// IsFlag reports whether s is a status flag name
func IsFlag(s string) bool {
	_, ok := flags[s]
	return ok
}

var mnemonics = map[string]bool{}

func init() {
	for _, m := range strings.Fields(`
		adc add adiw and andi asr bclr bld brbc brbs brcc brcs breq brge
		brhc brhs brid brie brlo brlt brmi brne brpl brsh brtc brts brvc brvs
		bset bst call cbi cbr clc clh cli cln clr cls clt clv clz com cp cpc
		cpi cpse dec des eicall eijmp elpm eor fmul fmuls fmulsu icall ijmp in
		inc jmp lac las lat ld ldd ldi lds lpm lsl lsr mov movw mul muls mulsu
		neg nop or ori out pop push rcall ret reti rjmp rol ror sbc sbci sbi
		sbic sbis sbiw sbr sbrc sbrs sec seh sei sen ser ses set sev sez sleep
		spm st std sts sub subi swap tst wdr xch`) {
		mnemonics[m] = true
	}
}

// IsMnemonic reports whether s is an AVR instruction mnemonic
func IsMnemonic(s string) bool {
	return mnemonics[strings.ToLower(s)]
}
