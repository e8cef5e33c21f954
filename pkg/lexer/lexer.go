// Package lexer splits one line of pseudo-assembly source into raw string
// tokens. Classification happens later, in package expr.
package lexer

// Lexer tokenizes a single source line
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // next reading position
	ch      byte // current character
	prev    byte // last character consumed by the previous token
}

// New creates a new Lexer for the given line
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// NextToken returns the next token of the line
func (l *Lexer) NextToken() Token {
	if l.skipWhitespace() {
		l.prev = ' '
	}
	tok := Token{Column: l.pos + 1}

	switch {
	case l.ch == 0:
		tok.Type = TokenEOF
	case l.ch == ';' || (l.ch == '/' && l.peekChar() == '/'):
		tok.Type = TokenComment
		tok.Literal = l.input[l.pos:]
		l.pos = len(l.input)
		l.readPos = l.pos
		l.ch = 0
		return tok
	case l.ch == '\'':
		tok.Type = TokenChar
		tok.Literal = l.readQuoted('\'')
	case l.ch == '"':
		tok.Type = TokenString
		tok.Literal = l.readQuoted('"')
	case isWordChar(l.ch):
		tok.Type = TokenWord
		tok.Literal = l.readWord()
	case (l.ch == '.' || l.ch == '#') && isLetter(l.peekChar()) && !isWordChar(l.prev) && l.prev != ']' && l.prev != ')':
		// directive: .proc, #define
		start := l.pos
		l.readChar()
		l.readWord()
		tok.Type = TokenWord
		tok.Literal = l.input[start:l.pos]
	default:
		if op := l.matchOperator(); op != "" {
			tok.Type = TokenOperator
			tok.Literal = op
			for range op {
				l.readChar()
			}
		} else {
			tok.Type = TokenIllegal
			tok.Literal = string(l.ch)
			l.readChar()
		}
	}
	if tok.Literal != "" {
		l.prev = tok.Literal[len(tok.Literal)-1]
	}
	return tok
}

func (l *Lexer) matchOperator() string {
	rest := l.input[l.pos:]
	for _, group := range operators {
		for _, op := range group {
			if len(rest) >= len(op) && rest[:len(op)] == op {
				return op
			}
		}
	}
	return ""
}

func (l *Lexer) skipWhitespace() bool {
	skipped := false
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
		skipped = true
	}
	return skipped
}

func (l *Lexer) readWord() string {
	pos := l.pos
	for isWordChar(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

// readQuoted returns the literal including its quotes
func (l *Lexer) readQuoted(quote byte) string {
	pos := l.pos
	l.readChar() // opening quote
	for l.ch != quote && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
		}
		l.readChar()
	}
	if l.ch == quote {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

// Split returns the tokens of a line and its trailing comment (with the
// comment marker), dropping whitespace.
func Split(line string) ([]string, string) {
	l := New(line)
	var tokens []string
	for {
		tok := l.NextToken()
		switch tok.Type {
		case TokenEOF:
			return tokens, ""
		case TokenComment:
			return tokens, tok.Literal
		default:
			tokens = append(tokens, tok.Literal)
		}
	}
}

// Indent returns the leading whitespace of a line
func Indent(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return line[:i]
		}
	}
	return line
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isWordChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '$'
}
