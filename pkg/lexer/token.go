package lexer

// TokenType represents the type of a raw token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	TokenWord     // r16, loop, 0x1F, .proc, #define
	TokenOperator // + += ( [ .
	TokenChar     // 'a'
	TokenString   // "text"
	TokenComment  // ; text
)

var tokenNames = map[TokenType]string{
	TokenEOF:      "EOF",
	TokenIllegal:  "ILLEGAL",
	TokenWord:     "WORD",
	TokenOperator: "OPERATOR",
	TokenChar:     "CHAR",
	TokenString:   "STRING",
	TokenComment:  "COMMENT",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token represents a raw lexical token of one source line
type Token struct {
	Type    TokenType
	Literal string
	Column  int
}

// operators by length, longest first so that "<<=" wins over "<<" and "<"
var operators = [][]string{
	{"<<=", ">>="},
	{"<<", ">>", "<=", ">=", "==", "!=", "&&", "||", "++", "--", "+=", "-=", "&=", "|=", "^="},
	{"+", "-", "*", "/", "%", "&", "|", "^", "~", "!", "=", "<", ">",
		"(", ")", "[", "]", "{", "}", ",", ":", "."},
}
