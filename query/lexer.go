package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes query strings
type Lexer struct {
	input string
	pos   int
	ch    rune
	off   int // offset of ch within input
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next character, decoding UTF-8. Offsets stay
// byte offsets for error reporting.
func (l *Lexer) readChar() {
	l.off = l.pos
	if l.pos >= len(l.input) {
		l.ch = 0
		l.off = len(l.input)
		return
	}
	r, width := utf8.DecodeRuneInString(l.input[l.pos:])
	l.ch = r
	l.pos += width
}

// peekChar looks at the next character without advancing
func (l *Lexer) peekChar() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// skipWhitespace skips whitespace characters
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readString reads a quoted string with backslash escapes
func (l *Lexer) readString(quote rune) (string, error) {
	start := l.off
	var result strings.Builder
	l.readChar() // skip opening quote

	for l.ch != quote {
		if l.ch == 0 {
			return "", &LexError{Offset: start, Char: quote}
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			case '\\':
				result.WriteRune('\\')
			case quote:
				result.WriteRune(quote)
			default:
				result.WriteRune(l.ch)
			}
		} else {
			result.WriteRune(l.ch)
		}
		l.readChar()
	}
	l.readChar() // skip closing quote

	return result.String(), nil
}

// readNumber reads an integer or float literal. The current character
// is a digit or a dot followed by a digit.
func (l *Lexer) readNumber() (string, bool) {
	var result strings.Builder
	isFloat := false

	// Hex integers
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		result.WriteRune(l.ch)
		l.readChar()
		result.WriteRune(l.ch)
		l.readChar()
		for isHexDigit(l.ch) {
			result.WriteRune(l.ch)
			l.readChar()
		}
		return result.String(), false
	}

	for unicode.IsDigit(l.ch) {
		result.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch == '.' {
		isFloat = true
		result.WriteRune(l.ch)
		l.readChar()
		for unicode.IsDigit(l.ch) {
			result.WriteRune(l.ch)
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		isFloat = true
		result.WriteRune(l.ch)
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			result.WriteRune(l.ch)
			l.readChar()
		}
		for unicode.IsDigit(l.ch) {
			result.WriteRune(l.ch)
			l.readChar()
		}
	}

	return result.String(), isFloat
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	var result strings.Builder
	for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' {
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

func isHexDigit(ch rune) bool {
	return unicode.IsDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// NextToken returns the next token
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	start := l.off

	switch l.ch {
	case 0:
		return Token{Type: TokenEOF, Value: "", Offset: start}, nil
	case '=':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
		}
		return Token{Type: TokenCompare, Value: "=", Offset: start}, nil
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenCompare, Value: "!=", Offset: start}, nil
		}
		return Token{}, &LexError{Offset: start, Char: '!'}
	case '<':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenCompare, Value: "<=", Offset: start}, nil
		}
		return Token{Type: TokenCompare, Value: "<", Offset: start}, nil
	case '>':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenCompare, Value: ">=", Offset: start}, nil
		}
		return Token{Type: TokenCompare, Value: ">", Offset: start}, nil
	case '+':
		l.readChar()
		return Token{Type: TokenPlus, Value: "+", Offset: start}, nil
	case '-':
		l.readChar()
		return Token{Type: TokenMinus, Value: "-", Offset: start}, nil
	case '*':
		l.readChar()
		if l.ch == '*' {
			l.readChar()
			return Token{Type: TokenPow, Value: "**", Offset: start}, nil
		}
		return Token{Type: TokenStar, Value: "*", Offset: start}, nil
	case '/':
		l.readChar()
		return Token{Type: TokenSlash, Value: "/", Offset: start}, nil
	case '%':
		l.readChar()
		return Token{Type: TokenPercent, Value: "%", Offset: start}, nil
	case '^':
		l.readChar()
		return Token{Type: TokenPow, Value: "^", Offset: start}, nil
	case ',':
		l.readChar()
		return Token{Type: TokenComma, Value: ",", Offset: start}, nil
	case '(':
		l.readChar()
		return Token{Type: TokenLeftParen, Value: "(", Offset: start}, nil
	case ')':
		l.readChar()
		return Token{Type: TokenRightParen, Value: ")", Offset: start}, nil
	case '[':
		l.readChar()
		return Token{Type: TokenLeftBracket, Value: "[", Offset: start}, nil
	case ']':
		l.readChar()
		return Token{Type: TokenRightBracket, Value: "]", Offset: start}, nil
	case '.':
		if unicode.IsDigit(l.peekChar()) {
			value, _ := l.readNumber()
			return Token{Type: TokenFloat, Value: value, Offset: start}, nil
		}
		l.readChar()
		return Token{Type: TokenDot, Value: ".", Offset: start}, nil
	case '\'', '"':
		quote := l.ch
		value, err := l.readString(quote)
		if err != nil {
			return Token{}, err
		}
		return Token{Type: TokenString, Value: value, Offset: start}, nil
	}

	if unicode.IsDigit(l.ch) {
		value, isFloat := l.readNumber()
		typ := TokenInt
		if isFloat {
			typ = TokenFloat
		}
		return Token{Type: typ, Value: value, Offset: start}, nil
	}

	if unicode.IsLetter(l.ch) || l.ch == '_' {
		value := l.readIdentifier()
		typ, canon := identifierType(value)
		return Token{Type: typ, Value: canon, Offset: start}, nil
	}

	return Token{}, &LexError{Offset: start, Char: l.ch}
}

// keywords are reserved words; lookup is case-insensitive
var keywords = map[string]TokenType{
	"SELECT":    TokenSelect,
	"DISTINCT":  TokenDistinct,
	"WHERE":     TokenWhere,
	"GROUP":     TokenGroup,
	"BY":        TokenBy,
	"AS":        TokenAs,
	"RETURNING": TokenReturning,
	"AND":       TokenAnd,
	"OR":        TokenOr,
	"NOT":       TokenNot,
	"IN":        TokenIn,
	"TRUE":      TokenTrue,
	"FALSE":     TokenFalse,
	"NULL":      TokenNull,
	"O":         TokenRecord,
}

// compareWords are word-form comparison operators, lexed as COMPARE
// tokens carrying the canonical operator name
var compareWords = map[string]bool{
	"IS":       true,
	"CONTAINS": true,
	"LIKE":     true,
	"MATCHES":  true,
}

// identifierType determines whether an identifier is a keyword and
// returns the canonical token value
func identifierType(ident string) (TokenType, string) {
	upper := strings.ToUpper(ident)
	if typ, ok := keywords[upper]; ok {
		return typ, upper
	}
	if compareWords[upper] {
		return TokenCompare, upper
	}
	return TokenIdent, ident
}

// Tokenize returns all tokens from the input, ending with an EOF
// token. It fails with a LexError on the first unrecognized character.
func Tokenize(input string) ([]Token, error) {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok, err := lexer.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}
