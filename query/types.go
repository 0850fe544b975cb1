package query

// TokenType represents the type of a token
type TokenType int

const (
	// Keywords
	TokenSelect TokenType = iota
	TokenDistinct
	TokenWhere
	TokenGroup
	TokenBy
	TokenAs
	TokenReturning
	TokenAnd
	TokenOr
	TokenNot
	TokenIn
	TokenTrue
	TokenFalse
	TokenNull
	TokenRecord // o, the current record

	// Operators
	TokenCompare // = == != < <= > >= IS CONTAINS LIKE MATCHES
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %
	TokenPow     // ^ or **

	// Literals
	TokenString
	TokenInt
	TokenFloat
	TokenIdent

	// Delimiters
	TokenDot          // .
	TokenComma        // ,
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBracket  // [
	TokenRightBracket // ]

	// Special
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenSelect:       "SELECT",
	TokenDistinct:     "DISTINCT",
	TokenWhere:        "WHERE",
	TokenGroup:        "GROUP",
	TokenBy:           "BY",
	TokenAs:           "AS",
	TokenReturning:    "RETURNING",
	TokenAnd:          "AND",
	TokenOr:           "OR",
	TokenNot:          "NOT",
	TokenIn:           "IN",
	TokenTrue:         "TRUE",
	TokenFalse:        "FALSE",
	TokenNull:         "NULL",
	TokenRecord:       "o",
	TokenCompare:      "comparison operator",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenStar:         "*",
	TokenSlash:        "/",
	TokenPercent:      "%",
	TokenPow:          "^",
	TokenString:       "string literal",
	TokenInt:          "integer literal",
	TokenFloat:        "float literal",
	TokenIdent:        "identifier",
	TokenDot:          ".",
	TokenComma:        ",",
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenLeftBracket:  "[",
	TokenRightBracket: "]",
	TokenEOF:          "end of query",
}

// String returns a human-readable name for the token type
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown token"
}

// Token represents a lexical token.
//
// Offset is the byte position of the token in the source query and is
// carried through to parse errors.
type Token struct {
	Type   TokenType
	Value  string
	Offset int
}
