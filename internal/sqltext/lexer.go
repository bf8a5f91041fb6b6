// Package sqltext scans SQL text without parsing it. It knows enough about
// strings, quoted identifiers and comments to find where statements end.
package sqltext

import (
	"strings"
	"unicode"
)

// Kind identifies a token class.
type Kind int

const (
	EOF Kind = iota
	Word
	Number
	String
	QuotedIdent
	Semicolon
	Symbol
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Word:
		return "word"
	case Number:
		return "number"
	case String:
		return "string"
	case QuotedIdent:
		return "quoted identifier"
	case Semicolon:
		return "semicolon"
	default:
		return "symbol"
	}
}

// Token is a span of the input. Start and End are byte offsets.
type Token struct {
	Kind  Kind
	Start int
	End   int
	// Unterminated is set on a string or quoted identifier missing its
	// closing quote.
	Unterminated bool
}

// Text returns the token's source text.
func (t Token) Text(input string) string {
	return input[t.Start:t.End]
}

// Lexer tokenizes SQL input.
type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte

	// openComment is set when the input ends inside a block comment.
	openComment bool
}

// NewLexer creates a Lexer for input.
func NewLexer(input string) *Lexer {
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

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

// Next returns the next token, skipping whitespace and comments.
func (l *Lexer) Next() Token {
	l.skipWhitespaceAndComments()

	start := l.pos
	if l.atEnd() {
		return Token{Kind: EOF, Start: len(l.input), End: len(l.input)}
	}

	switch {
	case l.ch == ';':
		l.readChar()
		return Token{Kind: Semicolon, Start: start, End: l.pos}
	case l.ch == '\'':
		closed := l.readQuoted('\'')
		return Token{Kind: String, Start: start, End: l.pos, Unterminated: !closed}
	case l.ch == '"':
		closed := l.readQuoted('"')
		return Token{Kind: QuotedIdent, Start: start, End: l.pos, Unterminated: !closed}
	case isLetter(l.ch) || l.ch == '_':
		for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$' {
			l.readChar()
		}
		return Token{Kind: Word, Start: start, End: l.pos}
	case isDigit(l.ch):
		l.readNumber()
		return Token{Kind: Number, Start: start, End: l.pos}
	default:
		l.readChar()
		return Token{Kind: Symbol, Start: start, End: l.pos}
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && !l.atEnd() {
				l.readChar()
			}
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			l.skipBlockComment()
			continue
		}

		return
	}
}

func (l *Lexer) skipBlockComment() {
	l.readChar()
	l.readChar()
	for {
		if l.atEnd() {
			l.openComment = true
			return
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
}

// readQuoted consumes a quoted run where a doubled quote is an escape.
// It reports whether the closing quote was found.
func (l *Lexer) readQuoted(quote byte) bool {
	l.readChar()
	for !l.atEnd() {
		if l.ch == quote {
			if l.peekChar() == quote {
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			return true
		}
		l.readChar()
	}
	return false
}

func (l *Lexer) readNumber() {
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || l.peekChar() == '+' || l.peekChar() == '-') {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
}

func isLetter(ch byte) bool {
	return ch >= 0x80 || unicode.IsLetter(rune(ch))
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns every token in input, ending with EOF.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens
		}
	}
}

// Complete reports whether input ends with a statement terminator that is
// not inside a string, quoted identifier or comment.
func Complete(input string) bool {
	l := NewLexer(input)
	last := Token{Kind: EOF}
	for {
		tok := l.Next()
		if tok.Kind == EOF {
			break
		}
		last = tok
	}
	return last.Kind == Semicolon && !l.openComment
}

// Split breaks input into statements at top-level semicolons. Statements are
// trimmed and those holding only comments are dropped; the terminators are
// not included.
func Split(input string) []string {
	var (
		stmts  []string
		start  int
		tokens int
	)
	flush := func(end int) {
		if tokens > 0 {
			stmts = append(stmts, strings.TrimSpace(input[start:end]))
		}
		tokens = 0
	}

	l := NewLexer(input)
	for {
		tok := l.Next()
		switch tok.Kind {
		case EOF:
			flush(len(input))
			return stmts
		case Semicolon:
			flush(tok.Start)
			start = tok.End
		default:
			tokens++
		}
	}
}
