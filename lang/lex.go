package lang

//go:generate go tool stringer --linecomment --type TokenKind --output lex_string.go

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind tags a [Token].
type TokenKind uint8

const (
	TokenOpen  TokenKind = iota + 1 // open
	TokenClose                      // close
	TokenQuote                      // quote
	TokenAtom                       // atom
	TokenError                      // error
)

// Token is a lexical unit of klisp source. Atom tokens carry their literal
// value; error tokens carry the syntax error.
type Token struct {
	Kind  TokenKind
	Text  string
	Value Value
	Err   *Error
	Span  Span
}

var namedChars = map[string]rune{
	"space":   ' ',
	"newline": '\n',
	"tab":     '\t',
	"return":  '\r',
}

// Lex splits src into tokens. Whitespace, commas and comments are dropped.
// Lex never fails: text it cannot classify becomes a [TokenError].
func Lex(src string) []Token {
	lx := lexer{src: src, line: 1, col: 1}

	var toks []Token

	for {
		tok, ok := lx.next()
		if !ok {
			return toks
		}

		toks = append(toks, tok)
	}
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func (lx *lexer) eof() bool { return lx.pos >= len(lx.src) }

func (lx *lexer) peek() rune {
	if lx.eof() {
		return utf8.RuneError
	}

	r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])

	return r
}

func (lx *lexer) advance() rune {
	r, n := utf8.DecodeRuneInString(lx.src[lx.pos:])
	lx.pos += n

	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}

	return r
}

func (lx *lexer) position() Position {
	return Position{Offset: lx.pos, Line: lx.line, Column: lx.col}
}

func (lx *lexer) skipSpaceAndComments() {
	for !lx.eof() {
		switch r := lx.peek(); {
		case r == ';':
			for !lx.eof() && lx.peek() != '\n' {
				lx.advance()
			}
		case r == ',' || unicode.IsSpace(r):
			lx.advance()
		default:
			return
		}
	}
}

func (lx *lexer) next() (Token, bool) {
	lx.skipSpaceAndComments()

	if lx.eof() {
		return Token{}, false
	}

	start := lx.position()

	switch r := lx.peek(); {
	case r == '(':
		lx.advance()

		return lx.token(TokenOpen, start), true

	case r == ')':
		lx.advance()

		return lx.token(TokenClose, start), true

	case r == '\'':
		lx.advance()

		return lx.token(TokenQuote, start), true

	case r == '"':
		return lx.lexString(start), true

	case r == '\\':
		return lx.lexChar(start), true

	case r == ':':
		lx.advance()

		if !isWordRune(lx.peek()) {
			return lx.fail(start, ErrInvalidToken), true
		}

		lx.scanWord()
		tok := lx.token(TokenAtom, start)
		tok.Value = Keyword(tok.Text[1:])

		return tok, true

	case isWordRune(r):
		lx.scanWord()

		return lx.classifyWord(start), true

	default:
		lx.advance()

		return lx.fail(start, ErrInvalidToken), true
	}
}

func (lx *lexer) token(kind TokenKind, start Position) Token {
	end := lx.position()

	return Token{
		Kind: kind,
		Text: lx.src[start.Offset:end.Offset],
		Span: Span{Start: start, End: end},
	}
}

func (lx *lexer) fail(start Position, err *Error) Token {
	tok := lx.token(TokenError, start)
	tok.Err = err.Detail(strconv.Quote(tok.Text)).At(tok.Span)

	return tok
}

func isWordRune(r rune) bool {
	if r == utf8.RuneError {
		return false
	}

	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}

	return strings.ContainsRune("-+/*_?%$#&^=!@<>.:", r)
}

func (lx *lexer) scanWord() {
	for !lx.eof() && isWordRune(lx.peek()) {
		lx.advance()
	}
}

func (lx *lexer) classifyWord(start Position) Token {
	tok := lx.token(TokenAtom, start)
	text := tok.Text

	switch text {
	case "true":
		tok.Value = Bool(true)

		return tok
	case "false":
		tok.Value = Bool(false)

		return tok
	}

	if !looksNumeric(text) {
		tok.Value = Intern(text)

		return tok
	}

	if isIntLiteral(text) {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			tok.Kind = TokenError
			tok.Err = ErrInvalidNumber.Detail("out of range " + text).At(tok.Span)

			return tok
		}

		tok.Value = Int(n)

		return tok
	}

	if isFloatLiteral(text) {
		f, err := strconv.ParseFloat(text, 64)
		if err == nil {
			tok.Value = Float(f)

			return tok
		}
	}

	tok.Kind = TokenError
	tok.Err = ErrInvalidNumber.Detail(text).At(tok.Span)

	return tok
}

// looksNumeric reports whether a word must be read as a number: it starts
// with a digit, or with a sign followed by a digit.
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}

	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}

	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func digits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}

	return n
}

func isIntLiteral(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}

	return s != "" && digits(s) == len(s)
}

// isFloatLiteral matches [+-]?[0-9]+\.[0-9]+([eE][+-]?[0-9]+)?.
func isFloatLiteral(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}

	n := digits(s)
	if n == 0 || n == len(s) || s[n] != '.' {
		return false
	}

	s = s[n+1:]

	n = digits(s)
	if n == 0 {
		return false
	}

	s = s[n:]
	if s == "" {
		return true
	}

	if s[0] != 'e' && s[0] != 'E' {
		return false
	}

	s = s[1:]
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}

	return s != "" && digits(s) == len(s)
}

func (lx *lexer) lexString(start Position) Token {
	lx.advance() // opening quote

	quote := Span{Start: start, End: lx.position()}

	var b strings.Builder

	for !lx.eof() {
		r := lx.advance()

		switch r {
		case '"':
			tok := lx.token(TokenAtom, start)
			tok.Value = String(b.String())

			return tok

		case '\\':
			if lx.eof() {
				continue
			}

			switch e := lx.advance(); e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			default:
				b.WriteRune(e)
			}

		default:
			b.WriteRune(r)
		}
	}

	tok := lx.token(TokenError, start)
	tok.Err = ErrUnterminatedString.At(quote)

	return tok
}

func (lx *lexer) lexChar(start Position) Token {
	lx.advance() // backslash

	if lx.eof() || unicode.IsSpace(lx.peek()) {
		return lx.fail(start, ErrInvalidChar)
	}

	r := lx.advance()

	if !unicode.IsLetter(r) || !unicode.IsLetter(lx.peek()) {
		tok := lx.token(TokenAtom, start)
		tok.Value = Char(r)

		return tok
	}

	for !lx.eof() && unicode.IsLetter(lx.peek()) {
		lx.advance()
	}

	tok := lx.token(TokenAtom, start)

	named, ok := namedChars[tok.Text[1:]]
	if !ok {
		return lx.fail(start, ErrInvalidChar)
	}

	tok.Value = Char(named)

	return tok
}

// Balance reports the paren depth left open at the end of src and whether src
// ends inside a string. Input is complete when depth <= 0 and inString is
// false. A negative depth means src has more closing than opening parens.
func Balance(src string) (depth int, inString bool) {
	for _, tok := range Lex(src) {
		switch tok.Kind {
		case TokenOpen:
			depth++
		case TokenClose:
			depth--
		case TokenError:
			if tok.Err.Is(ErrUnterminatedString) {
				inString = true
			}
		}
	}

	return depth, inString
}
