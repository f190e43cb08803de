package lang

// Parse reads every top-level form in text. It never fails: malformed input
// becomes [FormError] forms, and every syntax error is also returned in
// errs, in source order.
//
// An unterminated list is reported at its innermost open delimiter. If a
// top-level form is still open at end of input, the reader retries it,
// stopping at the first '(' in column 1. That paren starts the next
// top-level form, so a single missing ')' does not swallow the rest of the
// file.
func Parse(text string) (forms []*Form, errs []*Error) {
	p := reader{toks: Lex(text), end: endOf(text)}

	for !p.done() {
		start := p.i

		f, unwound := p.form(0)
		if unwound && f.Kind == FormError && f.Err.Is(ErrUnclosedList) {
			p.i, p.errs = start, p.errs[:p.mark(start)]
			p.sync = true
			f, _ = p.form(0)
			p.sync = false
		}

		forms = append(forms, f)
	}

	return forms, p.errs
}

// endOf returns the position just past the end of text.
func endOf(text string) Position {
	lx := lexer{src: text, line: 1, col: 1}
	for !lx.eof() {
		lx.advance()
	}

	return lx.position()
}

type reader struct {
	toks []Token
	i    int
	end  Position
	errs []*Error
	sync bool
	// errAt records, for each error in errs, the token index where the
	// top-level form that produced it began.
	errAt []int
	top   int
}

func (p *reader) done() bool { return p.i >= len(p.toks) }

func (p *reader) peek() Token { return p.toks[p.i] }

// mark returns the number of errors recorded before the top-level form that
// begins at token index start.
func (p *reader) mark(start int) int {
	n := len(p.errAt)
	for n > 0 && p.errAt[n-1] >= start {
		n--
	}

	p.errAt = p.errAt[:n]

	return n
}

func (p *reader) report(err *Error) {
	p.errs = append(p.errs, err)
	p.errAt = append(p.errAt, p.top)
}

// form reads one form. unwound is true when an enclosing list must stop
// because input ended or a sync point was reached.
func (p *reader) form(depth int) (f *Form, unwound bool) {
	if depth == 0 {
		p.top = p.i
	}

	tok := p.peek()
	p.i++

	switch tok.Kind {
	case TokenAtom:
		return &Form{Kind: FormAtom, Value: tok.Value, Span: tok.Span}, false

	case TokenError:
		p.report(tok.Err)

		return &Form{Kind: FormError, Err: tok.Err, Span: tok.Span}, false

	case TokenClose:
		err := ErrUnexpectedClose.At(tok.Span)
		p.report(err)

		return &Form{Kind: FormError, Err: err, Span: tok.Span}, false

	case TokenQuote:
		return p.quote(tok, depth)

	default:
		return p.list(tok, depth)
	}
}

func (p *reader) quote(tok Token, depth int) (*Form, bool) {
	if p.done() || p.peek().Kind == TokenClose {
		err := ErrDanglingQuote.At(tok.Span)
		p.report(err)

		return &Form{Kind: FormError, Err: err, Span: tok.Span}, false
	}

	if p.atSync(depth + 1) {
		err := ErrDanglingQuote.At(tok.Span)
		p.report(err)

		return &Form{Kind: FormError, Err: err, Span: tok.Span}, true
	}

	datum, unwound := p.form(depth + 1)
	head := &Form{Kind: FormAtom, Value: symQuote, Span: tok.Span}
	span := tok.Span.Join(datum.Span)

	if datum.Kind == FormError && unwound {
		return &Form{
			Kind:  FormError,
			Err:   datum.Err,
			Items: []*Form{head, datum},
			Span:  span,
		}, true
	}

	return &Form{Kind: FormList, Items: []*Form{head, datum}, Span: span}, unwound
}

// atSync reports whether the next token is a sync point for a form nested
// at depth.
func (p *reader) atSync(depth int) bool {
	if !p.sync || depth == 0 || p.done() {
		return false
	}

	tok := p.peek()

	return tok.Kind == TokenOpen && tok.Span.Start.Column == 1
}

func (p *reader) list(open Token, depth int) (*Form, bool) {
	var items []*Form

	for {
		if p.done() || p.atSync(depth+1) {
			end := p.end
			if !p.done() {
				end = p.peek().Span.Start
			}

			err := ErrUnclosedList.At(open.Span)
			p.report(err)

			return &Form{
				Kind:  FormError,
				Err:   err,
				Items: items,
				Span:  Span{Start: open.Span.Start, End: end},
			}, true
		}

		if p.peek().Kind == TokenClose {
			cl := p.peek()
			p.i++

			return &Form{
				Kind:  FormList,
				Items: items,
				Span:  open.Span.Join(cl.Span),
			}, false
		}

		item, unwound := p.form(depth + 1)
		items = append(items, item)

		if unwound {
			// The innermost list already reported the error; enclosing
			// lists become error markers that share it.
			return &Form{
				Kind:  FormError,
				Err:   item.Err,
				Items: items,
				Span:  open.Span.Join(item.Span),
			}, true
		}
	}
}
