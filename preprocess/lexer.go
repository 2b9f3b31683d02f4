package preprocess

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokSpace
	tokComment
	tokDirective
	tokString
	tokIdent
	tokNumber
	tokPunct
)

type token struct {
	kind  tokenKind
	start int
	end   int
}

// lexer splits C or JS source into the coarse tokens needed to find top-level
// annotations outside strings and comments.
type lexer struct {
	src        []byte
	pos        int
	directives bool // C: '#' or ';' in column 0 starts a preserved line
	peeked     *token
}

func newLexer(src []byte, directives bool) *lexer {
	return &lexer{src: src, directives: directives}
}

func (l *lexer) text(tok token) string {
	return string(l.src[tok.start:tok.end])
}

// significant returns the next token that is not whitespace or a comment.
func (l *lexer) significant() token {
	for {
		tok := l.next()
		if tok.kind != tokSpace && tok.kind != tokComment {
			return tok
		}
	}
}

// peekSignificant returns the next significant token without consuming it.
func (l *lexer) peekSignificant() token {
	tok := l.significant()
	l.peeked = &tok
	return tok
}

func (l *lexer) next() token {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok
	}
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, start: start, end: start}
	}
	ch := l.src[l.pos]
	switch {
	case l.directives && (ch == '#' || ch == ';') && (l.pos == 0 || l.src[l.pos-1] == '\n'):
		l.skipDirective()
		return token{kind: tokDirective, start: start, end: l.pos}
	case isSpace(ch):
		for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokSpace, start: start, end: l.pos}
	case ch == '/' && l.at(1) == '/':
		for l.pos < len(l.src) && l.src[l.pos] != '\n' {
			l.pos++
		}
		return token{kind: tokComment, start: start, end: l.pos}
	case ch == '/' && l.at(1) == '*':
		l.pos += 2
		for l.pos < len(l.src) && !(l.src[l.pos] == '*' && l.at(1) == '/') {
			l.pos++
		}
		l.pos = min(l.pos+2, len(l.src))
		return token{kind: tokComment, start: start, end: l.pos}
	case ch == '"' || ch == '\'' || ch == '`':
		l.skipString(ch)
		return token{kind: tokString, start: start, end: l.pos}
	case isIdentStart(ch):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, start: start, end: l.pos}
	case ch >= '0' && ch <= '9':
		for l.pos < len(l.src) && (isIdentPart(l.src[l.pos]) || l.src[l.pos] == '.') {
			l.pos++
		}
		return token{kind: tokNumber, start: start, end: l.pos}
	}
	l.pos++
	return token{kind: tokPunct, start: start, end: l.pos}
}

func (l *lexer) at(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

// skipDirective consumes a preserved line including backslash continuations,
// leaving the terminating newline in place.
func (l *lexer) skipDirective() {
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch == '\\' && l.at(1) == '\n' {
			l.pos += 2
			continue
		}
		if ch == '\n' {
			return
		}
		l.pos++
	}
}

func (l *lexer) skipString(quote byte) {
	l.pos++
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		switch {
		case ch == '\\':
			l.pos += 2
			continue
		case ch == quote:
			l.pos++
			return
		case ch == '\n' && quote != '`':
			return
		}
		l.pos++
	}
	l.pos = len(l.src)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

// blank overwrites src[start:end] with spaces, keeping line breaks so that byte
// offsets and line numbers do not move.
func blank(src []byte, start, end int) {
	for i := start; i < end && i < len(src); i++ {
		if src[i] != '\n' && src[i] != '\r' {
			src[i] = ' '
		}
	}
}

// lineOf returns the 1-based line number of offset.
func lineOf(src []byte, offset int) int {
	line := 1
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
		}
	}
	return line
}
