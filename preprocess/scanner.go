package preprocess

import (
	"fmt"
	"strings"

	"github.com/viant/jamc/diag"
	"github.com/viant/jamc/jam"
)

// annotation is a jsync/jasync/jtask prefix found at top level.
type annotation struct {
	kind       jam.Annotation
	start      int
	end        int
	line       int
	tier       jam.Tier
	conditions []string
	name       string
	nameSpan   Span
	malformed  bool // annotation block could not be parsed
	orphan     bool // not followed by a function header
	problems   []string
	types      map[string]jam.ValueKind
	raw        map[string]string
	result     jam.ValueKind
	hasResult  bool
	attached   bool
}

func (a *annotation) problemf(format string, args ...interface{}) {
	a.problems = append(a.problems, fmt.Sprintf(format, args...))
}

// scanner blanks the language extension out of the host source and records what
// it removed.
type scanner struct {
	lang        jam.Language
	src         []byte
	lex         *lexer
	stripped    []byte
	annotated   []byte
	preserved   []string
	annotations []*annotation
	conditions  []*Condition
	shared      []*SharedData
	diags       diag.List
}

func newScanner(lang jam.Language, src []byte) *scanner {
	ret := &scanner{lang: lang, src: src, lex: newLexer(src, lang == jam.C)}
	ret.stripped = append([]byte(nil), src...)
	if lang == jam.JS {
		ret.annotated = append([]byte(nil), src...)
	}
	return ret
}

func (s *scanner) blank(start, end int) {
	blank(s.stripped, start, end)
	if s.annotated != nil {
		blank(s.annotated, start, end)
	}
}

func (s *scanner) isPunct(tok token, ch byte) bool {
	return tok.kind == tokPunct && s.src[tok.start] == ch
}

func (s *scanner) scan() {
	depth := 0
	prev := token{kind: tokEOF}
	for {
		tok := s.lex.next()
		switch tok.kind {
		case tokEOF:
			return
		case tokSpace, tokComment:
			continue
		case tokDirective:
			s.preserved = append(s.preserved, string(s.src[tok.start:tok.end]))
			blank(s.stripped, tok.start, tok.end)
		case tokPunct:
			switch s.src[tok.start] {
			case '{':
				depth++
			case '}':
				if depth > 0 {
					depth--
				}
			}
		case tokIdent:
			if depth > 0 || s.isPunct(prev, '.') {
				break
			}
			word := s.lex.text(tok)
			if kind, ok := jam.Keywords[word]; ok {
				s.annotation(tok, kind)
				break
			}
			if s.lang != jam.JS || (word != "jcond" && word != "jdata") {
				break
			}
			if !s.isPunct(s.lex.peekSignificant(), '{') {
				break
			}
			if word == "jcond" {
				s.conditionBlock(tok)
			} else {
				s.dataBlock(tok)
			}
		}
		prev = tok
	}
}

func (s *scanner) annotation(keyword token, kind jam.Annotation) {
	a := &annotation{kind: kind, start: keyword.start, end: keyword.end, line: lineOf(s.src, keyword.start), tier: jam.Unspecified}
	if s.isPunct(s.lex.peekSignificant(), '{') {
		s.lex.significant()
		a.end = s.annotationBlock(a)
	}
	s.blank(a.start, a.end)
	s.annotations = append(s.annotations, a)
	if s.lang == jam.C {
		s.cHeader(a)
	} else {
		s.jsHeader(a)
	}
	if a.malformed {
		a.tier = jam.Invalid
	}
	name := a.name
	if name == "" {
		name = a.kind.String()
	}
	for _, problem := range a.problems {
		s.diags.Errorf(diag.Declaration, s.lang, s.lang.Qualify(name), a.line, "%s", problem)
	}
}

// annotationBlock parses "{item, item}" and returns the offset after '}'.
func (s *scanner) annotationBlock(a *annotation) int {
	var items []string
	expectItem := true
	for {
		tok := s.lex.significant()
		switch {
		case tok.kind == tokEOF:
			a.malformed = true
			a.problemf("unterminated annotation block")
			return tok.end
		case s.isPunct(tok, '}'):
			s.classify(a, items)
			return tok.end
		case s.isPunct(tok, ','):
			if expectItem {
				a.malformed = true
				a.problemf("empty item in annotation block")
			}
			expectItem = true
		case tok.kind == tokIdent && expectItem:
			items = append(items, s.lex.text(tok))
			expectItem = false
		default:
			a.malformed = true
			a.problemf("unexpected %q in annotation block", s.lex.text(tok))
		}
	}
}

func (s *scanner) classify(a *annotation, items []string) {
	for _, item := range items {
		if !jam.IsTierName(item) {
			a.conditions = append(a.conditions, item)
			continue
		}
		if a.tier.Specified() {
			a.malformed = true
			a.problemf("more than one tier in annotation block: %s and %s", a.tier, item)
			continue
		}
		a.tier, _ = jam.ParseTier(item)
	}
}

// cHeader reads the C function header up to '(' and supplies the return type
// when it was omitted.
func (s *scanner) cHeader(a *annotation) {
	var idents []token
	stars := 0
	for {
		tok := s.lex.peekSignificant()
		if tok.kind == tokEOF || s.isPunct(tok, '{') || s.isPunct(tok, '}') || s.isPunct(tok, ';') {
			a.orphan = true
			a.problemf("%s annotation is not followed by a function definition", a.kind)
			return
		}
		s.lex.significant()
		if s.isPunct(tok, '(') {
			break
		}
		switch {
		case tok.kind == tokIdent:
			idents = append(idents, tok)
		case s.isPunct(tok, '*'):
			stars++
		}
	}
	if len(idents) == 0 {
		a.orphan = true
		a.problemf("%s annotation is not followed by a function definition", a.kind)
		return
	}
	nameTok := idents[len(idents)-1]
	a.name = s.lex.text(nameTok)
	a.nameSpan = Span{Start: nameTok.start, End: nameTok.end}
	if len(idents) > 1 || stars > 0 {
		return
	}
	returnType := "void"
	if a.kind == jam.Sync {
		returnType = "int"
		a.problemf("jsync function %s must declare its return type", a.name)
	}
	copy(s.stripped[a.start:], returnType)
}

// jsHeader reads "function name(params): result" recording and blanking the
// boundary types.
func (s *scanner) jsHeader(a *annotation) {
	a.types = map[string]jam.ValueKind{}
	a.raw = map[string]string{}
	if tok := s.lex.peekSignificant(); tok.kind != tokIdent || s.lex.text(tok) != "function" {
		a.orphan = true
		a.problemf("%s annotation is not followed by a function declaration", a.kind)
		return
	}
	s.lex.significant()
	nameTok := s.lex.peekSignificant()
	if nameTok.kind != tokIdent {
		a.orphan = true
		a.problemf("%s function has no name", a.kind)
		return
	}
	s.lex.significant()
	a.name = s.lex.text(nameTok)
	a.nameSpan = Span{Start: nameTok.start, End: nameTok.end}
	if !s.isPunct(s.lex.peekSignificant(), '(') {
		a.orphan = true
		a.problemf("%s function %s has no parameter list", a.kind, a.name)
		return
	}
	s.lex.significant()
	depth := 1
	expectName := true
	param := ""
	for depth > 0 {
		tok := s.lex.significant()
		switch {
		case tok.kind == tokEOF:
			a.orphan = true
			a.problemf("unterminated parameter list of %s", a.name)
			return
		case s.isPunct(tok, '(') || s.isPunct(tok, '[') || s.isPunct(tok, '{'):
			depth++
		case s.isPunct(tok, ')') || s.isPunct(tok, ']') || s.isPunct(tok, '}'):
			depth--
		case depth > 1:
		case s.isPunct(tok, ','):
			expectName = true
		case tok.kind == tokIdent && expectName:
			param = s.lex.text(tok)
			expectName = false
		case s.isPunct(tok, ':') && param != "":
			kind, raw := s.boundaryType(a, tok)
			a.types[param] = kind
			a.raw[param] = raw
		}
	}
	if colon := s.lex.peekSignificant(); s.isPunct(colon, ':') {
		s.lex.significant()
		a.result, _ = s.boundaryType(a, colon)
		a.hasResult = true
	}
}

// boundaryType reads the type after colon and blanks both from the stripped
// source.
func (s *scanner) boundaryType(a *annotation, colon token) (jam.ValueKind, string) {
	tok := s.lex.peekSignificant()
	if tok.kind != tokIdent {
		a.problemf("missing boundary type in %s", a.name)
		return jam.Unknown, ""
	}
	s.lex.significant()
	end := tok.end
	raw := s.lex.text(tok)
	if s.isPunct(s.lex.peekSignificant(), '<') {
		depth := 0
		for {
			next := s.lex.significant()
			if next.kind == tokEOF {
				break
			}
			if s.isPunct(next, '<') {
				depth++
			} else if s.isPunct(next, '>') {
				depth--
			}
			end = next.end
			if depth == 0 {
				break
			}
		}
		raw = string(s.src[tok.start:end])
	}
	blank(s.stripped, colon.start, end)
	kind, ok := jam.ParseValueKind(raw)
	if !ok {
		a.problemf("unsupported boundary type %q in %s", raw, a.name)
	}
	return kind, raw
}

// statements reads "stmt; stmt; }" returning each statement's significant
// tokens and the offset after the closing brace.
func (s *scanner) statements(keyword token) ([][]token, int, bool) {
	s.lex.significant()
	var result [][]token
	var current []token
	depth := 0
	for {
		tok := s.lex.significant()
		switch {
		case tok.kind == tokEOF:
			s.diags.Errorf(diag.Declaration, s.lang, "", lineOf(s.src, keyword.start), "unterminated %s block", s.lex.text(keyword))
			return result, tok.end, false
		case depth == 0 && s.isPunct(tok, '}'):
			if len(current) > 0 {
				result = append(result, current)
			}
			return result, tok.end, true
		case depth == 0 && s.isPunct(tok, ';'):
			if len(current) > 0 {
				result = append(result, current)
			}
			current = nil
			continue
		case s.isPunct(tok, '(') || s.isPunct(tok, '[') || s.isPunct(tok, '{'):
			depth++
		case s.isPunct(tok, ')') || s.isPunct(tok, ']') || s.isPunct(tok, '}'):
			depth--
		}
		current = append(current, tok)
	}
}

func (s *scanner) conditionBlock(keyword token) {
	stmts, end, _ := s.statements(keyword)
	for _, stmt := range stmts {
		line := lineOf(s.src, stmt[0].start)
		if len(stmt) < 3 || stmt[0].kind != tokIdent || !s.isPunct(stmt[1], ':') {
			s.diags.Errorf(diag.Declaration, s.lang, "", line, "malformed jcond entry %q, expected name: expression", s.span(stmt))
			continue
		}
		expr := strings.TrimSpace(string(s.src[stmt[2].start:stmt[len(stmt)-1].end]))
		s.conditions = append(s.conditions, &Condition{Name: s.lex.text(stmt[0]), Expr: expr, Line: line})
	}
	s.blank(keyword.start, end)
}

func (s *scanner) dataBlock(keyword token) {
	stmts, end, _ := s.statements(keyword)
	for _, stmt := range stmts {
		line := lineOf(s.src, stmt[0].start)
		n := len(stmt)
		if n < 3 || stmt[n-3].kind != tokIdent || s.lex.text(stmt[n-2]) != "as" || stmt[n-1].kind != tokIdent {
			s.diags.Errorf(diag.Declaration, s.lang, "", line, "malformed jdata entry %q, expected [type] name as mode", s.span(stmt))
			continue
		}
		name := s.lex.text(stmt[n-3])
		mode := SharedMode(s.lex.text(stmt[n-1]))
		if !mode.valid() {
			s.diags.Errorf(diag.Declaration, s.lang, s.lang.Qualify(name), line, "unknown jdata mode %q", mode)
			continue
		}
		var typeParts []string
		for _, tok := range stmt[:n-3] {
			typeParts = append(typeParts, s.lex.text(tok))
		}
		s.shared = append(s.shared, &SharedData{Name: name, Type: strings.Join(typeParts, " "), Mode: mode, Line: line})
	}
	s.blank(keyword.start, end)
}

func (s *scanner) span(tokens []token) string {
	return strings.TrimSpace(string(s.src[tokens[0].start:tokens[len(tokens)-1].end]))
}
