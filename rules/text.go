package rules

import (
	"strings"

	"github.com/tapeset/wfst/wfsterr"
)

// ParseGrammarText parses the declarative two-level grammar text notation
// (spec.md §4.5 / §8 scenario b & c):
//
//	Alphabet: a:a b:b c:c
//	Diacritics: @P.CASE.NOM@
//	Sets:
//	  VOWEL: a:a e:e
//	Rules:
//	  "R1" a:b => c _ c ;
//	  "R2" a:c => x _ x ;
//
// Sections may appear in any order and each is optional except Alphabet.
// Rule bodies are terminated by ';' and may span or share lines freely.
func ParseGrammarText(src string) (*GrammarSource, error) {
	gs := &GrammarSource{Sets: map[string][]Pair{}}

	lines := strings.Split(src, "\n")
	section := ""
	var rulesBuf strings.Builder
	for lineNo, raw := range lines {
		line := stripComment(raw)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if name, rest, ok := splitSectionHeader(trimmed); ok {
			section = strings.ToLower(name)
			trimmed = rest
			if trimmed == "" {
				continue
			}
		}

		switch section {
		case "alphabet":
			for _, tok := range strings.Fields(trimmed) {
				p, err := parsePairLiteral(tok)
				if err != nil {
					return nil, syntaxErr(lineNo, line, err.Error())
				}
				gs.Alphabet = append(gs.Alphabet, p)
			}
		case "diacritics":
			gs.Diacritics = append(gs.Diacritics, strings.Fields(trimmed)...)
		case "sets":
			name, body, ok := strings.Cut(trimmed, ":")
			if !ok {
				return nil, syntaxErr(lineNo, line, "expected 'NAME: pair pair ...' in Sets section")
			}
			var ps []Pair
			for _, tok := range strings.Fields(body) {
				p, err := parsePairLiteral(tok)
				if err != nil {
					return nil, syntaxErr(lineNo, line, err.Error())
				}
				ps = append(ps, p)
			}
			gs.Sets[strings.TrimSpace(name)] = ps
		case "rules":
			rulesBuf.WriteString(trimmed)
			rulesBuf.WriteByte('\n')
		default:
			return nil, syntaxErr(lineNo, line, "content before any section header")
		}
	}

	for _, stmt := range splitStatements(rulesBuf.String()) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		r, err := parseRuleText(stmt)
		if err != nil {
			return nil, err
		}
		gs.Rules = append(gs.Rules, r)
	}
	return gs, nil
}

func stripComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}

func splitSectionHeader(trimmed string) (name, rest string, ok bool) {
	for _, hdr := range []string{"Alphabet", "Diacritics", "Sets", "Rules"} {
		if strings.HasPrefix(trimmed, hdr+":") {
			return hdr, strings.TrimSpace(trimmed[len(hdr)+1:]), true
		}
	}
	return "", "", false
}

// splitStatements splits on ';' while respecting double-quoted rule names so
// a name containing ';' (unlikely, but not disallowed by tokenization)
// wouldn't split early; the quoting is simple since rule names never
// contain ';' in practice.
func splitStatements(s string) []string {
	var out []string
	inQuote := false
	start := 0
	for i, r := range s {
		switch r {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		out = append(out, s[start:])
	}
	return out
}

// parseRuleText parses one semicolon-terminated rule statement:
//
//	"Name" centerPair[|centerPair...] OP contextSpec[, contextSpec...]
//
// where each contextSpec is "LEFT _ RIGHT" (either side may be empty) and OP
// is one of =>, <=, <=>, /<=.
func parseRuleText(stmt string) (Rule, error) {
	stmt = strings.TrimSpace(stmt)
	if !strings.HasPrefix(stmt, "\"") {
		return Rule{}, wfsterr.New("rule must start with a quoted name: " + stmt)
	}
	end := strings.IndexByte(stmt[1:], '"')
	if end < 0 {
		return Rule{}, wfsterr.New("unterminated rule name: " + stmt)
	}
	name := stmt[1 : end+1]
	rest := strings.TrimSpace(stmt[end+2:])

	op, opText, opIdx := findOperator(rest)
	if opIdx < 0 {
		return Rule{}, wfsterr.New("rule " + name + ": missing operator (=>, <=, <=>, /<=)")
	}
	centerText := strings.TrimSpace(rest[:opIdx])
	contextText := strings.TrimSpace(rest[opIdx+len(opText):])

	var center []Pair
	for _, tok := range strings.Split(centerText, "|") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		p, err := parsePairLiteral(tok)
		if err != nil {
			return Rule{}, wfsterr.New("rule " + name + ": " + err.Error())
		}
		center = append(center, p)
	}
	if len(center) == 0 {
		return Rule{}, wfsterr.New("rule " + name + ": empty center")
	}

	var contexts []RuleContext
	for _, part := range strings.Split(contextText, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ctx, err := parseContextSpec(part)
		if err != nil {
			return Rule{}, wfsterr.New("rule " + name + ": " + err.Error())
		}
		contexts = append(contexts, ctx)
	}
	if len(contexts) == 0 {
		return Rule{}, wfsterr.New("rule " + name + ": no context given")
	}

	return Rule{Name: name, Center: center, Op: op, Contexts: contexts}, nil
}

// findOperator locates the rule's operator, checking longer operator
// spellings first so "<=>" isn't mistaken for a prefix match of "<=".
func findOperator(s string) (OperatorKind, string, int) {
	for _, cand := range []struct {
		text string
		op   OperatorKind
	}{
		{"<=>", Both},
		{"/<=", Exclusion},
		{"=>", RightArrow},
		{"<=", LeftArrow},
	} {
		if idx := strings.Index(s, cand.text); idx >= 0 {
			return cand.op, cand.text, idx
		}
	}
	return 0, "", -1
}

// parseContextSpec splits "LEFT _ RIGHT" on the lone underscore marking the
// center position.
func parseContextSpec(s string) (RuleContext, error) {
	fields := strings.Fields(s)
	idx := -1
	for i, f := range fields {
		if f == "_" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return RuleContext{}, wfsterr.New("context missing '_' center marker: " + s)
	}
	left := strings.Join(fields[:idx], " ")
	right := strings.Join(fields[idx+1:], " ")
	return RuleContext{Left: left, Right: right}, nil
}

func syntaxErr(lineNo int, line, msg string) error {
	return wfsterr.NewSyntaxError(msg, lineNo+1, 0, strings.TrimSpace(line))
}
