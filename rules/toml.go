package rules

import (
	"github.com/BurntSushi/toml"

	"github.com/tapeset/wfst/wfsterr"
)

// tomlGrammar mirrors the TOML document shape accepted by LoadGrammarTOML:
//
//	[alphabet]
//	pairs = ["a:a", "b:b", "c:c"]
//
//	[diacritics]
//	symbols = ["@P.CASE.NOM@"]
//
//	[sets]
//	VOWEL = ["a:a", "e:e"]
//
//	[[rules]]
//	name = "R1"
//	center = ["a:b"]
//	op = "=>"
//	  [[rules.contexts]]
//	  left = "c"
//	  right = "c"
type tomlGrammar struct {
	Alphabet struct {
		Pairs []string `toml:"pairs"`
	} `toml:"alphabet"`
	Diacritics struct {
		Symbols []string `toml:"symbols"`
	} `toml:"diacritics"`
	Sets  map[string][]string `toml:"sets"`
	Rules []tomlRule          `toml:"rules"`
}

type tomlRule struct {
	Name     string            `toml:"name"`
	Center   []string          `toml:"center"`
	Op       string            `toml:"op"`
	Contexts []tomlRuleContext `toml:"contexts"`
}

type tomlRuleContext struct {
	Left  string `toml:"left"`
	Right string `toml:"right"`
}

// LoadGrammarTOML parses a TOML-encoded two-level grammar document into a
// GrammarSource (spec.md §4.5's "declarative grammar source" front end,
// alongside ParseGrammarText).
func LoadGrammarTOML(data []byte) (*GrammarSource, error) {
	var doc tomlGrammar
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, wfsterr.New("decoding grammar TOML", err)
	}

	gs := &GrammarSource{
		Diacritics: doc.Diacritics.Symbols,
		Sets:       map[string][]Pair{},
	}
	for _, s := range doc.Alphabet.Pairs {
		p, err := parsePairLiteral(s)
		if err != nil {
			return nil, err
		}
		gs.Alphabet = append(gs.Alphabet, p)
	}
	for name, pairs := range doc.Sets {
		var ps []Pair
		for _, s := range pairs {
			p, err := parsePairLiteral(s)
			if err != nil {
				return nil, err
			}
			ps = append(ps, p)
		}
		gs.Sets[name] = ps
	}
	for _, tr := range doc.Rules {
		op, err := parseOperator(tr.Op)
		if err != nil {
			return nil, err
		}
		r := Rule{Name: tr.Name, Op: op}
		for _, s := range tr.Center {
			p, err := parsePairLiteral(s)
			if err != nil {
				return nil, err
			}
			r.Center = append(r.Center, p)
		}
		for _, tc := range tr.Contexts {
			r.Contexts = append(r.Contexts, RuleContext{Left: tc.Left, Right: tc.Right})
		}
		gs.Rules = append(gs.Rules, r)
	}
	return gs, nil
}

func parseOperator(s string) (OperatorKind, error) {
	switch s {
	case "=>":
		return RightArrow, nil
	case "<=":
		return LeftArrow, nil
	case "<=>":
		return Both, nil
	case "/<=":
		return Exclusion, nil
	default:
		return 0, wfsterr.New("unknown rule operator " + s)
	}
}

func parsePairLiteral(s string) (Pair, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return Pair{In: s[:i], Out: s[i+1:]}, nil
		}
	}
	return Pair{In: s, Out: s}, nil
}
