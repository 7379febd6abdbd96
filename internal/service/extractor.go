package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"propsearch/internal/model"
	"propsearch/internal/utils"
)

// Rule names one extraction step of the FilterExtractor.
type Rule string

const (
	RuleBedrooms     Rule = "bedrooms"
	RulePropertyType Rule = "property_type"
	RulePrice        Rule = "price"
	RuleLocation     Rule = "location"
)

// DefaultRules is the default rule precedence.
var DefaultRules = []Rule{RuleBedrooms, RulePropertyType, RulePrice, RuleLocation}

// ParseRules converts configured rule names into rules, rejecting unknown or
// repeated names. An empty list yields DefaultRules.
func ParseRules(names []string) ([]Rule, error) {
	if len(names) == 0 {
		return append([]Rule(nil), DefaultRules...), nil
	}
	rules := make([]Rule, 0, len(names))
	seen := make(map[Rule]bool, len(names))
	for _, n := range names {
		r := Rule(strings.TrimSpace(n))
		switch r {
		case RuleBedrooms, RulePropertyType, RulePrice, RuleLocation:
		default:
			return nil, fmt.Errorf("unknown parser rule %q", n)
		}
		if seen[r] {
			return nil, fmt.Errorf("duplicate parser rule %q", n)
		}
		seen[r] = true
		rules = append(rules, r)
	}
	return rules, nil
}

const (
	crore = 10_000_000
	lakh  = 100_000
)

var (
	bedroomToken = regexp.MustCompile(`^(\d{1,2})(bhk|bhks|bed|beds|bedroom|bedrooms|br)$`)
	amountToken  = regexp.MustCompile(`^(\d+(?:\.\d+)?)([a-z]*)$`)
	plainInt     = regexp.MustCompile(`^\d{1,2}$`)

	bedroomWords = map[string]bool{
		"bhk": true, "bhks": true, "bed": true, "beds": true,
		"bedroom": true, "bedrooms": true, "br": true,
	}

	priceUnits = map[string]float64{
		"cr": crore, "crore": crore, "crores": crore,
		"lakh": lakh, "lakhs": lakh, "lac": lakh, "lacs": lakh,
	}

	maxQualifiers = [][]string{
		{"under"}, {"below"}, {"upto"}, {"up", "to"}, {"within"},
		{"max"}, {"maximum"}, {"less", "than"},
	}
	minQualifiers = [][]string{
		{"above"}, {"over"}, {"min"}, {"minimum"}, {"more", "than"}, {"atleast"}, {"at", "least"},
	}

	// Words dropped from the free-text remainder.
	connectors = map[string]bool{
		"in": true, "at": true, "near": true, "for": true, "with": true, "of": true,
		"the": true, "a": true, "an": true, "and": true, "to": true,
	}

	// Extra phrases per type beyond its label and key.
	typeSynonyms = map[model.PropertyType][]string{
		model.PropertyTypeApartment: {"flat"},
		model.PropertyTypeFarmland:  {"farm land"},
	}
)

// phrase is a token sequence that maps to a vocabulary value.
type phrase struct {
	tokens []string
	value  string
}

// Vocabulary holds the location names known to the extractor.
type Vocabulary struct {
	// locations indexed by first token, longest phrase first
	locations map[string][]phrase
	size      int
}

// NewVocabulary builds a vocabulary from locations. Each location matches by
// its name and by its slug; the location's display name is the match value.
func NewVocabulary(locations []model.Location) *Vocabulary {
	v := &Vocabulary{locations: make(map[string][]phrase)}
	for _, loc := range locations {
		seen := make(map[string]bool, 2)
		for _, src := range []string{loc.Name, loc.Slug} {
			toks := utils.Tokenize(src)
			key := strings.Join(toks, " ")
			if len(toks) == 0 || seen[key] {
				continue
			}
			seen[key] = true
			v.locations[toks[0]] = append(v.locations[toks[0]], phrase{tokens: toks, value: loc.Name})
		}
		v.size++
	}
	for k := range v.locations {
		sort.SliceStable(v.locations[k], func(i, j int) bool {
			return len(v.locations[k][i].tokens) > len(v.locations[k][j].tokens)
		})
	}
	return v
}

// Len returns the number of locations in the vocabulary.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return v.size
}

// FilterExtractor turns free text into a ParsedQuery using a fixed rule set
// applied in a configured order. It is immutable and safe for concurrent use.
type FilterExtractor struct {
	rules []Rule
	vocab *Vocabulary
	types []typeMatcher
}

type typeMatcher struct {
	typ     model.PropertyType
	phrases [][]string
}

// NewFilterExtractor creates an extractor over vocab applying rules in order.
// A nil or empty rules list means DefaultRules.
func NewFilterExtractor(vocab *Vocabulary, rules []Rule) *FilterExtractor {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	if vocab == nil {
		vocab = NewVocabulary(nil)
	}
	return &FilterExtractor{
		rules: append([]Rule(nil), rules...),
		vocab: vocab,
		types: buildTypeMatchers(),
	}
}

// Rules returns the rule precedence in effect.
func (e *FilterExtractor) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Vocabulary returns the location vocabulary the extractor matches against.
func (e *FilterExtractor) Vocabulary() *Vocabulary {
	return e.vocab
}

func buildTypeMatchers() []typeMatcher {
	matchers := make([]typeMatcher, 0, len(model.Catalog))
	for _, entry := range model.Catalog {
		var phrases [][]string
		seen := map[string]bool{}
		sources := append([]string{entry.Label, string(entry.Type)}, typeSynonyms[entry.Type]...)
		for _, src := range sources {
			toks := utils.Tokenize(src)
			key := strings.Join(toks, " ")
			if len(toks) == 0 || seen[key] {
				continue
			}
			seen[key] = true
			phrases = append(phrases, toks)
		}
		matchers = append(matchers, typeMatcher{typ: entry.Type, phrases: phrases})
	}
	return matchers
}

// parseState tracks which tokens earlier rules consumed.
type parseState struct {
	tokens []string
	used   []bool
}

// free returns the indices of tokens not yet consumed, in query order.
func (s *parseState) free() []int {
	idx := make([]int, 0, len(s.tokens))
	for i, u := range s.used {
		if !u {
			idx = append(idx, i)
		}
	}
	return idx
}

func (s *parseState) consume(idx ...int) {
	for _, i := range idx {
		s.used[i] = true
	}
}

// Parse extracts structured filters from query. It never fails: text no rule
// claims stays in FreeText.
func (e *FilterExtractor) Parse(query string) model.ParsedQuery {
	tokens := utils.Tokenize(query)
	var parsed model.ParsedQuery
	if len(tokens) == 0 {
		return parsed
	}

	st := &parseState{tokens: tokens, used: make([]bool, len(tokens))}
	for _, rule := range e.rules {
		switch rule {
		case RuleBedrooms:
			e.extractBedrooms(st, &parsed)
		case RulePropertyType:
			e.extractPropertyType(st, &parsed)
		case RulePrice:
			e.extractPrice(st, &parsed)
		case RuleLocation:
			e.extractLocation(st, &parsed)
		}
	}

	var rest []string
	for _, i := range st.free() {
		if !connectors[st.tokens[i]] {
			rest = append(rest, st.tokens[i])
		}
	}
	parsed.FreeText = strings.Join(rest, " ")
	return parsed
}

func (e *FilterExtractor) extractBedrooms(st *parseState, out *model.ParsedQuery) {
	free := st.free()
	for k, i := range free {
		tok := st.tokens[i]
		if m := bedroomToken.FindStringSubmatch(tok); m != nil {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				out.Bedrooms = &n
				st.consume(i)
				return
			}
		}
		if plainInt.MatchString(tok) && k+1 < len(free) && bedroomWords[st.tokens[free[k+1]]] {
			if n, _ := strconv.Atoi(tok); n > 0 {
				out.Bedrooms = &n
				st.consume(i, free[k+1])
				return
			}
		}
	}
}

func (e *FilterExtractor) extractPropertyType(st *parseState, out *model.ParsedQuery) {
	free := st.free()
	for _, m := range e.types {
		for _, p := range m.phrases {
			for k := range free {
				if matchPhrase(st.tokens, free[k:], p, true) {
					t := m.typ
					out.PropertyType = &t
					st.consume(free[k : k+len(p)]...)
					return
				}
			}
		}
	}
}

func (e *FilterExtractor) extractLocation(st *parseState, out *model.ParsedQuery) {
	free := st.free()
	for k, i := range free {
		for _, p := range e.vocab.locations[st.tokens[i]] {
			if matchPhrase(st.tokens, free[k:], p.tokens, false) {
				name := p.value
				out.LocationHint = &name
				st.consume(free[k : k+len(p.tokens)]...)
				return
			}
		}
	}
}

// matchPhrase reports whether phrase matches the tokens at the start of idx.
// With plural set the final word may carry an "s" or "es" suffix.
func matchPhrase(tokens []string, idx []int, phrase []string, plural bool) bool {
	if len(phrase) == 0 || len(idx) < len(phrase) {
		return false
	}
	for j, w := range phrase {
		tok := tokens[idx[j]]
		if tok == w {
			continue
		}
		if plural && j == len(phrase)-1 && (tok == w+"s" || tok == w+"es") {
			continue
		}
		return false
	}
	return true
}

// amount is a parsed numeric price expression.
type amount struct {
	value   float64
	mult    float64 // unit multiplier, 1 without a unit
	hasUnit bool
	span    []int // token indices the expression covers
}

// readAmount reads "<n>[unit]" or "<n> <unit>" at free[k].
func readAmount(tokens []string, free []int, k int) (amount, bool) {
	if k >= len(free) {
		return amount{}, false
	}
	m := amountToken.FindStringSubmatch(tokens[free[k]])
	if m == nil {
		return amount{}, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return amount{}, false
	}
	a := amount{value: n, mult: 1, span: []int{free[k]}}
	if m[2] != "" {
		mult, ok := priceUnits[m[2]]
		if !ok {
			return amount{}, false
		}
		a.value *= mult
		a.mult = mult
		a.hasUnit = true
		return a, true
	}
	if k+1 < len(free) {
		if mult, ok := priceUnits[tokens[free[k+1]]]; ok {
			a.value *= mult
			a.mult = mult
			a.hasUnit = true
			a.span = append(a.span, free[k+1])
		}
	}
	return a, true
}

// extractPrice fills MinPrice and MaxPrice. A range sets both bounds; otherwise
// qualified or unit-bearing amounts fill whichever bound is still empty, and a
// later amount for an already filled bound is consumed without overriding it.
func (e *FilterExtractor) extractPrice(st *parseState, out *model.ParsedQuery) {
	free := st.free()
	for k := 0; k < len(free); k++ {
		tok := st.tokens[free[k]]
		bothEmpty := out.MinPrice == nil && out.MaxPrice == nil

		if tok == "between" && bothEmpty {
			if lo, hi, span, ok := readRange(st.tokens, free, k+1, "and"); ok {
				out.MinPrice, out.MaxPrice = rupees(lo), rupees(hi)
				st.consume(append([]int{free[k]}, span...)...)
				k += len(span)
				continue
			}
		}

		if q, n := matchQualifier(st.tokens, free[k:], maxQualifiers); n > 0 {
			if a, ok := readAmount(st.tokens, free, k+n); ok {
				if out.MaxPrice == nil {
					out.MaxPrice = rupees(a.value)
				}
				st.consume(append(q, a.span...)...)
				k += n + len(a.span) - 1
				continue
			}
		}
		if q, n := matchQualifier(st.tokens, free[k:], minQualifiers); n > 0 {
			if a, ok := readAmount(st.tokens, free, k+n); ok {
				if out.MinPrice == nil {
					out.MinPrice = rupees(a.value)
				}
				st.consume(append(q, a.span...)...)
				k += n + len(a.span) - 1
				continue
			}
		}

		if bothEmpty {
			if lo, hi, span, ok := readRange(st.tokens, free, k, "to"); ok {
				out.MinPrice, out.MaxPrice = rupees(lo), rupees(hi)
				st.consume(span...)
				k += len(span) - 1
				continue
			}
		}

		// A bare amount only counts as a price when it carries a unit, and
		// then it is read as a budget ceiling.
		if a, ok := readAmount(st.tokens, free, k); ok && a.hasUnit {
			if out.MaxPrice == nil {
				out.MaxPrice = rupees(a.value)
			}
			st.consume(a.span...)
			k += len(a.span) - 1
		}
	}
}

// readRange reads "<a>[unit] sep <b>[unit]" starting at free[k]. A unit given
// on only one bound applies to both. At least one bound needs a unit.
func readRange(tokens []string, free []int, k int, sep string) (lo, hi float64, span []int, ok bool) {
	a, ok := readAmount(tokens, free, k)
	if !ok {
		return 0, 0, nil, false
	}
	sepAt := k + len(a.span)
	if sepAt >= len(free) || tokens[free[sepAt]] != sep {
		return 0, 0, nil, false
	}
	b, ok := readAmount(tokens, free, sepAt+1)
	if !ok || (!a.hasUnit && !b.hasUnit) {
		return 0, 0, nil, false
	}
	lo, hi = a.value, b.value
	if !a.hasUnit {
		lo *= b.mult
	}
	if !b.hasUnit {
		hi *= a.mult
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	span = append(append(append(span, a.span...), free[sepAt]), b.span...)
	return lo, hi, span, true
}

func matchQualifier(tokens []string, idx []int, quals [][]string) ([]int, int) {
	for _, q := range quals {
		if matchPhrase(tokens, idx, q, false) {
			return append([]int(nil), idx[:len(q)]...), len(q)
		}
	}
	return nil, 0
}

func rupees(v float64) *float64 {
	r := math.Round(v)
	return &r
}
