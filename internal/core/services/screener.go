package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/gapfinder-cli/internal/core/domain"
)

// compiledTerm is a gap-indicator term ready for matching folded text.
type compiledTerm struct {
	lang string
	term string
	re   *regexp.Regexp
}

// Screener flags chunks containing gap-indicator terms. Matching ignores case
// and diacritics and respects word boundaries; a trailing '*' on a term
// matches any word continuation.
type Screener struct {
	terms []compiledTerm
}

// NewScreener compiles the per-language term lists. A nil or empty map uses
// the built-in lists.
func NewScreener(keywords map[string][]string) *Screener {
	if len(keywords) == 0 {
		keywords = domain.DefaultKeywords()
	}

	langs := make([]string, 0, len(keywords))
	for lang := range keywords {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	s := &Screener{}
	for _, lang := range langs {
		for _, term := range keywords[lang] {
			if re := compileTerm(term); re != nil {
				s.terms = append(s.terms, compiledTerm{lang: lang, term: term, re: re})
			}
		}
	}
	return s
}

// Languages returns the languages with at least one term.
func (s *Screener) Languages() []string {
	seen := map[string]bool{}
	var langs []string
	for _, t := range s.terms {
		if !seen[t.lang] {
			seen[t.lang] = true
			langs = append(langs, t.lang)
		}
	}
	return langs
}

// Scan reports which terms occur in the chunk.
func (s *Screener) Scan(chunk domain.Chunk) domain.KeywordMatch {
	return s.match(foldText(chunk.Text))
}

func (s *Screener) match(folded string) domain.KeywordMatch {
	var m domain.KeywordMatch
	seenTerm := map[string]bool{}
	seenLang := map[string]bool{}
	for _, t := range s.terms {
		if !t.re.MatchString(folded) {
			continue
		}
		m.Matched = true
		if !seenTerm[t.term] {
			seenTerm[t.term] = true
			m.Terms = append(m.Terms, t.term)
		}
		if !seenLang[t.lang] {
			seenLang[t.lang] = true
			m.Languages = append(m.Languages, t.lang)
		}
	}
	return m
}

// Snippets returns up to limit sentences of text that contain a term, in
// order of appearance.
func (s *Screener) Snippets(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	var out []string
	for _, sentence := range splitSentences(text) {
		if s.match(foldText(sentence)).Matched {
			out = append(out, sentence)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// compileTerm builds a boundary-anchored pattern for a folded term.
func compileTerm(term string) *regexp.Regexp {
	term = strings.TrimSpace(term)
	prefix := strings.HasSuffix(term, "*")
	term = strings.TrimSuffix(term, "*")
	words := strings.Fields(foldText(term))
	if len(words) == 0 {
		return nil
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}

	pattern := `(?:^|[^\p{L}\p{N}])` + strings.Join(words, `\s+`)
	if prefix {
		pattern += `[\p{L}\p{N}-]*`
	}
	pattern += `(?:$|[^\p{L}\p{N}])`
	return regexp.MustCompile(pattern)
}

// foldText lowercases with Unicode case folding and strips diacritics so
// that "Limitação" and "limitacao" compare equal.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// splitSentences breaks text on sentence terminators and blank lines.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	runesIn := []rune(content)
	for i, r := range runesIn {
		if r == '\n' {
			current.WriteRune(' ')
		} else {
			current.WriteRune(r)
		}
		end := r == '!' || r == '?' || (r == '\n' && i+1 < len(runesIn) && runesIn[i+1] == '\n')
		if r == '.' && (i+1 == len(runesIn) || unicode.IsSpace(runesIn[i+1])) {
			end = true
		}
		if end {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	// Don't forget the last sentence
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
