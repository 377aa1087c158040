package news

import (
	"math"
	"sort"
	"strings"

	"market-event-monitor/internal/types"
)

// Analyzer scores article text: bag-of-words sentiment, heuristic entity
// tagging, and keyword-based event classification. All state is fixed at
// construction; methods are pure and safe for concurrent use.
type Analyzer struct {
	positive    []string
	negative    []string
	maxEntities int
}

// AnalyzerConfig overrides the built-in vocabularies.
type AnalyzerConfig struct {
	PositiveWords []string
	NegativeWords []string
	MaxEntities   int
}

const defaultMaxEntities = 20

func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	a := &Analyzer{
		positive:    cfg.PositiveWords,
		negative:    cfg.NegativeWords,
		maxEntities: cfg.MaxEntities,
	}
	if a.positive == nil {
		a.positive = defaultPositiveWords
	}
	if a.negative == nil {
		a.negative = defaultNegativeWords
	}
	if a.maxEntities <= 0 {
		a.maxEntities = defaultMaxEntities
	}
	return a
}

// AnalyzeArticle runs sentiment, entity tagging, and event classification
// over the article's title and body.
func (a *Analyzer) AnalyzeArticle(article types.Article) types.ArticleAnalysis {
	text := article.Title + " " + article.Body
	candidateType, confidence := a.Classify(text)
	return types.ArticleAnalysis{
		Article:             article,
		Sentiment:           a.Sentiment(text),
		Entities:            a.Entities(text),
		CandidateType:       candidateType,
		CandidateConfidence: confidence,
	}
}

type vocabHit struct {
	term  string
	first int
}

// Sentiment computes the polarity score (pos-neg)/total over the configured
// vocabularies. Texts matching neither vocabulary score 0 with a 0.3
// confidence floor.
func (a *Analyzer) Sentiment(text string) types.SentimentResult {
	lower := strings.ToLower(text)

	pos, posHits := countVocab(lower, a.positive)
	neg, negHits := countVocab(lower, a.negative)
	total := pos + neg
	if total == 0 {
		return types.SentimentResult{Score: 0.0, Confidence: 0.3}
	}

	return types.SentimentResult{
		Score:       float64(pos-neg) / float64(total),
		Confidence:  math.Min(float64(total)/10.0, 1.0),
		TopKeywords: topKeywords(posHits, negHits),
	}
}

// countVocab counts non-overlapping occurrences of every vocabulary term
// and records each matched term with its first position in the text.
func countVocab(lower string, vocab []string) (int, []vocabHit) {
	total := 0
	var hits []vocabHit
	for _, term := range vocab {
		if term == "" {
			continue
		}
		n := strings.Count(lower, term)
		if n == 0 {
			continue
		}
		total += n
		hits = append(hits, vocabHit{term: term, first: strings.Index(lower, term)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].first < hits[j].first })
	return total, hits
}

// topKeywords merges the positive pass then the negative pass, deduplicated,
// capped at 10.
func topKeywords(posHits, negHits []vocabHit) []string {
	seen := make(map[string]bool)
	var out []string
	for _, hits := range [][]vocabHit{posHits, negHits} {
		for _, h := range hits {
			if seen[h.term] {
				continue
			}
			seen[h.term] = true
			out = append(out, h.term)
			if len(out) == 10 {
				return out
			}
		}
	}
	return out
}

// Classify picks the corporate event type whose keyword list has the most
// distinct matches in the text. Confidence is 0.5 + matches/10, capped at
// 1.0; ties keep the earlier enumeration member. No matches at all yields
// Unknown at 0.5.
func (a *Analyzer) Classify(text string) (types.EventType, float64) {
	lower := strings.ToLower(text)

	best := types.Unknown
	bestMatches := 0
	for _, entry := range eventKeywords {
		matches := 0
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		if matches > bestMatches {
			best = entry.Type
			bestMatches = matches
		}
	}
	if bestMatches == 0 {
		return types.Unknown, 0.5
	}
	return best, math.Min(0.5+float64(bestMatches)/10.0, 1.0)
}

// Entities tags tokens in text order: PERSON after an honorific, ORG by
// corporate suffix, LOCATION after a locative preposition when the token is
// capitalized and at least three characters. Output is capped at the
// configured maximum.
func (a *Analyzer) Entities(text string) []types.Entity {
	tokens := tokenize(text)

	var out []types.Entity
	prev := ""
	for _, tok := range tokens {
		if len(out) >= a.maxEntities {
			break
		}
		switch {
		case honorifics[strings.ToLower(prev)]:
			out = append(out, types.Entity{Text: tok, Kind: types.EntityPerson})
		case hasCorpSuffix(tok):
			out = append(out, types.Entity{Text: tok, Kind: types.EntityOrg})
		case locativePrepositions[strings.ToLower(prev)] && len(tok) >= 3 && isUpper(tok[0]):
			out = append(out, types.Entity{Text: tok, Kind: types.EntityLocation})
		}
		prev = tok
	}
	return out
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
}

// hasCorpSuffix anchors the match at the end of the token so short suffixes
// like "Co" do not fire on ordinary capitalized words ("Court", "Committee").
func hasCorpSuffix(tok string) bool {
	for _, s := range corpSuffixes {
		if strings.HasSuffix(tok, s) {
			return true
		}
	}
	return false
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
