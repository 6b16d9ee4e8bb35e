package sentiment

import (
	"context"
	"strings"

	"crypto-pulse/internal/interfaces"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/types"
)

// Label thresholds are asymmetric on purpose: bad news is costlier to miss
// than hype, so the negative cutoff sits closer to zero.
const (
	positiveThreshold = 0.2
	negativeThreshold = -0.1

	// negationWindow is how many words after a negation token a matched term
	// still has its polarity flipped.
	negationWindow = 2
)

// Scorer assigns lexicon-based sentiment to article text.
type Scorer struct {
	store interfaces.Store
}

func NewScorer(store interfaces.Store) *Scorer {
	return &Scorer{store: store}
}

// Score rates a text and returns a signed score plus its label. A positive
// term under negation counts against at full weight; a negated negative term
// counts for at half weight, since denial of bad news is weaker good news
// than actual good news. Zero matches anywhere means 0.0 / neutral.
func (s *Scorer) Score(text string) (float64, types.SentimentLabel) {
	var posTally, negTally float64
	var totalMatches int

	for _, sentence := range splitSentences(strings.ToLower(text)) {
		words, starts := indexWords(sentence)

		negPositions := make([]int, 0, 2)
		for i, w := range words {
			if _, ok := negationTokens[strings.Trim(w, ".,;:!?\"'()")]; ok {
				negPositions = append(negPositions, i)
			}
		}

		for term, weight := range positiveTerms {
			for _, wordIdx := range termOccurrences(sentence, term, starts) {
				totalMatches++
				if negatedAt(wordIdx, negPositions) {
					negTally += weight
				} else {
					posTally += weight
				}
			}
		}
		for term, weight := range negativeTerms {
			for _, wordIdx := range termOccurrences(sentence, term, starts) {
				totalMatches++
				if negatedAt(wordIdx, negPositions) {
					posTally += weight / 2
				} else {
					negTally += weight
				}
			}
		}
	}

	if totalMatches == 0 {
		return 0.0, types.SentimentNeutral
	}

	score := (posTally - negTally) / float64(totalMatches)

	switch {
	case score > positiveThreshold:
		return score, types.SentimentPositive
	case score < negativeThreshold:
		return score, types.SentimentNegative
	default:
		return score, types.SentimentNeutral
	}
}

// ProcessPending scores every article with no sentiment label yet and writes
// the result back. Individual article failures are logged and skipped; the
// rest of the batch still commits. Safe to re-run: only unlabeled rows are
// touched.
func (s *Scorer) ProcessPending(ctx context.Context) (int, error) {
	pending, err := s.store.UnscoredArticles(ctx)
	if err != nil {
		return 0, err
	}
	logger.Info(ctx, "Scoring pending articles", "count", len(pending))

	processed := 0
	for _, a := range pending {
		score, label := s.Score(a.Title + ". " + a.Body)
		if err := s.store.UpdateArticleSentiment(ctx, a.ID, score, label); err != nil {
			logger.ErrorWithErr(ctx, "Failed to store sentiment", err, "article_id", a.ID)
			continue
		}
		processed++
	}

	logger.Info(ctx, "Sentiment scoring completed", "processed", processed, "pending", len(pending))
	return processed, nil
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == ';' || r == '\n'
	})
}

// indexWords returns the words of a sentence together with each word's byte
// offset in the sentence.
func indexWords(sentence string) ([]string, []int) {
	var words []string
	var starts []int
	inWord := false
	for i, r := range sentence {
		if r == ' ' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			starts = append(starts, i)
			words = append(words, "")
			inWord = true
		}
		words[len(words)-1] += string(r)
	}
	return words, starts
}

// termOccurrences returns the word indexes where term occurs starting at a
// word boundary, so "hack" matches "hackers" but nothing mid-word.
func termOccurrences(sentence, term string, wordStarts []int) []int {
	var out []int
	from := 0
	for {
		idx := strings.Index(sentence[from:], term)
		if idx < 0 {
			return out
		}
		abs := from + idx
		for w, start := range wordStarts {
			if start == abs {
				out = append(out, w)
				break
			}
		}
		from = abs + len(term)
	}
}

func negatedAt(wordIdx int, negPositions []int) bool {
	for _, np := range negPositions {
		if d := wordIdx - np; d >= 1 && d <= negationWindow {
			return true
		}
	}
	return false
}
