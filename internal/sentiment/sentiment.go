// Package sentiment scores news coverage by keyword counting.
package sentiment

import (
	"regexp"
	"strings"

	"github.com/Metapanda-byte/FinHub1-sub003/internal/model"
)

var positiveWords = []string{
	"beat", "beats", "surge", "surges", "soar", "soars", "rally", "record",
	"upgrade", "upgraded", "outperform", "strong", "growth", "profit",
	"gain", "gains", "bullish", "raise", "raises", "exceeded", "momentum",
}

var negativeWords = []string{
	"miss", "misses", "plunge", "plunges", "fall", "falls", "drop", "drops",
	"downgrade", "downgraded", "underperform", "weak", "loss", "losses",
	"decline", "declines", "bearish", "cut", "cuts", "lawsuit", "probe",
	"warning", "recall",
}

var wordRe = regexp.MustCompile(`[a-z']+`)

// scoreText counts positive and negative keyword hits in a text.
func scoreText(text string) (pos, neg int) {
	posSet := map[string]bool{}
	for _, w := range positiveWords {
		posSet[w] = true
	}
	negSet := map[string]bool{}
	for _, w := range negativeWords {
		negSet[w] = true
	}

	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		switch {
		case posSet[w]:
			pos++
		case negSet[w]:
			neg++
		}
	}
	return pos, neg
}

func label(pos, neg int) string {
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

// Score labels each article by keyword counts over title and body and
// aggregates a score in [-1, 1].
func Score(symbol string, articles []model.NewsArticle) model.SentimentResult {
	result := model.SentimentResult{
		Symbol:   strings.ToUpper(symbol),
		Articles: make([]model.NewsArticle, 0, len(articles)),
	}

	var totalPos, totalNeg int
	for _, a := range articles {
		pos, neg := scoreText(a.Title + " " + a.Text)
		a.Sentiment = label(pos, neg)
		switch a.Sentiment {
		case "positive":
			result.Positive++
		case "negative":
			result.Negative++
		default:
			result.Neutral++
		}
		totalPos += pos
		totalNeg += neg
		result.Articles = append(result.Articles, a)
	}

	if totalPos+totalNeg > 0 {
		result.Score = float64(totalPos-totalNeg) / float64(totalPos+totalNeg)
	}
	result.Label = label(totalPos, totalNeg)
	return result
}
