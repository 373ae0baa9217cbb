package assessment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"caregate/internal/domain"
	"caregate/internal/scoring"
)

// screeningCacheKey hashes the normalized screening input. Answers are
// sorted by question id and values fixed to two decimals so semantically
// identical submissions share a key.
func screeningCacheKey(reqCtx domain.RequestContext, answers []scoring.Answer) string {
	normalized := make([]string, 0, len(answers))
	for _, a := range answers {
		if math.IsNaN(a.Value) {
			normalized = append(normalized, a.QuestionID+"=?")
			continue
		}
		normalized = append(normalized, fmt.Sprintf("%s=%.2f", a.QuestionID, a.Value))
	}
	sort.Strings(normalized)

	return inputHash(string(domain.KindScreening), reqCtx.PatientRef, strings.Join(normalized, ";"))
}

// noteCacheKey hashes the normalized clinical note.
func noteCacheKey(reqCtx domain.RequestContext, noteText string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(noteText)), " ")
	return inputHash(string(domain.KindClinicalNote), reqCtx.PatientRef, normalized)
}

func inputHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// screeningQuery derives the guideline search text from the elevated
// answers, in sorted question order for reproducible retrieval.
func screeningQuery(answers []scoring.Answer) string {
	elevated := make([]string, 0, len(answers))
	for _, a := range answers {
		if !math.IsNaN(a.Value) && a.Value >= 50 {
			elevated = append(elevated, a.QuestionID)
		}
	}
	sort.Strings(elevated)
	if len(elevated) == 0 {
		return "routine developmental screening follow-up"
	}
	return "screening concerns " + strings.Join(elevated, " ")
}
