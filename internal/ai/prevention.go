package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// ErrNotConfigured is returned by the assistant when no API key is set.
var ErrNotConfigured = errors.New("ai assistant is not configured")

// preventionCount is the number of methods asked for, one per category.
const preventionCount = 4

var fallbackPrevention = []string{
	"- Apply neem oil to affected areas as an organic treatment.",
	"- Use a fungicide like chlorothalonil for chemical control.",
	"- Prune infected branches to improve cultural practices.",
	"- Ensure good air circulation around the plant.",
}

// FallbackPrevention is the advice served when the model is unreachable or
// returns something unusable.
func FallbackPrevention() string {
	return strings.Join(fallbackPrevention, "\n")
}

func preventionPrompt(disease, plant string) string {
	return fmt.Sprintf("Provide exactly 4 prevention/treatment methods for %s in %s. "+
		"Use concise bullet points starting with a hyphen (-), one for each category: "+
		"organic treatment, chemical solution, cultural practice, environmental adjustment. "+
		"Do not include headers, introductions, or extra text.", disease, plant)
}

// ParsePrevention keeps the hyphen bullets of a model answer. It returns
// false when fewer than four bullets are present.
func ParsePrevention(text string) (string, bool) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-") {
			lines = append(lines, line)
		}
	}
	if len(lines) < preventionCount {
		return "", false
	}
	return strings.Join(lines[:preventionCount], "\n"), true
}

// PreventionMethods asks the model for four prevention methods. It never
// fails: every error path yields FallbackPrevention.
func (s *Service) PreventionMethods(ctx context.Context, disease, plant string) string {
	if s == nil || s.Client == nil {
		return FallbackPrevention()
	}
	model := s.model()
	model.SetTemperature(0.5)
	model.SetMaxOutputTokens(200)

	res, err := model.GenerateContent(ctx, genai.Text(preventionPrompt(disease, plant)))
	if err != nil {
		log.Printf("WARNING: prevention advice for %q failed, using fallback: %v", disease, err)
		return FallbackPrevention()
	}

	var b strings.Builder
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			fmt.Fprintf(&b, "%v", part)
		}
		break
	}
	advice, ok := ParsePrevention(b.String())
	if !ok {
		log.Printf("WARNING: prevention advice for %q had fewer than %d methods, using fallback", disease, preventionCount)
		return FallbackPrevention()
	}
	return advice
}
