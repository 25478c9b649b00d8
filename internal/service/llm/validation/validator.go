package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm/prompts"
)

const (
	// MaxHeadlineLength is the longest headline that fits a profile post card
	MaxHeadlineLength = 90

	// maxAvgWordLength approximates a Grade 8 reading level
	maxAvgWordLength = 7.0
)

// ContentValidator checks generated copy against the request's guidelines.
// Findings are warnings only; copy is never rejected.
type ContentValidator struct {
	banned []*regexp.Regexp
}

// ValidationResult contains the results of content validation
type ValidationResult struct {
	KeywordPresent bool     `json:"keyword_present"`
	Warnings       []string `json:"warnings,omitempty"`
}

// NewContentValidator creates a new content validator
func NewContentValidator() *ContentValidator {
	v := &ContentValidator{}
	for _, w := range prompts.BannedWords {
		v.banned = append(v.banned, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return v
}

// Validate inspects a parsed post. Degraded fields are not checked.
func (v *ContentValidator) Validate(req llm.GenerationRequest, post llm.ParsedPost) ValidationResult {
	result := ValidationResult{KeywordPresent: true}

	if post.IsDegraded(llm.FieldBody) {
		return result
	}

	if req.Keyword != "" && !strings.Contains(strings.ToLower(post.Body), strings.ToLower(strings.TrimSpace(req.Keyword))) {
		result.KeywordPresent = false
		result.Warnings = append(result.Warnings, fmt.Sprintf("Keyword %q does not appear in the body", req.Keyword))
	}

	text := post.Body
	if !post.IsDegraded(llm.FieldHeadline) {
		text = post.Headline + " " + post.Body
		if n := utf8.RuneCountInString(post.Headline); n > MaxHeadlineLength {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Headline is %d characters long", n))
		}
	}

	for i, re := range v.banned {
		if re.MatchString(text) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Copy uses the banned word %q", prompts.BannedWords[i]))
		}
	}

	if avg := avgWordLength(post.Body); avg > maxAvgWordLength {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Body may be difficult to read (avg word length: %.1f)", avg))
	}

	return result
}

func avgWordLength(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	total := 0
	for _, word := range words {
		total += utf8.RuneCountInString(word)
	}
	return float64(total) / float64(len(words))
}
