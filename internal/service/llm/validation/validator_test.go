package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
)

func TestValidateCleanPost(t *testing.T) {
	v := NewContentValidator()
	result := v.Validate(
		llm.GenerationRequest{Keyword: "Austin dentist"},
		llm.ParsedPost{Headline: "Free Whitening This Month", Body: "Looking for an Austin dentist? We have open slots this week."},
	)

	assert.True(t, result.KeywordPresent)
	assert.Empty(t, result.Warnings)
}

func TestValidateFindings(t *testing.T) {
	v := NewContentValidator()
	result := v.Validate(
		llm.GenerationRequest{Keyword: "Austin dentist"},
		llm.ParsedPost{
			Headline: strings.Repeat("Long ", 20),
			Body:     "Elevate your smile with our seamless care.",
		},
	)

	assert.False(t, result.KeywordPresent)
	assert.Len(t, result.Warnings, 4)
	assert.Contains(t, strings.Join(result.Warnings, "\n"), `"Elevate"`)
	assert.Contains(t, strings.Join(result.Warnings, "\n"), `"Seamless"`)
}

func TestValidateSkipsDegradedBody(t *testing.T) {
	result := NewContentValidator().Validate(
		llm.GenerationRequest{Keyword: "bakery"},
		llm.ParsedPost{Body: llm.PlaceholderBody, Degraded: []string{llm.FieldBody}},
	)

	assert.True(t, result.KeywordPresent)
	assert.Empty(t, result.Warnings)
}

func TestValidateReadability(t *testing.T) {
	result := NewContentValidator().Validate(
		llm.GenerationRequest{},
		llm.ParsedPost{Headline: "H", Body: "Comprehensive multidisciplinary orthodontic rehabilitation"},
	)

	assert.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "difficult to read")
}
