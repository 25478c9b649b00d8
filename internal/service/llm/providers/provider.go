package providers

import (
	"regexp"
	"strings"

	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
)

var (
	_ llm.Provider = (*GeminiProvider)(nil)
	_ llm.Provider = (*OpenAIProvider)(nil)
)

var openAIModelPattern = regexp.MustCompile(`^(gpt-|chatgpt-|o\d)`)

// IsGeminiModel reports whether model is routed to Gemini
func IsGeminiModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), "gemini")
}

// IsOpenAIModel reports whether model is routed to OpenAI
func IsOpenAIModel(model string) bool {
	return openAIModelPattern.MatchString(strings.ToLower(model))
}
