package prompts

import (
	"fmt"
	"strings"

	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
)

// Generator creates prompts for LLM services
type Generator struct{}

// NewGenerator creates a new prompt generator
func NewGenerator() *Generator {
	return &Generator{}
}

// PostPrompt builds the single instruction for one post
func (g *Generator) PostPrompt(source string, req llm.GenerationRequest, structured bool) string {
	req = req.Normalized()
	var sb strings.Builder

	sb.WriteString("You are a copywriter for local business profile posts.\n\n")

	sb.WriteString("SOURCE TEXT FROM THE BUSINESS WEBSITE:\n")
	sb.WriteString(source)
	sb.WriteString("\n\n")

	if req.Focus != "" {
		sb.WriteString(fmt.Sprintf("FOCUS / OFFER: %s\n\n", req.Focus))
	}

	sb.WriteString(taskDirective(req.PostType))
	sb.WriteString("\n")
	sb.WriteString(toneDirective(req.Vibe))
	sb.WriteString("\n\n")

	sb.WriteString("GUIDELINES: Grade 8 English. Factual, only claims supported by the source text. ")
	sb.WriteString(fmt.Sprintf("No fluff. Never use these words: %s.", strings.Join(BannedWords, ", ")))
	if req.Keyword != "" {
		sb.WriteString(fmt.Sprintf(" The exact phrase %q MUST appear literally in the body.", req.Keyword))
	}
	sb.WriteString("\n\n")

	sb.WriteString(ImageSafetyDirective(req.VisualStyle, IsSensitive(req.Focus, req.Keyword, source)))
	sb.WriteString("\n\n")

	if structured {
		sb.WriteString("OUTPUT: Return a JSON object with the keys \"headline\", \"body\" and \"image_prompt\". ")
		sb.WriteString("headline is one short line, body is one paragraph, image_prompt describes a single photo or is exactly \"SKIP\".")
		return sb.String()
	}

	sb.WriteString("OUTPUT FORMAT (use these labels exactly, nothing else):\n")
	sb.WriteString("HEADLINE: [one short line]\n")
	sb.WriteString("BODY: [one paragraph]\n")
	sb.WriteString("IMAGE_PROMPT: [a single photo description, or SKIP]")

	return sb.String()
}

func taskDirective(t llm.PostType) string {
	if d, ok := taskDirectives[t]; ok {
		return d
	}
	return taskDirectives[llm.PostGeneric]
}

func toneDirective(v llm.Vibe) string {
	if d, ok := toneDirectives[v]; ok {
		return d
	}
	return toneDirectives[llm.VibeFriendly]
}
