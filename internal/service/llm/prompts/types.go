package prompts

import "github.com/chynybekuuludastan/post_factory/internal/service/llm"

// toneDirectives map each vibe to its tone instruction
var toneDirectives = map[llm.Vibe]string{
	llm.VibeFriendly: "TONE: Friendly and warm. Talk like a helpful neighbor. Short sentences, plain words.",
	llm.VibeLuxury:   "TONE: Luxury and polished. Calm, confident and refined. No exclamation marks.",
	llm.VibeUrgent:   "TONE: Urgent and direct. Lead with the offer and give a clear reason to act now.",
}

// taskDirectives map each post type to its task instruction
var taskDirectives = map[llm.PostType]string{
	llm.PostGeneric: "TASK: Write a business profile post that highlights one concrete service, product or offer from the source text.",
	llm.PostReview: "TASK: Write a short post thanking customers for their reviews and acknowledging what they value about the business. " +
		"If no image would fit a review acknowledgement, answer IMAGE_PROMPT with exactly SKIP.",
	llm.PostFAQ: "TASK: Pick one question a customer would realistically ask about this business and answer it clearly using only facts from the source text. " +
		"Use the question as the headline. If no image would fit the answer, answer IMAGE_PROMPT with exactly SKIP.",
}

// styleDirectives map each visual style to its image direction
var styleDirectives = map[llm.VisualStyle]string{
	llm.StyleCommercial: "Commercial lifestyle photo: well lit, adults using or enjoying the service, modern setting.",
	llm.StyleUGC:        "Authentic UGC style: candid phone photo taken by a real customer, natural light, unstaged.",
	llm.StyleEmptyRoom:  "Empty room or object photo: the space, tools or product only. NO PEOPLE.",
}

// BannedWords are marketing cliches the copy must avoid
var BannedWords = []string{
	"Unleash", "Elevate", "Transform", "Delve", "Game-changer", "Seamless",
	"Revolutionize", "Unlock", "Embark", "Journey", "Cutting-edge", "Synergy",
}
