package prompts

import (
	"regexp"

	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
)

// sensitiveTopics matches subjects where generated people are inappropriate:
// children and patients or anyone receiving care.
var sensitiveTopics = regexp.MustCompile(`(?i)\b(child|children|kid|kids|baby|babies|toddler|infant|pediatric|paediatric|daycare|nursery|preschool|school|student|teen|minor|patient|patients|hospital|clinic|hospice|nursing|elderly|senior care|home care|caregiver|therapy|rehab|mental health)\b`)

// IsSensitive reports whether any of the texts touches a sensitive topic
func IsSensitive(texts ...string) bool {
	for _, t := range texts {
		if sensitiveTopics.MatchString(t) {
			return true
		}
	}
	return false
}

// ImageSafetyDirective returns the instruction that governs the image
// prompt. Sensitive topics always force object or room imagery.
func ImageSafetyDirective(style llm.VisualStyle, sensitive bool) string {
	if sensitive {
		return "IMAGE SAFETY: This topic involves children, patients or people receiving care. " +
			"The image prompt must describe a ROOM or OBJECT photo only. NO PEOPLE."
	}
	directive, ok := styleDirectives[style]
	if !ok {
		directive = styleDirectives[llm.StyleCommercial]
	}
	return "IMAGE STYLE: " + directive + " Never include text, logos or signage in the image."
}
