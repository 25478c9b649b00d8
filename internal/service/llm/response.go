package llm

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

// Field names used in ParsedPost.Degraded
const (
	FieldHeadline    = "headline"
	FieldBody        = "body"
	FieldImagePrompt = "image_prompt"
)

// Diagnostic placeholders for fields that could not be recovered
const (
	PlaceholderHeadline    = "Error Parsing"
	PlaceholderBody        = "Error Parsing: no BODY section in model response"
	PlaceholderEmptyBody   = "Error Parsing: empty model response"
	PlaceholderImagePrompt = "Error"
)

// SkipSentinel in the image directive means no image is wanted
const SkipSentinel = "SKIP"

// lineLabelRegex finds HEADLINE:, BODY: and IMAGE_PROMPT: at the start of a
// line, in any case, with optional markdown heading or emphasis around the label.
var lineLabelRegex = regexp.MustCompile(`(?im)^[ \t]*(?:#{1,6}[ \t]*)?[*_]{0,3}[ \t]*(headline|body|image[_ ]prompt)[ \t]*[*_]{0,3}[ \t]*:[ \t]*[*_]{0,3}`)

// inlineLabelRegex only matches the exact uppercase labels, anywhere in the text.
// Used when the model put several labels on one line.
var inlineLabelRegex = regexp.MustCompile(`\b(HEADLINE|BODY|IMAGE_PROMPT)[ \t]*:[ \t]*`)

var codeFenceRegex = regexp.MustCompile("(?s)^```(?:json)?\\s*(.+?)\\s*```$")

type labelMatch struct {
	field      string
	start, end int
}

// ParseResponse extracts the post fields from raw. It never fails: fields
// that cannot be recovered get a placeholder and are listed in Degraded.
func ParseResponse(raw *RawResponse) ParsedPost {
	if raw == nil || strings.TrimSpace(raw.Text) == "" {
		return finalize(ParsedPost{
			Headline:    PlaceholderHeadline,
			Body:        PlaceholderEmptyBody,
			ImagePrompt: PlaceholderImagePrompt,
			Degraded:    []string{FieldHeadline, FieldBody, FieldImagePrompt},
		})
	}

	if raw.Structured {
		if post, ok := parseStructured(raw.Text); ok {
			return finalize(post)
		}
	}
	return finalize(parseLabels(raw.Text))
}

type structuredPost struct {
	Headline    *string `json:"headline"`
	Body        *string `json:"body"`
	ImagePrompt *string `json:"image_prompt"`
}

func parseStructured(text string) (ParsedPost, bool) {
	text = strings.TrimSpace(text)
	if m := codeFenceRegex.FindStringSubmatch(text); len(m) > 1 {
		text = m[1]
	}

	var sp structuredPost
	if err := json.Unmarshal([]byte(text), &sp); err != nil {
		return ParsedPost{}, false
	}
	if sp.Headline == nil && sp.Body == nil && sp.ImagePrompt == nil {
		return ParsedPost{}, false
	}

	var post ParsedPost
	post.Headline = fieldOrPlaceholder(&post, FieldHeadline, sp.Headline, PlaceholderHeadline)
	post.Body = fieldOrPlaceholder(&post, FieldBody, sp.Body, PlaceholderBody)
	post.ImagePrompt = fieldOrPlaceholder(&post, FieldImagePrompt, sp.ImagePrompt, PlaceholderImagePrompt)
	return post, true
}

func fieldOrPlaceholder(post *ParsedPost, field string, value *string, placeholder string) string {
	if value != nil {
		if v := strings.TrimSpace(*value); v != "" {
			return v
		}
	}
	post.Degraded = append(post.Degraded, field)
	return placeholder
}

func parseLabels(text string) ParsedPost {
	matches := findLabels(text)

	if len(matches) == 0 {
		// Nothing recognizable: keep the whole text as the body so the
		// operator still sees what the model said.
		return ParsedPost{
			Headline:    PlaceholderHeadline,
			Body:        strings.TrimSpace(text),
			ImagePrompt: PlaceholderImagePrompt,
			Degraded:    []string{FieldHeadline, FieldBody, FieldImagePrompt},
		}
	}

	values := make(map[string]string, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1].start
		}
		values[m.field] = strings.TrimSpace(text[m.end:end])
	}

	var post ParsedPost
	post.Headline = valueOrPlaceholder(&post, values, FieldHeadline, PlaceholderHeadline)
	post.Body = valueOrPlaceholder(&post, values, FieldBody, PlaceholderBody)
	post.ImagePrompt = valueOrPlaceholder(&post, values, FieldImagePrompt, PlaceholderImagePrompt)
	return post
}

func valueOrPlaceholder(post *ParsedPost, values map[string]string, field, placeholder string) string {
	if v, ok := values[field]; ok && v != "" {
		return v
	}
	post.Degraded = append(post.Degraded, field)
	return placeholder
}

// findLabels returns the first occurrence of each label, ordered by position.
// Line-start labels win unless the exact uppercase labels recover more fields.
func findLabels(text string) []labelMatch {
	matches := matchLabels(lineLabelRegex, text)
	if len(matches) < 3 {
		if inline := matchLabels(inlineLabelRegex, text); len(inline) > len(matches) {
			return inline
		}
	}
	return matches
}

func matchLabels(re *regexp.Regexp, text string) []labelMatch {
	seen := make(map[string]bool, 3)
	var matches []labelMatch

	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		field := normalizeLabel(text[loc[2]:loc[3]])
		if seen[field] {
			continue
		}
		seen[field] = true
		matches = append(matches, labelMatch{field: field, start: loc[0], end: loc[1]})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })
	return matches
}

func normalizeLabel(label string) string {
	switch strings.ToLower(label) {
	case "headline":
		return FieldHeadline
	case "body":
		return FieldBody
	default:
		return FieldImagePrompt
	}
}

func finalize(post ParsedPost) ParsedPost {
	// Trailing emphasis markers left over from "**SKIP**" style output
	post.ImagePrompt = strings.TrimSpace(strings.Trim(post.ImagePrompt, "*_"))
	if post.ImagePrompt == "" {
		post.ImagePrompt = PlaceholderImagePrompt
		if !post.IsDegraded(FieldImagePrompt) {
			post.Degraded = append(post.Degraded, FieldImagePrompt)
		}
	}
	post.SkipImage = strings.Contains(post.ImagePrompt, SkipSentinel) || post.IsDegraded(FieldImagePrompt)
	return post
}
