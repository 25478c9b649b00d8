package llm

import (
	"errors"
	"fmt"
	"strings"
)

// PostType selects the task the copy is written for
type PostType string

const (
	PostGeneric PostType = "generic"
	PostReview  PostType = "review"
	PostFAQ     PostType = "faq"
)

// Vibe selects the tone preset
type Vibe string

const (
	VibeFriendly Vibe = "friendly"
	VibeLuxury   Vibe = "luxury"
	VibeUrgent   Vibe = "urgent"
)

// VisualStyle selects the image direction preset
type VisualStyle string

const (
	StyleCommercial VisualStyle = "commercial"
	StyleUGC        VisualStyle = "ugc"
	StyleEmptyRoom  VisualStyle = "empty_room"
)

// DefaultModel is used when a request names no model
const DefaultModel = "gemini-2.5-flash"

// DefaultTemperature matches the creativity slider's starting position
const DefaultTemperature float32 = 0.2

// ErrInvalidOption is returned for unknown preset names
var ErrInvalidOption = errors.New("invalid option")

// ModelOption is one entry of the model menu
type ModelOption struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Default  bool   `json:"default,omitempty"`
}

// ModelMenu is the fixed list of models offered to operators.
// Any other identifier is still accepted and routed by prefix.
var ModelMenu = []ModelOption{
	{ID: "gemini-2.5-flash", Provider: "gemini", Default: true},
	{ID: "gemini-2.5-pro", Provider: "gemini"},
	{ID: "gemini-1.5-flash-001", Provider: "gemini"},
	{ID: "gpt-4o-mini", Provider: "openai"},
}

var (
	PostTypes    = []PostType{PostGeneric, PostReview, PostFAQ}
	Vibes        = []Vibe{VibeFriendly, VibeLuxury, VibeUrgent}
	VisualStyles = []VisualStyle{StyleCommercial, StyleUGC, StyleEmptyRoom}
)

// ParsePostType parses a post type name. Empty selects PostGeneric.
func ParsePostType(s string) (PostType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PostGeneric, nil
	}
	for _, t := range PostTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: post type %q", ErrInvalidOption, s)
}

// ParseVibe parses a tone name. Empty selects VibeFriendly.
func ParseVibe(s string) (Vibe, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return VibeFriendly, nil
	}
	for _, v := range Vibes {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: vibe %q", ErrInvalidOption, s)
}

// ParseVisualStyle parses a visual style name. Empty selects StyleCommercial.
func ParseVisualStyle(s string) (VisualStyle, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	if s == "" {
		return StyleCommercial, nil
	}
	for _, v := range VisualStyles {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: visual style %q", ErrInvalidOption, s)
}

// GenerationRequest holds the operator's parameters for one post.
// It is built once per request and passed by value.
type GenerationRequest struct {
	Keyword     string      `json:"keyword,omitempty"`
	Focus       string      `json:"focus,omitempty"`
	PostType    PostType    `json:"post_type"`
	Vibe        Vibe        `json:"vibe"`
	VisualStyle VisualStyle `json:"visual_style"`
	Model       string      `json:"model"`
	Temperature float32     `json:"temperature"`
}

// Normalized returns a copy with defaults filled in and the temperature
// clamped to [0, 1].
func (r GenerationRequest) Normalized() GenerationRequest {
	r.Keyword = strings.TrimSpace(r.Keyword)
	r.Focus = strings.TrimSpace(r.Focus)
	r.Model = strings.TrimSpace(r.Model)
	if r.PostType == "" {
		r.PostType = PostGeneric
	}
	if r.Vibe == "" {
		r.Vibe = VibeFriendly
	}
	if r.VisualStyle == "" {
		r.VisualStyle = StyleCommercial
	}
	if r.Model == "" {
		r.Model = DefaultModel
	}
	r.Temperature = ClampTemperature(r.Temperature)
	return r
}

// ClampTemperature bounds t to [0, 1]
func ClampTemperature(t float32) float32 {
	switch {
	case t < 0:
		return 0
	case t > 1:
		return 1
	default:
		return t
	}
}

// CompletionRequest is what a provider receives
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float32
	// Structured asks for a JSON object with headline, body and image_prompt
	Structured bool
}

// RawResponse is the unmodified text returned by a provider
type RawResponse struct {
	Text       string `json:"text"`
	Structured bool   `json:"structured"`
	Model      string `json:"model"`
	Provider   string `json:"provider"`
}

// ParsedPost is the headline/body/image directive triple extracted from a RawResponse
type ParsedPost struct {
	Headline    string   `json:"headline"`
	Body        string   `json:"body"`
	ImagePrompt string   `json:"image_prompt"`
	SkipImage   bool     `json:"skip_image"`
	Degraded    []string `json:"degraded_fields,omitempty"`
}

// IsDegraded reports whether field carries a diagnostic placeholder
func (p ParsedPost) IsDegraded(field string) bool {
	for _, f := range p.Degraded {
		if f == field {
			return true
		}
	}
	return false
}
