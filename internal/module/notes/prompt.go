package notes

import "fmt"

// ContentType selects the output format of a generation.
type ContentType string

const (
	ContentTypeShowNotes ContentType = "show-notes"
	ContentTypeSocial    ContentType = "social"
)

// DefaultTone is used when the request does not specify one.
const DefaultTone = "casual"

// Valid reports whether the content type is one we can generate.
func (c ContentType) Valid() bool {
	return c == ContentTypeShowNotes || c == ContentTypeSocial
}

const showNotesSystemPrompt = `You are an expert podcast show notes writer. Create comprehensive, well-structured show notes that would be valuable for listeners and content creators. Use a %s tone throughout.

Structure your response with:
1. Episode Summary (2-3 sentences)
2. Key Topics Discussed (bullet points)
3. Main Takeaways (numbered list)
4. Timestamps (if applicable)
5. Resources Mentioned (if any)
6. Quote Highlights (1-2 memorable quotes)

Make it engaging, scannable, and valuable for the audience.`

const socialSystemPrompt = `You are a social media content creator. Create engaging social media content based on the podcast transcript. Use a %s tone.

Create:
1. 3 Twitter/X posts (280 characters max each)
2. 1 LinkedIn post
3. 1 Instagram caption with hashtags
4. 3 key quotes for social sharing

Make it engaging and shareable.`

// Prompt is a system/user message pair for the chat completion API.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt assembles the prompt for a content type and tone.
func BuildPrompt(contentType ContentType, tone, transcript string) (Prompt, error) {
	if tone == "" {
		tone = DefaultTone
	}
	switch contentType {
	case ContentTypeShowNotes:
		return Prompt{
			System: fmt.Sprintf(showNotesSystemPrompt, tone),
			User:   "Create show notes for this podcast transcript:\n\n" + transcript,
		}, nil
	case ContentTypeSocial:
		return Prompt{
			System: fmt.Sprintf(socialSystemPrompt, tone),
			User:   "Create social media content for this podcast transcript:\n\n" + transcript,
		}, nil
	default:
		return Prompt{}, fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}
}
