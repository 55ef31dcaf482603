package providers

import (
	"context"
)

// Part is one piece of a request or response: text, or inline binary data
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// IsImage reports whether the part carries inline image data
func (p Part) IsImage() bool {
	return len(p.Data) > 0
}

// TextPart builds a text part
func TextPart(s string) Part {
	return Part{Text: s}
}

// ImagePart builds an inline image part
func ImagePart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// Candidate is one alternative answer from the model
type Candidate struct {
	Parts []Part
}

// Response holds the candidates returned for a request
type Response struct {
	Candidates []Candidate
}

// Request selects a model and carries the input parts
type Request struct {
	Model       string
	Parts       []Part
	Temperature *float32
}

// Chat is a provider-side multi-turn conversation
type Chat interface {
	SendMessage(ctx context.Context, parts ...Part) (*Response, error)
	Close() error
}

// Provider defines the interface for a generative model provider
type Provider interface {
	GenerateContent(ctx context.Context, req Request) (*Response, error)
	StartChat(ctx context.Context, model string) (Chat, error)
}
