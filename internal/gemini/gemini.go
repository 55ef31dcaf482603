package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/productlister/lister/internal/providers"
	"google.golang.org/api/option"
)

// Gemini is a provider for Google Gemini
type Gemini struct {
	apiKey string
}

// New returns a new Gemini provider using apiKey
func New(apiKey string) *Gemini {
	return &Gemini{apiKey: apiKey}
}

func (g *Gemini) client(ctx context.Context) (*genai.Client, error) {
	if g.apiKey == "" {
		return nil, errors.New("gemini API key is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	return client, nil
}

// GenerateContent issues a single stateless request
func (g *Gemini) GenerateContent(ctx context.Context, req providers.Request) (*providers.Response, error) {
	client, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	model := client.GenerativeModel(req.Model)
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}

	resp, err := model.GenerateContent(ctx, toGenai(req.Parts)...)
	if err != nil {
		return nil, err
	}
	return fromGenai(resp), nil
}

// StartChat opens a conversation. The underlying client lives until Close.
func (g *Gemini) StartChat(ctx context.Context, modelName string) (providers.Chat, error) {
	client, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	model := client.GenerativeModel(modelName)
	return &chat{client: client, session: model.StartChat()}, nil
}

type chat struct {
	client  *genai.Client
	session *genai.ChatSession
}

func (c *chat) SendMessage(ctx context.Context, parts ...providers.Part) (*providers.Response, error) {
	resp, err := c.session.SendMessage(ctx, toGenai(parts)...)
	if err != nil {
		return nil, err
	}
	return fromGenai(resp), nil
}

func (c *chat) Close() error {
	return c.client.Close()
}

func toGenai(parts []providers.Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsImage() {
			out = append(out, genai.Blob{MIMEType: p.MIMEType, Data: p.Data})
			continue
		}
		out = append(out, genai.Text(p.Text))
	}
	return out
}

func fromGenai(resp *genai.GenerateContentResponse) *providers.Response {
	out := &providers.Response{}
	if resp == nil {
		return out
	}
	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		var c providers.Candidate
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				switch v := part.(type) {
				case genai.Text:
					c.Parts = append(c.Parts, providers.TextPart(string(v)))
				case genai.Blob:
					c.Parts = append(c.Parts, providers.ImagePart(v.MIMEType, v.Data))
				}
			}
		}
		out.Candidates = append(out.Candidates, c)
	}
	return out
}
