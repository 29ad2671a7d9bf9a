package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"google.golang.org/genai"
)

var ErrEmptyTranslation = goerr.New("provider returned no text")

// Translator turns one text into the target language
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// systemPrompt instructs the provider to output the translation only
func systemPrompt(tag language.Tag) string {
	name := display.English.Tags().Name(tag)
	return fmt.Sprintf("You translate benchmark data into %s (%s). "+
		"Translate the user's text faithfully. Keep names, numbers and formatting. "+
		"Reply with the translation only, without quotes or notes.", name, tag.String())
}

type geminiTranslator struct {
	client adapter.Gemini
	config *genai.GenerateContentConfig
}

// NewGeminiTranslator translates with a Gemini model
func NewGeminiTranslator(client adapter.Gemini, tag language.Tag) Translator {
	return &geminiTranslator{
		client: client,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt(tag), genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
		},
	}
}

func (g *geminiTranslator) Translate(ctx context.Context, text string) (string, error) {
	resp, err := g.client.GenerateContent(ctx, []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, g.config)
	if err != nil {
		return "", err
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", goerr.Wrap(ErrEmptyTranslation, "empty Gemini response")
	}
	return out, nil
}

type claudeTranslator struct {
	client adapter.Claude
	system string
}

// NewClaudeTranslator translates with a Claude model
func NewClaudeTranslator(client adapter.Claude, tag language.Tag) Translator {
	return &claudeTranslator{client: client, system: systemPrompt(tag)}
}

func (c *claudeTranslator) Translate(ctx context.Context, text string) (string, error) {
	msg, err := c.client.Chat(ctx, c.system, []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", goerr.Wrap(ErrEmptyTranslation, "empty Claude response", goerr.V("stop_reason", msg.StopReason))
	}
	return out, nil
}
