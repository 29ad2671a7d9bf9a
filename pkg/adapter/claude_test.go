package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/m-mizutani/gt"
	"github.com/yenchangchen131/BEARS-dataset/pkg/adapter"
)

func TestClaudeChat(t *testing.T) {
	apiKey := os.Getenv("TEST_CLAUDE_API_KEY")
	if apiKey == "" {
		t.Skip("TEST_CLAUDE_API_KEY is not set")
	}

	client := adapter.NewClaude(apiKey, adapter.WithMaxTokens(256))
	msg, err := client.Chat(context.Background(), "Reply with the translation only.", []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock("Translate into Traditional Chinese: good morning")),
	})
	gt.NoError(t, err)
	gt.A(t, msg.Content).Longer(0)

	t.Log("response:", msg.Content[0].Text)
}
