package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	ollama "github.com/ollama/ollama/api"
)

// ollamaChatModel adapts a local Ollama server to eino's chat model
// interface.
type ollamaChatModel struct {
	client      *ollama.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOllamaChatModel connects to the server named by OLLAMA_HOST, or the
// default local address.
func NewOllamaChatModel(modelName string, maxTokens int, temperature float32) (model.BaseChatModel, error) {
	client, err := ollama.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("could not create ollama client: %w", err)
	}
	return &ollamaChatModel{
		client:      client,
		model:       strings.TrimPrefix(modelName, "ollama:"),
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

func (m *ollamaChatModel) request(input []*schema.Message, stream bool, opts ...model.Option) *ollama.ChatRequest {
	common := model.GetCommonOptions(&model.Options{
		Model:       &m.model,
		MaxTokens:   &m.maxTokens,
		Temperature: &m.temperature,
	}, opts...)

	messages := make([]ollama.Message, 0, len(input))
	for _, msg := range input {
		messages = append(messages, ollama.Message{Role: string(msg.Role), Content: msg.Content})
	}
	return &ollama.ChatRequest{
		Model:    *common.Model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": *common.Temperature,
			"num_predict": *common.MaxTokens,
		},
	}
}

func usageOf(res ollama.ChatResponse) *schema.TokenUsage {
	return &schema.TokenUsage{
		PromptTokens:     res.PromptEvalCount,
		CompletionTokens: res.EvalCount,
		TotalTokens:      res.PromptEvalCount + res.EvalCount,
	}
}

func (m *ollamaChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	var (
		content strings.Builder
		usage   *schema.TokenUsage
	)
	err := m.client.Chat(ctx, m.request(input, false, opts...), func(res ollama.ChatResponse) error {
		content.WriteString(res.Message.Content)
		if res.Done {
			usage = usageOf(res)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}
	msg := schema.AssistantMessage(content.String(), nil)
	msg.ResponseMeta = &schema.ResponseMeta{Usage: usage}
	return msg, nil
}

func (m *ollamaChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	req := m.request(input, true, opts...)
	sr, sw := schema.Pipe[*schema.Message](16)
	go func() {
		defer sw.Close()
		err := m.client.Chat(ctx, req, func(res ollama.ChatResponse) error {
			chunk := schema.AssistantMessage(res.Message.Content, nil)
			if res.Done {
				chunk.ResponseMeta = &schema.ResponseMeta{FinishReason: res.DoneReason, Usage: usageOf(res)}
			}
			if closed := sw.Send(chunk, nil); closed {
				return context.Canceled
			}
			return nil
		})
		if err != nil {
			sw.Send(nil, fmt.Errorf("ollama chat failed: %w", err))
		}
	}()
	return sr, nil
}
