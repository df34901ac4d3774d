package mocks

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModelMock is a scripted eino chat model. Without a StreamFunc it streams
// Chunks in order, attaching Usage to the last one when set.
type ChatModelMock struct {
	GenerateFunc func(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
	StreamFunc   func(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error)

	Chunks []string
	Usage  *schema.TokenUsage

	mu    sync.Mutex
	calls [][]*schema.Message
}

func (m *ChatModelMock) record(input []*schema.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, input)
}

// Calls returns the message lists the model was invoked with.
func (m *ChatModelMock) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.calls...)
}

func (m *ChatModelMock) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.record(input)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, input, opts...)
	}
	content := ""
	for _, c := range m.Chunks {
		content += c
	}
	msg := schema.AssistantMessage(content, nil)
	if m.Usage != nil {
		msg.ResponseMeta = &schema.ResponseMeta{Usage: m.Usage}
	}
	return msg, nil
}

func (m *ChatModelMock) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.record(input)
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, input, opts...)
	}
	chunks := make([]*schema.Message, 0, len(m.Chunks))
	for i, c := range m.Chunks {
		msg := schema.AssistantMessage(c, nil)
		if i == len(m.Chunks)-1 && m.Usage != nil {
			msg.ResponseMeta = &schema.ResponseMeta{Usage: m.Usage}
		}
		chunks = append(chunks, msg)
	}
	return schema.StreamReaderFromArray(chunks), nil
}
