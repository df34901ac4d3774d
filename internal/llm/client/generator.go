package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"quickedit/internal/analysis"
	"quickedit/internal/models"
)

// ProfileResolver maps a complexity tier to a generation profile.
type ProfileResolver interface {
	Profile(tier analysis.Complexity) (models.GenerationProfile, error)
}

// Request is one edit-generation call.
type Request struct {
	Message string
	Tier    analysis.Complexity
	// Files holds the optimized context, not the full project.
	Files   map[string]string
	Memory  *models.MemorySnapshot
	History []models.ConversationTurn
}

// Generation is the outcome of a completed model call. ParseErr is set, and
// Response is empty, when the output could not be turned into modifications.
type Generation struct {
	Response  *ParsedResponse
	ParseErr  error
	Raw       string
	Usage     models.TokenUsage
	Estimated bool
	Profile   models.GenerationProfile
	Duration  time.Duration
}

// Generator renders the prompt, streams the model response and parses it.
type Generator struct {
	models   ModelFactory
	profiles ProfileResolver
	log      logrus.FieldLogger
}

func NewGenerator(factory ModelFactory, profiles ProfileResolver, log logrus.FieldLogger) *Generator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Generator{models: factory, profiles: profiles, log: log}
}

// Generate returns an error only for upstream failures (profile lookup, model
// construction, the stream itself, cancellation). Parse failures are reported
// through Generation.ParseErr.
func (g *Generator) Generate(ctx context.Context, req Request) (*Generation, error) {
	profile, err := g.profiles.Profile(req.Tier)
	if err != nil {
		return nil, fmt.Errorf("resolve generation profile: %w", err)
	}
	chat, err := g.models.ChatModel(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("create chat model %s: %w", profile.APIName, err)
	}

	system, err := BuildSystemPrompt(PromptInput{
		Tier:    req.Tier,
		Files:   req.Files,
		Memory:  req.Memory,
		History: req.History,
	})
	if err != nil {
		return nil, err
	}
	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(req.Message),
	}

	log := g.log.WithFields(logrus.Fields{
		"phase": "generation",
		"tier":  req.Tier,
		"model": profile.APIName,
		"files": len(req.Files),
	})
	log.Debug("starting model stream")

	started := time.Now()
	raw, usage, err := consume(ctx, chat, messages, profile)
	if err != nil {
		log.WithError(err).Error("model stream failed")
		return nil, err
	}

	gen := &Generation{
		Raw:      raw,
		Profile:  profile,
		Duration: time.Since(started),
	}
	if usage != nil && usage.TotalTokens > 0 {
		gen.Usage = models.TokenUsage{
			Input:  usage.PromptTokens,
			Output: usage.CompletionTokens,
			Total:  usage.TotalTokens,
		}
	} else {
		gen.Usage = EstimateUsage(system+req.Message, raw)
		gen.Estimated = true
	}

	gen.Response, gen.ParseErr = ParseResponse(raw)
	if gen.ParseErr != nil {
		log.WithError(gen.ParseErr).WithField("response_chars", len(raw)).Warn("could not parse model response")
	} else {
		log.WithFields(logrus.Fields{
			"strategy":      gen.Response.Strategy,
			"modifications": len(gen.Response.Modifications),
			"tokens":        gen.Usage.Total,
		}).Info("model response parsed")
	}
	return gen, nil
}

func consume(ctx context.Context, chat model.BaseChatModel, messages []*schema.Message, profile models.GenerationProfile) (string, *schema.TokenUsage, error) {
	stream, err := chat.Stream(ctx, messages,
		model.WithTemperature(profile.Temperature),
		model.WithMaxTokens(profile.MaxTokens),
	)
	if err != nil {
		return "", nil, fmt.Errorf("start model stream: %w", err)
	}
	defer stream.Close()

	var (
		buf   strings.Builder
		usage *schema.TokenUsage
	)
	for {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("read model stream: %w", err)
		}
		if chunk == nil {
			continue
		}
		buf.WriteString(chunk.Content)
		if chunk.ResponseMeta != nil && chunk.ResponseMeta.Usage != nil {
			usage = chunk.ResponseMeta.Usage
		}
	}
	return buf.String(), usage, nil
}

// EstimateUsage approximates token counts at four characters per token.
func EstimateUsage(prompt, completion string) models.TokenUsage {
	in, out := len(prompt)/4, len(completion)/4
	return models.TokenUsage{Input: in, Output: out, Total: in + out}
}
