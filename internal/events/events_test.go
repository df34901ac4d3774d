package events

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickedit/internal/models"
)

func TestSessionContext(t *testing.T) {
	ctx := WithSession(context.Background(), "s-1")
	assert.Equal(t, "s-1", SessionFromContext(ctx))
	assert.Equal(t, "", SessionFromContext(WithSession(context.Background(), "  ")))
}

func TestEmitter_FillsSessionAndForwards(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	rec := &Recorder{}
	em := NewEmitter(rec, log)
	ctx := WithSession(context.Background(), "abc")

	require.NoError(t, em.Emit(ctx, NewPhase(PhaseAnalysis, StatusStarting, "Analysing request", nil)))
	require.NoError(t, em.Emit(ctx, NewTokens(models.TokenUsage{Input: 1, Output: 2, Total: 3})))
	require.NoError(t, em.Emit(ctx, NewError("boom", "detail")))

	evts := rec.Events()
	require.Len(t, evts, 3)
	for _, e := range evts {
		assert.Equal(t, "abc", e.SessionKey)
		assert.NotEmpty(t, e.ID)
	}
	assert.Equal(t, []Name{GenerationEvent, TokensEvent, ErrorEvent}, rec.Names())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestEmitter_PropagatesSinkError(t *testing.T) {
	gone := errors.New("client gone")
	em := NewEmitter(SinkFunc(func(context.Context, Event) error { return gone }), nil)
	assert.ErrorIs(t, em.Emit(context.Background(), NewMessage(MessageIntent, "x")), gone)
}
