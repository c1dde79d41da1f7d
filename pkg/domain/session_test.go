package domain_test

import (
	"context"
	"math"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Settings)
		wantErr error
	}{
		{"defaults", func(s *domain.Settings) {}, nil},
		{"lower bound", func(s *domain.Settings) { s.Temperature = 0 }, nil},
		{"upper bound", func(s *domain.Settings) { s.Temperature = 1 }, nil},
		{"too hot", func(s *domain.Settings) { s.Temperature = 1.01 }, domain.ErrTemperatureRange},
		{"negative", func(s *domain.Settings) { s.Temperature = -0.1 }, domain.ErrTemperatureRange},
		{"nan", func(s *domain.Settings) { s.Temperature = math.NaN() }, domain.ErrTemperatureRange},
		{"other model", func(s *domain.Settings) { s.Model = "gpt-4o" }, domain.ErrUnsupportedModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewSession(t *testing.T) {
	s := domain.NewSession("abc", "sys prompt")

	require.Equal(t, 1, s.Transcript.Len())
	assert.Equal(t, domain.RoleSystem, s.Transcript[0].Role)
	assert.Equal(t, "sys prompt", s.Transcript.SystemPrompt())
	assert.Equal(t, domain.DefaultModel, s.Settings.Model)
	assert.Equal(t, domain.DefaultTemperature, s.Settings.Temperature)
	assert.Equal(t, domain.MaxTokens, s.Settings.MaxTokens)
}

func TestSession_SnapshotIsDeep(t *testing.T) {
	s := domain.NewSession("abc", "sys")
	s.LastUsage = &domain.Usage{TotalTokens: 1}

	snap := s.Snapshot()
	snap.Transcript[0].Content = "changed"
	snap.LastUsage.TotalTokens = 99

	assert.Equal(t, "sys", s.Transcript[0].Content)
	assert.Equal(t, 1, s.LastUsage.TotalTokens)
}

func TestUsage_String(t *testing.T) {
	u := domain.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	assert.Equal(t, "Usage: prompt 10 | completion 5 | total 15", u.String())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, domain.RoleAssistant.Valid())
	assert.False(t, domain.Role("tool").Valid())
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnTurnStart: func(context.Context, *domain.TurnEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnTurnStart: func(context.Context, *domain.TurnEvent) { calls = append(calls, "b") },
		OnClear:     func(context.Context, *domain.TurnEvent) { calls = append(calls, "clear") },
	}

	merged := a.Merge(b)
	merged.OnTurnStart(context.Background(), &domain.TurnEvent{})
	merged.OnClear(context.Background(), &domain.TurnEvent{})
	assert.Nil(t, merged.OnTurnFailed)
	assert.Equal(t, []string{"a", "b", "clear"}, calls)
}
