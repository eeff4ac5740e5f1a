package llm

import (
	"context"
	"errors"
	"testing"

	"book-rag-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	out   string
	err   error
	calls int
	last  Options
}

func (f *fakeProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	f.calls++
	f.last = Apply(Options{}, options...)
	return f.out, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return f.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

func TestChainFallsBack(t *testing.T) {
	tests := []struct {
		name      string
		first     *fakeProvider
		second    *fakeProvider
		want      string
		wantErr   bool
		wantCalls [2]int
	}{
		{
			name:      "first succeeds",
			first:     &fakeProvider{out: "one"},
			second:    &fakeProvider{out: "two"},
			want:      "one",
			wantCalls: [2]int{1, 0},
		},
		{
			name:      "first errors",
			first:     &fakeProvider{err: errors.New("rate limited")},
			second:    &fakeProvider{out: "two"},
			want:      "two",
			wantCalls: [2]int{1, 1},
		},
		{
			name:      "first empty",
			first:     &fakeProvider{out: "  "},
			second:    &fakeProvider{out: "two"},
			want:      "two",
			wantCalls: [2]int{1, 1},
		},
		{
			name:      "all fail",
			first:     &fakeProvider{err: errors.New("down")},
			second:    &fakeProvider{err: errors.New("down")},
			wantErr:   true,
			wantCalls: [2]int{1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChain(logger.NewNopLogger(),
				NamedProvider{Name: "first", Provider: tt.first},
				NamedProvider{Name: "second", Provider: tt.second},
			)
			out, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "q"}})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoCompletion)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, out)
			}
			assert.Equal(t, tt.wantCalls[0], tt.first.calls)
			assert.Equal(t, tt.wantCalls[1], tt.second.calls)
		})
	}
}

func TestChainPassesOptions(t *testing.T) {
	p := &fakeProvider{out: "ok"}
	c := NewChain(logger.NewNopLogger(), NamedProvider{Name: "p", Provider: p})

	_, err := c.Generate(context.Background(), "q", WithMaxTokens(500), WithTemperature(0.3))
	require.NoError(t, err)
	assert.Equal(t, 500, p.last.MaxTokens)
	assert.InDelta(t, 0.3, p.last.Temperature, 1e-9)
}

func TestEmptyChain(t *testing.T) {
	_, err := NewChain(logger.NewNopLogger()).Generate(context.Background(), "q")
	assert.ErrorIs(t, err, ErrNoCompletion)
}
