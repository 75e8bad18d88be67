package classify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rishi-choudhary/PARA-AI/core/domain"
	paraerrors "github.com/Rishi-choudhary/PARA-AI/core/errors"
	"github.com/Rishi-choudhary/PARA-AI/core/providers"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Complete(ctx context.Context, p providers.Prompt) (providers.Completion, error) {
	args := m.Called(ctx, p)
	if fn, ok := args.Get(0).(func(context.Context) (providers.Completion, error)); ok {
		return fn(ctx)
	}
	return args.Get(0).(providers.Completion), args.Error(1)
}

func (m *MockProvider) Close() error { return nil }

func reply(content string) providers.Completion {
	return providers.Completion{Text: content, Model: "mock-1"}
}

func TestLLM_Classify(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, mock.MatchedBy(func(in providers.Prompt) bool {
		return in.JSON && in.System != "" && in.Text != ""
	})).Return(reply(`{"category":"Resources","title":"Go concurrency","tags":["go"]}`), nil)

	c := NewLLM(p, Config{}, nil)
	got, err := c.Classify(context.Background(), "notes on goroutines")
	require.NoError(t, err)
	assert.Equal(t, domain.BucketResources, got.Category)
	assert.Equal(t, "Go concurrency", got.Title)
	assert.Equal(t, []string{"go"}, got.Tags)
	p.AssertExpectations(t)
}

func TestLLM_TransportErrorIsClassificationFailure(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, mock.Anything).Return(providers.Completion{}, errors.New("503"))

	c := NewLLM(p, Config{}, nil)
	_, err := c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, paraerrors.ErrClassification)
}

func TestLLM_MalformedOutputIsClassificationFailure(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, mock.Anything).Return(reply(`{"category":"Projects"}`), nil)

	c := NewLLM(p, Config{}, nil)
	_, err := c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, paraerrors.ErrClassification)
}

func TestLLM_ExtractTaskTimesOut(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, mock.Anything).Return(func(ctx context.Context) (providers.Completion, error) {
		<-ctx.Done()
		return providers.Completion{}, ctx.Err()
	}, nil)

	c := NewLLM(p, Config{ExtractTimeout: 20 * time.Millisecond}, nil)

	start := time.Now()
	_, err := c.ExtractTask(context.Background(), "call mom tomorrow", time.Now())
	assert.ErrorIs(t, err, paraerrors.ErrClassification)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLLM_ExtractTaskUsesReferenceDate(t *testing.T) {
	ref := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	p := new(MockProvider)
	p.On("Complete", mock.Anything, mock.MatchedBy(func(in providers.Prompt) bool {
		return in.Text != "" &&
			containsAll(in.Text, "2026-10-19", "Monday", "call mom tomorrow")
	})).Return(reply(`{"task_name":"Call mom","due_date":"2026-10-20"}`), nil)

	c := NewLLM(p, Config{}, nil)
	got, err := c.ExtractTask(context.Background(), "call mom tomorrow", ref)
	require.NoError(t, err)
	assert.Equal(t, "Call mom", got.TaskName)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2026-10-20", got.DueDate.Format("2006-01-02"))
}

func TestLLM_JudgeComplexityAndBreakdown(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, mock.MatchedBy(func(in providers.Prompt) bool {
		return containsAll(in.Text, `"complexity"`)
	})).Return(reply(`{"complexity":"complex"}`), nil).Once()
	p.On("Complete", mock.Anything, mock.MatchedBy(func(in providers.Prompt) bool {
		return containsAll(in.Text, `"tasks"`)
	})).Return(reply("```json\n{\"tasks\":[\"Design schema\",\"Write migration\",\"Add tests\"]}\n```"), nil).Once()

	c := NewLLM(p, Config{}, nil)

	v, err := c.JudgeComplexity(context.Background(), "Build billing service")
	require.NoError(t, err)
	assert.Equal(t, domain.ComplexityComplex, v)

	tasks, err := c.Breakdown(context.Background(), "Build billing service")
	require.NoError(t, err)
	assert.Equal(t, []string{"Design schema", "Write migration", "Add tests"}, tasks)
	p.AssertExpectations(t)
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
