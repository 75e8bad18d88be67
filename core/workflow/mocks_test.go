package workflow

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Rishi-choudhary/PARA-AI/core/domain"
	"github.com/Rishi-choudhary/PARA-AI/core/knowledge"
)

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, text string) (domain.Classification, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(domain.Classification), args.Error(1)
}

func (m *MockClassifier) JudgeComplexity(ctx context.Context, title string) (domain.Complexity, error) {
	args := m.Called(ctx, title)
	return args.Get(0).(domain.Complexity), args.Error(1)
}

func (m *MockClassifier) Breakdown(ctx context.Context, title string) ([]string, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockClassifier) ExtractTask(ctx context.Context, text string, reference time.Time) (domain.TaskExtraction, error) {
	args := m.Called(ctx, text, reference)
	if fn, ok := args.Get(0).(func(context.Context) (domain.TaskExtraction, error)); ok {
		return fn(ctx)
	}
	return args.Get(0).(domain.TaskExtraction), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreatePage(ctx context.Context, page knowledge.NewPage) (string, error) {
	args := m.Called(ctx, page)
	return args.String(0), args.Error(1)
}

func (m *MockStore) QueryExactTitle(ctx context.Context, bucket domain.Bucket, title string) (*domain.PageHandle, error) {
	args := m.Called(ctx, bucket, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PageHandle), args.Error(1)
}

func (m *MockStore) Patch(ctx context.Context, pageID string, patch knowledge.Patch) error {
	args := m.Called(ctx, pageID, patch)
	return args.Error(0)
}

func (m *MockStore) QueryCreatedSince(ctx context.Context, bucket domain.Bucket, since time.Time) (int, error) {
	args := m.Called(ctx, bucket, since)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchHit), args.Error(1)
}

type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, now time.Time) (string, error) {
	args := m.Called(ctx, now)
	return args.String(0), args.Error(1)
}

type MockSubscriber struct {
	mock.Mock
}

func (m *MockSubscriber) Subscribe(ctx context.Context, conversationID string) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}
