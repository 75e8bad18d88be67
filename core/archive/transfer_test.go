package archive

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rishi-choudhary/PARA-AI/core/domain"
	paraerrors "github.com/Rishi-choudhary/PARA-AI/core/errors"
	"github.com/Rishi-choudhary/PARA-AI/core/knowledge"
)

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
	return args.Get(0).([]domain.SearchHit), args.Error(1)
}

func moveRequest() Request {
	return Request{
		PageID:          "page-123",
		Title:           "Old project",
		TitleProperties: domain.PropertyBag{"Name": json.RawMessage(`{"title":[{"text":{"content":"Old project"}}]}`)},
		TagProperties:   domain.PropertyBag{"Tags": json.RawMessage(`{"multi_select":[{"name":"q3"}]}`)},
	}
}

func archiveCopy(page knowledge.NewPage) bool {
	return page.Bucket == domain.BucketArchive &&
		page.Title == "Old project" &&
		string(page.TitleProperties["Name"]) == `{"title":[{"text":{"content":"Old project"}}]}` &&
		string(page.TagProperties["Tags"]) == `{"multi_select":[{"name":"q3"}]}`
}

func TestMove_Success(t *testing.T) {
	store := new(MockStore)
	store.On("CreatePage", mock.Anything, mock.MatchedBy(archiveCopy)).Return("https://notion.so/copy", nil).Once()
	store.On("Patch", mock.Anything, "page-123", knowledge.Patch{Archived: true}).Return(nil).Once()

	res := NewTransfer(store, nil).Move(context.Background(), moveRequest())

	assert.Equal(t, Success, res.Outcome)
	assert.Equal(t, "https://notion.so/copy", res.URL)
	assert.NoError(t, res.Err)
	store.AssertExpectations(t)
}

func TestMove_CreateFailureSkipsPatch(t *testing.T) {
	store := new(MockStore)
	store.On("CreatePage", mock.Anything, mock.Anything).Return("", errors.New("boom")).Once()

	res := NewTransfer(store, nil).Move(context.Background(), moveRequest())

	assert.Equal(t, FailedBeforeCreate, res.Outcome)
	assert.Empty(t, res.URL)
	assert.ErrorIs(t, res.Err, paraerrors.ErrStoreWrite)
	store.AssertNumberOfCalls(t, "CreatePage", 1)
	store.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything)
}

func TestMove_PatchFailureIsPartial(t *testing.T) {
	store := new(MockStore)
	store.On("CreatePage", mock.Anything, mock.Anything).Return("https://notion.so/copy", nil).Once()
	store.On("Patch", mock.Anything, "page-123", mock.Anything).Return(errors.New("conflict")).Once()

	res := NewTransfer(store, nil).Move(context.Background(), moveRequest())

	assert.Equal(t, CreatedButNotMarkedInactive, res.Outcome)
	assert.Equal(t, "https://notion.so/copy", res.URL)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, paraerrors.ErrPartialArchive)
	store.AssertNumberOfCalls(t, "CreatePage", 1)
	store.AssertNumberOfCalls(t, "Patch", 1)
}

func TestMove_CarriedPropertiesAreCopied(t *testing.T) {
	store := new(MockStore)
	var sent knowledge.NewPage
	store.On("CreatePage", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(knowledge.NewPage) }).
		Return("u", nil)
	store.On("Patch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	req := moveRequest()
	NewTransfer(store, nil).Move(context.Background(), req)

	sent.TagProperties["Tags"][0] = 'X'
	assert.Equal(t, byte('{'), req.TagProperties["Tags"][0])
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "created_but_not_marked_inactive", CreatedButNotMarkedInactive.String())
	assert.Equal(t, "failed_before_create", FailedBeforeCreate.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
