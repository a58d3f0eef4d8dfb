package forward

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskflow/internal/model"
)

func testEvent() model.DomainEvent {
	return model.DomainEvent{
		Type:            model.EventTaskCreated,
		TaskID:          uuid.New(),
		Title:           "Release plan",
		AssignedUserIDs: []uuid.UUID{uuid.New()},
	}
}

func TestForwarder_PrimarySuccess(t *testing.T) {
	var gotPath, gotSecret string
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSecret = r.Header.Get(SecretHeader)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer primary.Close()

	var fallbackHits atomic.Int32
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackHits.Add(1)
	}))
	defer fallback.Close()

	f := New(primary.URL, fallback.URL, "s3cret", time.Second, zap.NewNop())
	f.Forward(context.Background(), testEvent())

	assert.Equal(t, "/internal/notify/task-created", gotPath)
	assert.Equal(t, "s3cret", gotSecret)
	// До запасного адреса дело не дошло
	assert.Zero(t, fallbackHits.Load())
}

func TestForwarder_FallbackOnPrimaryFailure(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	var fallbackHits atomic.Int32
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackHits.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer fallback.Close()

	f := New(primary.URL, fallback.URL, "", time.Second, zap.NewNop())
	f.Forward(context.Background(), testEvent())

	assert.Equal(t, int32(1), fallbackHits.Load())
}

// Оба адреса мертвы: событие отбрасывается, паники и ошибки нет
func TestForwarder_BothFail(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	dead.Close() // закрыт до запроса

	f := New(dead.URL, "", "", 100*time.Millisecond, zap.NewNop())
	require.NotPanics(t, func() {
		f.Forward(context.Background(), testEvent())
	})
}

func TestForwarder_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	f := New(slow.URL, "", "", 50*time.Millisecond, zap.NewNop())

	start := time.Now()
	f.Forward(context.Background(), testEvent())
	assert.Less(t, time.Since(start), time.Second)
}

func TestForwarder_EventPaths(t *testing.T) {
	tests := []struct {
		eventType model.EventType
		wantPath  string
	}{
		{model.EventTaskCreated, "/internal/notify/task-created"},
		{model.EventTaskUpdated, "/internal/notify/task-updated"},
		{model.EventCommentCreated, "/internal/notify/comment-new"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.wantPath, pathFor(tt.eventType))
	}
	assert.Empty(t, pathFor("task.deleted"))
}
