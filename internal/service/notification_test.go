package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskflow/internal/model"
)

// MockNotificationRepository - мок хранилища уведомлений
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) InsertBatch(ctx context.Context, items []model.Notification) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// forwardRecorder фиксирует пересланные события
type forwardRecorder struct {
	events []model.DomainEvent
}

func (f *forwardRecorder) Forward(ctx context.Context, event model.DomainEvent) {
	f.events = append(f.events, event)
}

func capture(repoMock *MockNotificationRepository) *[]model.Notification {
	var captured []model.Notification
	repoMock.On("InsertBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]model.Notification)
		}).Return(nil)
	return &captured
}

func TestNotificationService_TaskCreated(t *testing.T) {
	creator := uuid.New()
	assignee := uuid.New()
	taskID := uuid.New()

	repoMock := new(MockNotificationRepository)
	captured := capture(repoMock)
	fwd := &forwardRecorder{}
	svc := NewNotificationService(repoMock, fwd, zap.NewNop())

	event := model.DomainEvent{
		Type:            model.EventTaskCreated,
		TaskID:          taskID,
		Title:           "Release plan",
		CreatorID:       creator,
		AssignedUserIDs: []uuid.UUID{creator, assignee},
	}
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	// Создатель уведомление о собственной задаче не получает
	require.Len(t, *captured, 1)
	row := (*captured)[0]
	assert.Equal(t, assignee, row.UserID)
	assert.Equal(t, taskID, row.TaskID)
	assert.Equal(t, model.NotifyTaskCreated, row.Type)
	assert.Equal(t, `New task created: "Release plan"`, row.Message)

	// Пересылка в шлюз идет после записи и при том же событии
	require.Len(t, fwd.events, 1)
	assert.Equal(t, event, fwd.events[0])
}

// Новичок, оставшийся в assignedUserIds, получает обе строки:
// TASK_UPDATED и ASSIGNMENT_ADDED
func TestNotificationService_TaskUpdated_NewlyAdded(t *testing.T) {
	actor := uuid.New()
	veteran := uuid.New()
	rookie := uuid.New()

	repoMock := new(MockNotificationRepository)
	captured := capture(repoMock)
	svc := NewNotificationService(repoMock, &forwardRecorder{}, zap.NewNop())

	err := svc.HandleEvent(context.Background(), model.DomainEvent{
		Type:              model.EventTaskUpdated,
		TaskID:            uuid.New(),
		Title:             "Release plan",
		UpdatedBy:         actor,
		AssignedUserIDs:   []uuid.UUID{actor, veteran, rookie},
		NewlyAddedUserIDs: []uuid.UUID{rookie},
	})
	require.NoError(t, err)

	byUser := make(map[uuid.UUID][]model.NotificationType)
	for _, n := range *captured {
		byUser[n.UserID] = append(byUser[n.UserID], n.Type)
	}

	assert.Equal(t, []model.NotificationType{model.NotifyTaskUpdated}, byUser[veteran])
	assert.Equal(t, []model.NotificationType{model.NotifyTaskUpdated, model.NotifyAssignmentAdded}, byUser[rookie])
	assert.NotContains(t, byUser, actor)
}

func TestNotificationService_CommentCreated(t *testing.T) {
	author := uuid.New()
	reader := uuid.New()

	repoMock := new(MockNotificationRepository)
	captured := capture(repoMock)
	svc := NewNotificationService(repoMock, &forwardRecorder{}, zap.NewNop())

	err := svc.HandleEvent(context.Background(), model.DomainEvent{
		Type:            model.EventCommentCreated,
		TaskID:          uuid.New(),
		Title:           "Release plan",
		AuthorID:        author,
		CommentID:       uuid.New(),
		AssignedUserIDs: []uuid.UUID{author, reader},
	})
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	assert.Equal(t, reader, (*captured)[0].UserID)
	assert.Equal(t, `New comment on task "Release plan"`, (*captured)[0].Message)
}

func TestNotificationService_InsertFailureSkipsForward(t *testing.T) {
	repoMock := new(MockNotificationRepository)
	repoMock.On("InsertBatch", mock.Anything, mock.Anything).Return(assert.AnError)
	fwd := &forwardRecorder{}
	svc := NewNotificationService(repoMock, fwd, zap.NewNop())

	err := svc.HandleEvent(context.Background(), model.DomainEvent{
		Type:            model.EventTaskCreated,
		TaskID:          uuid.New(),
		AssignedUserIDs: []uuid.UUID{uuid.New()},
	})

	assert.Error(t, err)
	assert.Empty(t, fwd.events)
}

func TestNotificationService_ListForUser(t *testing.T) {
	userID := uuid.New()

	repoMock := new(MockNotificationRepository)
	repoMock.On("ListForUser", mock.Anything, userID, 50).
		Return([]model.Notification{{UserID: userID}}, nil)
	// Счетчик непрочитанных не выводится из страницы
	repoMock.On("CountUnread", mock.Anything, userID).Return(120, nil)

	svc := NewNotificationService(repoMock, &forwardRecorder{}, zap.NewNop())
	feed, err := svc.ListForUser(context.Background(), userID)

	require.NoError(t, err)
	assert.Len(t, feed.Notifications, 1)
	assert.Equal(t, 120, feed.UnreadCount)
}

func TestNotificationService_MarkAllRead_Idempotent(t *testing.T) {
	userID := uuid.New()

	repoMock := new(MockNotificationRepository)
	repoMock.On("MarkAllRead", mock.Anything, userID).Return(int64(3), nil).Once()
	repoMock.On("MarkAllRead", mock.Anything, userID).Return(int64(0), nil)

	svc := NewNotificationService(repoMock, &forwardRecorder{}, zap.NewNop())

	require.NoError(t, svc.MarkAllRead(context.Background(), userID))
	// Повтор на пустом наборе - тоже успех
	require.NoError(t, svc.MarkAllRead(context.Background(), userID))
}
