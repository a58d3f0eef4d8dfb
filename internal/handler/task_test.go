package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskflow/internal/apperr"
	"taskflow/internal/auth"
	"taskflow/internal/command"
	"taskflow/internal/model"
	"taskflow/internal/relay"
)

const testSecret = "test-secret"

func setupAPI(t *testing.T, bus relay.Relay) (*httptest.Server, string, uuid.UUID) {
	t.Helper()
	verifier := auth.NewVerifier(testSecret)
	userID := uuid.New()
	token, err := verifier.Sign(userID, time.Hour)
	require.NoError(t, err)

	logger := zap.NewNop()
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(RequireAuth(verifier))
		r.Route("/tasks", NewTaskHandler(bus, logger).Routes)
		r.Route("/notifications", NewNotificationHandler(bus, logger).Routes)
		r.Route("/users", NewUserHandler(bus, logger).Routes)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, token, userID
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAPI_RequiresAuth(t *testing.T) {
	srv, _, _ := setupAPI(t, relay.NewMemoryRelay())

	resp := doRequest(t, srv, http.MethodGet, "/api/tasks", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodGet, "/api/notifications", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTaskHandler_Create(t *testing.T) {
	bus := relay.NewMemoryRelay()
	taskID := uuid.New()

	var gotPayload command.CreateTaskPayload
	bus.HandleCommand(command.TaskCreate, func(ctx context.Context, data []byte) apperr.Result {
		if err := json.Unmarshal(data, &gotPayload); err != nil {
			return apperr.Err(err)
		}
		return apperr.Ok(model.Task{ID: taskID, Title: gotPayload.Data.Title})
	})

	srv, token, userID := setupAPI(t, bus)
	resp := doRequest(t, srv, http.MethodPost, "/api/tasks", token, `{"title":"Release plan"}`)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/api/tasks/"+taskID.String(), resp.Header.Get("Location"))

	// Пользователь приходит из токена, не из тела
	require.NotNil(t, gotPayload.UserID)
	assert.Equal(t, userID, *gotPayload.UserID)
	assert.Equal(t, "Release plan", gotPayload.Data.Title)

	var task model.Task
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&task))
	assert.Equal(t, taskID, task.ID)
}

func TestTaskHandler_CreateBadRequest(t *testing.T) {
	srv, token, _ := setupAPI(t, relay.NewMemoryRelay())

	resp := doRequest(t, srv, http.MethodPost, "/api/tasks", token, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodPost, "/api/tasks", token, "{broken")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTaskHandler_ErrorMapping(t *testing.T) {
	bus := relay.NewMemoryRelay()
	taskID := uuid.New()

	bus.HandleCommand(command.TaskGet, func(ctx context.Context, data []byte) apperr.Result {
		return apperr.Err(apperr.Forbidden("access denied"))
	})
	bus.HandleCommand(command.TaskDelete, func(ctx context.Context, data []byte) apperr.Result {
		return apperr.Err(apperr.NotFound("task not found"))
	})

	srv, token, _ := setupAPI(t, bus)

	resp := doRequest(t, srv, http.MethodGet, "/api/tasks/"+taskID.String(), token, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "access denied", body["error"])

	resp = doRequest(t, srv, http.MethodDelete, "/api/tasks/"+taskID.String(), token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Кривой UUID отбивается до шины
	resp = doRequest(t, srv, http.MethodGet, "/api/tasks/abc", token, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTaskHandler_Delete(t *testing.T) {
	bus := relay.NewMemoryRelay()
	bus.HandleCommand(command.TaskDelete, func(ctx context.Context, data []byte) apperr.Result {
		return apperr.Ok(nil)
	})

	srv, token, _ := setupAPI(t, bus)
	resp := doRequest(t, srv, http.MethodDelete, "/api/tasks/"+uuid.New().String(), token, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestTaskHandler_ListFilters(t *testing.T) {
	bus := relay.NewMemoryRelay()

	var gotPayload command.ListTasksPayload
	bus.HandleCommand(command.TaskList, func(ctx context.Context, data []byte) apperr.Result {
		if err := json.Unmarshal(data, &gotPayload); err != nil {
			return apperr.Err(err)
		}
		return apperr.Ok(model.TaskPage{Page: 2, Size: 5})
	})

	srv, token, _ := setupAPI(t, bus)
	resp := doRequest(t, srv, http.MethodGet,
		"/api/tasks?status=TODO&priority=HIGH&search=plan&sortBy=deadline&sortOrder=ASC&page=2&size=5",
		token, "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, gotPayload.Filters.Status)
	assert.Equal(t, model.StatusTodo, *gotPayload.Filters.Status)
	require.NotNil(t, gotPayload.Filters.Priority)
	assert.Equal(t, model.PriorityHigh, *gotPayload.Filters.Priority)
	assert.Equal(t, "plan", gotPayload.Filters.Search)
	assert.Equal(t, model.SortDeadline, gotPayload.Filters.SortBy)
	assert.Equal(t, 2, gotPayload.Filters.Page)
	assert.Equal(t, 5, gotPayload.Filters.Size)
}

func TestNotificationHandler(t *testing.T) {
	bus := relay.NewMemoryRelay()
	notifID := uuid.New()

	var listUser, markUser uuid.UUID
	bus.HandleCommand(command.NotificationUserList, func(ctx context.Context, data []byte) apperr.Result {
		var p command.UserListPayload
		json.Unmarshal(data, &p)
		listUser = p.UserID
		return apperr.Ok(model.NotificationFeed{UnreadCount: 2})
	})
	bus.HandleCommand(command.NotificationMarkRead, func(ctx context.Context, data []byte) apperr.Result {
		var p command.MarkReadPayload
		json.Unmarshal(data, &p)
		markUser = p.UserID
		if p.NotificationID != notifID {
			return apperr.Err(apperr.NotFound("notification not found"))
		}
		return apperr.Ok(nil)
	})
	bus.HandleCommand(command.NotificationMarkAllRead, func(ctx context.Context, data []byte) apperr.Result {
		return apperr.Ok(nil)
	})

	srv, token, userID := setupAPI(t, bus)

	resp := doRequest(t, srv, http.MethodGet, "/api/notifications", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userID, listUser)

	var feed model.NotificationFeed
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&feed))
	assert.Equal(t, 2, feed.UnreadCount)

	resp = doRequest(t, srv, http.MethodPatch, "/api/notifications/"+notifID.String()+"/read", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userID, markUser)

	// Чужое или несуществующее уведомление - 404
	resp = doRequest(t, srv, http.MethodPatch, "/api/notifications/"+uuid.New().String()+"/read", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, srv, http.MethodPatch, "/api/notifications/mark-all-read", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUserHandler_FindMany(t *testing.T) {
	bus := relay.NewMemoryRelay()
	found := command.FoundUser{ID: uuid.New(), Username: "alice"}

	bus.HandleCommand(command.AuthUsersFindMany, func(ctx context.Context, data []byte) apperr.Result {
		return apperr.Ok([]command.FoundUser{found})
	})

	srv, token, _ := setupAPI(t, bus)
	resp := doRequest(t, srv, http.MethodPost, "/api/users/find-many", token, `{"queries":[{"username":"alice"}]}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var users []command.FoundUser
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	require.Len(t, users, 1)
	assert.Equal(t, found.ID, users[0].ID)
}
