package relay

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/apperr"
)

type echoPayload struct {
	Value string `json:"value"`
}

func TestMemoryRelay_Request(t *testing.T) {
	bus := NewMemoryRelay()
	require.NoError(t, bus.HandleCommand("echo", func(ctx context.Context, data []byte) apperr.Result {
		var in echoPayload
		if err := json.Unmarshal(data, &in); err != nil {
			return apperr.Err(err)
		}
		return apperr.Ok(echoPayload{Value: in.Value + "!"})
	}))

	var out echoPayload
	err := bus.Request(context.Background(), "echo", echoPayload{Value: "ping"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ping!", out.Value)
}

func TestMemoryRelay_RequestError(t *testing.T) {
	bus := NewMemoryRelay()
	require.NoError(t, bus.HandleCommand("fail", func(ctx context.Context, data []byte) apperr.Result {
		return apperr.Err(apperr.NotFound("nope"))
	}))

	err := bus.Request(context.Background(), "fail", nil, nil)
	var app *apperr.AppError
	require.ErrorAs(t, err, &app)
	assert.Equal(t, 404, app.StatusCode)
	assert.Equal(t, "nope", app.Message)
}

func TestMemoryRelay_NoHandler(t *testing.T) {
	bus := NewMemoryRelay()
	err := bus.Request(context.Background(), "ghost", nil, nil)
	assert.Error(t, err)
}

func TestMemoryRelay_Events(t *testing.T) {
	bus := NewMemoryRelay()

	var gotA, gotB []string
	require.NoError(t, bus.HandleEvent("task.done", "group-a", func(ctx context.Context, data []byte) {
		gotA = append(gotA, string(data))
	}))
	require.NoError(t, bus.HandleEvent("task.done", "group-b", func(ctx context.Context, data []byte) {
		gotB = append(gotB, string(data))
	}))

	require.NoError(t, bus.Publish("task.done", echoPayload{Value: "x"}))

	// Каждая группа получает событие по одному разу
	assert.Len(t, gotA, 1)
	assert.Len(t, gotB, 1)

	// Событие без подписчиков не является ошибкой
	assert.NoError(t, bus.Publish("nobody.listens", nil))
}
