package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// AppError - ошибка, пересекающая границу сервисов.
// На шине сериализуется внутри Result, в HTTP мапится на StatusCode.
type AppError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func New(message string, statusCode int) *AppError {
	return &AppError{Message: message, StatusCode: statusCode}
}

func NotFound(message string) *AppError     { return New(message, 404) }
func Forbidden(message string) *AppError    { return New(message, 403) }
func Conflict(message string) *AppError     { return New(message, 409) }
func Unauthorized(message string) *AppError { return New(message, 401) }
func Internal(message string) *AppError     { return New(message, 500) }

// From конвертирует любую ошибку в AppError, дефолт - 500
func From(err error) *AppError {
	var app *AppError
	if errors.As(err, &app) {
		return app
	}
	return Internal(err.Error())
}

// Result - форма ответа command-канала: {ok:true, data} либо {ok:false, error}
type Result struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *AppError       `json:"error,omitempty"`
}

func Ok(data any) Result {
	raw, err := json.Marshal(data)
	if err != nil {
		return Err(Internal(err.Error()))
	}
	return Result{OK: true, Data: raw}
}

func Err(err error) Result {
	return Result{OK: false, Error: From(err)}
}

// Decode распаковывает data успешного результата либо возвращает ошибку результата
func (r Result) Decode(out any) error {
	if !r.OK {
		if r.Error != nil {
			return r.Error
		}
		return Internal("command failed without error detail")
	}
	if out == nil || len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, out)
}
