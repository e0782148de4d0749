package backend

import (
	"fmt"
	"net/http"
)

// APIError неуспешный ответ бэкенда или сбой транспорта (Status == 0).
type APIError struct {
	Status  int
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("backend: %s (status %d): %v", msg, e.Status, e.Cause)
	}
	return fmt.Sprintf("backend: %s (status %d)", msg, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// UserMessage возвращает сообщение бэкенда или запасной текст.
func (e *APIError) UserMessage(fallback string) string {
	if e == nil || e.Message == "" {
		return fallback
	}
	return e.Message
}

// Result результат вызова бэкенда: либо значение, либо ошибка.
type Result[T any] struct {
	value T
	err   *APIError
}

// Ok успешный результат.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail неуспешный результат.
func Fail[T any](err *APIError) Result[T] {
	if err == nil {
		err = &APIError{Message: "неизвестная ошибка"}
	}
	return Result[T]{err: err}
}

// OK сообщает об успехе.
func (r Result[T]) OK() bool {
	return r.err == nil
}

// Value значение успешного результата (нулевое при ошибке).
func (r Result[T]) Value() T {
	return r.value
}

// Err ошибка результата (nil при успехе).
func (r Result[T]) Err() *APIError {
	return r.err
}

// Unwrap возвращает пару значение/ошибка.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}
