package client

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindInvalidToken
	KindRateLimited
	KindServer
	KindClient
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindInvalidToken:
		return "invalid_token"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// APIError классифицирует ответ WB API:
// retryable -- rate_limited, server, transport; остальные терминальные.
type APIError struct {
	Kind   ErrorKind
	Status int
	Msg    string
	Err    error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("wb api: %s (status %d): %s", e.Kind, e.Status, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("wb api: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("wb api: %s: %s", e.Kind, e.Msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindServer, KindTransport:
		return true
	}
	return false
}

// KindOf возвращает вид ошибки; не-APIError считаются transport.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransport
}

// Retryable сообщает, имеет ли смысл повторять запрос с тем же входом.
func Retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	// сетевые ошибки без классификации повторяем
	return true
}
