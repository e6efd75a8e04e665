// Package dto defines the request and response shapes of the HTTP API.
// Every JSON response uses the {ok, data} / {ok, error} envelope.
package dto

import (
	"github.com/turtacn/kpidash/pkg/errors"
)

// Envelope is the standard API response wrapper.
type Envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody is the error half of the envelope.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data interface{}) Envelope {
	return Envelope{OK: true, Data: data}
}

// Err builds an error envelope from a code and message.
func Err(code, message string) Envelope {
	return Envelope{Error: &ErrorBody{Code: code, Message: message}}
}

// FromError converts err into a status code and error envelope. Errors that are
// not AppErrors are reported as internal without leaking their text.
func FromError(err error) (int, Envelope) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.ErrInternal
	}
	return appErr.HTTPStatus, Envelope{Error: &ErrorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}}
}
