package services

import (
	"errors"
	"fmt"
)

// ErrEmptyMessage marks an empty or whitespace-only send. The protocol treats
// it as a terminal no-op: nothing is applied, persisted, or reported.
var ErrEmptyMessage = errors.New("empty message")

// SendStage identifies the protocol step a send failed at. The distinction is
// carried in the error detail only; callers surface a single notification.
type SendStage string

const (
	StagePersistUser      SendStage = "persist_user"
	StageInference        SendStage = "inference"
	StagePersistAssistant SendStage = "persist_assistant"
)

// SendError is the single failure surfaced by a rolled-back send.
type SendError struct {
	Stage SendStage
	Err   error
}

func (e *SendError) Error() string { return fmt.Sprintf("send failed at %s: %v", e.Stage, e.Err) }
func (e *SendError) Unwrap() error { return e.Err }

// InferenceError captures a non-2xx reply from the inference endpoint. Detail
// is the response body text, or the status line when the body is empty.
type InferenceError struct {
	StatusCode int
	Detail     string
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference endpoint returned %d: %s", e.StatusCode, e.Detail)
}

// Custom errors
type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }
