package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"newvision-backend/internal/models"
)

// sendState enumerates the steps of one send. Transitions are strictly
// sequential: both remote calls are awaited to completion before the next
// step runs, and Rollback is reachable only from the three persisting steps.
type sendState int

const (
	stateValidate sendState = iota
	stateOptimisticApply
	statePersistUser
	stateInfer
	statePersistAssistant
	stateReconcile
	stateRollback
	stateDone
)

const titleRuneLimit = 30

// SendResult carries the committed pair and the reconciled chat metadata.
type SendResult struct {
	Chat      models.Chat    `json:"chat"`
	User      models.Message `json:"user_message"`
	Assistant models.Message `json:"assistant_message"`
}

type Inference interface {
	Generate(ctx context.Context, accessToken string, req InferenceRequest) (string, error)
}

// Orchestrator executes one user turn: append the user's message, obtain an
// assistant reply, append it, and reconcile chat metadata, keeping the
// session transcript consistent with the durable store under partial failure.
// Rollback reverts only the visible transcript; rows persisted before the
// failing step stay in the store (accepted inconsistency window), and the
// protocol is not idempotent: a retry after an inference or assistant-persist
// failure duplicates the persisted user row.
type Orchestrator struct {
	chats     ChatStore
	messages  MessageStore
	inference Inference
	now       func() time.Time

	// OnCommit fires for each durably persisted message, OnChatUpdated after
	// metadata reconciliation, OnFailure when a send rolls back.
	OnCommit      func(userID uuid.UUID, m models.Message)
	OnChatUpdated func(userID uuid.UUID, c models.Chat)
	OnFailure     func(userID uuid.UUID, err error)
}

func NewOrchestrator(chats ChatStore, messages MessageStore, inference Inference) *Orchestrator {
	return &Orchestrator{
		chats:     chats,
		messages:  messages,
		inference: inference,
		now:       time.Now,
	}
}

type sendAttempt struct {
	session   *ChatSession
	auth      *models.Session
	subject   string
	language  string
	text      string
	mark      int
	user      models.Message
	assistant models.Message
	failure   error
}

// Send runs the protocol for one user turn. Empty input is a terminal no-op
// reported as ErrEmptyMessage with no store or network call made. A second
// Send on the same session while one is in flight fails with a conflict.
func (o *Orchestrator) Send(ctx context.Context, sess *ChatSession, auth *models.Session, subject, language, text string) (*SendResult, error) {
	if auth == nil {
		return nil, &UnauthorizedError{Message: "No active session"}
	}
	if !sess.beginSend() {
		return nil, &ConflictError{Message: "A message is already being sent for this chat"}
	}
	defer sess.endSend()

	a := &sendAttempt{
		session:  sess,
		auth:     auth,
		subject:  subject,
		language: language,
		text:     text,
	}
	chatID := sess.ChatID()

	state := stateValidate
	for {
		switch state {
		case stateValidate:
			if strings.TrimSpace(a.text) == "" {
				return nil, ErrEmptyMessage
			}
			state = stateOptimisticApply

		case stateOptimisticApply:
			// Speculative, client-clock timestamped, visible before any
			// network round trip.
			a.user = models.Message{
				ChatID:    chatID,
				Role:      models.RoleUser,
				Content:   a.text,
				CreatedAt: o.now().UTC(),
			}
			a.mark = sess.apply(a.user)
			state = statePersistUser

		case statePersistUser:
			if err := o.messages.Insert(ctx, &a.user); err != nil {
				a.failure = &SendError{Stage: StagePersistUser, Err: err}
				state = stateRollback
				continue
			}
			o.commit(a.auth.UserID, a.user)
			state = stateInfer

		case stateInfer:
			reply, err := o.inference.Generate(ctx, a.auth.AccessToken, InferenceRequest{
				ChatID:   chatID.String(),
				Subject:  a.subject,
				Language: a.language,
				Message:  a.text,
			})
			if err != nil {
				a.failure = &SendError{Stage: StageInference, Err: err}
				state = stateRollback
				continue
			}
			a.assistant = models.Message{
				ChatID:    chatID,
				Role:      models.RoleAssistant,
				Content:   reply,
				CreatedAt: o.now().UTC(),
			}
			state = statePersistAssistant

		case statePersistAssistant:
			if err := o.messages.Insert(ctx, &a.assistant); err != nil {
				a.failure = &SendError{Stage: StagePersistAssistant, Err: err}
				state = stateRollback
				continue
			}
			o.commit(a.auth.UserID, a.assistant)
			state = stateReconcile

		case stateReconcile:
			o.reconcile(ctx, a, chatID)
			sess.apply(a.assistant)
			state = stateDone

		case stateRollback:
			// Visible-state rollback only: the transcript loses the
			// optimistic user message, the store keeps whatever was
			// persisted before the failing step.
			sess.truncate(a.mark)
			if o.OnFailure != nil {
				o.OnFailure(a.auth.UserID, a.failure)
			}
			return nil, a.failure

		case stateDone:
			return &SendResult{Chat: sess.Chat(), User: a.user, Assistant: a.assistant}, nil
		}
	}
}

// reconcile refreshes updated_at and, while the chat still carries the
// default title, derives one from the stored first user message. Titling off
// the default rather than a row count keeps the rule robust to orphaned user
// rows left by earlier failed sends. Failures here are logged, never rolled
// back.
func (o *Orchestrator) reconcile(ctx context.Context, a *sendAttempt, chatID uuid.UUID) {
	if a.session.Chat().Title == models.DefaultChatTitle {
		first, err := o.messages.FirstUserMessage(ctx, chatID)
		if err != nil {
			log.Printf("chat %s: first user message: %v", chatID, err)
		} else {
			title := deriveTitle(first)
			if err := o.chats.SetTitle(ctx, chatID, title); err != nil {
				log.Printf("chat %s: set title: %v", chatID, err)
			} else {
				a.session.setTitle(title)
			}
		}
	}

	updatedAt, err := o.chats.Touch(ctx, chatID)
	if err != nil {
		log.Printf("chat %s: touch: %v", chatID, err)
	} else {
		a.session.touch(updatedAt)
	}

	if o.OnChatUpdated != nil {
		o.OnChatUpdated(a.auth.UserID, a.session.Chat())
	}
}

func (o *Orchestrator) commit(userID uuid.UUID, m models.Message) {
	if o.OnCommit != nil {
		o.OnCommit(userID, m)
	}
}

// deriveTitle is a fixed-length rune prefix, not word-boundary aware. The
// ellipsis is appended unconditionally, short inputs included.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleRuneLimit {
		runes = runes[:titleRuneLimit]
	}
	return string(runes) + "..."
}
