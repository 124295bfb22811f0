package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"newvision-backend/internal/models"
)

// NewChatToken is the route sentinel that asks for a fresh chat instead of
// referencing an existing one.
const NewChatToken = "new"

// ChatStore and MessageStore are the slices of the repository layer the chat
// core consumes.
type ChatStore interface {
	Create(ctx context.Context, c *models.Chat) error
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Chat, error)
	Touch(ctx context.Context, id uuid.UUID) (time.Time, error)
	SetTitle(ctx context.Context, id uuid.UUID, title string) error
}

type MessageStore interface {
	Insert(ctx context.Context, m *models.Message) error
	ListByChat(ctx context.Context, chatID uuid.UUID) ([]models.Message, error)
	FirstUserMessage(ctx context.Context, chatID uuid.UUID) (string, error)
}

// ChatSession is a resolved chat plus its visible transcript. The transcript
// is a cache over the durable store: it is mutated only by the send
// orchestrator (optimistic apply, rollback, success append) and fully
// reloaded on each resolution. At most one send may be in flight per session.
type ChatSession struct {
	mu         sync.Mutex
	chat       models.Chat
	transcript []models.Message
	sending    atomic.Bool
}

// NewChatSession builds a live session around an already-resolved chat and
// its loaded history.
func NewChatSession(chat models.Chat, transcript []models.Message) *ChatSession {
	return &ChatSession{chat: chat, transcript: transcript}
}

func (s *ChatSession) Chat() models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat
}

func (s *ChatSession) ChatID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.ID
}

// Messages returns a copy of the visible transcript in display order.
func (s *ChatSession) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// beginSend reserves the session's single in-flight send slot.
func (s *ChatSession) beginSend() bool { return s.sending.CompareAndSwap(false, true) }
func (s *ChatSession) endSend()        { s.sending.Store(false) }

// apply appends a message to the transcript and returns the length before the
// append, the mark a rollback truncates back to.
func (s *ChatSession) apply(m models.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	mark := len(s.transcript)
	s.transcript = append(s.transcript, m)
	return mark
}

func (s *ChatSession) truncate(mark int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mark >= 0 && mark <= len(s.transcript) {
		s.transcript = s.transcript[:mark]
	}
}

// reload replaces the cached chat and transcript from storage. While a send
// is in flight the transcript belongs to the orchestrator (optimistic apply,
// rollback, success append) and a reload would discard the optimistic user
// message, so mid-send the session is left untouched.
func (s *ChatSession) reload(chat models.Chat, messages []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending.Load() {
		return
	}
	s.chat = chat
	s.transcript = messages
}

func (s *ChatSession) setTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.Title = title
}

func (s *ChatSession) touch(updatedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.UpdatedAt = updatedAt
}

// ChatManager resolves route tokens into live chat sessions. Sessions are
// kept in a registry keyed by chat id so repeated resolutions share the same
// in-flight guard and transcript.
type ChatManager struct {
	chats    ChatStore
	messages MessageStore

	mu   sync.Mutex
	open map[uuid.UUID]*ChatSession
}

func NewChatManager(chats ChatStore, messages MessageStore) *ChatManager {
	return &ChatManager{
		chats:    chats,
		messages: messages,
		open:     make(map[uuid.UUID]*ChatSession),
	}
}

// Resolve turns a route token into a live session. The sentinel "new" creates
// a chat owned by the session identity; the assigned id is canonical and the
// caller updates the visible route to it. An existing id is fetched filtered
// by owner: an ownership mismatch reads as NotFound, same as nonexistence.
func (m *ChatManager) Resolve(ctx context.Context, sess *models.Session, routeToken string) (*ChatSession, error) {
	if sess == nil {
		return nil, &UnauthorizedError{Message: "No active session"}
	}

	var chat *models.Chat
	if routeToken == NewChatToken {
		chat = &models.Chat{UserID: sess.UserID}
		if err := m.chats.Create(ctx, chat); err != nil {
			return nil, fmt.Errorf("create chat: %w", err)
		}
	} else {
		chatID, err := uuid.Parse(routeToken)
		if err != nil {
			return nil, &NotFoundError{Message: "Chat not found"}
		}
		chat, err = m.chats.GetByIDForUser(ctx, chatID, sess.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &NotFoundError{Message: "Chat not found"}
			}
			return nil, fmt.Errorf("fetch chat: %w", err)
		}
	}

	messages, err := m.messages.ListByChat(ctx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.open[chat.ID]; ok {
		s.reload(*chat, messages)
		return s, nil
	}
	s := NewChatSession(*chat, messages)
	m.open[chat.ID] = s
	return s, nil
}

// Forget drops a chat's live session, if any. Called when the chat is
// deleted or archived.
func (m *ChatManager) Forget(chatID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, chatID)
}
