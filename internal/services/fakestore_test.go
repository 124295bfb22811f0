package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"newvision-backend/internal/models"
)

// fakeStore backs both ChatStore and MessageStore in-memory. Messages keep
// insertion order, matching the store's created_at/id ordering.
type fakeStore struct {
	mu       sync.Mutex
	chats    map[uuid.UUID]*models.Chat
	messages []models.Message
	nextID   int64
	clock    time.Time

	createErr  error
	insertErr  map[string]error // keyed by role
	createdLog int              // number of Create calls

	onInsert func(m *models.Message) // observation hook, called before persisting
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chats:     make(map[uuid.UUID]*models.Chat),
		insertErr: make(map[string]error),
		clock:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Millisecond)
	return f.clock
}

func (f *fakeStore) Create(ctx context.Context, c *models.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.createdLog++
	c.ID = uuid.New()
	if c.Title == "" {
		c.Title = models.DefaultChatTitle
	}
	now := f.tick()
	c.CreatedAt = now
	c.UpdatedAt = now
	stored := *c
	f.chats[c.ID] = &stored
	return nil
}

func (f *fakeStore) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[id]
	if !ok || c.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (f *fakeStore) Touch(ctx context.Context, id uuid.UUID) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[id]
	if !ok {
		return time.Time{}, pgx.ErrNoRows
	}
	c.UpdatedAt = f.tick()
	return c.UpdatedAt, nil
}

func (f *fakeStore) SetTitle(ctx context.Context, id uuid.UUID, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.Title = title
	return nil
}

func (f *fakeStore) Insert(ctx context.Context, m *models.Message) error {
	f.mu.Lock()
	hook := f.onInsert
	f.mu.Unlock()
	if hook != nil {
		hook(m)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.insertErr[m.Role]; err != nil {
		return err
	}
	f.nextID++
	m.ID = f.nextID
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeStore) ListByChat(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) FirstUserMessage(ctx context.Context, chatID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ChatID == chatID && m.Role == models.RoleUser {
			return m.Content, nil
		}
	}
	return "", pgx.ErrNoRows
}

// fakeInference is a scripted Inference implementation.
type fakeInference struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   []InferenceRequest
	tokens  []string
	release chan struct{} // when set, Generate blocks until closed
	onCall  func()
}

func (f *fakeInference) Generate(ctx context.Context, accessToken string, req InferenceRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.tokens = append(f.tokens, accessToken)
	release := f.release
	hook := f.onCall
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if release != nil {
		<-release
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
