package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"newvision-backend/internal/middleware"
	"newvision-backend/internal/models"
	"newvision-backend/internal/services"
)

type chatResolver interface {
	Resolve(ctx context.Context, sess *models.Session, routeToken string) (*services.ChatSession, error)
	Forget(chatID uuid.UUID)
}

type chatSender interface {
	Send(ctx context.Context, sess *services.ChatSession, auth *models.Session, subject, language, text string) (*services.SendResult, error)
}

type chatStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Chat, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (bool, error)
	SetArchived(ctx context.Context, id, userID uuid.UUID, archived bool) (bool, error)
	SetPinned(ctx context.Context, id, userID uuid.UUID, pinned bool) (bool, error)
}

type ChatHandler struct {
	manager      chatResolver
	orchestrator chatSender
	chats        chatStore
}

func NewChatHandler(manager chatResolver, orchestrator chatSender, chats chatStore) *ChatHandler {
	return &ChatHandler{
		manager:      manager,
		orchestrator: orchestrator,
		chats:        chats,
	}
}

// Open resolves the route token ("new" or an existing chat id) into a chat
// plus its full ordered history. For "new" the returned id is canonical and
// the client is expected to rewrite its route to it.
func (h *ChatHandler) Open(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	chatSession, err := h.manager.Resolve(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	messages := chatSession.Messages()
	if messages == nil {
		messages = []models.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chat":     chatSession.Chat(),
		"messages": messages,
	})
}

// List returns the sidebar view: pinned chats first, then most recently
// updated. Archived chats are excluded.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	chats, err := h.chats.ListByUser(r.Context(), sess.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load chats", r))
		return
	}
	if chats == nil {
		chats = []*models.Chat{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	chatSession, err := h.manager.Resolve(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	messages := chatSession.Messages()
	if messages == nil {
		messages = []models.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// Send runs the send protocol for one user turn and returns the committed
// pair plus the reconciled chat metadata.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	var req struct {
		Subject  string `json:"subject"`
		Language string `json:"language"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Subject == "" {
		req.Subject = models.DefaultSubject
	}
	if req.Language == "" {
		req.Language = models.DefaultLanguage
	}
	if !models.ValidSubject(req.Subject) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown subject", r))
		return
	}
	if !models.ValidLanguage(req.Language) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown language", r))
		return
	}

	chatSession, err := h.manager.Resolve(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.orchestrator.Send(r.Context(), chatSession, sess, req.Subject, req.Language, req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	chatID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
		return
	}

	ok, err := h.chats.Delete(r.Context(), chatID, sess.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete chat", r))
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
		return
	}

	h.manager.Forget(chatID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat deleted"})
}

func (h *ChatHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, "archived")
}

func (h *ChatHandler) Pin(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, "pinned")
}

// setFlag covers the sidebar menu toggles. The body is optional; absence
// means "set", matching the menu's one-way actions.
func (h *ChatHandler) setFlag(w http.ResponseWriter, r *http.Request, flag string) {
	sess := middleware.GetSession(r.Context())

	chatID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
		return
	}

	value := true
	var req map[string]bool
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		if v, present := req[flag]; present {
			value = v
		}
	}

	var ok bool
	if flag == "archived" {
		ok, err = h.chats.SetArchived(r.Context(), chatID, sess.UserID, value)
	} else {
		ok, err = h.chats.SetPinned(r.Context(), chatID, sess.UserID, value)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update chat", r))
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
		return
	}

	if flag == "archived" && value {
		h.manager.Forget(chatID)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat updated"})
}
