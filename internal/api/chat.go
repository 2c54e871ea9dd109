package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nsharma/gptchat/internal/domain"
	"github.com/nsharma/gptchat/internal/prompt"
	"github.com/nsharma/gptchat/internal/session"
)

// maxRequestBodySize is the maximum allowed request body size (1MB).
const maxRequestBodySize = 1 << 20

// Sender relays an assembled prompt and always returns a displayable reply.
type Sender interface {
	Send(ctx context.Context, text string) string
}

// ChatHandler exposes the session store and relay pipeline over HTTP.
type ChatHandler struct {
	chats *session.Store
	relay Sender
}

// NewChatHandler creates a chat handler.
func NewChatHandler(chats *session.Store, relay Sender) *ChatHandler {
	return &ChatHandler{chats: chats, relay: relay}
}

// RegisterRoutes registers chat routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/chats", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{chatID}", h.Get)
		r.Post("/{chatID}/select", h.Select)
		r.Delete("/{chatID}", h.Delete)
		r.Post("/{chatID}/messages", h.SendMessage)
	})
}

type chatSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CreatedAt    int64  `json:"created_at"`
	MessageCount int    `json:"message_count"`
}

// List returns every chat plus the current selection, ordered by creation.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	state := h.chats.Snapshot()

	summaries := make([]chatSummary, 0, len(state.Chats))
	for id, chat := range state.Chats {
		summaries = append(summaries, chatSummary{
			ID:           id,
			Title:        chat.Title,
			CreatedAt:    chat.CreatedAt.Unix(),
			MessageCount: len(chat.Messages),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt == summaries[j].CreatedAt {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt < summaries[j].CreatedAt
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"chats":   summaries,
		"current": state.CurrentID,
	})
}

// Create allocates a new chat and selects it.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := h.chats.Create(r.Context())
	slog.Info("Chat created", "chat_id", id)
	JSON(w, http.StatusCreated, map[string]string{
		"id":    id,
		"title": domain.DefaultTitle,
	})
}

// Get returns a single chat with its full message history.
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chatID")
	chat, ok := h.chats.Get(id)
	if !ok {
		Error(w, http.StatusNotFound, "chat not found")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"id":       id,
		"title":    chat.Title,
		"messages": chat.Messages,
	})
}

// Select makes the chat current. The store never fabricates a chat on
// selection, so an unknown id is a 404.
func (h *ChatHandler) Select(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chatID")
	if !h.chats.Select(r.Context(), id) {
		Error(w, http.StatusNotFound, "chat not found")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"current": id})
}

// Delete removes the chat. Idempotent: deleting an unknown id still
// answers 204.
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chatID")
	if h.chats.Delete(r.Context(), id) {
		slog.Info("Chat deleted", "chat_id", id)
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendRequest struct {
	Text string `json:"text"`
}

// SendMessage runs one full conversation turn: append the user message,
// derive the title on the first user message, assemble the context prompt,
// relay it, and append the assistant reply. The relay never fails, so the
// worst case is a degraded reply — never an error payload.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chatID")

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		Error(w, http.StatusBadRequest, "text cannot be empty")
		return
	}

	// History is snapshotted before the append: the utterance being sent is
	// passed to the assembler separately, not read back out of the store.
	chat, ok := h.chats.Get(id)
	if !ok {
		Error(w, http.StatusNotFound, "chat not found")
		return
	}
	history := chat.Messages

	h.chats.Append(r.Context(), id, domain.Message{Role: domain.RoleUser, Content: text})

	// First user message names the chat, at most once.
	if chat.Title == domain.DefaultTitle {
		h.chats.SetTitle(r.Context(), id, domain.DeriveTitle(text))
	}

	reply := h.relay.Send(r.Context(), prompt.Build(history, text))

	h.chats.Append(r.Context(), id, domain.Message{Role: domain.RoleAssistant, Content: reply})

	title := chat.Title
	if updated, ok := h.chats.Get(id); ok {
		title = updated.Title
	}

	JSON(w, http.StatusOK, map[string]string{
		"response": reply,
		"title":    title,
	})
}
