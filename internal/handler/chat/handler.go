package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	modelchat "github.com/freshpick/smartshop/backend/internal/model/chat"
	"github.com/freshpick/smartshop/backend/internal/service/ai"
	chatservice "github.com/freshpick/smartshop/backend/internal/service/chat"
	"github.com/freshpick/smartshop/backend/internal/service/preferences"
	"github.com/freshpick/smartshop/backend/pkg/utils"
)

// Appended to the returned reply (never the stored turn) when generation hit
// a truncation signal.
const truncationNote = "\n\n[Note: response may have been truncated. You can ask the assistant to continue.]"

// Invoker runs the bounded generation cycle and cleans its output.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (ai.Outcome, error)
	Sanitize(text string, resp *ai.Response) string
}

// PreferenceResolver looks up preference labels for a caller. Implementations
// fail open; a lookup never errors into the chat path.
type PreferenceResolver interface {
	Resolve(ctx context.Context, phone string) preferences.Result
}

// Handler serves the chat endpoints.
type Handler struct {
	chatSvc  *chatservice.Service
	prefs    PreferenceResolver
	invoker  Invoker
	maxTurns int
	log      *logrus.Logger
}

// New creates the chat handler. maxTurns bounds the history suffix rendered
// into each prompt.
func New(chatSvc *chatservice.Service, prefs PreferenceResolver, invoker Invoker, maxTurns int, log *logrus.Logger) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		prefs:    prefs,
		invoker:  invoker,
		maxTurns: maxTurns,
		log:      log,
	}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/chat/clear-session", h.handleClearSession)
	r.Get("/chat", h.handleDemoPage)
}

type chatRequest struct {
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type chatResponse struct {
	Success   bool   `json:"success"`
	Reply     string `json:"reply"`
	Truncated bool   `json:"truncated,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message required")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = chatservice.DefaultSessionID
	}

	ctx := r.Context()
	prefs := h.prefs.Resolve(ctx, payload.Phone)

	h.chatSvc.Append(sessionID, modelchat.RoleUser, payload.Message)
	recent := h.chatSvc.Recent(sessionID, h.maxTurns)
	prompt := ai.BuildPrompt(ai.SystemInstruction(prefs), recent)

	outcome, err := h.invoker.Invoke(ctx, prompt)
	if err != nil {
		// Full detail stays in the operator log; the client gets the generic
		// envelope only.
		h.log.WithError(err).WithField("session", sessionID).Error("[chat] generation failed")
		utils.RespondError(w, http.StatusInternalServerError, "AI error")
		return
	}

	reply := h.invoker.Sanitize(outcome.Text, outcome.Response)
	h.chatSvc.Append(sessionID, modelchat.RoleAssistant, reply)

	if outcome.Truncated {
		utils.RespondJSON(w, http.StatusOK, chatResponse{
			Success:   true,
			Reply:     reply + truncationNote,
			Truncated: true,
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{Success: true, Reply: reply})
}

func (h *Handler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	// Absent or malformed bodies clear the default session.
	_ = json.NewDecoder(r.Body).Decode(&payload)

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = chatservice.DefaultSessionID
	}

	h.chatSvc.Clear(sessionID)
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
