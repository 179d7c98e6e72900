package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"farmsathi/internal/contextstore"
	"farmsathi/internal/history"
	"farmsathi/internal/logger"
	"farmsathi/internal/orchestrator"
	"farmsathi/pkg"
)

const maxMessageLength = 1000

// Server exposes the assistant over HTTP. Identity is trusted as already
// resolved upstream and arrives in the X-User-ID header.
type Server struct {
	orch     *orchestrator.Orchestrator
	history  history.Store
	contexts contextstore.Store
	audioDir string
}

// NewServer builds the HTTP handler around the orchestration core.
func NewServer(orch *orchestrator.Orchestrator, hist history.Store, contexts contextstore.Store, audioDir string) http.Handler {
	s := &Server{orch: orch, history: hist, contexts: contexts, audioDir: audioDir}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat/message", s.handleMessage)
	mux.HandleFunc("GET /api/chat/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/chat/history", s.handleClearHistory)
	if audioDir != "" {
		mux.Handle("GET /audio/", http.StripPrefix("/audio/", http.FileServer(http.Dir(audioDir))))
	}
	return mux
}

// chatRequest is the inbound message body.
type chatRequest struct {
	Message      string `json:"message"`
	Language     string `json:"language"`
	IncludeAudio bool   `json:"include_audio"`
	Context      *struct {
		Location string `json:"location"`
		CropType string `json:"crop_type"`
	} `json:"context,omitempty"`
}

// chatResponse mirrors the assistant response on the wire.
type chatResponse struct {
	Message   string                    `json:"message"`
	AudioURL  string                    `json:"audio_url,omitempty"`
	Data      *pkg.ExternalDataSnapshot `json:"data,omitempty"`
	Type      string                    `json:"type"`
	Timestamp string                    `json:"timestamp"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req chatRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" || len(req.Message) > maxMessageLength {
		writeError(w, http.StatusBadRequest, "message must be between 1 and 1000 characters")
		return
	}

	// Optional profile hints travel with the request, like the original
	// client context payload.
	if req.Context != nil {
		if err := s.contexts.UpdateProfile(r.Context(), userID, req.Context.Location, req.Context.CropType); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("failed to update profile hints")
		}
	}

	resp, err := s.orch.Handle(r.Context(), pkg.AssistantRequest{
		UserID:       userID,
		Message:      req.Message,
		Language:     req.Language,
		IncludeAudio: req.IncludeAudio,
	})
	if err != nil {
		if errors.Is(err, orchestrator.ErrChainExhausted) {
			writeError(w, http.StatusInternalServerError, "assistant is unavailable")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Message:   resp.Text,
		AudioURL:  resp.AudioRef,
		Data:      resp.DataCard,
		Type:      resp.ResponseType,
		Timestamp: resp.Timestamp.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	turns, err := s.history.History(r.Context(), userID, limit)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch history")
		writeError(w, http.StatusInternalServerError, "failed to fetch chat history")
		return
	}

	writeJSON(w, http.StatusOK, turns)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return
	}

	if err := s.history.Clear(r.Context(), userID); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("failed to clear history")
		writeError(w, http.StatusInternalServerError, "failed to clear chat history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
