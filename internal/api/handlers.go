package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mmynk/billchat/internal/auth"
	"github.com/mmynk/billchat/internal/middleware"
	"github.com/mmynk/billchat/internal/models"
	"github.com/mmynk/billchat/internal/session"
	"github.com/mmynk/billchat/internal/storage"
)

type itemView struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	AssignedTo []string `json:"assignedTo"`
}

type messageView struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}

type sessionView struct {
	SessionID string        `json:"sessionId"`
	Title     string        `json:"title"`
	Items     []itemView    `json:"items"`
	Tax       float64       `json:"tax"`
	Tip       float64       `json:"tip"`
	Messages  []messageView `json:"messages"`
	Protected bool          `json:"protected"`
}

type summaryView struct {
	Name     string  `json:"name"`
	Subtotal float64 `json:"subtotal"`
	TaxShare float64 `json:"taxShare"`
	TipShare float64 `json:"tipShare"`
	Total    float64 `json:"total"`
}

func toSessionView(s *models.Session) sessionView {
	items := make([]itemView, len(s.Bill.Items))
	for i, item := range s.Bill.Items {
		assigned := item.AssignedTo
		if assigned == nil {
			assigned = []string{}
		}
		items[i] = itemView{ID: item.ID, Name: item.Name, Price: item.Price, AssignedTo: assigned}
	}
	messages := make([]messageView, len(s.Messages))
	for i, msg := range s.Messages {
		messages[i] = messageView{Role: msg.Role, Text: msg.Text, CreatedAt: msg.CreatedAt}
	}
	return sessionView{
		SessionID: s.ID,
		Title:     s.Title,
		Items:     items,
		Tax:       s.Bill.Tax,
		Tip:       s.Bill.Tip,
		Messages:  messages,
		Protected: s.PassphraseHash != "",
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, session.ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidPassphrase):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, auth.ErrWeakPassphrase):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title      string `json:"title"`
		Passphrase string `json:"passphrase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s, err := a.sessions.CreateSession(r.Context(), req.Title, req.Passphrase)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := a.jwtManager.Generate(s.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token":   token,
		"session": toSessionView(s),
	})
}

func (a *API) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s, err := a.sessions.Join(r.Context(), sessionID, req.Passphrase)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := a.jwtManager.Generate(s.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"session": toSessionView(s),
	})
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.GetSession(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(s))
}

func (a *API) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	image, err := readImage(w, r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "image too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read image"})
		return
	}
	if len(image) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty image"})
		return
	}

	s, err := a.sessions.LoadReceipt(r.Context(), middleware.GetSessionID(r.Context()), image)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(s))
}

// readImage extracts the receipt image from the request: either a multipart
// form's file part (browser FormData uploads) or the raw request body.
func readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageBytes))
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()

	// Prefer the conventional field name, then take any file part.
	file, _, err := r.FormFile("image")
	if err != nil {
		file = firstFilePart(r)
		if file == nil {
			return nil, errors.New("no file part in multipart form")
		}
	}
	defer file.Close()

	return io.ReadAll(file)
}

func firstFilePart(r *http.Request) multipart.File {
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				continue
			}
			return file
		}
	}
	return nil
}

func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s, err := a.sessions.HandleMessage(r.Context(), middleware.GetSessionID(r.Context()), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(s))
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := a.sessions.Summaries(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]summaryView, len(summaries))
	for i, s := range summaries {
		views[i] = summaryView{
			Name:     s.Name,
			Subtotal: s.Subtotal,
			TaxShare: s.TaxShare,
			TipShare: s.TipShare,
			Total:    s.Total,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": views})
}
