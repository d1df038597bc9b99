package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shineum/bulkmail-lite/internal/dispatch"
	"github.com/shineum/bulkmail-lite/internal/email"
	"github.com/shineum/bulkmail-lite/internal/extract"
)

// User-facing messages shown by the form.
const (
	msgParseFailed = "Failed to read Excel file."
	msgIncomplete  = "Please fill subject, body, and upload a valid Excel file."
	msgBusy        = "A send is already in progress."
)

// uploadField is the multipart field carrying the spreadsheet.
const uploadField = "file"

type extractResponse struct {
	Emails []string `json:"emails"`
	Count  int      `json:"count"`
}

type sendResponse struct {
	Results []email.Result `json:"results"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Sending  bool   `json:"sending"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, indexData{Provider: s.config.Dispatcher.Provider().Name()}); err != nil {
		slog.Error("failed to render index", "error", err, "request_id", requestIDFrom(r.Context()))
	}
}

// handleExtract reads an uploaded spreadsheet and returns the addresses found.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadSize)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	emails, err := extract.EmailsFrom(file)
	if err != nil {
		slog.Warn("failed to read spreadsheet",
			"filename", header.Filename,
			"error", err,
			"request_id", requestIDFrom(r.Context()),
		)
		writeError(w, http.StatusUnprocessableEntity, msgParseFailed)
		return
	}

	slog.Info("extracted addresses",
		"filename", header.Filename,
		"count", len(emails),
		"request_id", requestIDFrom(r.Context()),
	)
	writeJSON(w, http.StatusOK, extractResponse{Emails: emails, Count: len(emails)})
}

// handleSend dispatches the composed message. Once issued the dispatch is not
// cancelled by the client going away.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadSize)

	var msg email.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Recipients normally come from /api/extract; anything else is re-checked.
	for _, rcpt := range msg.Recipients {
		if !extract.IsValid(rcpt) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid recipient address %q", rcpt))
			return
		}
	}

	ctx := context.WithoutCancel(r.Context())
	results, err := s.config.Dispatcher.Send(ctx, msg.Subject, msg.Text, msg.Recipients)
	switch {
	case errors.Is(err, dispatch.ErrInFlight):
		writeError(w, http.StatusConflict, msgBusy)
		return
	case errors.Is(err, email.ErrValidation):
		writeError(w, http.StatusBadRequest, msgIncomplete)
		return
	case err != nil:
		slog.Error("unexpected dispatch error", "error", err, "request_id", requestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{Results: results})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Provider: s.config.Dispatcher.Provider().Name(),
		Sending:  s.config.Dispatcher.Busy(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
