package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"subtrack/internal/backup"
	"subtrack/internal/core"
	"subtrack/internal/storage"
)

const maxImportSize = 5 << 20 // 5 MiB

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Today      string
		Categories []core.Category
	}{
		Today: formatDate(time.Now().UTC()),
		Categories: []core.Category{
			core.Streaming, core.Music, core.Software,
			core.Shopping, core.Fitness, core.Other,
		},
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleSubscriptions handles POST /subscriptions (create).
func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	sub, err := ParseSubscriptionForm(r.Form)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.store.Create(r.Context(), sub)
	if err != nil {
		if isValidationError(err) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Subscription create error", "error", err, "name", sub.Name)
		InternalServerError("Failed to save subscription").Write(w)
		return
	}

	s.fragmentCache.Purge()

	NewHTMXResponse().
		TriggerSubscriptionChanged(created.ID).
		TriggerFormReset().
		TriggerSuccessNotification("Subscription added: " + created.Name).
		BodyHTML(`<div class="success">Saved ` + template.HTMLEscapeString(created.Name) + `</div>`).
		Write(w)
}

// handleSubscriptionByID handles PUT and DELETE on /subscriptions/{id}.
func (s *Server) handleSubscriptionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/subscriptions/")
	if id == "" || strings.Contains(id, "/") {
		NotFoundError("Subscription not found").Write(w)
		return
	}

	switch r.Method {
	case http.MethodPut, http.MethodPost:
		s.updateSubscription(w, r, id)
	case http.MethodDelete:
		s.deleteSubscription(w, r, id)
	default:
		MethodNotAllowedError("PUT, POST, DELETE").Write(w)
	}
}

func (s *Server) updateSubscription(w http.ResponseWriter, r *http.Request, id string) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	sub, err := ParseSubscriptionForm(r.Form)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	sub.ID = id

	updated, err := s.store.Update(r.Context(), sub)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			NotFoundError("Subscription not found").Write(w)
			return
		}
		if isValidationError(err) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Subscription update error", "error", err, "id", id)
		InternalServerError("Failed to update subscription").Write(w)
		return
	}

	s.fragmentCache.Purge()

	NewHTMXResponse().
		TriggerSubscriptionChanged(updated.ID).
		TriggerSuccessNotification("Subscription updated: " + updated.Name).
		BodyHTML(`<div class="success">Updated ` + template.HTMLEscapeString(updated.Name) + `</div>`).
		Write(w)
}

func (s *Server) deleteSubscription(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			NotFoundError("Subscription not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Subscription delete error", "error", err, "id", id)
		InternalServerError("Failed to delete subscription").Write(w)
		return
	}

	s.fragmentCache.Purge()

	NewHTMXResponse().
		TriggerSubscriptionChanged(id).
		TriggerSuccessNotification("Subscription deleted").
		Write(w)
}

// handleExport streams the whole collection as a JSON backup download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	subs, err := s.store.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Subscription list error on export", "error", err)
		http.Error(w, "failed to export subscriptions", http.StatusInternalServerError)
		return
	}

	payload := backup.Export(subs, time.Now())
	filename := fmt.Sprintf("subscriptions-%s.json", time.Now().UTC().Format("2006-01-02"))

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "Export encode error", "error", err)
	}
}

// handleImport replaces the collection with an uploaded backup file. The
// import is all-or-nothing: any invalid record rejects the upload and the
// current data stays untouched.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}

	data, err := readImportBody(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	subs, err := backup.Import(data)
	if err != nil {
		slog.WarnContext(r.Context(), "Import rejected", "error", err)
		UnprocessableEntityError("Invalid backup file: " + err.Error()).Write(w)
		return
	}

	if err := s.store.Import(r.Context(), subs); err != nil {
		slog.ErrorContext(r.Context(), "Import error", "error", err, "count", len(subs))
		InternalServerError("Failed to import subscriptions").Write(w)
		return
	}

	s.fragmentCache.Purge()

	NewHTMXResponse().
		TriggerSubscriptionChanged("").
		TriggerSuccessNotification(fmt.Sprintf("Imported %d subscriptions", len(subs))).
		BodyHTML(fmt.Sprintf(`<div class="success">Imported %d subscriptions</div>`, len(subs))).
		Write(w)
}

// readImportBody accepts either a multipart upload with a "file" field or
// a raw JSON body.
func readImportBody(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			return nil, errors.New("invalid multipart upload")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("missing backup file")
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxImportSize))
		if err != nil {
			return nil, errors.New("failed to read backup file")
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	return data, nil
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrEmptyID, core.ErrEmptyName, core.ErrInvalidPrice,
		core.ErrInvalidCycle, core.ErrInvalidCurrency, core.ErrInvalidType,
		core.ErrZeroStartDate, core.ErrInvalidDateRange,
		core.ErrNameTooLong, core.ErrDescTooLong,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
