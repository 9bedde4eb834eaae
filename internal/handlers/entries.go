package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"github.com/AnshRaj112/diary-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

const (
	maxTitleLength   = 200
	maxFeelingLength = 32
	maxContentLength = 20000
	maxBulkDelete    = 100
)

type CreateEntryRequest struct {
	Title   string `json:"title"`
	Feeling string `json:"feeling"`
	Content string `json:"content"`
}

type EntryResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Entry   *models.Entry `json:"entry,omitempty"`
}

type ListEntriesResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Entries []models.Entry `json:"entries"`
	Total   int            `json:"total"`
}

type DeleteEntriesRequest struct {
	IDs []string `json:"ids"`
}

type DeleteEntriesResponse struct {
	Success bool              `json:"success"`
	Deleted []string          `json:"deleted"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// validate trims the request and returns the first problem found, if any.
func (req *CreateEntryRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	req.Feeling = strings.TrimSpace(req.Feeling)
	req.Content = strings.TrimSpace(req.Content)

	switch {
	case req.Title == "":
		return "Title is required"
	case req.Content == "":
		return "Content is required"
	case req.Feeling == "":
		return "Feeling is required"
	case utf8.RuneCountInString(req.Title) > maxTitleLength:
		return "Title is too long"
	case utf8.RuneCountInString(req.Feeling) > maxFeelingLength:
		return "Feeling is too long"
	case utf8.RuneCountInString(req.Content) > maxContentLength:
		return "Content is too long"
	}
	return ""
}

// ListEntries returns the signed-in user's entries, newest first. Anonymous
// callers get an empty list. ?date=YYYY-MM-DD (with optional ?tz=) keeps only
// the entries of that calendar day.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	var (
		day time.Time
		loc = time.UTC
	)
	if tz := r.URL.Query().Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ListEntriesResponse{Message: "Invalid time zone", Entries: []models.Entry{}})
			return
		}
		loc = l
	}
	if ds := r.URL.Query().Get("date"); ds != "" {
		d, err := time.ParseInLocation("2006-01-02", ds, loc)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ListEntriesResponse{Message: "Invalid date, expected YYYY-MM-DD", Entries: []models.Entry{}})
			return
		}
		day = d
	}

	entries, err := h.repos.For(userID(r)).Load(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !day.IsZero() {
		entries = services.EntriesOnDay(entries, day, loc)
	}

	writeJSON(w, http.StatusOK, ListEntriesResponse{
		Success: true,
		Entries: entries,
		Total:   len(entries),
	})
}

// CreateEntry adds an entry for the signed-in user.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	entry, err := h.repos.For(uid).Add(r.Context(), req.Title, req.Feeling, req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, EntryResponse{
		Success: true,
		Message: "Entry created successfully",
		Entry:   &entry,
	})
}

// GetEntry returns one entry of the signed-in user.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.repos.For(userID(r)).Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Entry: &entry})
}

// DeleteEntry deletes one entry by id. Unknown ids succeed.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.repos.For(userID(r)).Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Entry deleted")
}

// DeleteEntries deletes several entries; each id succeeds or fails on its own.
func (h *Handler) DeleteEntries(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req DeleteEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		writeMessage(w, http.StatusBadRequest, "ids is required")
		return
	}
	if len(req.IDs) > maxBulkDelete {
		writeMessage(w, http.StatusBadRequest, "Too many ids")
		return
	}

	failures := h.repos.For(uid).DeleteMany(r.Context(), req.IDs)

	resp := DeleteEntriesResponse{
		Success: len(failures) == 0,
		Deleted: make([]string, 0, len(req.IDs)),
	}
	for _, id := range req.IDs {
		if err, failed := failures[id]; failed {
			if resp.Failed == nil {
				resp.Failed = make(map[string]string)
			}
			_, msg := statusFor(err)
			resp.Failed[id] = msg
			continue
		}
		resp.Deleted = append(resp.Deleted, id)
	}

	status := http.StatusOK
	if len(failures) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}
