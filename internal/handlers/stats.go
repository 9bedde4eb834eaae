package handlers

import (
	"net/http"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"github.com/AnshRaj112/diary-backend/internal/services"
)

// recentEntriesOnProfile is how many entries the profile summary shows
const recentEntriesOnProfile = 2

type FeelingStatsResponse struct {
	Success  bool                    `json:"success"`
	Total    int                     `json:"total"`
	Feelings []services.FeelingShare `json:"feelings"`
}

type FeelingOptionsResponse struct {
	Success  bool     `json:"success"`
	Feelings []string `json:"feelings"`
}

type MeResponse struct {
	Success      bool                    `json:"success"`
	Profile      models.Profile          `json:"profile"`
	TotalEntries int                     `json:"total_entries"`
	Feelings     []services.FeelingShare `json:"feelings"`
	Recent       []models.Entry          `json:"recent"`
}

// FeelingStats returns the feeling distribution of the user's entries.
func (h *Handler) FeelingStats(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repos.For(userID(r)).Load(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FeelingStatsResponse{
		Success:  true,
		Total:    len(entries),
		Feelings: services.RankFeelings(services.FeelingPercentages(entries)),
	})
}

// FeelingOptions lists the emoji offered when writing an entry.
func FeelingOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FeelingOptionsResponse{
		Success:  true,
		Feelings: services.FeelingOptions,
	})
}

// Me returns the profile summary: who the user is, how many entries they
// wrote, their feeling distribution and their latest entries. The profile
// is recorded on first call.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := services.PrincipalFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.profiles.Ensure(r.Context(), principal)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	entries, err := h.repos.For(principal.UserID).Load(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{
		Success:      true,
		Profile:      profile,
		TotalEntries: len(entries),
		Feelings:     services.RankFeelings(services.FeelingPercentages(entries)),
		Recent:       services.RecentEntries(entries, recentEntriesOnProfile),
	})
}
