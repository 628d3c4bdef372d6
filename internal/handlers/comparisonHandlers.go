package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"agentdex/internal/models"
	"agentdex/internal/services"
	"agentdex/internal/utils"
)

type ComparisonHandler struct {
	comparisons services.ComparisonService
	compare     services.CompareService
}

func NewComparisonHandler(comparisons services.ComparisonService, compare services.CompareService) *ComparisonHandler {
	return &ComparisonHandler{comparisons: comparisons, compare: compare}
}

func (h *ComparisonHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	profileID, err := utils.GetProfileID(w, r)
	if err != nil {
		return
	}

	selection := h.comparisons.GetSelection(r.Context(), profileID)
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"selection": selection})
}

func (h *ComparisonHandler) ToggleComparison(w http.ResponseWriter, r *http.Request) {
	profileID, err := utils.GetProfileID(w, r)
	if err != nil {
		return
	}

	var reqBody models.ToggleComparisonRequestBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		log.Error().Err(err).Msg("Error decoding request body for ToggleComparison")
		utils.SendJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if reqBody.Slug == "" {
		utils.SendJSONError(w, "Slug is required", http.StatusBadRequest)
		return
	}

	added, err := h.comparisons.Toggle(r.Context(), profileID, reqBody.Slug)
	if err != nil {
		if errors.Is(err, services.ErrComparisonFull) {
			utils.RespondWithJSON(w, http.StatusConflict, models.ToggleComparisonResponse{
				Added:     false,
				Selection: h.comparisons.GetSelection(r.Context(), profileID),
				Notification: models.Notification{
					Title:   "Comparison full",
					Message: fmt.Sprintf("You can compare up to %d agents at once. Remove one to add another.", models.MaxComparisonItems),
					Kind:    "warning",
				},
			})
			return
		}
		log.Error().Err(err).Str("profileID", profileID).Str("slug", reqBody.Slug).Msg("Error toggling comparison")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	notification := models.Notification{
		Title:   "Removed from comparison",
		Message: reqBody.Slug + " removed from your comparison.",
		Kind:    "info",
	}
	if added {
		notification = models.Notification{
			Title:   "Added to comparison",
			Message: reqBody.Slug + " added to your comparison.",
			Kind:    "success",
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, models.ToggleComparisonResponse{
		Added:        added,
		Selection:    h.comparisons.GetSelection(r.Context(), profileID),
		Notification: notification,
	})
}

func (h *ComparisonHandler) RemoveFromComparison(w http.ResponseWriter, r *http.Request) {
	profileID, err := utils.GetProfileID(w, r)
	if err != nil {
		return
	}
	slug, err := utils.GetSlugFromVars(w, r, "slug")
	if err != nil {
		return
	}

	view, err := h.compare.RemoveFromComparison(r.Context(), profileID, slug)
	if err != nil {
		log.Error().Err(err).Str("profileID", profileID).Str("slug", slug).Msg("Error removing from comparison")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, view)
}

func (h *ComparisonHandler) GetComparisonView(w http.ResponseWriter, r *http.Request) {
	profileID, err := utils.GetProfileID(w, r)
	if err != nil {
		return
	}

	view, err := h.compare.LoadComparison(r.Context(), profileID)
	if err != nil {
		log.Error().Err(err).Str("profileID", profileID).Msg("Error loading comparison view")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, view)
}

func (h *ComparisonHandler) GetComparisonInsight(w http.ResponseWriter, r *http.Request) {
	profileID, err := utils.GetProfileID(w, r)
	if err != nil {
		return
	}

	view, err := h.compare.LoadComparison(r.Context(), profileID)
	if err != nil {
		log.Error().Err(err).Str("profileID", profileID).Msg("Error loading comparison for insight")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	verdict, err := services.LLMCompareAgents(r.Context(), view.Agents)
	if err != nil {
		log.Error().Err(err).Str("profileID", profileID).Msg("Error generating comparison insight")
		statusCode := http.StatusInternalServerError
		if err.Error() == "need at least two agents to compare" {
			statusCode = http.StatusBadRequest
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"insight": verdict})
}

// ComparisonEvents streams selection changes over SSE. The client receives a
// snapshot on connect, then one event per mutation from any source.
func (h *ComparisonHandler) ComparisonEvents(w http.ResponseWriter, r *http.Request) {
	profileID, err := utils.GetProfileID(w, r)
	if err != nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.SendJSONError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := make(chan []string, 8)
	unsubscribe := h.comparisons.Subscribe(profileID, func(items []string) {
		select {
		case events <- items:
		default:
			log.Warn().Str("profileID", profileID).Msg("Comparison event client too slow, dropping event")
		}
	})
	defer unsubscribe()

	writeSelectionEvent(w, h.comparisons.GetSelection(r.Context(), profileID))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case items := <-events:
			writeSelectionEvent(w, items)
			flusher.Flush()
		}
	}
}

func writeSelectionEvent(w http.ResponseWriter, items []string) {
	payload, err := json.Marshal(map[string]any{"selection": items})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode selection event")
		return
	}
	fmt.Fprintf(w, "event: selection\ndata: %s\n\n", payload)
}
