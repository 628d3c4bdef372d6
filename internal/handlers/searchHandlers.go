package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"agentdex/internal/models"
	"agentdex/internal/services"
	"agentdex/internal/utils"
)

type SearchHandler struct {
	search services.SearchService
	live   services.LiveSearchService
}

func NewSearchHandler(search services.SearchService, live services.LiveSearchService) *SearchHandler {
	return &SearchHandler{search: search, live: live}
}

// Search runs one ranked pass. A pool fetch failure degrades to an empty
// result list rather than an error page.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := h.search.Search(r.Context(), query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Search failed, returning empty results")
		results = []models.Agent{}
	}

	utils.RespondWithJSON(w, http.StatusOK, models.SearchResponse{
		Query:   query,
		Results: results,
		Total:   len(results),
	})
}

func (h *SearchHandler) LiveSearchQuery(w http.ResponseWriter, r *http.Request) {
	profileID, err := utils.GetProfileID(w, r)
	if err != nil {
		return
	}

	var reqBody models.LiveQueryRequestBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		log.Error().Err(err).Msg("Error decoding request body for LiveSearchQuery")
		utils.SendJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.live.SetQuery(profileID, reqBody.Query)
	w.WriteHeader(http.StatusAccepted)
}

// LiveSearchEvents streams debounced ranking passes for the profile's live
// query over SSE.
func (h *SearchHandler) LiveSearchEvents(w http.ResponseWriter, r *http.Request) {
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

	updates, release := h.live.Open(profileID)
	defer release()

	for {
		select {
		case <-r.Context().Done():
			return
		case update := <-updates:
			payload, err := json.Marshal(update)
			if err != nil {
				log.Error().Err(err).Msg("Failed to encode search update")
				continue
			}
			fmt.Fprintf(w, "event: results\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
