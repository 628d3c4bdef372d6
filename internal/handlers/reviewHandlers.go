package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"agentdex/internal/models"
	"agentdex/internal/services"
	"agentdex/internal/utils"
)

type ReviewHandler struct {
	service services.ReviewService
}

func NewReviewHandler(service services.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) GetReviews(w http.ResponseWriter, r *http.Request) {
	slug, err := utils.GetSlugFromVars(w, r, "slug")
	if err != nil {
		return
	}

	reviews, err := h.service.GetReviews(r.Context(), slug, r)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Error getting reviews from service")
		statusCode := http.StatusInternalServerError
		if err.Error() == "page must be a positive integer" {
			statusCode = http.StatusBadRequest
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	slug, err := utils.GetSlugFromVars(w, r, "slug")
	if err != nil {
		return
	}

	var reqBody models.AddReviewRequestBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		log.Error().Err(err).Msg("Error decoding request body for AddReview")
		utils.SendJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	review, err := h.service.AddReview(r.Context(), slug, reqBody)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Error adding review via service")
		statusCode := http.StatusInternalServerError
		switch err.Error() {
		case "author is required", "rating must be between 1 and 5":
			statusCode = http.StatusBadRequest
		case "agent not found":
			statusCode = http.StatusNotFound
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("slug", slug).Str("review_id", review.ID.Hex()).Msg("Successfully created review")
	utils.RespondWithJSON(w, http.StatusCreated, review)
}
