package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"agentdex/internal/models"
	"agentdex/internal/services"
	"agentdex/internal/utils"
)

type CategoryHandler struct {
	service services.CategoryService
}

func NewCategoryHandler(service services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.GetCategories(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error getting categories from service")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) GetCategoryByCode(w http.ResponseWriter, r *http.Request) {
	code, err := utils.GetSlugFromVars(w, r, "code")
	if err != nil {
		return
	}

	category, err := h.service.GetCategoryByCode(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("Error getting category by code from service")
		if err.Error() == "category not found" {
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		log.Error().Err(err).Msg("Error decoding request body for AddCategory")
		utils.SendJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.AddCategory(r.Context(), category)
	if err != nil {
		log.Error().Err(err).Msg("Error adding category via service")
		statusCode := http.StatusInternalServerError
		switch err.Error() {
		case "code and name are required":
			statusCode = http.StatusBadRequest
		case "a category with this code already exists":
			statusCode = http.StatusConflict
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("code", created.Code).Msg("Successfully created category")
	utils.RespondWithJSON(w, http.StatusCreated, created)
}
