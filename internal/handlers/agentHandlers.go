package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"agentdex/internal/models"
	"agentdex/internal/services"
	"agentdex/internal/utils"
)

type AgentHandler struct {
	service services.AgentService
}

func NewAgentHandler(service services.AgentService) *AgentHandler {
	return &AgentHandler{service: service}
}

func (h *AgentHandler) GetAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.service.GetAgents(r.Context(), r)
	if err != nil {
		log.Error().Err(err).Msg("Error getting agents from service")
		statusCode := http.StatusInternalServerError
		if err.Error() == "page must be a positive integer" {
			statusCode = http.StatusBadRequest
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, agents)
}

func (h *AgentHandler) GetAgentBySlug(w http.ResponseWriter, r *http.Request) {
	slug, err := utils.GetSlugFromVars(w, r, "slug")
	if err != nil {
		return
	}

	agent, err := h.service.GetAgentBySlug(r.Context(), slug)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Error getting agent by slug from service")
		if err.Error() == "agent not found" {
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) SubmitAgent(w http.ResponseWriter, r *http.Request) {
	var reqBody models.SubmitAgentRequestBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		log.Error().Err(err).Msg("Error decoding request body for SubmitAgent")
		utils.SendJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	agent, err := h.service.SubmitAgent(r.Context(), reqBody)
	if err != nil {
		log.Error().Err(err).Msg("Error submitting agent via service")
		statusCode := http.StatusInternalServerError
		switch err.Error() {
		case "name and category are required",
			"slug must contain only lowercase letters, digits and hyphens":
			statusCode = http.StatusBadRequest
		case "an agent with this slug already exists":
			statusCode = http.StatusConflict
		}
		utils.SendJSONError(w, err.Error(), statusCode)
		return
	}

	log.Info().Str("slug", agent.Slug).Msg("Successfully submitted agent")
	utils.RespondWithJSON(w, http.StatusCreated, agent)
}

func (h *AgentHandler) UpvoteAgent(w http.ResponseWriter, r *http.Request) {
	slug, err := utils.GetSlugFromVars(w, r, "slug")
	if err != nil {
		return
	}

	agent, err := h.service.UpvoteAgent(r.Context(), slug)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Error upvoting agent via service")
		if err.Error() == "agent not found" {
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.GetTags(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error getting tags from service")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, tags)
}
