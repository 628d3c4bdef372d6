package handlers

import (
	"net/http"

	"agentdex/internal/database"
	"agentdex/internal/kvstore"
	"agentdex/internal/utils"
)

type CommonHandler struct {
	db database.Service
	kv kvstore.Service
}

func NewCommonHandler(db database.Service, kv kvstore.Service) *CommonHandler {
	return &CommonHandler{db: db, kv: kv}
}

func (h *CommonHandler) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Hello from Agentdex"})
}

func (h *CommonHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]map[string]string{
		"database": h.db.Health(),
		"kvstore":  h.kv.Health(),
	})
}
