package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

// ProfileIDHeader scopes comparison selections and live search sessions to a
// client profile, the way a browser profile scopes its local storage.
const ProfileIDHeader = "X-Profile-ID"

type jsonError struct {
	Error string `json:"error"`
}

func SendJSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(jsonError{Error: message})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// GetProfileID extracts the client profile identifier from the request. The
// error response is already written when an error is returned.
func GetProfileID(w http.ResponseWriter, r *http.Request) (string, error) {
	profileID := r.Header.Get(ProfileIDHeader)
	if profileID == "" {
		profileID = r.URL.Query().Get("profile")
	}
	if profileID == "" {
		SendJSONError(w, "Missing "+ProfileIDHeader+" header", http.StatusBadRequest)
		return "", errors.New("missing profile ID")
	}
	return profileID, nil
}

// GetSlugFromVars extracts a slug path parameter from mux.Vars.
func GetSlugFromVars(w http.ResponseWriter, r *http.Request, paramName string) (string, error) {
	slug := mux.Vars(r)[paramName]
	if slug == "" {
		SendJSONError(w, "Missing "+paramName+" parameter", http.StatusBadRequest)
		return "", errors.New("missing " + paramName + " parameter")
	}
	return slug, nil
}
