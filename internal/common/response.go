package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Envelope is the body of every response: success, status and one of
// message/error, plus any payload keys.
type Envelope map[string]any

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, Envelope{"success": false, "status": code, "error": message})
}

// RespondWithSuccess writes a success envelope; data keys are merged into the body.
func RespondWithSuccess(w http.ResponseWriter, code int, message string, data Envelope) {
	body := Envelope{"success": true, "status": code, "message": message}
	for k, v := range data {
		body[k] = v
	}
	RespondWithJSON(w, code, body)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"status":500,"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithFault is the single exit for dependency and unexpected errors.
// Mail transport authentication and rate-limit failures are reported
// distinctly; nothing else leaks driver detail to the client.
func RespondWithFault(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTransportAuth):
		RespondWithError(w, http.StatusInternalServerError, "Authentication failed. Please check your email credentials.")
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrTooManyRequests):
		RespondWithError(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
	case errors.Is(err, ErrMailDeliveryFailed):
		RespondWithError(w, http.StatusServiceUnavailable, ErrMailDeliveryFailed.Msg)
	default:
		RespondWithError(w, http.StatusInternalServerError, "Something happened")
	}
}

// RespondWithServiceError answers business errors with their own message and
// status, and routes everything else through RespondWithFault.
func RespondWithServiceError(w http.ResponseWriter, err error) {
	if IsBusinessError(err) {
		RespondWithError(w, HTTPStatusFromError(err), err.Error())
		return
	}
	RespondWithFault(w, err)
}
