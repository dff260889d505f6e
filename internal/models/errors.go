package models

import (
	"encoding/json"
	"net/http"
)

// Machine-readable rejection reasons carried alongside HTTP status codes.
const (
	ReasonInvalidQuestion   = "invalid_question"
	ReasonNoAuthorizedTable = "no_authorized_table"
	ReasonRiskTooHigh       = "risk_too_high"
	ReasonSensitiveData     = "sensitive_data"
)

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func WriteError(w http.ResponseWriter, code int, message string) {
	WriteRejection(w, code, message, "")
}

// WriteRejection writes an error body with a machine-readable reason so
// clients can distinguish policy rejections from plain failures.
func WriteRejection(w http.ResponseWriter, code int, message, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Status:  "error",
		Message: message,
		Code:    code,
		Reason:  reason,
	})
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
