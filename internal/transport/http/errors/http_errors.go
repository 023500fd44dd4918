package errors

import (
	"encoding/json"
	"net/http"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConfirmationError tells the client an operation needs an explicit operator
// decision before it may proceed; the client re-submits with confirmed=true.
type ConfirmationError struct {
	Code            string `json:"code"`
	Message         string `json:"message"`
	ConfirmRequired bool   `json:"confirm_required"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
