// Package httpx provides HTTP response utilities.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail is the error body returned by every endpoint. Msg carries
// the short human-readable message; Title and Status follow RFC7807.
type ProblemDetail struct {
	Msg    string `json:"msg"`
	Title  string `json:"title"`
	Status int    `json:"status"`
}

// MessageResponse is the acknowledgement body for mutations without payload.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Message sends a {"msg": ...} acknowledgement.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageResponse{Msg: msg})
}

// Problem sends a problem details response.
func Problem(w http.ResponseWriter, status int, title, msg string) {
	JSON(w, status, ProblemDetail{
		Msg:    msg,
		Title:  title,
		Status: status,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return Errorf(ErrValidation, "Request body required")
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return Errorf(ErrValidation, "Invalid request body")
	}
	return nil
}
