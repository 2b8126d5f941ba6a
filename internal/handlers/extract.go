package handlers

import (
	"net/http"

	"github.com/ukydev/maintenance-tracker/internal/extract"
)

type extractRequest struct {
	Text string `json:"text"`
}

// Extract prefills a record form from recognized document text. Every field of
// the response may be null.
func Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, extract.Extract(req.Text))
}
