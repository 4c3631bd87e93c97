package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rgdevment/urlinfo/internal/domain"
)

const maxBodyBytes = 64 << 10

type CreateRecordRequest struct {
	Domain string `json:"domain"`
	URI    string `json:"uri"`
	Result string `json:"result"`
}

// decodeCreateRecord reads exactly one JSON object from the body.
// Field-level validation belongs to the ingestion engine.
func decodeCreateRecord(w http.ResponseWriter, r *http.Request) (*CreateRecordRequest, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	var req CreateRecordRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object: %v", domain.ErrInvalidPayload, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: body must contain a single JSON object", domain.ErrInvalidPayload)
	}
	return &req, nil
}

type LookupResponse struct {
	Error      bool   `json:"error"`
	URL        string `json:"url"`
	Reputation string `json:"reputation"`
	Message    string `json:"message,omitempty"`
}

type ListingResponse struct {
	Error bool     `json:"error"`
	URLs  []string `json:"urls"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
