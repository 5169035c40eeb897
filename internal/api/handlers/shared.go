package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds request bodies. An analyze request carries at most 100 records.
const maxBodyBytes = 1 << 20

var (
	errEmptyBody    = errors.New("empty request body")
	errTrailingData = errors.New("unexpected data after JSON body")
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("failed to encode JSON")
		}
	}
}

// parseJSON decodes the request body into T. Trailing data after the first JSON
// value is an error.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, errEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errEmptyBody
		}
		return v, err
	}
	if dec.More() {
		return v, errTrailingData
	}
	return v, nil
}
