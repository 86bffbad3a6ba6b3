package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxJSONBody caps JSON request bodies; file uploads go through multipart
// parsing with their own limit.
const maxJSONBody = 1 << 20

// ParseJSON decodes a JSON request body into dest. The body is size-limited
// so a hostile client cannot buffer arbitrary amounts of memory.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
