package request

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Encode writes v as a JSON body with the given status code.
func Encode(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("error encoding response: %w", err)
	}
	return nil
}
