package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)

	err := dec.Decode(v)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}

		return fmt.Errorf("invalid request body: %w", err)
	}

	return nil
}

// looseString accepts a JSON string or number and keeps its text, so that
// form fields can be sent either way.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*s = ""

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string

		err := json.Unmarshal(data, &str)
		if err != nil {
			return err
		}

		*s = looseString(str)

		return nil
	}

	var num json.Number

	err := json.Unmarshal(data, &num)
	if err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}

	*s = looseString(num.String())

	return nil
}

func (s looseString) String() string {
	return string(s)
}
