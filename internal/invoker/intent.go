package invoker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Intent describes one user action: what to call and with which form values.
type Intent struct {
	Method  string
	BaseURL string

	// ID is the record identifier; PUT appends it to BaseURL.
	ID    string
	Title string
	Body  string
}

type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func normalizeMethod(m string) (string, error) {
	switch method := strings.ToUpper(strings.TrimSpace(m)); method {
	case http.MethodGet, http.MethodPost, http.MethodPut:
		return method, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, m)
	}
}

// Target returns the URL the intent is sent to.
func (in Intent) Target() string {
	if strings.EqualFold(strings.TrimSpace(in.Method), http.MethodPut) {
		return in.BaseURL + "/" + in.ID
	}
	return in.BaseURL
}

// missingFields reports whether a write intent lacks a required value.
// Presence only: whitespace counts as a value.
func (in Intent) missingFields(method string) bool {
	if in.Title == "" || in.Body == "" {
		return true
	}
	return method == http.MethodPut && in.ID == ""
}

// encodePayload renders {"title":...,"body":...} without HTML escaping.
func (in Intent) encodePayload() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload{Title: in.Title, Body: in.Body}); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
