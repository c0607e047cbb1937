package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TestContext holds the per-scenario HTTP state shared by every step package.
type TestContext struct {
	BaseURL  string
	ClientID string
	HTTP     *http.Client

	lastStatus int
	lastBody   []byte
	viewIDs    map[string]string
}

// NewTestContext returns a context bound to a fresh browser client.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		ClientID: uuid.NewString(),
		HTTP:     &http.Client{Timeout: 20 * time.Second},
		viewIDs:  make(map[string]string),
	}
}

// Reset switches to a new client identity and forgets previous responses.
func (tc *TestContext) Reset() {
	tc.ClientID = uuid.NewString()
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.viewIDs = make(map[string]string)
}

func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body interface{}) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.do(http.MethodDelete, path, nil)
}

func (tc *TestContext) do(method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Client-ID", tc.ClientID)

	resp, err := tc.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) GetLastResponseStatus() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

// GetResponseField resolves a dotted path such as "view.status" against the
// last JSON response. Numeric segments index into arrays.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var current interface{}
	if err := json.Unmarshal(tc.lastBody, &current); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	for _, part := range strings.Split(field, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			value, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in response", field)
			}
			current = value
		case []interface{}:
			var idx int
			if _, err := fmt.Sscanf(part, "%d", &idx); err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, field)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return current, nil
}

func (tc *TestContext) ResponseContains(field string) bool {
	_, err := tc.GetResponseField(field)
	return err == nil
}

// SaveView remembers the ID of the view returned by the last response.
func (tc *TestContext) SaveView(kind string) error {
	id, err := tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s, ok := id.(string)
	if !ok || s == "" {
		return fmt.Errorf("view id is not a string: %v", id)
	}
	tc.viewIDs[kind] = s
	return nil
}

func (tc *TestContext) ViewID(kind string) (string, error) {
	id, ok := tc.viewIDs[kind]
	if !ok {
		return "", fmt.Errorf("no %s view has been opened", kind)
	}
	return id, nil
}
