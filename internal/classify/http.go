package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Label *int `json:"label"`
}

// HTTPClassifier posts text to a model server and reads back its label.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier creates a classifier for the model server at url. client
// should carry the timeout and retry policy; see package httpclient.
func NewHTTPClassifier(url string, client *http.Client) *HTTPClassifier {
	return &HTTPClassifier{url: url, client: client}
}

// Predict implements Classifier.
func (c *HTTPClassifier) Predict(ctx context.Context, text string) (int, error) {
	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode classifier response: %w", err)
	}
	if out.Label == nil {
		return 0, fmt.Errorf("classifier response has no label")
	}
	return *out.Label, nil
}
