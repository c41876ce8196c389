package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// DefaultPerspectiveURL is the comment analysis endpoint of the Perspective API.
const DefaultPerspectiveURL = "https://commentanalyzer.googleapis.com/v1alpha1/comments:analyze"

type analyzeRequest struct {
	Comment             comment             `json:"comment"`
	Languages           []string            `json:"languages"`
	RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
	DoNotStore          bool                `json:"doNotStore"`
}

type comment struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	AttributeScores map[string]struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

// PerspectiveScorer is a Scorer backed by the Perspective comment analyzer.
type PerspectiveScorer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewPerspectiveScorer creates a scorer. An empty endpoint selects
// DefaultPerspectiveURL.
func NewPerspectiveScorer(endpoint, apiKey string, client *http.Client) *PerspectiveScorer {
	if endpoint == "" {
		endpoint = DefaultPerspectiveURL
	}
	return &PerspectiveScorer{endpoint: endpoint, apiKey: apiKey, client: client}
}

// Score implements Scorer.
func (p *PerspectiveScorer) Score(ctx context.Context, text string) (map[string]float64, error) {
	attrs := make(map[string]struct{}, len(Attributes))
	for _, a := range Attributes {
		attrs[a] = struct{}{}
	}
	body, err := json.Marshal(analyzeRequest{
		Comment:             comment{Text: text},
		Languages:           []string{"en"},
		RequestedAttributes: attrs,
		DoNotStore:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	u, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", p.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perspective request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("perspective returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode perspective response: %w", err)
	}

	scores := make(map[string]float64, len(out.AttributeScores))
	for attr, s := range out.AttributeScores {
		scores[attr] = s.SummaryScore.Value
	}
	return scores, nil
}
