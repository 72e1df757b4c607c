package trust

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// RESTCallTimeout bounds a single outbound score lookup.
const RESTCallTimeout = 3 * time.Second

// REST is a Resolver backed by a GET <base>/v1/score/<agentID> endpoint
// returning {"score": number}. Any non-200 response, transport error, or
// body that doesn't parse degrades to unknown rather than an error, since
// the admission layer treats a resolver failure as unknown regardless.
type REST struct {
	baseURL string
	client  *http.Client
}

var _ Resolver = (*REST)(nil)

// NewREST builds a REST resolver against baseURL.
func NewREST(baseURL string) *REST {
	return &REST{
		baseURL: baseURL,
		client:  &http.Client{Timeout: RESTCallTimeout},
	}
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

// GetScore queries the configured endpoint for agentID's score.
func (r *REST) GetScore(ctx context.Context, agentID string) (*int, error) {
	endpoint := fmt.Sprintf("%s/v1/score/%s", r.baseURL, url.PathEscape(agentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var parsed scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, nil
	}

	return clamped(int(parsed.Score)), nil
}

// Close releases the resolver's HTTP transport connections.
func (r *REST) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
