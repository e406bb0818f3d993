package opensanctions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bryanwahyu/risknet/internal/domain/entities"
	"github.com/bryanwahyu/risknet/internal/domain/sanctions"
)

// Client implements sanctions.Checker against the OpenSanctions search API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type searchResponse struct {
	Results []struct {
		ID         string `json:"id"`
		Caption    string `json:"caption"`
		Schema     string `json:"schema"`
		Datasets   []string `json:"datasets"`
		Properties struct {
			Topics []string `json:"topics"`
		} `json:"properties"`
	} `json:"results"`
	Total struct {
		Value int `json:"value"`
	} `json:"total"`
}

func (c *Client) Check(ctx context.Context, name, country string, kind entities.Kind) (*sanctions.Result, error) {
	q := url.Values{}
	q.Set("q", name)
	q.Set("limit", "10")
	if country != "" {
		q.Set("countries", strings.ToLower(country))
	}
	if kind == entities.KindCompany {
		q.Set("schema", "Company")
	} else {
		q.Set("schema", "Person")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/default?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sanctions.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", sanctions.ErrUnavailable, resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", sanctions.ErrUnavailable, err)
	}

	out := &sanctions.Result{TotalMatches: parsed.Total.Value}
	for _, res := range parsed.Results {
		conf := nameSimilarity(name, res.Caption)
		out.Matches = append(out.Matches, sanctions.Match{
			ID:         res.ID,
			Name:       res.Caption,
			Confidence: conf,
			Topics:     res.Properties.Topics,
			Datasets:   res.Datasets,
			Type:       res.Schema,
		})
		if conf > out.HighestConfidence {
			out.HighestConfidence = conf
		}
	}
	// only a reasonably close name counts as a match
	out.Matched = out.HighestConfidence >= 0.5
	return out, nil
}

// nameSimilarity scores how closely a registry caption matches the queried
// name: exact normalized match is 1.0, otherwise token overlap.
func nameSimilarity(query, candidate string) float64 {
	a := entities.Normalize(query)
	b := entities.Normalize(candidate)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	at := strings.Fields(a)
	bt := strings.Fields(b)
	set := map[string]bool{}
	for _, t := range at {
		set[t] = true
	}
	common := 0
	for _, t := range bt {
		if set[t] {
			common++
		}
	}
	union := len(at) + len(bt) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}
