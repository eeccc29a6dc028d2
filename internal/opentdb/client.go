// Package opentdb fetches generated trivia questions from the Open Trivia DB.
package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultBaseURL = "https://opentdb.com/api.php"
	defaultAmount  = 10
	// MaxAmount is the largest batch the API serves in one call.
	MaxAmount = 50
)

// RawQuestion mirrors the OpenTriviaDB question payload.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []RawQuestion `json:"results"`
}

// Query narrows a fetch. Zero values leave the API defaults in place.
type Query struct {
	Amount     int
	Category   int
	Difficulty string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient uses httpClient for every request; nil means http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, baseURL: DefaultBaseURL}
}

// WithBaseURL returns a copy of the client pointed at another endpoint.
func (c *Client) WithBaseURL(baseURL string) *Client {
	clone := *c
	if strings.TrimSpace(baseURL) != "" {
		clone.baseURL = baseURL
	}
	return &clone
}

func (c *Client) FetchQuestions(ctx context.Context, amount int) ([]RawQuestion, error) {
	return c.Fetch(ctx, Query{Amount: amount})
}

// Fetch requests multiple-choice questions only, so every result has one
// correct and three incorrect answers.
func (c *Client) Fetch(ctx context.Context, query Query) ([]RawQuestion, error) {
	amount := query.Amount
	if amount <= 0 {
		amount = defaultAmount
	}
	if amount > MaxAmount {
		amount = MaxAmount
	}

	params := url.Values{}
	params.Set("amount", strconv.Itoa(amount))
	params.Set("type", "multiple")
	if query.Category > 0 {
		params.Set("category", strconv.Itoa(query.Category))
	}
	if d := strings.ToLower(strings.TrimSpace(query.Difficulty)); d != "" {
		params.Set("difficulty", d)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opentdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opentdb returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode opentdb response: %w", err)
	}

	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb response_code=%d", payload.ResponseCode)
	}

	return payload.Results, nil
}
