// Package apiclient talks to the quiz service's JSON API.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"quiz-master/internal/quiz"
)

const DefaultBaseURL = "http://127.0.0.1:5000"

var ErrServiceUnavailable = errors.New("quiz service unavailable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// NotFound reports whether err is an APIError with status 404.
func NotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) ListQuizzes(ctx context.Context) ([]quiz.Quiz, error) {
	var quizzes []quiz.Quiz
	if err := c.getJSON(ctx, "/api/quizzes", &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (c *Client) GetQuiz(ctx context.Context, quizID string) (quiz.Quiz, error) {
	if strings.TrimSpace(quizID) == "" {
		return quiz.Quiz{}, errors.New("quiz id is required")
	}

	var item quiz.Quiz
	if err := c.getJSON(ctx, "/api/quizzes/"+url.PathEscape(quizID), &item); err != nil {
		return quiz.Quiz{}, err
	}
	return item, nil
}

// GetQuestions returns a fresh selection for one attempt. An empty slice
// means the quiz has no questions.
func (c *Client) GetQuestions(ctx context.Context, quizID string) ([]quiz.Question, error) {
	if strings.TrimSpace(quizID) == "" {
		return nil, errors.New("quiz id is required")
	}

	var questions []quiz.Question
	if err := c.getJSON(ctx, "/api/questions/"+url.PathEscape(quizID), &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// ImageURL resolves a question image against the service address.
func (c *Client) ImageURL(image string) string {
	return quiz.ResolveImageURL(c.baseURL, image)
}

func (c *Client) getJSON(ctx context.Context, path string, responseBody any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
