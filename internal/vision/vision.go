// Package vision is the client for the plant.id health assessment API.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/01moynul/agritech-golang/internal/apperr"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Disease is one candidate diagnosis returned by the API.
type Disease struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// Assessment is the parsed health assessment of a single image.
type Assessment struct {
	PlantName          *string
	HealthyProbability float64
	Diseases           []Disease
}

// Client talks to plant.id. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewClient builds a client with a traced transport and a circuit breaker
// that opens after five consecutive upstream failures.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if apiKey == "" {
		log.Println("WARNING: PLANT_ID_API_KEY is not set. Disease detection will be unavailable.")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    "plant.id",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// Rejected images are the caller's problem, not the upstream's.
			IsSuccessful: func(err error) bool {
				return err == nil || apperr.KindOf(err) == apperr.KindInvalid
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
			},
		}),
	}
}

type assessRequest struct {
	Images       []string `json:"images"`
	PlantDetails []string `json:"plant_details"`
	Language     string   `json:"language"`
}

type healthResponse struct {
	HealthAssessment struct {
		IsHealthy            json.RawMessage `json:"is_healthy"`
		IsHealthyProbability *float64        `json:"is_healthy_probability"`
		Plant                *struct {
			Name string `json:"name"`
		} `json:"plant"`
		Diseases []Disease `json:"diseases"`
	} `json:"health_assessment"`
}

type identifyResponse struct {
	Suggestions []struct {
		PlantDetails struct {
			CommonNames []string `json:"common_names"`
		} `json:"plant_details"`
	} `json:"suggestions"`
}

// Assess runs a health assessment on one image. When the assessment does
// not name the plant, an identification call fills it in; a failing
// identification leaves PlantName nil.
func (c *Client) Assess(ctx context.Context, image []byte) (*Assessment, error) {
	const op = "vision.Assess"
	if c.apiKey == "" {
		return nil, apperr.Unavailable(op, errors.New("plant.id api key not configured"))
	}
	encoded := base64.StdEncoding.EncodeToString(image)

	// 1. --- Health assessment ---
	body, err := c.post(ctx, "/health_assessment", assessRequest{
		Images:       []string{encoded},
		PlantDetails: []string{"diseases"},
		Language:     "en",
	})
	if err != nil {
		return nil, err
	}
	var hr healthResponse
	if err := json.Unmarshal(body, &hr); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindInvalid, Op: op, Message: "unexpected response from plant.id", Err: err}
	}

	a := &Assessment{
		HealthyProbability: healthyProbability(hr),
		Diseases:           hr.HealthAssessment.Diseases,
	}
	if p := hr.HealthAssessment.Plant; p != nil && p.Name != "" && p.Name != "Unknown" {
		name := p.Name
		a.PlantName = &name
		return a, nil
	}

	// 2. --- Identify fallback ---
	name, err := c.identify(ctx, encoded)
	if err != nil {
		log.Printf("WARNING: plant identification failed: %v", err)
		return a, nil
	}
	a.PlantName = name
	return a, nil
}

func (c *Client) identify(ctx context.Context, encoded string) (*string, error) {
	body, err := c.post(ctx, "/identify", assessRequest{
		Images:       []string{encoded},
		PlantDetails: []string{"common_names"},
		Language:     "en",
	})
	if err != nil {
		return nil, err
	}
	var ir identifyResponse
	if err := json.Unmarshal(body, &ir); err != nil {
		return nil, fmt.Errorf("decode identify response: %w", err)
	}
	if len(ir.Suggestions) == 0 || len(ir.Suggestions[0].PlantDetails.CommonNames) == 0 {
		return nil, nil
	}
	name := ir.Suggestions[0].PlantDetails.CommonNames[0]
	return &name, nil
}

// healthyProbability accepts both shapes the API has used for is_healthy:
// a bare boolean or an object with a probability.
func healthyProbability(hr healthResponse) float64 {
	ha := hr.HealthAssessment
	if ha.IsHealthyProbability != nil {
		return *ha.IsHealthyProbability
	}
	var flag bool
	if err := json.Unmarshal(ha.IsHealthy, &flag); err == nil {
		if flag {
			return 1
		}
		return 0
	}
	var obj struct {
		Probability float64 `json:"probability"`
	}
	if err := json.Unmarshal(ha.IsHealthy, &obj); err == nil {
		return obj.Probability
	}
	return 0
}

// post sends payload through the circuit breaker and classifies failures:
// transport errors, 429 and 5xx are unavailable, other 4xx are invalid.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	op := "vision.post " + path
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
		if err != nil {
			return nil, apperr.Internal(op, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Api-Key", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apperr.Unavailable(op, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, apperr.Unavailable(op, err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, apperr.Unavailable(op, fmt.Errorf("plant.id returned %d", resp.StatusCode))
		case resp.StatusCode >= 400:
			return nil, &apperr.Error{
				Kind:    apperr.KindInvalid,
				Op:      op,
				Message: "image rejected by plant.id",
				Err:     fmt.Errorf("status %d: %s", resp.StatusCode, truncate(data, 200)),
			}
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperr.Unavailable(op, err)
	}
	return body, err
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
