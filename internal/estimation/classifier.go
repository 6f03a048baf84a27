package estimation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Classification is the top-1 result of a classifier.
type Classification struct {
	Label string
	Score float64
}

// Classifier labels the clothing shown at an image URL.
type Classifier interface {
	Classify(ctx context.Context, imageURL string) (Classification, error)
}

// RemoteClassifier calls the clothes classification API over HTTP.
type RemoteClassifier struct {
	endpoint string
	client   *http.Client
}

// NewRemoteClassifier creates a classifier posting to endpoint with the given timeout.
func NewRemoteClassifier(endpoint string, timeout time.Duration) *RemoteClassifier {
	return &RemoteClassifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	URL string `json:"url"`
}

type predictResponse struct {
	Top1ClassName *string  `json:"top1ClassName"`
	Top1Score     *float64 `json:"top1Score"`
}

var errMalformed = errors.New("malformed classifier response")

// Classify implements Classifier. There is no retry.
func (c *RemoteClassifier) Classify(ctx context.Context, imageURL string) (Classification, error) {
	body, err := json.Marshal(predictRequest{URL: imageURL})
	if err != nil {
		return Classification{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Classification{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Classification{}, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Classification{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if out.Top1ClassName == nil || *out.Top1ClassName == "" || out.Top1Score == nil {
		return Classification{}, fmt.Errorf("%w: missing top1ClassName or top1Score", errMalformed)
	}
	if score := *out.Top1Score; math.IsNaN(score) || score < 0 || score > 1 {
		return Classification{}, fmt.Errorf("%w: top1Score %v outside [0,1]", errMalformed, score)
	}

	return Classification{Label: *out.Top1ClassName, Score: *out.Top1Score}, nil
}
