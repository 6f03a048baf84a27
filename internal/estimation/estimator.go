// Package estimation turns a clothing photo into a condition grade and a
// point estimate.
//
// Grading is a pure function of the classifier label. Randomness only enters
// when a point value is drawn from the grade's interval.
package estimation

import (
	"context"
	"fmt"
	"strings"

	"github.com/abjin/reward-closet/internal/domain"
)

// Error reports a failed classification. It wraps domain.ErrUpstream.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return "estimation failed: " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	return []error{domain.ErrUpstream, e.Err}
}

// Recorder receives estimation outcomes for metrics.
type Recorder interface {
	RecordEstimation(condition domain.Condition)
	RecordClassifierFailure()
}

type nopRecorder struct{}

func (nopRecorder) RecordEstimation(domain.Condition) {}
func (nopRecorder) RecordClassifierFailure()          {}

// Estimator composes classification, grading and pricing.
type Estimator struct {
	classifier Classifier
	src        Source
	recorder   Recorder
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithSource sets the random source used for pricing.
func WithSource(src Source) Option {
	return func(e *Estimator) { e.src = src }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Estimator) { e.recorder = r }
}

// NewEstimator creates an Estimator backed by classifier.
func NewEstimator(classifier Classifier, opts ...Option) *Estimator {
	e := &Estimator{classifier: classifier, src: globalSource{}, recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate classifies the image at imageURL and prices the result.
func (e *Estimator) Estimate(ctx context.Context, imageURL string) (domain.Estimation, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return domain.Estimation{}, domain.NewValidationError("imageUrl", "image URL is required")
	}

	result, err := e.classifier.Classify(ctx, imageURL)
	if err != nil {
		e.recorder.RecordClassifierFailure()
		return domain.Estimation{}, &Error{Err: fmt.Errorf("classify %s: %w", imageURL, err)}
	}

	condition := Grade(result.Label)
	e.recorder.RecordEstimation(condition)

	return domain.Estimation{
		Condition:       condition,
		ItemType:        ItemType(result.Label),
		EstimatedPoints: Price(condition, e.src),
		Confidence:      Confidence(result.Score),
		ImageURL:        imageURL,
		Label:           result.Label,
	}, nil
}
