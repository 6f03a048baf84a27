package estimation

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"time"
)

// SimulatedClassifier stands in for the remote API: it waits, then returns a
// uniformly random known label.
type SimulatedClassifier struct {
	delay  time.Duration
	labels []string
	src    Source
}

// NewSimulatedClassifier creates a simulated classifier that sleeps for delay.
func NewSimulatedClassifier(delay time.Duration, src Source) *SimulatedClassifier {
	if src == nil {
		src = globalSource{}
	}
	labels := slices.Sorted(maps.Keys(itemTypes))
	labels = append(labels, slices.Sorted(maps.Keys(damageLabels))...)
	return &SimulatedClassifier{delay: delay, labels: labels, src: src}
}

// Labels returns the label set drawn from.
func (c *SimulatedClassifier) Labels() []string {
	return slices.Clone(c.labels)
}

// Classify implements Classifier. It only fails on a blank URL or a cancelled context.
func (c *SimulatedClassifier) Classify(ctx context.Context, imageURL string) (Classification, error) {
	if strings.TrimSpace(imageURL) == "" {
		return Classification{}, errors.New("image url is required")
	}

	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Classification{}, ctx.Err()
		case <-timer.C:
		}
	}

	label := c.labels[c.src.IntN(len(c.labels))]
	// 80-99%, matching the range the simulation has always shown.
	score := float64(80+c.src.IntN(20)) / 100
	return Classification{Label: label, Score: score}, nil
}
