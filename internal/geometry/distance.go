package geometry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"facility-locator/internal/models"
)

// Metric selects the norm used to measure distance between two points
type Metric string

const (
	MetricEuclidean Metric = "euclidean"
	MetricManhattan Metric = "manhattan"

	DefaultMetric = MetricEuclidean
)

// LegacyUnsupportedDistance is returned by LegacyDistance for unknown metrics
const LegacyUnsupportedDistance = -1.0

var (
	// ErrUnsupportedMetric is returned for a metric name that is not recognized
	ErrUnsupportedMetric = errors.New("unsupported metric")

	// ErrDimensionMismatch is returned when two points do not share a dimension
	ErrDimensionMismatch = errors.New("coordinate dimensions do not match")

	// ErrNoPoints is returned when a centroid is requested for an empty set
	ErrNoPoints = errors.New("no points given")
)

// Metrics lists the supported metrics
func Metrics() []Metric {
	return []Metric{MetricEuclidean, MetricManhattan}
}

// Valid reports whether m is a supported metric
func (m Metric) Valid() bool {
	switch m {
	case MetricEuclidean, MetricManhattan:
		return true
	}
	return false
}

// norm returns the L-norm order for the metric
func (m Metric) norm() (float64, error) {
	switch m {
	case MetricEuclidean:
		return 2, nil
	case MetricManhattan:
		return 1, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMetric, string(m))
}

// ParseMetric converts a metric name into a Metric. An empty name selects
// the default metric.
func ParseMetric(name string) (Metric, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultMetric, nil
	}
	m := Metric(name)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMetric, name)
	}
	return m, nil
}

// Distance returns the distance between a and b under the metric m
func Distance(a, b models.Coordinates, m Metric) (float64, error) {
	order, err := m.norm()
	if err != nil {
		return 0, err
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}
	return floats.Distance(a, b, order), nil
}

// LegacyDistance behaves like Distance but never fails: an unsupported metric
// logs a warning and yields LegacyUnsupportedDistance. The solvers use
// Distance.
func LegacyDistance(a, b models.Coordinates, m Metric) float64 {
	d, err := Distance(a, b, m)
	if err != nil {
		log.Warn().Err(err).Str("metric", string(m)).Msg("could not compute distance")
		return LegacyUnsupportedDistance
	}
	return d
}

// Centroid returns the coordinate-wise arithmetic mean of points
func Centroid(points []models.Coordinates) (models.Coordinates, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	dim := len(points[0])
	sum := make([]float64, dim)
	for _, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, dim, len(p))
		}
		floats.Add(sum, p)
	}
	floats.Scale(1/float64(len(points)), sum)

	return models.Coordinates(sum), nil
}
