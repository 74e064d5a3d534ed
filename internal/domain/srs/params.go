package srs

import (
	"github.com/learnloop/learnloop-api/internal/domain"
)

// Params defines the tunable constants of the SM-2 transition
type Params struct {
	// Lower bound for the ease factor of every resulting state
	MinEaseFactor float64

	// Ease factor assumed when a state carries none
	DefaultEaseFactor float64

	// Fixed intervals, in days, for the first and second consecutive success
	FirstInterval  int
	SecondInterval int

	// Interval, in days, after a lapse
	LapseInterval int

	// Upper bound, in days, for every resulting interval
	MaxInterval int
}

// DefaultMaxInterval caps intervals at roughly one hundred years.
const DefaultMaxInterval = 36500

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	MinEaseFactor     float64
	DefaultEaseFactor float64
	FirstInterval     int
	SecondInterval    int
	LapseInterval     int
	MaxInterval       int
}

// NewDefaultParams creates a new Params instance with the classic SM-2 values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:     domain.MinEaseFactor,
		DefaultEaseFactor: domain.DefaultEaseFactor,
		FirstInterval:     1,
		SecondInterval:    6,
		LapseInterval:     1,
		MaxInterval:       DefaultMaxInterval,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero values in config keep the defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.DefaultEaseFactor > 0 {
		params.DefaultEaseFactor = config.DefaultEaseFactor
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.LapseInterval > 0 {
		params.LapseInterval = config.LapseInterval
	}
	if config.MaxInterval > 0 {
		params.MaxInterval = config.MaxInterval
	}

	return params
}
