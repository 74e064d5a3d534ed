package srs

import (
	"testing"
)

func TestNewDefaultParams(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	if params.MinEaseFactor != 1.3 {
		t.Errorf("Expected MinEaseFactor to be 1.3, got %f", params.MinEaseFactor)
	}
	if params.DefaultEaseFactor != 2.5 {
		t.Errorf("Expected DefaultEaseFactor to be 2.5, got %f", params.DefaultEaseFactor)
	}
	if params.FirstInterval != 1 {
		t.Errorf("Expected FirstInterval to be 1, got %d", params.FirstInterval)
	}
	if params.SecondInterval != 6 {
		t.Errorf("Expected SecondInterval to be 6, got %d", params.SecondInterval)
	}
	if params.LapseInterval != 1 {
		t.Errorf("Expected LapseInterval to be 1, got %d", params.LapseInterval)
	}
	if params.MaxInterval != 36500 {
		t.Errorf("Expected MaxInterval to be 36500, got %d", params.MaxInterval)
	}
}

func TestNewParams(t *testing.T) {
	t.Parallel()

	params := NewParams(ParamsConfig{
		MinEaseFactor:  1.5,
		SecondInterval: 4,
		MaxInterval:    365,
	})

	if params.MinEaseFactor != 1.5 {
		t.Errorf("Expected MinEaseFactor to be 1.5, got %f", params.MinEaseFactor)
	}
	if params.SecondInterval != 4 {
		t.Errorf("Expected SecondInterval to be 4, got %d", params.SecondInterval)
	}
	if params.MaxInterval != 365 {
		t.Errorf("Expected MaxInterval to be 365, got %d", params.MaxInterval)
	}

	// Unset fields keep defaults
	if params.DefaultEaseFactor != 2.5 {
		t.Errorf("Expected DefaultEaseFactor to stay 2.5, got %f", params.DefaultEaseFactor)
	}
	if params.FirstInterval != 1 {
		t.Errorf("Expected FirstInterval to stay 1, got %d", params.FirstInterval)
	}
}
