package srs

import (
	"math"
	"time"

	"github.com/learnloop/learnloop-api/internal/domain"
)

// easeDelta returns the SM-2 ease adjustment for a quality grade in [0,5].
//
//	delta = 0.1 - (5-g) * (0.08 + (5-g) * 0.02)
//
// EASY (5) adds 0.1, GOOD (4) leaves the factor unchanged and HARD (3)
// subtracts 0.14.
func easeDelta(grade int) float64 {
	d := float64(5 - grade)
	return 0.1 - d*(0.08+d*0.02)
}

// normalize fills in missing scheduling values the same way a fresh card
// would carry them.
func normalize(state domain.Flashcard, params *Params) (ease float64, interval, reviews int) {
	ease = state.EaseFactor
	if ease == 0 {
		ease = params.DefaultEaseFactor
	}
	interval = state.Interval
	if interval < 1 {
		interval = 1
	}
	reviews = state.ReviewCount
	if reviews < 0 {
		reviews = 0
	}
	return ease, interval, reviews
}

// Apply computes the scheduling state that results from rating a card at now.
//
// A lapse (grade below 3) resets the review count and interval and leaves the
// ease factor alone. A success adjusts the ease factor, then uses the fixed
// first and second intervals before growing the interval multiplicatively by
// the new ease factor, up to params.MaxInterval. The next due time is always relative to now, never to
// the previous due time.
//
// Apply is pure: state is taken by value and only scheduling fields,
// LastRating and UpdatedAt differ in the result.
func Apply(state domain.Flashcard, rating domain.Rating, now time.Time, params *Params) domain.Flashcard {
	if params == nil {
		params = NewDefaultParams()
	}

	ease, interval, reviews := normalize(state, params)
	grade := rating.Grade()

	if rating.IsLapse() {
		reviews = 0
		interval = params.LapseInterval
	} else {
		ease += easeDelta(grade)
		if ease < params.MinEaseFactor {
			ease = params.MinEaseFactor
		}

		switch reviews {
		case 0:
			interval = params.FirstInterval
		case 1:
			interval = params.SecondInterval
		default:
			// Clamp in float space so the conversion cannot overflow.
			interval = int(math.Min(math.Round(float64(interval)*ease), float64(params.MaxInterval)))
		}
		reviews++
	}

	// The floor holds for every output, including lapses of states that
	// were persisted below it.
	if ease < params.MinEaseFactor {
		ease = params.MinEaseFactor
	}
	if interval > params.MaxInterval {
		interval = params.MaxInterval
	}

	next := state.Clone()
	r := rating
	next.EaseFactor = ease
	next.Interval = interval
	next.ReviewCount = reviews
	next.NextDueAt = now.AddDate(0, 0, interval)
	next.LastRating = &r
	next.UpdatedAt = now
	return *next
}
