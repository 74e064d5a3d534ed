package domain

// Rating is the learner's self-reported recall for a flashcard review.
type Rating string

// Possible rating values
const (
	RatingAgain Rating = "AGAIN"
	RatingHard  Rating = "HARD"
	RatingGood  Rating = "GOOD"
	RatingEasy  Rating = "EASY"
)

// Ratings lists every valid rating in ascending grade order.
var Ratings = []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy}

// ParseRating converts s into a Rating. Matching is exact: "good" and " GOOD"
// are rejected with ErrInvalidRating like any other unknown value.
func ParseRating(s string) (Rating, error) {
	r := Rating(s)
	if !r.Valid() {
		return "", ErrInvalidRating
	}
	return r, nil
}

// Valid reports whether r is one of the enumerated ratings.
func (r Rating) Valid() bool {
	switch r {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return true
	default:
		return false
	}
}

// Grade maps the rating onto the SM-2 quality scale.
// AGAIN=0, HARD=3, GOOD=4, EASY=5. Invalid ratings grade as 0.
func (r Rating) Grade() int {
	switch r {
	case RatingHard:
		return 3
	case RatingGood:
		return 4
	case RatingEasy:
		return 5
	default:
		return 0
	}
}

// IsLapse reports whether the rating counts as failed recall.
// Only grades below 3 lapse, so HARD is still a success.
func (r Rating) IsLapse() bool {
	return r.Grade() < 3
}

// String returns the canonical upper-case form.
func (r Rating) String() string {
	return string(r)
}
