package valueobjects

import (
	pkgerrors "recall-backend/pkg/errors"
)

// Rating is a value object for a 1-5 review quality grade
type Rating int

const (
	RatingForgot  Rating = 1
	RatingHard    Rating = 2
	RatingOK      Rating = 3
	RatingGood    Rating = 4
	RatingPerfect Rating = 5
)

// NewRating validates and constructs a Rating.
// Out-of-range values are rejected, never clamped.
func NewRating(value int) (Rating, error) {
	if value < 1 || value > 5 {
		return 0, pkgerrors.NewInvalidRatingError(value)
	}
	return Rating(value), nil
}

// Int returns the numeric rating
func (r Rating) Int() int {
	return int(r)
}

// IsFailure reports whether the rating counts as a failed review (1-2)
func (r Rating) IsFailure() bool {
	return r <= RatingHard
}

// StrengthDelta returns the direct strength adjustment for the reviewed
// subject: +-0.1 per step away from the neutral grade of 3.
func (r Rating) StrengthDelta() float64 {
	return float64(int(r)-3) * 0.1
}
