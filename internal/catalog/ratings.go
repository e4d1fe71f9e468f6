package catalog

import "math"

// AverageRating returns the arithmetic mean of all review ratings rounded to
// one decimal. ok is false when there are no reviews; callers render that as
// "N/A".
func AverageRating(reviews []Review) (float64, bool) {
	if len(reviews) == 0 {
		return 0, false
	}
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	mean := float64(sum) / float64(len(reviews))
	return math.Round(mean*10) / 10, true
}
