package repository

// DefaultSentimentLookbackDays is the trailing news window used when a
// request does not name one.
const DefaultSentimentLookbackDays = 7

// NormalizeLookbackDays clamps a requested sentiment lookback to a sane
// range, falling back to the default for non-positive input.
func NormalizeLookbackDays(days int) int {
	if days <= 0 {
		return DefaultSentimentLookbackDays
	}
	if days > 90 {
		return 90
	}
	return days
}
