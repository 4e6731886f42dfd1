package scoring

// Compute maps a finished game to its score. Fewer moves and less time mean
// more points; the result never goes below zero.
func Compute(moves, elapsedSeconds, pairCount int) int {
	base := pairCount * baseScorePerPair
	movePenalty := moves * movePenaltyPerMove
	timePenalty := (elapsedSeconds / 10) * timePenaltyPer10s

	score := base - movePenalty - timePenalty
	if score < 0 {
		return 0
	}
	return score
}

const (
	baseScorePerPair   = 100
	movePenaltyPerMove = 5
	timePenaltyPer10s  = 2
)
