package trust

import "context"

// Static is a Resolver backed by a fixed, in-memory map. Agents absent from
// the map are unknown.
type Static struct {
	scores map[string]int
}

var _ Resolver = (*Static)(nil)

// NewStatic builds a Static resolver over the given agentID -> score map.
// Scores are clamped to [0,100] at construction time.
func NewStatic(scores map[string]int) *Static {
	clampedScores := make(map[string]int, len(scores))
	for agentID, score := range scores {
		clampedScores[agentID] = Clamp(score)
	}
	return &Static{scores: clampedScores}
}

// GetScore looks up agentID in the static map.
func (s *Static) GetScore(_ context.Context, agentID string) (*int, error) {
	score, ok := s.scores[agentID]
	if !ok {
		return nil, nil
	}
	return clamped(score), nil
}

// Close is a no-op for Static.
func (s *Static) Close() error {
	return nil
}
