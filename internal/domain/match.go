package domain

// MatchResult is the outcome of resolving a name against candidate names.
// Exactly one of Matched, Suggested or NoMatch is returned per resolution.
type MatchResult interface {
	matchResult()
}

// Matched is a candidate at or above the exact threshold
type Matched struct {
	Name  string
	Score float64
}

// Suggested is a candidate between the suggest and exact thresholds
type Suggested struct {
	Name  string
	Score float64
}

// NoMatch carries the best score seen when nothing reached the suggest threshold
type NoMatch struct {
	BestScore float64
}

func (Matched) matchResult()   {}
func (Suggested) matchResult() {}
func (NoMatch) matchResult()   {}

// RankedCandidate is a candidate name with its similarity to the query
type RankedCandidate struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}
