package domain

const (
	MinLevel     = 1
	MaxLevel     = 5
	DefaultLevel = 3
)

// SummaryRequest is what a front end hands to the pipeline.
type SummaryRequest struct {
	URL   string
	Level int
}

type SummaryResult struct {
	Summary string `json:"summary"`
}

func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}
