package models

// Theme item kinds (whirligig).
const (
	ThemeKindStandard   = "standard"
	ThemeKindBlitz      = "blitz"
	ThemeKindSuperblitz = "superblitz"
)

// Theme groups questions: a jeopardy category within a round, or a whirligig
// board item. Immutable after import except for the processed/removed flags.
// Insertion order is presentation order.
type Theme struct {
	ID          int64       `json:"id"`
	GameID      int64       `json:"-"`
	Name        string      `json:"name"`
	Round       int         `json:"round"`
	Kind        string      `json:"kind,omitempty"`
	IsRemoved   bool        `json:"is_removed"`
	IsProcessed bool        `json:"is_processed"`
	Questions   []*Question `json:"questions"`
}

// UnprocessedQuestions returns the theme's questions still in play, in order.
func (t *Theme) UnprocessedQuestions() []*Question {
	var out []*Question
	for _, q := range t.Questions {
		if !q.IsProcessed {
			out = append(out, q)
		}
	}
	return out
}
