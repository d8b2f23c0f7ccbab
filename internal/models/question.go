package models

// Question types (jeopardy).
const (
	QuestionTypeStandard = "standard"
	QuestionTypeAuction  = "auction"
	QuestionTypeBagCat   = "bagcat"
)

// Question is one playable item of a question bank. Immutable after import
// except for is_processed (flipped exactly once as the game consumes it,
// undone only by an explicit round reset) and is_correct (weakest final).
type Question struct {
	ID          int64  `json:"id"`
	GameID      int64  `json:"-"`
	ThemeID     *int64 `json:"-"`
	Type        string `json:"type,omitempty"`
	CustomTheme string `json:"custom_theme,omitempty"`

	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
	Audio string `json:"audio,omitempty"`
	Video string `json:"video,omitempty"`

	Answer      string `json:"answer"`
	AnswerText  string `json:"answer_text,omitempty"`
	AnswerImage string `json:"answer_image,omitempty"`
	AnswerAudio string `json:"answer_audio,omitempty"`
	AnswerVideo string `json:"answer_video,omitempty"`

	Value       int    `json:"value"`
	Comment     string `json:"comment,omitempty"`
	IsFinal     bool   `json:"is_final"`
	IsProcessed bool   `json:"is_processed"`
	IsCorrect   *bool  `json:"is_correct,omitempty"`

	Answers []*Answer `json:"answers,omitempty"`
}

// HasPostMedia reports whether the question carries a reveal screen
// (answer media shown after the question is resolved).
func (q *Question) HasPostMedia() bool {
	return q.AnswerText != "" || q.AnswerImage != "" || q.AnswerAudio != "" || q.AnswerVideo != ""
}

// OpenedSum is the total value of opened answers (feud board score).
func (q *Question) OpenedSum() int {
	sum := 0
	for _, a := range q.Answers {
		if a.IsOpened {
			sum += a.Value
		}
	}
	return sum
}

// UnopenedCount is the number of answers not yet revealed.
func (q *Question) UnopenedCount() int {
	n := 0
	for _, a := range q.Answers {
		if !a.IsOpened {
			n++
		}
	}
	return n
}

// AnswerByID finds an answer of this question, nil when absent.
func (q *Question) AnswerByID(id int64) *Answer {
	for _, a := range q.Answers {
		if a.ID == id {
			return a
		}
	}
	return nil
}
