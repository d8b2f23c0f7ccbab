package models

// Answer is one board answer of a feud question. Immutable after import
// except for is_opened, set exactly once when revealed.
type Answer struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"-"`
	Text       string `json:"text"`
	Value      int    `json:"value"`
	IsOpened   bool   `json:"is_opened"`
}
