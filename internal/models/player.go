package models

// Player is a registered participant (player or team) of a game. Created
// while the session is in its waiting state, never deleted while the
// session lives.
type Player struct {
	ID     int64  `json:"id"`
	GameID int64  `json:"-"`
	Name   string `json:"name"`

	// feud
	Score      int `json:"score"`
	FinalScore int `json:"final_score"`
	Strikes    int `json:"strikes"`

	// jeopardy
	Balance     int    `json:"balance"`
	FinalBet    int    `json:"final_bet"`
	FinalAnswer string `json:"final_answer"`

	// weakest
	RightAnswers int    `json:"right_answers"`
	BankIncome   int    `json:"bank_income"`
	IsWeak       bool   `json:"is_weak"`
	WeakID       *int64 `json:"weak_id"`
}

// SetWeak updates the player's elimination vote (nil clears it).
func (p *Player) SetWeak(target *Player) {
	if target == nil {
		p.WeakID = nil
		return
	}
	id := target.ID
	p.WeakID = &id
}
