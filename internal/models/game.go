package models

import "time"

// Game variant names. The variant decides which state machine drives
// the session and which subset of the Game fields is meaningful.
const (
	VariantWhirligig = "whirligig"
	VariantJeopardy  = "jeopardy"
	VariantWeakest   = "weakest"
	VariantFeud      = "feud"
)

// Game is one running session of a quiz game, addressed by a short token.
// The struct is the superset of all variant fields; unused fields keep their
// zero values. Mutations happen only through the variant's state machine.
type Game struct {
	ID      int64     `json:"-"`
	Variant string    `json:"-"`
	Token   string    `json:"token"`
	Created time.Time `json:"created"`
	Expired time.Time `json:"expired"`
	State   string    `json:"state"`
	Round   int       `json:"round"`

	// jeopardy
	LastRound   int `json:"last_round,omitempty"`
	FinalRound  int `json:"final_round,omitempty"`
	QuestionBet int `json:"question_bet,omitempty"`

	// weakest
	Score           int `json:"-"`
	Bank            int `json:"-"`
	TmpScore        int `json:"-"`
	ScoreMultiplier int `json:"-"`

	// whirligig
	ConnoisseursScore int `json:"-"`
	ViewersScore      int `json:"-"`

	// Current references; nil until set by a transition. Each referenced
	// entity must belong to this game.
	QuestionID  *int64 `json:"-"`
	AnswererID  *int64 `json:"-"`
	WeakestID   *int64 `json:"-"`
	StrongestID *int64 `json:"-"`

	// Timers are absolute wall-clock deadlines in unix milliseconds;
	// zero means no timer is armed.
	Timer          int64 `json:"timer"`
	TimerPaused    bool  `json:"-"`
	TimerRemaining int64 `json:"-"`
	BankTimer      int64 `json:"-"`

	Players []*Player `json:"-"`
	Themes  []*Theme  `json:"-"`
}

// Questions returns every question of the game in presentation order.
func (g *Game) Questions() []*Question {
	var out []*Question
	for _, t := range g.Themes {
		out = append(out, t.Questions...)
	}
	return out
}

// Question resolves the current question reference, nil when unset.
func (g *Game) Question() *Question {
	if g.QuestionID == nil {
		return nil
	}
	return g.QuestionByID(*g.QuestionID)
}

// QuestionByID finds a question owned by this game, nil when absent.
func (g *Game) QuestionByID(id int64) *Question {
	for _, q := range g.Questions() {
		if q.ID == id {
			return q
		}
	}
	return nil
}

// Answerer resolves the current answerer reference, nil when unset.
func (g *Game) Answerer() *Player {
	if g.AnswererID == nil {
		return nil
	}
	return g.PlayerByID(*g.AnswererID)
}

// PlayerByID finds a participant owned by this game, nil when absent.
func (g *Game) PlayerByID(id int64) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByName finds a participant by registered name, nil when absent.
func (g *Game) PlayerByName(name string) *Player {
	for _, p := range g.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// ThemeByID finds a theme owned by this game, nil when absent.
func (g *Game) ThemeByID(id int64) *Theme {
	for _, t := range g.Themes {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// SetQuestion updates the current question reference (nil clears it).
func (g *Game) SetQuestion(q *Question) {
	if q == nil {
		g.QuestionID = nil
		return
	}
	id := q.ID
	g.QuestionID = &id
}

// SetAnswerer updates the current answerer reference (nil clears it).
func (g *Game) SetAnswerer(p *Player) {
	if p == nil {
		g.AnswererID = nil
		return
	}
	id := p.ID
	g.AnswererID = &id
}
