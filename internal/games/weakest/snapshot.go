package weakest

import (
	"time"

	"github.com/quizhall/backend/internal/models"
)

type playerView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	IsWeak       bool   `json:"is_weak"`
	Weak         *int64 `json:"weak"`
	RightAnswers int    `json:"right_answers"`
	BankIncome   int    `json:"bank_income"`
}

type questionView struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type gameView struct {
	Token           string        `json:"token"`
	Expired         time.Time     `json:"expired"`
	ScoreMultiplier int           `json:"score_multiplier"`
	Score           int           `json:"score"`
	Bank            int           `json:"bank"`
	TmpScore        int           `json:"tmp_score"`
	State           string        `json:"state"`
	Round           int           `json:"round"`
	Question        *questionView `json:"question"`
	Answerer        *int64        `json:"answerer"`
	Weakest         *int64        `json:"weakest"`
	Strongest       *int64        `json:"strongest"`
	Timer           int64         `json:"timer"`
	BankTimer       int64         `json:"bank_timer"`
	Players         []playerView  `json:"players"`
}

func snapshot(g *models.Game) any {
	view := gameView{
		Token:           g.Token,
		Expired:         g.Expired,
		ScoreMultiplier: g.ScoreMultiplier,
		Score:           g.Score,
		Bank:            g.Bank,
		TmpScore:        g.TmpScore,
		State:           g.State,
		Round:           g.Round,
		Answerer:        g.AnswererID,
		Weakest:         g.WeakestID,
		Strongest:       g.StrongestID,
		Timer:           g.Timer,
		BankTimer:       g.BankTimer,
		Players:         []playerView{},
	}
	if q := g.Question(); q != nil {
		view.Question = &questionView{Question: q.Text, Answer: q.Answer}
	}
	for _, p := range g.Players {
		view.Players = append(view.Players, playerView{
			ID: p.ID, Name: p.Name, IsWeak: p.IsWeak, Weak: p.WeakID,
			RightAnswers: p.RightAnswers, BankIncome: p.BankIncome,
		})
	}
	return view
}
