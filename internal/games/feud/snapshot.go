package feud

import (
	"time"

	"github.com/quizhall/backend/internal/models"
)

type teamView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Strikes    int    `json:"strikes"`
	Score      int    `json:"score"`
	FinalScore int    `json:"final_score"`
}

type answerView struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Value    int    `json:"value"`
	IsOpened bool   `json:"is_opened"`
}

type questionView struct {
	ID      int64        `json:"id"`
	Text    string       `json:"text"`
	Answers []answerView `json:"answers"`
}

type gameView struct {
	Token          string          `json:"token"`
	Expired        time.Time       `json:"expired"`
	Round          int             `json:"round"`
	State          string          `json:"state"`
	Question       *questionView   `json:"question"`
	Answerer       *int64          `json:"answerer"`
	FinalQuestions []*questionView `json:"final_questions"`
	Timer          int64           `json:"timer"`
	Teams          []teamView      `json:"teams"`
}

func questionToView(q *models.Question, openedOnly bool) *questionView {
	if q == nil {
		return nil
	}
	v := &questionView{ID: q.ID, Text: q.Text, Answers: []answerView{}}
	for _, a := range q.Answers {
		if openedOnly && !a.IsOpened {
			continue
		}
		v.Answers = append(v.Answers, answerView{ID: a.ID, Text: a.Text, Value: a.Value, IsOpened: a.IsOpened})
	}
	return v
}

func snapshot(g *models.Game) any {
	view := gameView{
		Token:    g.Token,
		Expired:  g.Expired,
		Round:    g.Round,
		State:    g.State,
		Question: questionToView(g.Question(), false),
		Answerer: g.AnswererID,
		Timer:    g.Timer,
		Teams:    []teamView{},
	}
	for _, p := range g.Players {
		view.Teams = append(view.Teams, teamView{
			ID: p.ID, Name: p.Name, Strikes: p.Strikes, Score: p.Score, FinalScore: p.FinalScore,
		})
	}
	// The final board is only exposed during the reveal, and only the
	// answers actually opened by the attempting team.
	if g.State == StateFinalQuestionsReveal {
		for _, q := range g.Questions() {
			if q.IsFinal {
				view.FinalQuestions = append(view.FinalQuestions, questionToView(q, true))
			}
		}
	}
	return view
}
