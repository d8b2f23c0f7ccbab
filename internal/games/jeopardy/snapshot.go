package jeopardy

import (
	"time"

	"github.com/quizhall/backend/internal/models"
)

type playerView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Balance     int    `json:"balance"`
	FinalBet    int    `json:"final_bet"`
	FinalAnswer string `json:"final_answer"`
}

type questionView struct {
	CustomTheme string `json:"custom_theme"`

	Text  string `json:"text"`
	Image string `json:"image"`
	Audio string `json:"audio"`
	Video string `json:"video"`

	AnswerText  string `json:"answer_text"`
	AnswerImage string `json:"answer_image"`
	AnswerAudio string `json:"answer_audio"`
	AnswerVideo string `json:"answer_video"`

	ID          int64  `json:"id"`
	Value       int    `json:"value"`
	Answer      string `json:"answer"`
	Comment     string `json:"comment"`
	Type        string `json:"type"`
	IsProcessed bool   `json:"is_processed"`
}

type themeView struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Questions []questionView `json:"questions"`
}

type gameView struct {
	Token        string       `json:"token"`
	Expired      time.Time    `json:"expired"`
	Round        int          `json:"round"`
	IsFinalRound bool         `json:"is_final_round"`
	State        string       `json:"state"`
	Question     *questionView `json:"question"`
	Themes       []themeView  `json:"themes"`
	Players      []playerView `json:"players"`
	Answerer     *int64       `json:"answerer"`
	QuestionBet  int          `json:"question_bet"`
}

func newQuestionView(q *models.Question) questionView {
	return questionView{
		CustomTheme: q.CustomTheme,
		Text:        q.Text,
		Image:       q.Image,
		Audio:       q.Audio,
		Video:       q.Video,
		AnswerText:  q.AnswerText,
		AnswerImage: q.AnswerImage,
		AnswerAudio: q.AnswerAudio,
		AnswerVideo: q.AnswerVideo,
		ID:          q.ID,
		Value:       q.Value,
		Answer:      q.Answer,
		Comment:     q.Comment,
		Type:        q.Type,
		IsProcessed: q.IsProcessed,
	}
}

func snapshot(g *models.Game) any {
	players := make([]playerView, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, playerView{
			ID:          p.ID,
			Name:        p.Name,
			Balance:     p.Balance,
			FinalBet:    p.FinalBet,
			FinalAnswer: p.FinalAnswer,
		})
	}

	themes := make([]themeView, 0)
	for _, t := range currentThemes(g) {
		if t.IsRemoved {
			continue
		}
		view := themeView{ID: t.ID, Name: t.Name, Questions: make([]questionView, 0, len(t.Questions))}
		for _, q := range t.Questions {
			view.Questions = append(view.Questions, newQuestionView(q))
		}
		themes = append(themes, view)
	}

	var question *questionView
	if g.Question() != nil {
		v := newQuestionView(g.Question())
		question = &v
	}

	return gameView{
		Token:        g.Token,
		Expired:      g.Expired,
		Round:        g.Round,
		IsFinalRound: isFinalRound(g),
		State:        g.State,
		Question:     question,
		Themes:       themes,
		Players:      players,
		Answerer:     g.AnswererID,
		QuestionBet:  g.QuestionBet,
	}
}
