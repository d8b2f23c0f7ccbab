package whirligig

import (
	"time"

	"github.com/quizhall/backend/internal/models"
)

type questionView struct {
	Number      int    `json:"number"`
	IsProcessed bool   `json:"is_processed"`
	Text        string `json:"text"`
	Image       string `json:"image"`
	Audio       string `json:"audio"`
	Video       string `json:"video"`

	Answer      string `json:"answer"`
	AnswerImage string `json:"answer_image"`
	AnswerAudio string `json:"answer_audio"`
	AnswerVideo string `json:"answer_video"`
}

type itemView struct {
	Number      int            `json:"number"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	IsProcessed bool           `json:"is_processed"`
	Questions   []questionView `json:"questions"`
}

type gameView struct {
	Token             string     `json:"token"`
	Expired           time.Time  `json:"expired"`
	ConnoisseursScore int        `json:"connoisseurs_score"`
	ViewersScore      int        `json:"viewers_score"`
	CurItem           *int       `json:"cur_item"`
	CurQuestion       *int       `json:"cur_question"`
	State             string     `json:"state"`
	Timer             int64      `json:"timer"`
	TimerPaused       bool       `json:"timer_paused"`
	Items             []itemView `json:"items"`
}

func snapshot(g *models.Game) any {
	items := make([]itemView, 0, len(g.Themes))
	for i, t := range g.Themes {
		view := itemView{
			Number:      i,
			Name:        t.Name,
			Type:        t.Kind,
			IsProcessed: t.IsProcessed,
			Questions:   make([]questionView, 0, len(t.Questions)),
		}
		for j, q := range t.Questions {
			view.Questions = append(view.Questions, questionView{
				Number:      j,
				IsProcessed: q.IsProcessed,
				Text:        q.Text,
				Image:       q.Image,
				Audio:       q.Audio,
				Video:       q.Video,
				Answer:      q.Answer,
				AnswerImage: q.AnswerImage,
				AnswerAudio: q.AnswerAudio,
				AnswerVideo: q.AnswerVideo,
			})
		}
		items = append(items, view)
	}

	var curItem, curQuestion *int
	if item := currentItem(g); item != nil {
		for i, t := range g.Themes {
			if t.ID == item.ID {
				n := i
				curItem = &n
				break
			}
		}
		if idx := questionIndex(item, g.Question()); idx >= 0 {
			n := idx
			curQuestion = &n
		}
	}

	return gameView{
		Token:             g.Token,
		Expired:           g.Expired,
		ConnoisseursScore: g.ConnoisseursScore,
		ViewersScore:      g.ViewersScore,
		CurItem:           curItem,
		CurQuestion:       curQuestion,
		State:             g.State,
		Timer:             g.Timer,
		TimerPaused:       g.TimerPaused,
		Items:             items,
	}
}
