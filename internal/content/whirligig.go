package content

import (
	"encoding/xml"
	"io"

	"github.com/quizhall/backend/internal/models"
)

const (
	maxWhirligigItems         = 13
	maxWhirligigItemQuestions = 3
)

type whirligigXML struct {
	Items []whirligigItemXML `xml:"items>item"`
}

type whirligigItemXML struct {
	Name      string                 `xml:"name"`
	Type      string                 `xml:"type"`
	Questions []whirligigQuestionXML `xml:"questions>question"`
}

type whirligigQuestionXML struct {
	Description string             `xml:"description"`
	Text        string             `xml:"text"`
	Image       string             `xml:"image"`
	Audio       string             `xml:"audio"`
	Video       string             `xml:"video"`
	Answer      whirligigAnswerXML `xml:"answer"`
}

type whirligigAnswerXML struct {
	Description string `xml:"description"`
	Text        string `xml:"text"`
	Image       string `xml:"image"`
	Audio       string `xml:"audio"`
	Video       string `xml:"video"`
}

// parseWhirligig reads a whirligig package: up to 13 board items of up to
// 3 questions each. Items become themes, the item type (standard, blitz,
// superblitz) rides along as the theme kind.
func parseWhirligig(r io.Reader) (*models.Game, error) {
	var doc whirligigXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, badFormat("%v", err)
	}
	if len(doc.Items) == 0 {
		return nil, badFormat("game should have at least 1 item")
	}
	if len(doc.Items) > maxWhirligigItems {
		return nil, badFormat("game should have at most %d items", maxWhirligigItems)
	}

	g := &models.Game{Variant: models.VariantWhirligig}
	for i, item := range doc.Items {
		if len(item.Questions) == 0 {
			return nil, badFormat("item %q has no questions", item.Name)
		}
		if len(item.Questions) > maxWhirligigItemQuestions {
			return nil, badFormat("item %q should have at most %d questions",
				item.Name, maxWhirligigItemQuestions)
		}
		kind := item.Type
		if kind == "" {
			kind = models.ThemeKindStandard
		}
		t := &models.Theme{Name: item.Name, Round: i, Kind: kind}
		for _, q := range item.Questions {
			text := q.Description
			if text == "" {
				text = q.Text
			}
			answer := q.Answer.Description
			if answer == "" {
				answer = q.Answer.Text
			}
			t.Questions = append(t.Questions, &models.Question{
				Text:        text,
				Image:       q.Image,
				Audio:       q.Audio,
				Video:       q.Video,
				Answer:      answer,
				AnswerImage: q.Answer.Image,
				AnswerAudio: q.Answer.Audio,
				AnswerVideo: q.Answer.Video,
			})
		}
		g.Themes = append(g.Themes, t)
	}
	return g, nil
}
