package content

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/quizhall/backend/internal/models"
)

// The jeopardy format is the SIGame package: namespaced XML where a question
// is a scenario of typed atoms, split by a marker atom into the question
// screen and the post-answer screen.
type siPackageXML struct {
	Rounds []siRoundXML `xml:"rounds>round"`
}

type siRoundXML struct {
	Name   string       `xml:"name,attr"`
	Themes []siThemeXML `xml:"themes>theme"`
}

type siThemeXML struct {
	Name      string          `xml:"name,attr"`
	Questions []siQuestionXML `xml:"questions>question"`
}

type siQuestionXML struct {
	Price    int             `xml:"price,attr"`
	Type     *siTypeXML      `xml:"type"`
	Scenario []siAtomXML     `xml:"scenario>atom"`
	Right    []string        `xml:"right>answer"`
	Info     *siQuestionInfo `xml:"info"`
}

type siTypeXML struct {
	Name   string       `xml:"name,attr"`
	Params []siParamXML `xml:"param"`
}

type siParamXML struct {
	Name string `xml:"name,attr"`
	Text string `xml:",chardata"`
}

type siAtomXML struct {
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`
}

type siQuestionInfo struct {
	Comments string `xml:"comments"`
}

// Package media references start with '@' and resolve against the unpacked
// package directories.
func mediaURL(prefix, url string) string {
	if strings.HasPrefix(url, "@") {
		return prefix + strings.Replace(url, "@", "/", 1)
	}
	return url
}

// parseJeopardy reads a SIGame package. Each round's themes become the
// board; the last round is the final round when its first theme holds a
// single question.
func parseJeopardy(r io.Reader) (*models.Game, error) {
	var doc siPackageXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, badFormat("%v", err)
	}
	if len(doc.Rounds) == 0 {
		return nil, badFormat("package has no rounds")
	}

	g := &models.Game{Variant: models.VariantJeopardy, Round: 1}
	for i, round := range doc.Rounds {
		g.LastRound = i + 1
		for _, theme := range round.Themes {
			t := &models.Theme{Name: theme.Name, Round: i + 1}
			for _, q := range theme.Questions {
				t.Questions = append(t.Questions, newJeopardyQuestion(q))
			}
			g.Themes = append(g.Themes, t)
		}
	}

	// Final round detection: a last round reduced to single-question themes.
	for _, t := range g.Themes {
		if t.Round != g.LastRound {
			continue
		}
		if len(t.Questions) == 1 {
			g.FinalRound = g.LastRound
		}
		break
	}
	return g, nil
}

func newJeopardyQuestion(q siQuestionXML) *models.Question {
	questionType := models.QuestionTypeStandard
	customTheme := ""
	if q.Type != nil {
		switch q.Type.Name {
		case "auction":
			questionType = models.QuestionTypeAuction
		case "cat", "bagcat":
			questionType = models.QuestionTypeBagCat
			for _, param := range q.Type.Params {
				if param.Name == "theme" {
					customTheme = param.Text
				}
			}
		}
	}

	question := &models.Question{
		Type:        questionType,
		CustomTheme: customTheme,
		Value:       q.Price,
	}

	marker := false
	for _, atom := range q.Scenario {
		switch atom.Type {
		case "image":
			if marker {
				question.AnswerImage = mediaURL("/Images", atom.Text)
			} else {
				question.Image = mediaURL("/Images", atom.Text)
			}
		case "voice":
			if marker {
				question.AnswerAudio = mediaURL("/Audio", atom.Text)
			} else {
				question.Audio = mediaURL("/Audio", atom.Text)
			}
		case "video":
			if marker {
				question.AnswerVideo = mediaURL("/Video", atom.Text)
			} else {
				question.Video = mediaURL("/Video", atom.Text)
			}
		case "marker":
			marker = true
		default:
			if atom.Text == "" {
				continue
			}
			if marker {
				question.AnswerText = atom.Text
			} else {
				question.Text = atom.Text
			}
		}
	}

	question.Answer = strings.TrimSpace(strings.Join(q.Right, "   "))
	if q.Info != nil {
		question.Comment = q.Info.Comments
	}
	return question
}
