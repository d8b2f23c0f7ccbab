package content

import (
	"encoding/xml"
	"io"

	"github.com/quizhall/backend/internal/models"
)

const weakestMinFinalQuestions = 10

type weakestXML struct {
	Questions       []weakestQuestionXML `xml:"questions>question"`
	FinalQuestions  []weakestQuestionXML `xml:"final_questions>question"`
	ScoreMultiplier int                  `xml:"score_multiplier"`
}

type weakestQuestionXML struct {
	Question string `xml:"question"`
	Answer   string `xml:"answer"`
}

// parseWeakest reads a weakest-link package: a pool of rapid-fire questions,
// at least ten head-to-head final questions and the money chain multiplier.
func parseWeakest(r io.Reader) (*models.Game, error) {
	var doc weakestXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, badFormat("%v", err)
	}
	if len(doc.Questions) == 0 {
		return nil, badFormat("game should have at least 1 question")
	}
	if len(doc.FinalQuestions) < weakestMinFinalQuestions {
		return nil, badFormat("number of final questions must be %d or more", weakestMinFinalQuestions)
	}
	if doc.ScoreMultiplier <= 0 {
		return nil, badFormat("score multiplier must be positive")
	}

	g := &models.Game{Variant: models.VariantWeakest, ScoreMultiplier: doc.ScoreMultiplier}
	rounds := &models.Theme{Name: "questions", Round: 1}
	for _, q := range doc.Questions {
		rounds.Questions = append(rounds.Questions, &models.Question{
			Text:   q.Question,
			Answer: q.Answer,
		})
	}
	final := &models.Theme{Name: "final_questions", Round: 2}
	for _, q := range doc.FinalQuestions {
		final.Questions = append(final.Questions, &models.Question{
			Text:    q.Question,
			Answer:  q.Answer,
			IsFinal: true,
		})
	}
	g.Themes = []*models.Theme{rounds, final}
	return g, nil
}
