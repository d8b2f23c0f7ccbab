package content

import (
	"encoding/xml"
	"io"

	"github.com/quizhall/backend/internal/models"
)

const feudFinalQuestions = 5

type feudXML struct {
	Questions      []feudQuestionXML `xml:"questions>question"`
	FinalQuestions []feudQuestionXML `xml:"final_questions>question"`
}

type feudQuestionXML struct {
	Text    string          `xml:"text"`
	Answers []feudAnswerXML `xml:"answer"`
}

type feudAnswerXML struct {
	Text  string `xml:"text"`
	Value int    `xml:"value"`
}

// parseFeud reads a feud package: one survey question per round plus exactly
// five final questions, each carrying its answer board.
func parseFeud(r io.Reader) (*models.Game, error) {
	var doc feudXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, badFormat("%v", err)
	}
	if len(doc.Questions) == 0 {
		return nil, badFormat("game should have at least 1 round")
	}
	if len(doc.FinalQuestions) != feudFinalQuestions {
		return nil, badFormat("game should have exactly %d final questions", feudFinalQuestions)
	}

	g := &models.Game{Variant: models.VariantFeud}
	rounds := &models.Theme{Name: "questions", Round: 1}
	for _, q := range doc.Questions {
		rounds.Questions = append(rounds.Questions, newFeudQuestion(q, false))
	}
	final := &models.Theme{Name: "final_questions", Round: 2}
	for _, q := range doc.FinalQuestions {
		final.Questions = append(final.Questions, newFeudQuestion(q, true))
	}
	g.Themes = []*models.Theme{rounds, final}
	return g, nil
}

func newFeudQuestion(q feudQuestionXML, isFinal bool) *models.Question {
	question := &models.Question{Text: q.Text, IsFinal: isFinal}
	for _, a := range q.Answers {
		question.Answers = append(question.Answers, &models.Answer{Text: a.Text, Value: a.Value})
	}
	return question
}
