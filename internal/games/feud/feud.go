// Package feud implements the two-team panel duel: a button race claims the
// shared question, three strikes pass control, opened answer values go to the
// team holding the board, and a five-question final is played by both teams
// independently.
package feud

import (
	"github.com/quizhall/backend/internal/engine"
	"github.com/quizhall/backend/internal/models"
)

// Game states.
const (
	StateWaitingForTeams      = "waiting_for_teams"
	StateIntro                = "intro"
	StateRound                = "round"
	StateButton               = "button"
	StateAnswers              = "answers"
	StateAnswersReveal        = "answers_reveal"
	StateFinal                = "final"
	StateFinalQuestions       = "final_questions"
	StateFinalQuestionsReveal = "final_questions_reveal"
	StateEnd                  = "end"
)

const maxStrikes = 3

// New builds the feud state machine.
func New() *engine.Variant {
	return &engine.Variant{
		Name:          models.VariantFeud,
		MinPlayers:    2,
		MaxPlayers:    2,
		InitialState:  StateWaitingForTeams,
		TerminalState: StateEnd,
		States: []string{
			StateWaitingForTeams, StateIntro, StateRound, StateButton,
			StateAnswers, StateAnswersReveal, StateFinal, StateFinalQuestions,
			StateFinalQuestionsReveal, StateEnd,
		},
		Actions: map[string]engine.Action{
			"next_state":   {Run: nextState},
			"button_click": {Exclusive: true, Run: buttonClick},
			"set_answerer": {Run: setAnswerer},
			"answer":       {Run: answer},
		},
		Snapshot: snapshot,
	}
}

// openQuestions returns the unprocessed questions of the current phase:
// final questions during the final, regular questions otherwise.
func openQuestions(g *models.Game) []*models.Question {
	final := g.State == StateFinal || g.State == StateFinalQuestions || g.State == StateFinalQuestionsReveal
	var out []*models.Question
	for _, q := range g.Questions() {
		if q.IsFinal == final && !q.IsProcessed {
			out = append(out, q)
		}
	}
	return out
}

func otherTeam(g *models.Game, team *models.Player) *models.Player {
	for _, p := range g.Players {
		if p.ID != team.ID {
			return p
		}
	}
	return nil
}

func nextState(c *engine.Context) error {
	if err := c.GuardFromState(); err != nil {
		return err
	}
	g := c.Game
	switch g.State {
	case StateWaitingForTeams:
		if len(g.Players) < 2 {
			return engine.Reject("not enough teams")
		}
		g.State = StateIntro
	case StateIntro:
		g.State = StateRound
	case StateRound:
		qs := openQuestions(g)
		if len(qs) == 0 {
			return engine.Reject("no questions left")
		}
		g.SetQuestion(qs[0])
		g.State = StateButton
	case StateButton, StateAnswers:
		return engine.ErrNothingToDo
	case StateAnswersReveal:
		q := g.Question()
		var unopened *models.Answer
		for i := len(q.Answers) - 1; i >= 0; i-- {
			if !q.Answers[i].IsOpened {
				unopened = q.Answers[i]
				break
			}
		}
		if unopened == nil {
			nextRound(g)
		} else {
			unopened.IsOpened = true
			c.Intercom("reveal")
		}
	case StateFinal:
		g.State = StateFinalQuestions
		qs := openQuestions(g)
		if len(qs) > 0 {
			g.SetQuestion(qs[0])
		}
	case StateFinalQuestions:
		g.State = StateFinalQuestionsReveal
	case StateFinalQuestionsReveal:
		finishFinalPass(g)
	case StateEnd:
		return engine.ErrNothingToDo
	default:
		return engine.Reject("bad state %q", g.State)
	}
	return nil
}

// nextRound closes the current board: strikes reset, the question is marked
// processed, and play moves to the next round or to the final with first
// turn handed to the score leader.
func nextRound(g *models.Game) {
	team1, team2 := g.Players[0], g.Players[1]
	team1.Strikes = 0
	team2.Strikes = 0

	g.Question().IsProcessed = true
	if len(openQuestions(g)) > 0 {
		g.Round++
		g.State = StateRound
		g.SetAnswerer(nil)
	} else {
		if team1.Score >= team2.Score {
			g.SetAnswerer(team1)
		} else {
			g.SetAnswerer(team2)
		}
		g.Round = 1
		g.State = StateFinal
	}
}

// finishFinalPass banks one team's final attempt: every answer opened during
// the pass counts into its final score, then the final board resets for the
// other team, or the game ends after the second pass.
func finishFinalPass(g *models.Game) {
	answerer := g.Answerer()
	for _, q := range g.Questions() {
		if !q.IsFinal {
			continue
		}
		answerer.FinalScore += q.OpenedSum()
		q.IsProcessed = false
		for _, a := range q.Answers {
			a.IsOpened = false
		}
	}
	if g.Round == 1 {
		g.Round = 2
		g.SetAnswerer(otherTeam(g, answerer))
		g.SetQuestion(nil)
		g.State = StateFinal
	} else {
		g.SetQuestion(nil)
		g.State = StateEnd
	}
}

// buttonClick is the buzzer claim: runs under the exclusive session lock so
// exactly one of two simultaneous clicks wins; the loser observes the
// answerer already set and no-ops.
func buttonClick(c *engine.Context) error {
	g := c.Game
	if g.State != StateButton || g.AnswererID != nil {
		return engine.ErrNothingToDo
	}
	teamID, err := c.Params.Int64("team_id")
	if err != nil {
		return err
	}
	team := g.PlayerByID(teamID)
	if team == nil {
		return engine.Reject("unknown team")
	}
	g.SetAnswerer(team)
	return nil
}

func setAnswerer(c *engine.Context) error {
	g := c.Game
	if g.State != StateButton {
		return engine.ErrNothingToDo
	}
	teamID, err := c.Params.Int64("team_id")
	if err != nil {
		return err
	}
	team := g.PlayerByID(teamID)
	if team == nil {
		return engine.Reject("unknown team")
	}
	g.SetAnswerer(team)
	g.State = StateAnswers
	return nil
}

func answer(c *engine.Context) error {
	g := c.Game
	if g.State != StateButton && g.State != StateAnswers && g.State != StateFinalQuestions {
		return engine.ErrNothingToDo
	}
	isCorrect, err := c.Params.Bool("is_correct")
	if err != nil {
		return err
	}

	answerer := g.Answerer()
	q := g.Question()
	if answerer == nil || q == nil {
		return engine.ErrNothingToDo
	}
	opponent := otherTeam(g, answerer)

	if isCorrect {
		answerID, err := c.Params.Int64("answer_id")
		if err != nil {
			return err
		}
		a := q.AnswerByID(answerID)
		if a == nil {
			return engine.Reject("unknown answer")
		}
		if a.IsOpened {
			return engine.ErrNothingToDo
		}
		a.IsOpened = true

		switch g.State {
		case StateButton:
			// Face-off: after one answer the other team gets its shot;
			// the board-presenter then assigns control via set_answerer.
			g.SetAnswerer(opponent)
		case StateAnswers:
			// A steal (opponent already struck out) or a cleared board
			// credits the opened sum and moves to the reveal.
			if opponent.Strikes >= maxStrikes || q.UnopenedCount() == 0 {
				answerer.Score += q.OpenedSum()
				g.State = StateAnswersReveal
			}
		case StateFinalQuestions:
			q.IsProcessed = true
			advanceFinalQuestion(g)
		}
	} else {
		switch g.State {
		case StateButton:
			g.SetAnswerer(opponent)
		case StateAnswers:
			answerer.Strikes++
			if opponent.Strikes >= maxStrikes {
				// Failed steal: the pot stays with the struck-out team.
				opponent.Score += q.OpenedSum()
				g.State = StateAnswersReveal
			} else if answerer.Strikes >= maxStrikes {
				g.SetAnswerer(opponent)
			}
		case StateFinalQuestions:
			q.IsProcessed = true
			advanceFinalQuestion(g)
		}
		c.Intercom("gong")
	}
	return nil
}

func advanceFinalQuestion(g *models.Game) {
	qs := openQuestions(g)
	if len(qs) > 0 {
		g.SetQuestion(qs[0])
	} else {
		g.SetQuestion(nil)
	}
}
