// Package whirligig implements the spinning-top quiz: the connoisseur team
// plays against the viewers, a random board item is drawn each round and
// discussed against a pausable countdown, and the first side to six points
// wins.
package whirligig

import (
	"time"

	"github.com/quizhall/backend/internal/engine"
	"github.com/quizhall/backend/internal/models"
)

// Game states.
const (
	StateStart              = "start"
	StateIntro              = "intro"
	StateQuestions          = "questions"
	StateQuestionWhirligig  = "question_whirligig"
	StateQuestionStart      = "question_start"
	StateQuestionDiscussion = "question_discussion"
	StateQuestionEnd        = "question_end"
	StateEnd                = "end"
)

const (
	// maxScore ends the game as soon as either side reaches it.
	maxScore = 6
	// discussionTime is the countdown armed when a discussion opens; the
	// extra_time action grants one more of these.
	discussionTime = 60 * time.Second
)

// New builds the whirligig state machine. The game has no registered
// players; both sides sit at one table and the operator drives everything.
func New() *engine.Variant {
	return &engine.Variant{
		Name:          models.VariantWhirligig,
		InitialState:  StateStart,
		TerminalState: StateEnd,
		States: []string{
			StateStart, StateIntro, StateQuestions, StateQuestionWhirligig,
			StateQuestionStart, StateQuestionDiscussion, StateQuestionEnd,
			StateEnd,
		},
		Actions: map[string]engine.Action{
			"next_state":     {Run: nextState},
			"change_score":   {Run: changeScore},
			"change_timer":   {Run: changeTimer},
			"answer_correct": {Run: answerCorrect},
			"extra_time":     {Run: extraTime},
		},
		Snapshot: snapshot,
	}
}

func unprocessedItems(g *models.Game) []*models.Theme {
	var out []*models.Theme
	for _, t := range g.Themes {
		if !t.IsProcessed {
			out = append(out, t)
		}
	}
	return out
}

func currentItem(g *models.Game) *models.Theme {
	q := g.Question()
	if q == nil || q.ThemeID == nil {
		return nil
	}
	return g.ThemeByID(*q.ThemeID)
}

// questionIndex is the question's position within its item, -1 when the
// question is not on the board.
func questionIndex(item *models.Theme, q *models.Question) int {
	for i, candidate := range item.Questions {
		if candidate.ID == q.ID {
			return i
		}
	}
	return -1
}

func clearTimer(g *models.Game) {
	g.Timer = 0
	g.TimerPaused = false
	g.TimerRemaining = 0
}

func nextState(c *engine.Context) error {
	if err := c.GuardFromState(); err != nil {
		return err
	}
	g := c.Game
	switch g.State {
	case StateStart:
		g.State = StateIntro
	case StateIntro:
		g.State = StateQuestions
	case StateQuestions:
		items := unprocessedItems(g)
		if len(items) == 0 {
			return engine.Reject("no items left")
		}
		item := items[c.IntN(len(items))]
		g.SetQuestion(item.Questions[0])
		g.State = StateQuestionWhirligig
	case StateQuestionWhirligig:
		g.State = StateQuestionStart
	case StateQuestionStart:
		g.State = StateQuestionDiscussion
		g.Timer = engine.Deadline(c.Now, discussionTime)
		g.TimerPaused = false
		g.TimerRemaining = 0
	case StateQuestionDiscussion:
		g.State = StateQuestionEnd
		clearTimer(g)
	case StateQuestionEnd:
		item := currentItem(g)
		question := g.Question()
		question.IsProcessed = true
		if idx := questionIndex(item, question); idx < len(item.Questions)-1 {
			g.SetQuestion(item.Questions[idx+1])
			g.State = StateQuestionStart
			return nil
		}
		item.IsProcessed = true
		g.SetQuestion(nil)
		if g.ConnoisseursScore >= maxScore || g.ViewersScore >= maxScore ||
			len(unprocessedItems(g)) == 0 {
			g.State = StateEnd
		} else {
			g.State = StateQuestions
		}
	default:
		return engine.Reject("bad state %q", g.State)
	}
	return nil
}

// changeScore is the operator override for both scoreboards.
func changeScore(c *engine.Context) error {
	connoisseurs, err := c.Params.Int("connoisseurs_score")
	if err != nil {
		return err
	}
	viewers, err := c.Params.Int("viewers_score")
	if err != nil {
		return err
	}
	c.Game.ConnoisseursScore = connoisseurs
	c.Game.ViewersScore = viewers
	return nil
}

// changeTimer pauses or resumes the discussion countdown. Pausing stores the
// time left; resuming re-arms the deadline from it.
func changeTimer(c *engine.Context) error {
	g := c.Game
	if g.State != StateQuestionDiscussion {
		return engine.ErrNothingToDo
	}
	paused, err := c.Params.Bool("paused")
	if err != nil {
		return err
	}
	if paused == g.TimerPaused {
		return engine.ErrNothingToDo
	}
	if paused {
		g.TimerRemaining = engine.Remaining(c.Now, g.Timer)
		g.Timer = 0
		g.TimerPaused = true
	} else {
		g.Timer = engine.Deadline(c.Now, time.Duration(g.TimerRemaining)*time.Millisecond)
		g.TimerRemaining = 0
		g.TimerPaused = false
	}
	return nil
}

// answerCorrect records the discussion verdict: a point to the connoisseurs
// when right, to the viewers when wrong, and closes the discussion.
func answerCorrect(c *engine.Context) error {
	g := c.Game
	if g.State != StateQuestionDiscussion {
		return engine.ErrNothingToDo
	}
	isCorrect, err := c.Params.Bool("is_correct")
	if err != nil {
		return err
	}
	if isCorrect {
		g.ConnoisseursScore++
	} else {
		g.ViewersScore++
	}
	g.State = StateQuestionEnd
	clearTimer(g)
	return nil
}

// extraTime grants one more discussion interval on top of whatever is left.
func extraTime(c *engine.Context) error {
	g := c.Game
	if g.State != StateQuestionDiscussion {
		return engine.ErrNothingToDo
	}
	if g.TimerPaused {
		g.TimerRemaining += discussionTime.Milliseconds()
		return nil
	}
	left := time.Duration(engine.Remaining(c.Now, g.Timer)) * time.Millisecond
	g.Timer = engine.Deadline(c.Now, left+discussionTime)
	return nil
}
