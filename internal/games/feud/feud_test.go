package feud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhall/backend/internal/engine"
	"github.com/quizhall/backend/internal/models"
)

func newTestGame() *models.Game {
	g := &models.Game{
		ID:      1,
		Variant: models.VariantFeud,
		Token:   "FEUD01",
		State:   StateWaitingForTeams,
		Round:   1,
		Players: []*models.Player{
			{ID: 1, GameID: 1, Name: "RED"},
			{ID: 2, GameID: 1, Name: "BLUE"},
		},
	}
	rounds := &models.Theme{ID: 1, GameID: 1, Name: "questions", Round: 1}
	rounds.Questions = []*models.Question{
		{
			ID: 10, GameID: 1, Text: "name something you lose",
			Answers: []*models.Answer{
				{ID: 100, QuestionID: 10, Text: "keys", Value: 40},
				{ID: 101, QuestionID: 10, Text: "phone", Value: 30},
				{ID: 102, QuestionID: 10, Text: "temper", Value: 20},
			},
		},
	}
	final := &models.Theme{ID: 2, GameID: 1, Name: "final_questions", Round: 2}
	for i := int64(0); i < 5; i++ {
		final.Questions = append(final.Questions, &models.Question{
			ID: 20 + i, GameID: 1, IsFinal: true, Text: "final",
			Answers: []*models.Answer{
				{ID: 200 + i*2, QuestionID: 20 + i, Text: "a", Value: 15},
				{ID: 201 + i*2, QuestionID: 20 + i, Text: "b", Value: 5},
			},
		})
	}
	g.Themes = []*models.Theme{rounds, final}
	return g
}

func run(t *testing.T, g *models.Game, method string, params engine.Params) error {
	t.Helper()
	v := New()
	action, ok := v.Action(method)
	require.True(t, ok, "unknown action %q", method)
	c := engine.NewContext(g, params, time.Unix(1700000000, 0))
	return action.Run(c)
}

func advance(t *testing.T, g *models.Game) {
	t.Helper()
	require.NoError(t, run(t, g, "next_state", nil))
}

func TestNextStateRequiresTwoTeams(t *testing.T) {
	g := newTestGame()
	g.Players = g.Players[:1]
	err := run(t, g, "next_state", nil)
	assert.True(t, engine.IsRejection(err))
	assert.Equal(t, StateWaitingForTeams, g.State)
}

func TestStaleFromStateIsNoOp(t *testing.T) {
	g := newTestGame()
	advance(t, g) // intro
	err := run(t, g, "next_state", engine.Params{"from_state": StateWaitingForTeams})
	assert.True(t, engine.IsNothingToDo(err))
	assert.Equal(t, StateIntro, g.State)
}

func TestButtonClickClaimIsExclusiveAndIdempotent(t *testing.T) {
	g := newTestGame()
	advance(t, g) // intro
	advance(t, g) // round
	advance(t, g) // button, question set
	require.Equal(t, StateButton, g.State)
	require.NotNil(t, g.Question())

	require.NoError(t, run(t, g, "button_click", engine.Params{"team_id": float64(2)}))
	require.NotNil(t, g.AnswererID)
	assert.Equal(t, int64(2), *g.AnswererID)

	// Second claim loses the race: silent no-op, winner keeps the board.
	err := run(t, g, "button_click", engine.Params{"team_id": float64(1)})
	assert.True(t, engine.IsNothingToDo(err))
	assert.Equal(t, int64(2), *g.AnswererID)
}

func TestFaceOffPassesToOtherTeam(t *testing.T) {
	g := newTestGame()
	advance(t, g)
	advance(t, g)
	advance(t, g)
	require.NoError(t, run(t, g, "button_click", engine.Params{"team_id": float64(1)}))

	// Wrong answer in the face-off passes the button to the other team.
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": false}))
	assert.Equal(t, StateButton, g.State)
	assert.Equal(t, int64(2), *g.AnswererID)
}

func TestRoundPlayToReveal(t *testing.T) {
	g := newTestGame()
	advance(t, g)
	advance(t, g)
	advance(t, g)
	require.NoError(t, run(t, g, "button_click", engine.Params{"team_id": float64(1)}))
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": true, "answer_id": float64(100)}))

	// Board control assigned to team 1.
	require.NoError(t, run(t, g, "set_answerer", engine.Params{"team_id": float64(1)}))
	require.Equal(t, StateAnswers, g.State)

	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": true, "answer_id": float64(101)}))
	assert.Equal(t, StateAnswers, g.State)

	// Clearing the board credits the opened sum and opens the reveal.
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": true, "answer_id": float64(102)}))
	assert.Equal(t, StateAnswersReveal, g.State)
	assert.Equal(t, 90, g.Players[0].Score)
}

func TestThreeStrikesHandBoardToOpponentAndStealResolves(t *testing.T) {
	g := newTestGame()
	advance(t, g)
	advance(t, g)
	advance(t, g)
	require.NoError(t, run(t, g, "button_click", engine.Params{"team_id": float64(1)}))
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": true, "answer_id": float64(100)}))
	require.NoError(t, run(t, g, "set_answerer", engine.Params{"team_id": float64(1)}))

	for i := 0; i < 3; i++ {
		require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": false}))
	}
	assert.Equal(t, 3, g.Players[0].Strikes)
	assert.Equal(t, int64(2), *g.AnswererID)

	// Successful steal: the whole opened pot goes to the stealing team.
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": true, "answer_id": float64(101)}))
	assert.Equal(t, StateAnswersReveal, g.State)
	assert.Equal(t, 70, g.Players[1].Score)
	assert.Equal(t, 0, g.Players[0].Score)
}

func TestFailedStealKeepsPotWithStruckOutTeam(t *testing.T) {
	g := newTestGame()
	advance(t, g)
	advance(t, g)
	advance(t, g)
	require.NoError(t, run(t, g, "button_click", engine.Params{"team_id": float64(1)}))
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": true, "answer_id": float64(100)}))
	require.NoError(t, run(t, g, "set_answerer", engine.Params{"team_id": float64(1)}))
	for i := 0; i < 3; i++ {
		require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": false}))
	}

	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": false}))
	assert.Equal(t, StateAnswersReveal, g.State)
	assert.Equal(t, 40, g.Players[0].Score)
}

func TestRevealWalksRemainingAnswersThenEntersFinal(t *testing.T) {
	g := newTestGame()
	advance(t, g)
	advance(t, g)
	advance(t, g)
	require.NoError(t, run(t, g, "button_click", engine.Params{"team_id": float64(1)}))
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": true, "answer_id": float64(100)}))
	require.NoError(t, run(t, g, "set_answerer", engine.Params{"team_id": float64(1)}))
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": true, "answer_id": float64(101)}))
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": true, "answer_id": float64(102)}))
	require.Equal(t, StateAnswersReveal, g.State)

	// Everything already opened: the next advance closes the round. The only
	// regular question is spent, so play moves to the final with first pass
	// handed to the leader.
	advance(t, g)
	assert.Equal(t, StateFinal, g.State)
	assert.Equal(t, int64(1), *g.AnswererID)
	assert.Equal(t, 1, g.Round)
}

func TestRevealOpensAnswersInReverseInsertionOrder(t *testing.T) {
	g := newTestGame()
	q := g.Themes[0].Questions[0]
	// The board keeps the order the answers were authored in, which is not
	// necessarily sorted by value.
	q.Answers = []*models.Answer{
		{ID: 100, QuestionID: 10, Text: "low", Value: 10},
		{ID: 101, QuestionID: 10, Text: "high", Value: 50},
		{ID: 102, QuestionID: 10, Text: "mid", Value: 30},
	}
	advance(t, g) // intro
	advance(t, g) // round
	advance(t, g) // button
	require.NoError(t, run(t, g, "set_answerer", engine.Params{"team_id": float64(1)}))

	// Strike out and fail the steal so the whole board reaches the reveal
	// unopened.
	for i := 0; i < maxStrikes; i++ {
		require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": false}))
	}
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": false}))
	require.Equal(t, StateAnswersReveal, g.State)

	opened := func() []string {
		var out []string
		for _, a := range q.Answers {
			if a.IsOpened {
				out = append(out, a.Text)
			}
		}
		return out
	}

	advance(t, g)
	assert.Equal(t, []string{"mid"}, opened(), "the last-authored answer opens first")
	advance(t, g)
	assert.Equal(t, []string{"high", "mid"}, opened())
	advance(t, g)
	assert.Equal(t, []string{"low", "high", "mid"}, opened())
}

func TestFinalTwoPassesAndScoring(t *testing.T) {
	g := newTestGame()
	advance(t, g)
	advance(t, g)
	advance(t, g)
	require.NoError(t, run(t, g, "button_click", engine.Params{"team_id": float64(1)}))
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": true, "answer_id": float64(100)}))
	require.NoError(t, run(t, g, "set_answerer", engine.Params{"team_id": float64(1)}))
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": true, "answer_id": float64(101)}))
	require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": true, "answer_id": float64(102)}))
	advance(t, g)
	require.Equal(t, StateFinal, g.State)

	// First pass: team 1 answers all five final questions, opening the
	// 15-value answer each time.
	advance(t, g)
	require.Equal(t, StateFinalQuestions, g.State)
	for i := int64(0); i < 5; i++ {
		q := g.Question()
		require.NotNil(t, q)
		require.NoError(t, run(t, g, "answer", engine.Params{
			"is_correct": true, "answer_id": float64(q.Answers[0].ID),
		}))
	}
	advance(t, g) // final_questions_reveal
	require.Equal(t, StateFinalQuestionsReveal, g.State)
	advance(t, g) // banks pass 1, resets board, hands pass 2 to team 2
	assert.Equal(t, 75, g.Players[0].FinalScore)
	assert.Equal(t, StateFinal, g.State)
	assert.Equal(t, int64(2), *g.AnswererID)
	assert.Equal(t, 2, g.Round)

	// Second pass: team 2 misses everything.
	advance(t, g)
	require.Equal(t, StateFinalQuestions, g.State)
	for i := 0; i < 5; i++ {
		require.NoError(t, run(t, g, "answer", engine.Params{"is_correct": false}))
	}
	advance(t, g)
	advance(t, g)
	assert.Equal(t, StateEnd, g.State)
	assert.Equal(t, 0, g.Players[1].FinalScore)
	assert.Equal(t, 75, g.Players[0].FinalScore)
}

func TestSnapshotHidesFinalBoardUntilReveal(t *testing.T) {
	g := newTestGame()
	g.State = StateFinalQuestions
	view := snapshot(g).(gameView)
	assert.Empty(t, view.FinalQuestions)

	g.State = StateFinalQuestionsReveal
	g.Themes[1].Questions[0].Answers[0].IsOpened = true
	view = snapshot(g).(gameView)
	require.Len(t, view.FinalQuestions, 5)
	assert.Len(t, view.FinalQuestions[0].Answers, 1)
	assert.Len(t, view.FinalQuestions[1].Answers, 0)
}
