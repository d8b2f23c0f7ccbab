// Package jeopardy implements the panel board quiz: three players pick
// questions from themed boards, standard questions are claimed by a buzzer
// race while auction and bag-cat questions assign a single answerer with a
// wager, and the final round runs theme elimination, blind bets and
// per-player answer reveals.
package jeopardy

import (
	"github.com/quizhall/backend/internal/engine"
	"github.com/quizhall/backend/internal/models"
)

// Game states.
const (
	StateWaitingForPlayers = "waiting_for_players"
	StateIntro             = "intro"
	StateThemesAll         = "themes_all"
	StateRound             = "round"
	StateRoundThemes       = "round_themes"
	StateQuestions         = "questions"
	StateQuestionEvent     = "question_event"
	StateQuestion          = "question"
	StateAnswer            = "answer"
	StateQuestionEnd       = "question_end"
	StateFinalThemes       = "final_themes"
	StateFinalBets         = "final_bets"
	StateFinalQuestion     = "final_question"
	StateFinalAnswer       = "final_answer"
	StateFinalPlayerAnswer = "final_player_answer"
	StateFinalPlayerBet    = "final_player_bet"
	StateGameEnd           = "game_end"
)

// New builds the jeopardy state machine.
func New() *engine.Variant {
	return &engine.Variant{
		Name:          models.VariantJeopardy,
		MinPlayers:    3,
		MaxPlayers:    3,
		InitialState:  StateWaitingForPlayers,
		TerminalState: StateGameEnd,
		States: []string{
			StateWaitingForPlayers, StateIntro, StateThemesAll, StateRound,
			StateRoundThemes, StateQuestions, StateQuestionEvent, StateQuestion,
			StateAnswer, StateQuestionEnd, StateFinalThemes, StateFinalBets,
			StateFinalQuestion, StateFinalAnswer, StateFinalPlayerAnswer,
			StateFinalPlayerBet, StateGameEnd,
		},
		Actions: map[string]engine.Action{
			"next_state":           {Run: nextState},
			"choose_question":      {Run: chooseQuestion},
			"set_answerer_and_bet": {Run: setAnswererAndBet},
			"skip_question":        {Run: skipQuestion},
			"button_click":         {Exclusive: true, Run: buttonClick},
			"answer":               {Run: answer},
			"remove_final_theme":   {Run: removeFinalTheme},
			"final_bet":            {Run: finalBet},
			"final_answer":         {Run: finalAnswer},
			"final_player_answer":  {Run: finalPlayerAnswer},
			"set_balance":          {Run: setBalance},
			"set_round":            {Run: setRound},
		},
		Snapshot: snapshot,
	}
}

func isFinalRound(g *models.Game) bool {
	return g.FinalRound != 0 && g.Round == g.FinalRound
}

// currentThemes returns the themes visible in the current state: nothing
// before the game starts or after it ends, every non-final theme on the
// all-themes screen, otherwise the current round's board.
func currentThemes(g *models.Game) []*models.Theme {
	switch g.State {
	case StateWaitingForPlayers, StateGameEnd:
		return nil
	case StateThemesAll:
		limit := g.LastRound
		if g.FinalRound == 0 {
			limit = g.LastRound + 1
		}
		var out []*models.Theme
		for _, t := range g.Themes {
			if t.Round < limit {
				out = append(out, t)
			}
		}
		return out
	default:
		var out []*models.Theme
		for _, t := range g.Themes {
			if t.Round == g.Round {
				out = append(out, t)
			}
		}
		return out
	}
}

func unprocessedInRound(g *models.Game) int {
	n := 0
	for _, t := range currentThemes(g) {
		n += len(t.UnprocessedQuestions())
	}
	return n
}

// processQuestionEnd retires the current question and auto-advances to the
// next round once the current boards are exhausted.
func processQuestionEnd(g *models.Game) {
	g.Question().IsProcessed = true
	g.SetQuestion(nil)
	if unprocessedInRound(g) > 0 {
		g.State = StateQuestions
		return
	}
	g.State = StateRound
	g.Round++
	if len(currentThemes(g)) == 0 {
		g.State = StateGameEnd
	}
}

// nextFinalEndState hands the reveal to the next player with an open final
// bet, or ends the game when everyone has been revealed.
func nextFinalEndState(g *models.Game) {
	for _, p := range g.Players {
		if p.FinalBet > 0 {
			g.SetAnswerer(p)
			g.State = StateFinalPlayerAnswer
			return
		}
	}
	g.State = StateGameEnd
}

func nextState(c *engine.Context) error {
	if err := c.GuardFromState(); err != nil {
		return err
	}
	g := c.Game
	switch g.State {
	case StateWaitingForPlayers:
		if len(g.Players) < 3 {
			return engine.Reject("not enough players")
		}
		g.State = StateIntro
	case StateIntro:
		g.State = StateThemesAll
	case StateThemesAll:
		g.State = StateRound
	case StateRound:
		if isFinalRound(g) {
			g.State = StateFinalThemes
		} else {
			g.State = StateRoundThemes
		}
	case StateRoundThemes:
		g.State = StateQuestions
	case StateQuestion:
		g.State = StateAnswer
	case StateQuestionEnd:
		processQuestionEnd(g)
	case StateFinalBets:
		if isFinalRound(g) && playerWithOpenBet(g) {
			return engine.Reject("wait for all bets")
		}
		g.State = StateFinalQuestion
	case StateFinalQuestion:
		g.State = StateFinalAnswer
	case StateFinalAnswer:
		nextFinalEndState(g)
	case StateFinalPlayerBet:
		answerer := g.Answerer()
		answerer.FinalBet = 0
		g.SetAnswerer(nil)
		nextFinalEndState(g)
	case StateQuestions, StateQuestionEvent, StateAnswer, StateFinalThemes,
		StateFinalPlayerAnswer, StateGameEnd:
		return engine.ErrNothingToDo
	default:
		return engine.Reject("bad state %q", g.State)
	}
	return nil
}

func playerWithOpenBet(g *models.Game) bool {
	for _, p := range g.Players {
		if p.Balance > 0 && p.FinalBet <= 0 {
			return true
		}
	}
	return false
}

func chooseQuestion(c *engine.Context) error {
	g := c.Game
	if g.State != StateQuestions {
		return engine.ErrNothingToDo
	}
	questionID, err := c.Params.Int64("question_id")
	if err != nil {
		return err
	}
	question := g.QuestionByID(questionID)
	if question == nil {
		return engine.Reject("unknown question")
	}
	if question.IsProcessed {
		return engine.Reject("question is already processed")
	}
	if question.Type == models.QuestionTypeStandard {
		g.State = StateQuestion
	} else {
		g.State = StateQuestionEvent
	}
	g.SetQuestion(question)
	return nil
}

// setAnswererAndBet resolves an auction or bag-cat question: one player is
// committed with a wager before the question is even shown.
func setAnswererAndBet(c *engine.Context) error {
	g := c.Game
	if g.State != StateQuestionEvent {
		return engine.ErrNothingToDo
	}
	playerID, err := c.Params.Int64("player_id")
	if err != nil {
		return err
	}
	bet, err := c.Params.Int("bet")
	if err != nil {
		return err
	}
	if bet <= 0 {
		return engine.Reject("bet must be more than 0")
	}
	player := g.PlayerByID(playerID)
	if player == nil {
		return engine.Reject("unknown player")
	}
	g.QuestionBet = bet
	g.SetAnswerer(player)
	g.State = StateQuestion
	return nil
}

func skipQuestion(c *engine.Context) error {
	g := c.Game
	if g.State != StateQuestionEvent && g.State != StateQuestion && g.State != StateAnswer {
		return engine.ErrNothingToDo
	}
	g.QuestionBet = 0
	g.SetAnswerer(nil)
	if g.Question().HasPostMedia() {
		g.State = StateQuestionEnd
	} else {
		processQuestionEnd(g)
	}
	c.Intercom("skip")
	return nil
}

// buttonClick is the buzzer claim for standard questions: runs under the
// exclusive session lock so exactly one racer wins.
func buttonClick(c *engine.Context) error {
	g := c.Game
	if g.State != StateAnswer || g.AnswererID != nil ||
		g.Question().Type != models.QuestionTypeStandard {
		return engine.ErrNothingToDo
	}
	playerID, err := c.Params.Int64("player_id")
	if err != nil {
		return err
	}
	player := g.PlayerByID(playerID)
	if player == nil {
		return engine.Reject("unknown player")
	}
	g.SetAnswerer(player)
	return nil
}

func answer(c *engine.Context) error {
	g := c.Game
	if g.State != StateAnswer || g.AnswererID == nil {
		return engine.ErrNothingToDo
	}
	isRight, err := c.Params.Bool("is_right")
	if err != nil {
		return err
	}

	question := g.Question()
	stake := question.Value
	if question.Type != models.QuestionTypeStandard {
		stake = g.QuestionBet
	}

	questionEnd := func() {
		g.QuestionBet = 0
		if question.HasPostMedia() {
			g.State = StateQuestionEnd
		} else {
			processQuestionEnd(g)
		}
	}

	player := g.Answerer()
	if isRight {
		player.Balance += stake
		questionEnd()
	} else {
		player.Balance -= stake
		// A wrong answer on a standard question reopens the buzzer;
		// auction and bag-cat questions have a single committed answerer.
		if question.Type != models.QuestionTypeStandard {
			questionEnd()
		}
	}
	g.SetAnswerer(nil)
	return nil
}

// removeFinalTheme eliminates one final theme; the last theme standing
// carries the final question and opens the bets.
func removeFinalTheme(c *engine.Context) error {
	g := c.Game
	if g.State != StateFinalThemes {
		return engine.ErrNothingToDo
	}
	themeID, err := c.Params.Int64("theme_id")
	if err != nil {
		return err
	}
	theme := g.ThemeByID(themeID)
	if theme == nil || theme.Round != g.Round {
		return engine.Reject("unknown theme")
	}
	theme.IsRemoved = true

	var left []*models.Theme
	for _, t := range currentThemes(g) {
		if !t.IsRemoved {
			left = append(left, t)
		}
	}
	if len(left) == 1 && len(left[0].Questions) > 0 {
		g.State = StateFinalBets
		g.SetQuestion(left[0].Questions[0])
	}
	return nil
}

func finalBet(c *engine.Context) error {
	g := c.Game
	if g.State != StateFinalBets {
		return engine.ErrNothingToDo
	}
	playerID, err := c.Params.Int64("player_id")
	if err != nil {
		return err
	}
	bet, err := c.Params.Int("bet")
	if err != nil {
		return err
	}
	player := g.PlayerByID(playerID)
	if player == nil {
		return engine.Reject("unknown player")
	}
	if bet <= 0 {
		return engine.Reject("bet must be more than 0")
	}
	if player.Balance < bet {
		return engine.Reject("not enough money")
	}
	player.FinalBet = bet
	return nil
}

func finalAnswer(c *engine.Context) error {
	g := c.Game
	if g.State != StateFinalAnswer {
		return engine.ErrNothingToDo
	}
	playerID, err := c.Params.Int64("player_id")
	if err != nil {
		return err
	}
	text, err := c.Params.String("answer")
	if err != nil {
		return err
	}
	if text == "" {
		return engine.Reject("answer cannot be empty")
	}
	player := g.PlayerByID(playerID)
	if player == nil {
		return engine.Reject("unknown player")
	}
	player.FinalAnswer = text
	return nil
}

func finalPlayerAnswer(c *engine.Context) error {
	g := c.Game
	if g.State != StateFinalPlayerAnswer {
		return engine.ErrNothingToDo
	}
	isRight, err := c.Params.Bool("is_right")
	if err != nil {
		return err
	}
	answerer := g.Answerer()
	if isRight {
		answerer.Balance += answerer.FinalBet
	} else {
		answerer.Balance -= answerer.FinalBet
	}
	g.State = StateFinalPlayerBet
	return nil
}

// setBalance is the operator override for player balances, in registration
// order.
func setBalance(c *engine.Context) error {
	g := c.Game
	balances, err := c.Params.Ints("balance_list")
	if err != nil {
		return err
	}
	if len(balances) != len(g.Players) {
		return engine.Reject("balance list must have %d entries", len(g.Players))
	}
	for i, p := range g.Players {
		p.Balance = balances[i]
	}
	return nil
}

// setRound is the operator round reset: it reopens every question and theme
// of the target round and rewinds the session there.
func setRound(c *engine.Context) error {
	g := c.Game
	round, err := c.Params.Int("round")
	if err != nil {
		return err
	}
	g.Round = round
	g.State = StateRound
	g.SetAnswerer(nil)
	g.SetQuestion(nil)
	g.QuestionBet = 0
	if len(currentThemes(g)) == 0 {
		g.State = StateGameEnd
		return nil
	}
	for _, t := range currentThemes(g) {
		t.IsRemoved = false
		for _, q := range t.Questions {
			q.IsProcessed = false
		}
	}
	return nil
}
