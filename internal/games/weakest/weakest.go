// Package weakest implements the elimination panel: a rotating answerer
// builds a pooled chain that can be banked before it is lost, each round
// ends with a vote eliminating the weakest player, and the last two survivors
// play an alternating final with early-termination thresholds.
package weakest

import (
	"time"

	"github.com/quizhall/backend/internal/engine"
	"github.com/quizhall/backend/internal/models"
)

// Game states.
const (
	StateWaitingForPlayers = "waiting_for_players"
	StateIntro             = "intro"
	StateRound             = "round"
	StateQuestions         = "questions"
	StateWeakestChoose     = "weakest_choose"
	StateWeakestReveal     = "weakest_reveal"
	StateFinal             = "final"
	StateFinalQuestions    = "final_questions"
	StateEnd               = "end"
)

// chain is the pooled-value ladder; a correct answer advances one step,
// banking or a wrong answer resets to the bottom.
var chain = []int{0, 1, 2, 5, 10, 15, 20, 30, 40}

const bankCap = 40

// bankWindow is how long after a question is served the chain may still
// be banked.
const bankWindow = 3 * time.Second

// New builds the weakest-link state machine.
func New() *engine.Variant {
	return &engine.Variant{
		Name:          models.VariantWeakest,
		MinPlayers:    3,
		MaxPlayers:    12,
		InitialState:  StateWaitingForPlayers,
		TerminalState: StateEnd,
		States: []string{
			StateWaitingForPlayers, StateIntro, StateRound, StateQuestions,
			StateWeakestChoose, StateWeakestReveal, StateFinal,
			StateFinalQuestions, StateEnd,
		},
		Actions: map[string]engine.Action{
			"next_state":            {Run: nextState},
			"save_bank":             {Run: saveBank},
			"answer_correct":        {Run: answerCorrect},
			"select_weakest":        {Run: selectWeakest},
			"select_final_answerer": {Run: selectFinalAnswerer},
		},
		Snapshot: snapshot,
	}
}

// alive returns the players still in the game, in registration order.
func alive(g *models.Game) []*models.Player {
	var out []*models.Player
	for _, p := range g.Players {
		if !p.IsWeak {
			out = append(out, p)
		}
	}
	return out
}

// openQuestions returns the unprocessed questions of the current phase.
func openQuestions(g *models.Game) []*models.Question {
	final := g.State == StateFinalQuestions
	var out []*models.Question
	for _, q := range g.Questions() {
		if q.IsFinal == final && !q.IsProcessed {
			out = append(out, q)
		}
	}
	return out
}

func processedFinals(g *models.Game) []*models.Question {
	var out []*models.Question
	for _, q := range g.Questions() {
		if q.IsFinal && q.IsProcessed {
			out = append(out, q)
		}
	}
	return out
}

// nextQuestion retires the current question and serves the next one,
// rotating the answerer and re-arming the bank window.
func nextQuestion(c *engine.Context, answerer *models.Player, isCorrect *bool) {
	g := c.Game
	if q := g.Question(); q != nil {
		q.IsProcessed = true
		if isCorrect != nil {
			v := *isCorrect
			q.IsCorrect = &v
		}
	}
	qs := openQuestions(g)
	if len(qs) == 0 {
		g.SetQuestion(nil)
		if g.State == StateFinal || g.State == StateFinalQuestions {
			g.SetAnswerer(nil)
			g.State = StateEnd
			return
		}
		bank(g)
		roundEnd(c)
		return
	}
	g.SetQuestion(qs[0])

	switch {
	case answerer != nil:
		g.SetAnswerer(answerer)
	case g.AnswererID != nil:
		players := alive(g)
		for i, p := range players {
			if p.ID == *g.AnswererID {
				g.SetAnswerer(players[(i+1)%len(players)])
				break
			}
		}
	case g.StrongestID != nil && g.PlayerByID(*g.StrongestID) != nil && !g.PlayerByID(*g.StrongestID).IsWeak:
		g.SetAnswerer(g.PlayerByID(*g.StrongestID))
	default:
		g.SetAnswerer(firstByName(alive(g)))
	}
	g.BankTimer = engine.Deadline(c.Now, bankWindow)
}

func firstByName(players []*models.Player) *models.Player {
	var first *models.Player
	for _, p := range players {
		if first == nil || p.Name < first.Name {
			first = p
		}
	}
	return first
}

// bank moves the chain into the round pool, crediting the answerer's bank
// income and clamping the pool at the cap.
func bank(g *models.Game) {
	player := g.Answerer()
	if player != nil {
		income := g.TmpScore
		if g.Bank+g.TmpScore > bankCap {
			income = bankCap - g.Bank
		}
		player.BankIncome += income
	}
	g.Bank += g.TmpScore
	g.TmpScore = 0
	if g.Bank > bankCap {
		g.Bank = bankCap
	}
}

// roundEnd banks the pool into the running score and opens the elimination
// vote, pre-computing the statistically weakest and strongest players.
func roundEnd(c *engine.Context) {
	g := c.Game
	g.Timer = 0
	g.Score += g.Bank
	g.TmpScore = 0
	g.SetAnswerer(nil)
	if w := statWeakest(g); w != nil {
		id := w.ID
		g.WeakestID = &id
	}
	if s := statStrongest(g); s != nil {
		id := s.ID
		g.StrongestID = &id
	}
	g.State = StateWeakestChoose
}

// statWeakest is the performance loser: fewest right answers, then least
// contributed bank.
func statWeakest(g *models.Game) *models.Player {
	var worst *models.Player
	for _, p := range alive(g) {
		if worst == nil ||
			p.RightAnswers < worst.RightAnswers ||
			(p.RightAnswers == worst.RightAnswers && p.BankIncome < worst.BankIncome) {
			worst = p
		}
	}
	return worst
}

func statStrongest(g *models.Game) *models.Player {
	var best *models.Player
	for _, p := range alive(g) {
		if best == nil ||
			p.RightAnswers > best.RightAnswers ||
			(p.RightAnswers == best.RightAnswers && p.BankIncome > best.BankIncome) {
			best = p
		}
	}
	return best
}

// voteWeakest tallies the elimination votes among alive players: most votes
// received wins elimination, ties broken by fewer right answers, then by
// less contributed bank.
func voteWeakest(g *models.Game) *models.Player {
	votes := make(map[int64]int)
	for _, p := range alive(g) {
		if p.WeakID != nil {
			votes[*p.WeakID]++
		}
	}
	var out *models.Player
	for _, p := range alive(g) {
		n := votes[p.ID]
		if n == 0 {
			continue
		}
		if out == nil ||
			n > votes[out.ID] ||
			(n == votes[out.ID] && p.RightAnswers < out.RightAnswers) ||
			(n == votes[out.ID] && p.RightAnswers == out.RightAnswers && p.BankIncome < out.BankIncome) {
			out = p
		}
	}
	return out
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
		g.State = StateRound
	case StateRound:
		for _, p := range alive(g) {
			p.RightAnswers = 0
			p.BankIncome = 0
		}
		g.State = StateQuestions
		g.Timer = engine.Deadline(c.Now, time.Duration(150-(g.Round-1)*10)*time.Second)
		nextQuestion(c, nil, nil)
	case StateQuestions:
		roundEnd(c)
	case StateWeakestReveal:
		weakest := g.PlayerByID(*g.WeakestID)
		weakest.IsWeak = true
		g.WeakestID = nil
		for _, p := range alive(g) {
			p.WeakID = nil
		}
		g.Round++
		g.Bank = 0
		if len(alive(g)) > 2 {
			g.State = StateRound
		} else {
			g.State = StateFinal
		}
	case StateWeakestChoose, StateFinal, StateFinalQuestions, StateEnd:
		return engine.ErrNothingToDo
	default:
		return engine.Reject("bad state %q", g.State)
	}
	return nil
}

// saveBank is the push-your-luck action: only valid while the bank window
// armed for the current question is still open; a lapsed window is a no-op
// because the chain already belongs to the next question.
func saveBank(c *engine.Context) error {
	g := c.Game
	if g.State != StateQuestions {
		return engine.ErrNothingToDo
	}
	if engine.Lapsed(c.Now, g.BankTimer) {
		return engine.ErrNothingToDo
	}
	bank(g)
	if g.Bank >= bankCap {
		g.Bank = bankCap
		roundEnd(c)
	}
	return nil
}

func answerCorrect(c *engine.Context) error {
	g := c.Game
	if g.State != StateQuestions && g.State != StateFinalQuestions {
		return engine.ErrNothingToDo
	}
	isCorrect, err := c.Params.Bool("is_correct")
	if err != nil {
		return err
	}
	answerer := g.Answerer()
	if answerer == nil {
		return engine.ErrNothingToDo
	}

	if isCorrect {
		answerer.RightAnswers++
		if g.State == StateQuestions {
			g.TmpScore = nextChainValue(g.TmpScore)
			if g.TmpScore == bankCap {
				// The chain reached the cap: bank it and close the round.
				bank(g)
				g.Bank = bankCap
				roundEnd(c)
				return nil
			}
		}
	} else if g.State == StateQuestions {
		g.TmpScore = 0
	}

	if g.State == StateFinalQuestions && finalResolved(c, isCorrect) {
		return nil
	}
	nextQuestion(c, nil, &isCorrect)
	return nil
}

func nextChainValue(current int) int {
	for i, v := range chain {
		if v == current && i+1 < len(chain) {
			return chain[i+1]
		}
	}
	return chain[len(chain)-1]
}

// finalResolved applies the final-round termination thresholds after the
// current answer and before the question is retired: an unassailable lead
// ends the duel early, and from the eleventh question on it is sudden death
// on even pairs.
func finalResolved(c *engine.Context, isCorrect bool) bool {
	g := c.Game
	players := alive(g)
	if len(players) < 2 {
		return false
	}
	a, b := players[0], players[1]
	answered := len(processedFinals(g))
	diff := a.RightAnswers - b.RightAnswers
	if diff < 0 {
		diff = -diff
	}

	if (answered < 10 && diff >= 3) || (answered == 9 && diff > 0) {
		if a.RightAnswers > b.RightAnswers {
			g.SetAnswerer(a)
		} else {
			g.SetAnswerer(b)
		}
		g.State = StateEnd
		return true
	}
	if answered >= 10 && answered%2 == 1 {
		finals := processedFinals(g)
		last := finals[len(finals)-1]
		if last.IsCorrect == nil {
			return false
		}
		if isCorrect && !*last.IsCorrect {
			g.State = StateEnd
			return true
		}
		if !isCorrect && *last.IsCorrect {
			if g.AnswererID != nil && a.ID != *g.AnswererID {
				g.SetAnswerer(a)
			} else {
				g.SetAnswerer(b)
			}
			g.State = StateEnd
			return true
		}
	}
	return false
}

func selectWeakest(c *engine.Context) error {
	g := c.Game
	if g.State != StateWeakestChoose {
		return engine.ErrNothingToDo
	}
	playerID, err := c.Params.Int64("player_id")
	if err != nil {
		return err
	}
	weakestID, err := c.Params.Int64("weakest_id")
	if err != nil {
		return err
	}
	player := g.PlayerByID(playerID)
	target := g.PlayerByID(weakestID)
	if player == nil || target == nil {
		return engine.Reject("unknown player")
	}
	if player.IsWeak || target.IsWeak {
		return engine.Reject("cannot vote for weak player")
	}
	if player.ID == target.ID {
		return engine.Reject("cannot vote for yourself")
	}
	player.SetWeak(target)

	for _, p := range alive(g) {
		if p.WeakID == nil {
			return nil
		}
	}
	g.State = StateWeakestReveal
	if w := voteWeakest(g); w != nil {
		id := w.ID
		g.WeakestID = &id
	}
	return nil
}

// selectFinalAnswerer lets the round's strongest player pick who answers
// first in the final duel.
func selectFinalAnswerer(c *engine.Context) error {
	g := c.Game
	if g.State != StateFinal {
		return engine.ErrNothingToDo
	}
	playerID, err := c.Params.Int64("player_id")
	if err != nil {
		return err
	}
	answerer := g.PlayerByID(playerID)
	if answerer == nil || answerer.IsWeak {
		return engine.Reject("unknown player")
	}
	for _, p := range alive(g) {
		p.RightAnswers = 0
		p.BankIncome = 0
	}
	g.State = StateFinalQuestions
	nextQuestion(c, answerer, nil)
	return nil
}
