// Package store is the Postgres persistence layer for game sessions. A
// session is stored as a small graph (game, players, themes, questions,
// answers) and every mutation runs inside one transaction: load the graph,
// apply the state machine action, write back the changed rows.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/quizhall/backend/internal/engine"
	"github.com/quizhall/backend/internal/models"
	"github.com/quizhall/backend/internal/token"
)

// ErrNotFound is returned when no live session matches the token.
var ErrNotFound = errors.New("game not found")

// Store persists sessions and runs state machine mutations transactionally.
type Store struct {
	pool   *pgxpool.Pool
	tokens *token.Codec
	logger *zap.Logger
}

// New creates a session store.
func New(pool *pgxpool.Pool, tokens *token.Codec, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, tokens: tokens, logger: logger}
}

// Create persists a freshly imported session graph and assigns its token.
// The game id and all child ids are filled in on success.
func (s *Store) Create(ctx context.Context, g *models.Game) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO games (variant, expired, state, round, last_round, final_round, score_multiplier)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created`,
		g.Variant, g.Expired, g.State, g.Round, g.LastRound, g.FinalRound, g.ScoreMultiplier,
	).Scan(&g.ID, &g.Created)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	g.Token, err = s.tokens.Encode(g.ID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE games SET token = $1 WHERE id = $2`, g.Token, g.ID); err != nil {
		return fmt.Errorf("assign token: %w", err)
	}

	for _, t := range g.Themes {
		t.GameID = g.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO themes (game_id, name, round, kind)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			t.GameID, t.Name, t.Round, t.Kind,
		).Scan(&t.ID)
		if err != nil {
			return fmt.Errorf("insert theme: %w", err)
		}
		for _, q := range t.Questions {
			q.GameID = g.ID
			themeID := t.ID
			q.ThemeID = &themeID
			err = tx.QueryRow(ctx, `
				INSERT INTO questions (game_id, theme_id, type, custom_theme,
					text, image, audio, video,
					answer, answer_text, answer_image, answer_audio, answer_video,
					value, comment, is_final)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
				RETURNING id`,
				q.GameID, q.ThemeID, q.Type, q.CustomTheme,
				q.Text, q.Image, q.Audio, q.Video,
				q.Answer, q.AnswerText, q.AnswerImage, q.AnswerAudio, q.AnswerVideo,
				q.Value, q.Comment, q.IsFinal,
			).Scan(&q.ID)
			if err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
			for _, a := range q.Answers {
				a.QuestionID = q.ID
				err = tx.QueryRow(ctx, `
					INSERT INTO answers (question_id, text, value)
					VALUES ($1, $2, $3)
					RETURNING id`,
					a.QuestionID, a.Text, a.Value,
				).Scan(&a.ID)
				if err != nil {
					return fmt.Errorf("insert answer: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("game created",
		zap.String("variant", g.Variant),
		zap.String("token", g.Token),
	)
	return nil
}

// GetByToken loads a live (non-expired) session graph.
func (s *Store) GetByToken(ctx context.Context, variant, tok string) (*models.Game, error) {
	return s.loadGame(ctx, s.pool, variant, tok, false)
}

// Mutate runs fn against the freshly loaded session graph inside one
// transaction and writes back the mutable rows when fn succeeds. Exclusive
// mutations take a pessimistic row lock on the game so concurrent claims
// serialize; the loser then observes the winner's state and no-ops.
// A rejection or engine.ErrNothingToDo from fn rolls back and is returned
// unchanged.
func (s *Store) Mutate(ctx context.Context, variant, tok string, exclusive bool, fn func(*models.Game) error) (*models.Game, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	g, err := s.loadGame(ctx, tx, variant, tok, exclusive)
	if err != nil {
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}
	if err := s.saveGame(ctx, tx, g); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return g, nil
}

// Register adds a named participant while the session sits in its waiting
// state. Registration is idempotent per name: re-registering returns the
// existing entry with created=false, so a reconnecting client keeps its
// identity and the caller knows nothing changed.
func (s *Store) Register(ctx context.Context, v *engine.Variant, tok, name string) (*models.Game, *models.Player, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	g, err := s.loadGame(ctx, tx, v.Name, tok, true)
	if err != nil {
		return nil, nil, false, err
	}
	if p := g.PlayerByName(name); p != nil {
		return g, p, false, tx.Commit(ctx)
	}
	if v.MaxPlayers == 0 {
		return nil, nil, false, engine.Reject("game has no participants")
	}
	if g.State != v.InitialState {
		return nil, nil, false, engine.Reject("game is already running")
	}
	if len(g.Players) >= v.MaxPlayers {
		return nil, nil, false, engine.Reject("game is full")
	}

	p := &models.Player{GameID: g.ID, Name: name}
	err = tx.QueryRow(ctx,
		`INSERT INTO players (game_id, name) VALUES ($1, $2) RETURNING id`,
		p.GameID, p.Name,
	).Scan(&p.ID)
	if err != nil {
		return nil, nil, false, fmt.Errorf("insert player: %w", err)
	}
	g.Players = append(g.Players, p)

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, false, fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("player registered",
		zap.String("variant", v.Name),
		zap.String("token", g.Token),
		zap.String("name", name),
	)
	return g, p, true, nil
}

// ExpiredGame identifies a removed session, so callers can clean up
// out-of-database leftovers like unpacked media.
type ExpiredGame struct {
	Variant string
	Token   string
}

// DeleteExpired removes sessions past their expiry along with their graphs
// and reports what was removed.
func (s *Store) DeleteExpired(ctx context.Context) ([]ExpiredGame, error) {
	rows, err := s.pool.Query(ctx,
		`DELETE FROM games WHERE expired < NOW() RETURNING variant, COALESCE(token, '')`)
	if err != nil {
		return nil, fmt.Errorf("delete expired: %w", err)
	}
	expired, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ExpiredGame, error) {
		var e ExpiredGame
		err := row.Scan(&e.Variant, &e.Token)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("delete expired: %w", err)
	}
	return expired, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) loadGame(ctx context.Context, q querier, variant, tok string, forUpdate bool) (*models.Game, error) {
	query := `
		SELECT id, variant, token, created, expired, state, round,
			last_round, final_round, question_bet,
			score, bank, tmp_score, score_multiplier,
			connoisseurs_score, viewers_score,
			question_id, answerer_id, weakest_id, strongest_id,
			timer, timer_paused, timer_remaining, bank_timer
		FROM games
		WHERE variant = $1 AND token = $2 AND expired >= NOW()`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	g := &models.Game{}
	err := q.QueryRow(ctx, query, variant, token.Normalize(tok)).Scan(
		&g.ID, &g.Variant, &g.Token, &g.Created, &g.Expired, &g.State, &g.Round,
		&g.LastRound, &g.FinalRound, &g.QuestionBet,
		&g.Score, &g.Bank, &g.TmpScore, &g.ScoreMultiplier,
		&g.ConnoisseursScore, &g.ViewersScore,
		&g.QuestionID, &g.AnswererID, &g.WeakestID, &g.StrongestID,
		&g.Timer, &g.TimerPaused, &g.TimerRemaining, &g.BankTimer,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	if err := s.loadGraph(ctx, q, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) loadGraph(ctx context.Context, q querier, g *models.Game) error {
	rows, err := q.Query(ctx, `
		SELECT id, game_id, name, score, final_score, strikes,
			balance, final_bet, final_answer,
			right_answers, bank_income, is_weak, weak_id
		FROM players WHERE game_id = $1 ORDER BY id`, g.ID)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	g.Players, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Player, error) {
		p := &models.Player{}
		err := row.Scan(&p.ID, &p.GameID, &p.Name, &p.Score, &p.FinalScore, &p.Strikes,
			&p.Balance, &p.FinalBet, &p.FinalAnswer,
			&p.RightAnswers, &p.BankIncome, &p.IsWeak, &p.WeakID)
		return p, err
	})
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT id, game_id, name, round, kind, is_removed, is_processed
		FROM themes WHERE game_id = $1 ORDER BY round, id`, g.ID)
	if err != nil {
		return fmt.Errorf("load themes: %w", err)
	}
	g.Themes, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Theme, error) {
		t := &models.Theme{}
		err := row.Scan(&t.ID, &t.GameID, &t.Name, &t.Round, &t.Kind, &t.IsRemoved, &t.IsProcessed)
		return t, err
	})
	if err != nil {
		return fmt.Errorf("load themes: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT id, game_id, theme_id, type, COALESCE(custom_theme, ''),
			text, COALESCE(image, ''), COALESCE(audio, ''), COALESCE(video, ''),
			answer, COALESCE(answer_text, ''), COALESCE(answer_image, ''),
			COALESCE(answer_audio, ''), COALESCE(answer_video, ''),
			value, comment, is_final, is_processed, is_correct
		FROM questions WHERE game_id = $1 ORDER BY id`, g.ID)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	questions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Question, error) {
		q := &models.Question{}
		err := row.Scan(&q.ID, &q.GameID, &q.ThemeID, &q.Type, &q.CustomTheme,
			&q.Text, &q.Image, &q.Audio, &q.Video,
			&q.Answer, &q.AnswerText, &q.AnswerImage,
			&q.AnswerAudio, &q.AnswerVideo,
			&q.Value, &q.Comment, &q.IsFinal, &q.IsProcessed, &q.IsCorrect)
		return q, err
	})
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	byTheme := make(map[int64][]*models.Question, len(g.Themes))
	questionIDs := make([]int64, 0, len(questions))
	byID := make(map[int64]*models.Question, len(questions))
	for _, question := range questions {
		if question.ThemeID != nil {
			byTheme[*question.ThemeID] = append(byTheme[*question.ThemeID], question)
		}
		questionIDs = append(questionIDs, question.ID)
		byID[question.ID] = question
	}
	for _, t := range g.Themes {
		t.Questions = byTheme[t.ID]
	}

	if len(questionIDs) > 0 {
		rows, err = q.Query(ctx, `
			SELECT id, question_id, text, value, is_opened
			FROM answers WHERE question_id = ANY($1) ORDER BY id`, questionIDs)
		if err != nil {
			return fmt.Errorf("load answers: %w", err)
		}
		answers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Answer, error) {
			a := &models.Answer{}
			err := row.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Value, &a.IsOpened)
			return a, err
		})
		if err != nil {
			return fmt.Errorf("load answers: %w", err)
		}
		for _, a := range answers {
			question := byID[a.QuestionID]
			question.Answers = append(question.Answers, a)
		}
	}
	return nil
}

// saveGame writes back every mutable column of the graph in one batch.
// Imported content is immutable apart from its progress flags, so the
// write-back stays small even for large banks.
func (s *Store) saveGame(ctx context.Context, tx pgx.Tx, g *models.Game) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		UPDATE games SET state = $2, round = $3, question_bet = $4,
			score = $5, bank = $6, tmp_score = $7,
			connoisseurs_score = $8, viewers_score = $9,
			question_id = $10, answerer_id = $11, weakest_id = $12, strongest_id = $13,
			timer = $14, timer_paused = $15, timer_remaining = $16, bank_timer = $17
		WHERE id = $1`,
		g.ID, g.State, g.Round, g.QuestionBet,
		g.Score, g.Bank, g.TmpScore,
		g.ConnoisseursScore, g.ViewersScore,
		g.QuestionID, g.AnswererID, g.WeakestID, g.StrongestID,
		g.Timer, g.TimerPaused, g.TimerRemaining, g.BankTimer,
	)
	for _, p := range g.Players {
		batch.Queue(`
			UPDATE players SET score = $2, final_score = $3, strikes = $4,
				balance = $5, final_bet = $6, final_answer = $7,
				right_answers = $8, bank_income = $9, is_weak = $10, weak_id = $11
			WHERE id = $1`,
			p.ID, p.Score, p.FinalScore, p.Strikes,
			p.Balance, p.FinalBet, p.FinalAnswer,
			p.RightAnswers, p.BankIncome, p.IsWeak, p.WeakID,
		)
	}
	for _, t := range g.Themes {
		batch.Queue(`UPDATE themes SET is_removed = $2, is_processed = $3 WHERE id = $1`,
			t.ID, t.IsRemoved, t.IsProcessed)
		for _, q := range t.Questions {
			batch.Queue(`UPDATE questions SET is_processed = $2, is_correct = $3 WHERE id = $1`,
				q.ID, q.IsProcessed, q.IsCorrect)
			for _, a := range q.Answers {
				batch.Queue(`UPDATE answers SET is_opened = $2 WHERE id = $1`, a.ID, a.IsOpened)
			}
		}
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save game: %w", err)
		}
	}
	return results.Close()
}
