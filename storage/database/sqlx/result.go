package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/ongoza/cyberhub/core/onboarding"
)

const resultColumns = `session_id, user_id, profile, answers, scores, recommended_track, completed_at`

type resultRepository struct {
	db sqlx.ExtContext
}

var _ onboarding.ResultRepository = (*resultRepository)(nil)

func NewResultRepository(db sqlx.ExtContext) onboarding.ResultRepository {
	return &resultRepository{db: db}
}

type resultRow struct {
	SessionID        string         `db:"session_id"`
	UserID           string         `db:"user_id"`
	Profile          types.JSONText `db:"profile"`
	Answers          types.JSONText `db:"answers"`
	Scores           types.JSONText `db:"scores"`
	RecommendedTrack sql.NullString `db:"recommended_track"`
	CompletedAt      time.Time      `db:"completed_at"`
}

func toResultRow(res onboarding.Result) (resultRow, error) {
	row := resultRow{
		SessionID:        res.SessionID,
		UserID:           res.UserID,
		RecommendedTrack: sql.NullString{String: string(res.RecommendedTrack), Valid: res.RecommendedTrack != ""},
		CompletedAt:      res.CompletedAt.UTC(),
	}
	var err error
	if row.Profile, err = json.Marshal(res.Profile); err != nil {
		return resultRow{}, errors.Wrap(err, "encoding profile")
	}
	if row.Answers, err = json.Marshal(nonNil(res.Answers)); err != nil {
		return resultRow{}, errors.Wrap(err, "encoding answers")
	}
	if row.Scores, err = json.Marshal(nonNil(res.Scores)); err != nil {
		return resultRow{}, errors.Wrap(err, "encoding scores")
	}
	return row, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (r resultRow) result() (onboarding.Result, error) {
	res := onboarding.Result{
		SessionID:        r.SessionID,
		UserID:           r.UserID,
		RecommendedTrack: onboarding.TrackID(r.RecommendedTrack.String),
		CompletedAt:      r.CompletedAt.UTC(),
	}
	if err := r.Profile.Unmarshal(&res.Profile); err != nil {
		return onboarding.Result{}, errors.Wrap(err, "decoding profile")
	}
	if err := r.Answers.Unmarshal(&res.Answers); err != nil {
		return onboarding.Result{}, errors.Wrap(err, "decoding answers")
	}
	if err := r.Scores.Unmarshal(&res.Scores); err != nil {
		return onboarding.Result{}, errors.Wrap(err, "decoding scores")
	}
	return res, nil
}

// SaveResult upserts on session_id, so a retried completion keeps a single row.
func (repo resultRepository) SaveResult(ctx context.Context, res onboarding.Result) error {
	row, err := toResultRow(res)
	if err != nil {
		return err
	}
	q := `INSERT INTO onboarding_result (` + resultColumns + `)
		VALUES (:session_id, :user_id, :profile, :answers, :scores, :recommended_track, :completed_at)
		ON CONFLICT (session_id) DO UPDATE SET
			profile = EXCLUDED.profile,
			answers = EXCLUDED.answers,
			scores = EXCLUDED.scores,
			recommended_track = EXCLUDED.recommended_track,
			completed_at = EXCLUDED.completed_at`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return errors.Wrap(err, "saving onboarding result")
	}
	return nil
}

func (repo resultRepository) GetLatestResult(ctx context.Context, userID string) (onboarding.Result, error) {
	var row resultRow
	q := `SELECT ` + resultColumns + ` FROM onboarding_result
		WHERE user_id = $1 ORDER BY completed_at DESC LIMIT 1`
	if err := sqlx.GetContext(ctx, repo.db, &row, q, userID); err != nil {
		if err == sql.ErrNoRows {
			return onboarding.Result{}, onboarding.ErrResultNotFound
		}
		return onboarding.Result{}, errors.Wrap(err, "finding latest onboarding result")
	}
	return row.result()
}
