package inmemdb

import (
	"context"

	"github.com/ongoza/cyberhub/core/onboarding"
)

type resultRepository struct {
	db *resultTable
}

var _ onboarding.ResultRepository = (*resultRepository)(nil)

func NewResultRepository(db *DB) onboarding.ResultRepository {
	return &resultRepository{db: db.result}
}

func copyResult(res onboarding.Result) onboarding.Result {
	res.Answers = append([]onboarding.AnswerRecord(nil), res.Answers...)
	res.Scores = append([]onboarding.TrackScore(nil), res.Scores...)
	return res
}

// SaveResult stores res, replacing any earlier save of the same session.
func (repo *resultRepository) SaveResult(_ context.Context, res onboarding.Result) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored := copyResult(res)
	repo.db.table[res.SessionID] = &stored
	return nil
}

func (repo *resultRepository) GetLatestResult(_ context.Context, userID string) (onboarding.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var latest *onboarding.Result
	for _, res := range repo.db.table {
		if res.UserID != userID {
			continue
		}
		if latest == nil || res.CompletedAt.After(latest.CompletedAt) {
			latest = res
		}
	}
	if latest == nil {
		return onboarding.Result{}, onboarding.ErrResultNotFound
	}
	return copyResult(*latest), nil
}
