package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/bmwamba/darasa/core/visit"
)

type VisitRepository struct {
	db *sqlx.DB
}

var _ visit.Repository = (*VisitRepository)(nil)

func NewVisitRepository(db *sqlx.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

func (repo *VisitRepository) CreateVisit(ctx context.Context, v visit.Visit) error {
	query := repo.db.Rebind(`
		INSERT INTO visits (id, path, method, user_id, ip, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := repo.db.ExecContext(ctx, query,
		uuid.New().String(), v.Path, v.Method, v.UserID, v.IP, v.UserAgent, v.CreatedAt,
	); err != nil {
		return errors.Wrap(err, "inserting visit")
	}
	return nil
}

func (repo *VisitRepository) VisitStats(ctx context.Context, filter *visit.StatsFilter) (visit.Stats, error) {
	query := `SELECT COUNT(*) FROM visits`
	var clauses []string
	var args []interface{}
	if filter != nil {
		if !filter.From.IsZero() {
			clauses = append(clauses, `created_at >= ?`)
			args = append(args, filter.From)
		}
		if !filter.To.IsZero() {
			clauses = append(clauses, `created_at <= ?`)
			args = append(args, filter.To)
		}
	}
	where := ""
	if len(clauses) > 0 {
		where = ` WHERE ` + joinAnd(clauses)
	}

	var stats visit.Stats
	if err := repo.db.GetContext(ctx, &stats.Total, repo.db.Rebind(query+where), args...); err != nil {
		return visit.Stats{}, errors.Wrap(err, "counting visits")
	}

	// SUBSTR over the timestamp text works on both engines for day grouping.
	perDayQuery := repo.db.Rebind(
		`SELECT SUBSTR(CAST(created_at AS TEXT), 1, 10) AS date, COUNT(*) AS count FROM visits` +
			where + ` GROUP BY date ORDER BY date ASC`)
	var perDay []visit.DayCount
	if err := repo.db.SelectContext(ctx, &perDay, perDayQuery, args...); err != nil {
		return visit.Stats{}, errors.Wrap(err, "grouping visits per day")
	}
	stats.PerDay = perDay
	return stats, nil
}
