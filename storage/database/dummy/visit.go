package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/bmwamba/darasa/core/visit"
)

type visitRepository struct {
	db *visitTable
}

var _ visit.Repository = (*visitRepository)(nil) // interface compliance check

func NewVisitRepository(db *DB) visit.Repository {
	return &visitRepository{db: db.visit}
}

func (repo *visitRepository) CreateVisit(ctx context.Context, v visit.Visit) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	v.ID = uuid.New().String()
	repo.db.table = append(repo.db.table, v)
	return nil
}

func (repo *visitRepository) VisitStats(ctx context.Context, filter *visit.StatsFilter) (visit.Stats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	perDay := make(map[string]int)
	var total int
	for _, v := range repo.db.table {
		if filter != nil {
			if !filter.From.IsZero() && v.CreatedAt.Before(filter.From.UTC()) {
				continue
			}
			if !filter.To.IsZero() && v.CreatedAt.After(filter.To.UTC()) {
				continue
			}
		}
		total++
		perDay[v.CreatedAt.Format("2006-01-02")]++
	}

	stats := visit.Stats{Total: total, PerDay: make([]visit.DayCount, 0, len(perDay))}
	for date, count := range perDay {
		stats.PerDay = append(stats.PerDay, visit.DayCount{Date: date, Count: count})
	}
	sort.Slice(stats.PerDay, func(i, j int) bool { return stats.PerDay[i].Date < stats.PerDay[j].Date })
	return stats, nil
}
