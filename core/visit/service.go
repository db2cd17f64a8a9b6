package visit

import (
	"context"
	"time"

	"github.com/bmwamba/darasa/core"
)

type (
	Repository interface {
		CreateVisit(ctx context.Context, v Visit) error
		VisitStats(ctx context.Context, filter *StatsFilter) (Stats, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Track records a visit without blocking the caller; insert failures are
// logged and swallowed.
func (svc *Service) Track(v Visit) {
	v.CreatedAt = time.Now().UTC()
	go func() {
		if err := svc.repo.CreateVisit(context.Background(), v); err != nil {
			svc.logger.Error("tracking visit", err)
		}
	}()
}

func (svc *Service) Stats(ctx context.Context, filter *StatsFilter) (Stats, error) {
	return svc.repo.VisitStats(ctx, filter)
}
