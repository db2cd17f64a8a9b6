package rubric

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("rubric not found")

type (
	Repository interface {
		CreateRubric(ctx context.Context, rub Rubric) (Rubric, error)
		GetRubricByID(ctx context.Context, id string) (Rubric, error)
		QueryAllRubrics(ctx context.Context) ([]Rubric, error)
		UpdateRubric(ctx context.Context, rub Rubric) (Rubric, error)
		DeleteRubricsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nr NewRubric) (Rubric, error) {
	now := time.Now().UTC()
	return svc.repo.CreateRubric(ctx, Rubric{
		Name:      nr.Name,
		Criteria:  nr.Criteria,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Rubric, error) {
	return svc.repo.GetRubricByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Rubric, error) {
	return svc.repo.QueryAllRubrics(ctx)
}

func (svc *Service) Update(ctx context.Context, id string, ur UpdateRubric) (Rubric, error) {
	return svc.repo.UpdateRubric(ctx, Rubric{
		ID:        id,
		Name:      ur.Name,
		Criteria:  ur.Criteria,
		UpdatedAt: time.Now().UTC(),
	})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteRubricsByID(ctx, ids...)
}
