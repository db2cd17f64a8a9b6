package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/bmwamba/darasa/core/rubric"
)

type rubricRepository struct {
	db *rubricTable
}

var _ rubric.Repository = (*rubricRepository)(nil) // interface compliance check

func NewRubricRepository(db *DB) rubric.Repository {
	return &rubricRepository{db: db.rubric}
}

func (repo *rubricRepository) CreateRubric(ctx context.Context, rub rubric.Rubric) (rubric.Rubric, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rub.ID = uuid.New().String()
	repo.db.table[rub.ID] = &rub
	return rub, nil
}

func (repo *rubricRepository) GetRubricByID(ctx context.Context, id string) (rubric.Rubric, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rub, ok := repo.db.table[id]; ok {
		return *rub, nil
	}
	return rubric.Rubric{}, rubric.ErrNotFound
}

func (repo *rubricRepository) QueryAllRubrics(ctx context.Context) ([]rubric.Rubric, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rubrics := make([]rubric.Rubric, 0, len(repo.db.table))
	for _, rub := range repo.db.table {
		rubrics = append(rubrics, *rub)
	}
	return rubrics, nil
}

func (repo *rubricRepository) UpdateRubric(ctx context.Context, rub rubric.Rubric) (rubric.Rubric, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[rub.ID]
	if !ok {
		return rubric.Rubric{}, rubric.ErrNotFound
	}
	orig.Name = rub.Name
	orig.Criteria = rub.Criteria
	orig.UpdatedAt = rub.UpdatedAt
	return *orig, nil
}

func (repo *rubricRepository) DeleteRubricsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
