package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/bmwamba/darasa/core/rubric"
)

type rubricRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Criteria  string    `db:"criteria"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r rubricRow) toRubric() (rubric.Rubric, error) {
	rub := rubric.Rubric{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := unmarshalJSON(r.Criteria, &rub.Criteria); err != nil {
		return rubric.Rubric{}, err
	}
	return rub, nil
}

type RubricRepository struct {
	db *sqlx.DB
}

var _ rubric.Repository = (*RubricRepository)(nil)

func NewRubricRepository(db *sqlx.DB) *RubricRepository {
	return &RubricRepository{db: db}
}

func (repo *RubricRepository) CreateRubric(ctx context.Context, rub rubric.Rubric) (rubric.Rubric, error) {
	rub.ID = uuid.New().String()
	criteria, err := marshalJSON(rub.Criteria)
	if err != nil {
		return rubric.Rubric{}, err
	}
	query := repo.db.Rebind(`INSERT INTO rubrics (id, name, criteria, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err := repo.db.ExecContext(ctx, query, rub.ID, rub.Name, criteria, rub.CreatedAt, rub.UpdatedAt); err != nil {
		return rubric.Rubric{}, errors.Wrap(err, "inserting rubric")
	}
	return rub, nil
}

func (repo *RubricRepository) GetRubricByID(ctx context.Context, id string) (rubric.Rubric, error) {
	var row rubricRow
	query := repo.db.Rebind(`SELECT * FROM rubrics WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return rubric.Rubric{}, trapNoRowsErr(err, rubric.ErrNotFound, "finding rubric by ID")
	}
	return row.toRubric()
}

func (repo *RubricRepository) QueryAllRubrics(ctx context.Context) ([]rubric.Rubric, error) {
	var rows []rubricRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM rubrics ORDER BY name ASC`); err != nil {
		return nil, errors.Wrap(err, "querying rubrics")
	}
	rubs := make([]rubric.Rubric, 0, len(rows))
	for _, row := range rows {
		rub, err := row.toRubric()
		if err != nil {
			return nil, err
		}
		rubs = append(rubs, rub)
	}
	return rubs, nil
}

func (repo *RubricRepository) UpdateRubric(ctx context.Context, rub rubric.Rubric) (rubric.Rubric, error) {
	criteria, err := marshalJSON(rub.Criteria)
	if err != nil {
		return rubric.Rubric{}, err
	}
	query := repo.db.Rebind(`UPDATE rubrics SET name = ?, criteria = ?, updated_at = ? WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, query, rub.Name, criteria, rub.UpdatedAt, rub.ID)
	if err != nil {
		return rubric.Rubric{}, errors.Wrap(err, "updating rubric")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return rubric.Rubric{}, rubric.ErrNotFound
	}
	return repo.GetRubricByID(ctx, rub.ID)
}

func (repo *RubricRepository) DeleteRubricsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := in(repo.db, `DELETE FROM rubrics WHERE id IN (?)`, []interface{}{ids})
	if err != nil {
		return err
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting rubrics")
	}
	return nil
}
