package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/bmwamba/darasa/core/attendance"
)

type attendanceRow struct {
	ID         string      `db:"id"`
	Code       string      `db:"code"`
	Date       string      `db:"date"`
	UserID     null.String `db:"user_id"`
	VerifiedAt null.Time   `db:"verified_at"`
	CreatedAt  time.Time   `db:"created_at"`
}

func (r attendanceRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:         r.ID,
		Code:       r.Code,
		Date:       r.Date,
		UserID:     r.UserID,
		VerifiedAt: r.VerifiedAt,
		CreatedAt:  r.CreatedAt,
	}
}

type AttendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*AttendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (repo *AttendanceRepository) GetDailyCode(ctx context.Context, date string) (attendance.Record, error) {
	var row attendanceRow
	query := repo.db.Rebind(`SELECT * FROM attendance_records WHERE date = ? ORDER BY created_at ASC LIMIT 1`)
	if err := repo.db.GetContext(ctx, &row, query, date); err != nil {
		return attendance.Record{}, trapNoRowsErr(err, attendance.ErrNotFound, "finding daily code")
	}
	return row.toRecord(), nil
}

func (repo *AttendanceRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int
	query := repo.db.Rebind(`SELECT COUNT(*) FROM attendance_records WHERE code = ?`)
	if err := repo.db.GetContext(ctx, &count, query, code); err != nil {
		return false, errors.Wrap(err, "checking code existence")
	}
	return count > 0, nil
}

func (repo *AttendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	rec.ID = uuid.New().String()
	query := repo.db.Rebind(`
		INSERT INTO attendance_records (id, code, date, user_id, verified_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := repo.db.ExecContext(ctx, query,
		rec.ID, rec.Code, rec.Date, rec.UserID, rec.VerifiedAt, rec.CreatedAt,
	); err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo *AttendanceRepository) GetLatestByCode(ctx context.Context, code string) (attendance.Record, error) {
	var row attendanceRow
	query := repo.db.Rebind(`SELECT * FROM attendance_records WHERE code = ? ORDER BY created_at DESC LIMIT 1`)
	if err := repo.db.GetContext(ctx, &row, query, code); err != nil {
		return attendance.Record{}, trapNoRowsErr(err, attendance.ErrNotFound, "finding record by code")
	}
	return row.toRecord(), nil
}

func (repo *AttendanceRepository) HasClaimForDate(ctx context.Context, userID, date string) (bool, error) {
	var count int
	query := repo.db.Rebind(`SELECT COUNT(*) FROM attendance_records WHERE user_id = ? AND date = ?`)
	if err := repo.db.GetContext(ctx, &count, query, userID, date); err != nil {
		return false, errors.Wrap(err, "checking claim for date")
	}
	return count > 0, nil
}

func (repo *AttendanceRepository) ClaimRecord(ctx context.Context, id, userID string, at time.Time) (attendance.Record, error) {
	query := repo.db.Rebind(`UPDATE attendance_records SET user_id = ?, verified_at = ? WHERE id = ? AND user_id IS NULL`)
	res, err := repo.db.ExecContext(ctx, query, userID, at, id)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "claiming attendance record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}

	var row attendanceRow
	getQuery := repo.db.Rebind(`SELECT * FROM attendance_records WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, getQuery, id); err != nil {
		return attendance.Record{}, trapNoRowsErr(err, attendance.ErrNotFound, "reloading attendance record")
	}
	return row.toRecord(), nil
}

func (repo *AttendanceRepository) FilterRecords(ctx context.Context, filter *attendance.Filter) ([]attendance.Record, error) {
	query := `SELECT * FROM attendance_records`
	var clauses []string
	var args []interface{}

	if filter != nil {
		if filter.Date != "" {
			clauses = append(clauses, `date = ?`)
			args = append(args, filter.Date)
		}
		if filter.UserID != "" {
			clauses = append(clauses, `user_id = ?`)
			args = append(args, filter.UserID)
		}
		if filter.ClaimedOnly {
			clauses = append(clauses, `user_id IS NOT NULL`)
		}
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + joinAnd(clauses)
	}
	query += ` ORDER BY created_at DESC`

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering attendance records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toRecord())
	}
	return recs, nil
}
