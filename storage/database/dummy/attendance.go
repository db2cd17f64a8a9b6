package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/bmwamba/darasa/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) GetDailyCode(ctx context.Context, date string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var earliest *attendance.Record
	for _, rec := range repo.db.table {
		if rec.Date != date {
			continue
		}
		if earliest == nil || rec.CreatedAt.Before(earliest.CreatedAt) {
			earliest = rec
		}
	}
	if earliest == nil {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return *earliest, nil
}

func (repo *attendanceRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.db.table {
		if rec.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec.ID = uuid.New().String()
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) GetLatestByCode(ctx context.Context, code string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var latest *attendance.Record
	for _, rec := range repo.db.table {
		if rec.Code != code {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return *latest, nil
}

func (repo *attendanceRepository) HasClaimForDate(ctx context.Context, userID, date string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.db.table {
		if rec.Date == date && rec.UserID.Valid && rec.UserID.String == userID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *attendanceRepository) ClaimRecord(ctx context.Context, id, userID string, at time.Time) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[id]
	if !ok || rec.UserID.Valid {
		return attendance.Record{}, attendance.ErrNotFound
	}
	rec.UserID = null.StringFrom(userID)
	rec.VerifiedAt = null.TimeFrom(at)
	return *rec, nil
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter *attendance.Filter) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		if filter != nil {
			if filter.Date != "" && rec.Date != filter.Date {
				continue
			}
			if filter.UserID != "" && (!rec.UserID.Valid || rec.UserID.String != filter.UserID) {
				continue
			}
			if filter.ClaimedOnly && !rec.UserID.Valid {
				continue
			}
		}
		records = append(records, *rec)
	}
	return records, nil
}
