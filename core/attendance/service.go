package attendance

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/bmwamba/darasa/core"
)

const (
	codeLen         = 8  // hex chars
	maxCodeAttempts = 10 // retries on collision
)

var (
	// errors
	ErrNotFound         = errors.New("verification code not found")
	ErrAlreadyCheckedIn = errors.New("attendance already registered for this day")
	ErrCodeGeneration   = errors.New("could not generate a unique verification code")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// GetDailyCode returns the original issuance row for a date.
		GetDailyCode(ctx context.Context, date string) (Record, error)
		CodeExists(ctx context.Context, code string) (bool, error)
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		// GetLatestByCode returns the most recent record matching code,
		// claimed or not.
		GetLatestByCode(ctx context.Context, code string) (Record, error)
		HasClaimForDate(ctx context.Context, userID, date string) (bool, error)
		ClaimRecord(ctx context.Context, id, userID string, at time.Time) (Record, error)
		FilterRecords(ctx context.Context, filter *Filter) ([]Record, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GenerateDailyCode returns today's verification code, creating it on the
// first call of the day. Subsequent calls return the same code with
// reused=true.
func (svc *Service) GenerateDailyCode(ctx context.Context) (Record, bool, error) {
	date := nowFunc().UTC().Format(DateLayout)

	if rec, err := svc.repo.GetDailyCode(ctx, date); err == nil {
		return rec, true, nil
	} else if errors.Cause(err) != ErrNotFound {
		return Record{}, false, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return Record{}, false, err
		}
		exists, err := svc.repo.CodeExists(ctx, code)
		if err != nil {
			return Record{}, false, err
		}
		if exists {
			continue
		}
		rec, err := svc.repo.CreateRecord(ctx, Record{
			Code:      code,
			Date:      date,
			CreatedAt: nowFunc().UTC(),
		})
		if err != nil {
			return Record{}, false, err
		}
		return rec, false, nil
	}
	return Record{}, false, ErrCodeGeneration
}

// CheckIn claims today's code for a student. The first check-in claims the
// issuance row itself; later ones append fresh claimed rows so a single
// daily code serves the whole class. At most one claim per (user, date).
func (svc *Service) CheckIn(ctx context.Context, userID, code string) (Record, error) {
	rec, err := svc.repo.GetLatestByCode(ctx, code)
	if err != nil {
		return Record{}, err
	}

	claimed, err := svc.repo.HasClaimForDate(ctx, userID, rec.Date)
	if err != nil {
		return Record{}, err
	}
	if claimed {
		return Record{}, ErrAlreadyCheckedIn
	}

	now := nowFunc().UTC()
	if !rec.IsClaimed() {
		return svc.repo.ClaimRecord(ctx, rec.ID, userID, now)
	}
	return svc.repo.CreateRecord(ctx, Record{
		Code:       rec.Code,
		Date:       rec.Date,
		UserID:     null.StringFrom(userID),
		VerifiedAt: null.TimeFrom(now),
		CreatedAt:  now,
	})
}

func (svc *Service) Filter(ctx context.Context, filter *Filter) ([]Record, error) {
	return svc.repo.FilterRecords(ctx, filter)
}

// randomCode produces an 8-character uppercase hex code.
func randomCode() (string, error) {
	buf := make([]byte, codeLen/2)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
