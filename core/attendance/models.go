package attendance

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/bmwamba/darasa/core"
)

// DateLayout is the calendar-day key used for codes and claims.
const DateLayout = "2006-01-02"

// Record is one verification-code row. An issuance starts unclaimed
// (UserID null); a student check-in claims it.
type Record struct {
	ID         string      `json:"id"`
	Code       string      `json:"code"`
	Date       string      `json:"date"` // DateLayout
	UserID     null.String `json:"user_id,omitempty"`
	VerifiedAt null.Time   `json:"verified_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"` // UTC
}

func (r Record) IsClaimed() bool {
	return r.UserID.Valid
}

type CheckIn struct {
	VerificationCode string `json:"verificationCode" validate:"required"`
}

func (ci *CheckIn) Validate() error {
	ci.VerificationCode = strings.ToUpper(core.CleanString(ci.VerificationCode))
	return core.Validate.Struct(ci)
}

type Filter struct {
	Date        string `query:"date"` // DateLayout
	UserID      string `query:"-"`
	ClaimedOnly bool   `query:"-"`
}
