package user

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Password reset tokens are "<base32(dayStamp)>-<hmac signature>". The
// signature covers the user's ID, password hash and last login, so a
// password change or a fresh login invalidates outstanding tokens.

var (
	salt    = []byte("darasa.core.user.token_gen")
	b32     = base32.StdEncoding.WithPadding(base32.NoPadding)
	epoch   = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	nowFunc = time.Now // mockable

	// set via Service constructor; overridable in tests
	secretKey                 []byte
	passwordResetTimeoutDelta time.Duration

	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// EncodeUID base64 encodes given User ID
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

func decodeUID(uid string) (string, error) {
	idBytes, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", err
	}
	return string(idBytes), nil
}

func makeToken(usr User) string {
	return makeTokenWithTimestamp(usr, dayStamp(nowFunc()))
}

func makeTokenWithTimestamp(usr User, ts int) string {
	return b32.EncodeToString([]byte(strconv.Itoa(ts))) + "-" + sign(usr, ts)
}

// verifyToken checks a password reset token against the user's current
// credentials and the configured timeout window.
func verifyToken(usr User, token string) error {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return errInvalidToken
	}

	raw, err := b32.DecodeString(parts[0])
	if err != nil {
		return errInvalidToken
	}
	ts, err := strconv.Atoi(string(raw))
	if err != nil {
		return errInvalidToken
	}

	expected := makeTokenWithTimestamp(usr, ts)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 0 {
		return errInvalidToken
	}

	maxAge := int(passwordResetTimeoutDelta / (24 * time.Hour))
	if dayStamp(time.Now())-ts > maxAge {
		return errTokenExpired
	}
	return nil
}

func dayStamp(t time.Time) int {
	return int(math.Ceil(t.Sub(epoch).Hours() / 24))
}

func sign(usr User, ts int) string {
	key := sha256.Sum256(append(salt, secretKey...))
	h := hmac.New(sha256.New, key[:])
	h.Write([]byte(usr.ID))
	h.Write(usr.PasswordHash)
	if !usr.LastLogin.IsZero() {
		h.Write([]byte(usr.LastLogin.String()))
	}
	h.Write([]byte(strconv.Itoa(ts)))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
