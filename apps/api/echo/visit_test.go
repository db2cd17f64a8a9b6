package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmwamba/darasa/core/user"
	"github.com/bmwamba/darasa/core/visit"
)

func Test_visitApi_stats(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.usrRepo, "Admin", "admin@test.cd", "passwd", user.RoleAdmin, true)
	student := createUser(t, env.usrRepo, "Aisha", "aisha@test.cd", "passwd", user.RoleStudent, true)

	// seed a known window well in the past; the tracker middleware records
	// the test requests themselves under today's date
	day1 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	for _, at := range []time.Time{day1, day1.Add(time.Hour), day2} {
		err := env.visitRepo.CreateVisit(context.Background(), visit.Visit{
			Path:      "/api/tasks",
			Method:    http.MethodGet,
			CreatedAt: at,
		})
		require.NoError(t, err)
	}

	// students are refused
	req, rec := newAuthRequest(http.MethodGet, "/api/visits/stats?from=2026-03-02&to=2026-03-03", getToken(t, student))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	token := getToken(t, admin)

	req, rec = newAuthRequest(http.MethodGet, "/api/visits/stats?from=2026-03-02&to=2026-03-03", token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats visit.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, []visit.DayCount{
		{Date: "2026-03-02", Count: 2},
		{Date: "2026-03-03", Count: 1},
	}, stats.PerDay)

	// `to` is inclusive of its whole day
	req, rec = newAuthRequest(http.MethodGet, "/api/visits/stats?from=2026-03-02&to=2026-03-02", token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)

	// empty window
	req, rec = newAuthRequest(http.MethodGet, "/api/visits/stats?from=2026-01-01&to=2026-01-31", token)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, []visit.DayCount{}, stats.PerDay)

	// malformed bound
	req, rec = newAuthRequest(http.MethodGet, "/api/visits/stats?from=March+2nd", token)
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
