package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-locator/internal/models"
)

const bootstrapBody = `{
	"demand": {"demandID": 1, "location": [0, 0]},
	"demands": [],
	"facilities": [],
	"parameter": {"openingCosts": 10.0}
}`

func TestRuns_RecordedAndListed(t *testing.T) {
	r := newTestRouter(newTestHandler(t, true))

	rec, _ := doRequest(t, r, http.MethodPost, "/online_facility_location", bootstrapBody)
	require.Equal(t, http.StatusOK, rec.Code)
	runID := rec.Header().Get(RunIDHeader)
	require.NotEmpty(t, runID)

	rec, _ = doRequest(t, r, http.MethodPost, "/offline_facility_location", `{
		"demands": [{"demandID": 1, "location": [0, 0]}],
		"facilities": [{"facilityID": 0, "location": [2, 0], "connection": [], "openingCosts": 3}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doRequest(t, r, http.MethodGet, "/api/v1/runs?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list RunListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 10, list.Limit)
	require.Len(t, list.Runs, 2)
	assert.Equal(t, models.SolveModeOffline, list.Runs[0].Mode)
	assert.Equal(t, models.SolveModeOnline, list.Runs[1].Mode)

	rec, env = doRequest(t, r, http.MethodGet, "/api/v1/runs/"+runID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var run models.RunRecord
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, 1, run.FacilityCount)
	assert.Equal(t, 1, run.DemandCount)
	assert.Equal(t, 10.0, run.CostCurrent)
	assert.True(t, run.Coin)

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(run.Snapshot, &snap))
	assert.Equal(t, []int64{1}, snap.Facilities[0].Connection)

	rec, _ = doRequest(t, r, http.MethodGet, "/api/v1/runs/"+strconv.FormatInt(run.ID, 10), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRuns_NotFound(t *testing.T) {
	r := newTestRouter(newTestHandler(t, true))

	rec, env := doRequest(t, r, http.MethodGet, "/api/v1/runs/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "null", string(env.Data))

	rec, _ = doRequest(t, r, http.MethodGet, "/api/v1/runs/not-a-run", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRuns_HistoryDisabled(t *testing.T) {
	r := newTestRouter(newTestHandler(t, false))

	rec, _ := doRequest(t, r, http.MethodPost, "/online_facility_location", bootstrapBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(RunIDHeader))

	rec, _ = doRequest(t, r, http.MethodGet, "/api/v1/runs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
