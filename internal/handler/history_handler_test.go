package handler_test

import (
	"encoding/csv"
	"io"
	"testing"

	"uti-assess/internal/domain"
	"uti-assess/internal/dto"
	"uti-assess/internal/export"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) predict(t *testing.T, body map[string]interface{}, token, session string) string {
	t.Helper()
	resp := ts.do(t, call{method: "POST", path: "/api/predict", body: body, token: token, session: session})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out dto.PredictResponse
	decode(t, resp, &out)
	ts.assessments.Wait()
	return out.AssessmentID
}

func (ts *testServer) history(t *testing.T, path, token, session string) dto.HistoryResponse {
	t.Helper()
	resp := ts.do(t, call{method: "GET", path: path, token: token, session: session})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out dto.HistoryResponse
	decode(t, resp, &out)
	return out
}

func TestHistory_Account(t *testing.T) {
	ts := newTestServer(t)
	pat := ts.signUp(t, "pat@example.com", "")
	other := ts.signUp(t, "other@example.com", "")

	first := ts.predict(t, highRiskIntake(), pat.AccessToken, "")
	second := ts.predict(t, lowRiskIntake(), pat.AccessToken, "")
	ts.predict(t, highRiskIntake(), other.AccessToken, "")

	out := ts.history(t, "/api/history", pat.AccessToken, "")
	assert.Equal(t, "account", out.Source)
	require.Len(t, out.Assessments, 2)
	assert.Equal(t, second, out.Assessments[0].ID)
	assert.Equal(t, first, out.Assessments[1].ID)
	assert.Equal(t, domain.HistoryStats{Total: 2, High: 1, Low: 1}, out.Stats)

	resp := ts.do(t, call{method: "GET", path: "/api/history/stats", token: pat.AccessToken})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var stats domain.HistoryStats
	decode(t, resp, &stats)
	assert.Equal(t, 2, stats.Total)
}

func TestHistory_AnonymousLocal(t *testing.T) {
	ts := newTestServer(t)
	session := uuid.NewString()

	id := ts.predict(t, highRiskIntake(), "", session)

	out := ts.history(t, "/api/history", "", session)
	assert.Equal(t, "local", out.Source)
	require.Len(t, out.Assessments, 1)
	assert.Equal(t, id, out.Assessments[0].ID)
	assert.Equal(t, domain.RiskHigh, out.Assessments[0].Risk)

	// Another session sees nothing.
	assert.Empty(t, ts.history(t, "/api/history", "", uuid.NewString()).Assessments)

	resp := ts.do(t, call{method: "DELETE", path: "/api/history/" + id, session: session})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, ts.history(t, "/api/history", "", session).Assessments)

	resp = ts.do(t, call{method: "DELETE", path: "/api/history/" + id, session: session})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHistory_ClearLocal(t *testing.T) {
	ts := newTestServer(t)
	session := uuid.NewString()
	ts.predict(t, highRiskIntake(), "", session)
	ts.predict(t, lowRiskIntake(), "", session)

	resp := ts.do(t, call{method: "DELETE", path: "/api/history", session: session})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, ts.history(t, "/api/history", "", session).Assessments)
}

func TestHistory_AllIsRoleGated(t *testing.T) {
	ts := newTestServer(t)
	pat := ts.signUp(t, "pat@example.com", "")
	doc := ts.signUp(t, "doc@example.com", "doctor")

	ts.predict(t, highRiskIntake(), pat.AccessToken, "")
	ts.predict(t, lowRiskIntake(), "", uuid.NewString())

	all := ts.history(t, "/api/history/all", doc.AccessToken, "")
	assert.Len(t, all.Assessments, 2)

	assert.Empty(t, ts.history(t, "/api/history/all", pat.AccessToken, "").Assessments)

	resp := ts.do(t, call{method: "GET", path: "/api/history/all"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHistory_DeleteAccountEntry(t *testing.T) {
	ts := newTestServer(t)
	pat := ts.signUp(t, "pat@example.com", "")
	other := ts.signUp(t, "other@example.com", "")
	id := ts.predict(t, highRiskIntake(), pat.AccessToken, "")

	resp := ts.do(t, call{method: "DELETE", path: "/api/history/" + id, token: other.AccessToken})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, call{method: "DELETE", path: "/api/history/" + id, token: pat.AccessToken})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, ts.history(t, "/api/history", pat.AccessToken, "").Assessments)

	resp = ts.do(t, call{method: "DELETE", path: "/api/history/" + id, token: pat.AccessToken})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHistory_Export(t *testing.T) {
	ts := newTestServer(t)
	session := uuid.NewString()

	resp := ts.do(t, call{method: "GET", path: "/api/history/export", session: session})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), export.Filename)
	rows := readCSV(t, resp.Body)
	require.Len(t, rows, 1)
	assert.Equal(t, export.Header, rows[0])

	id := ts.predict(t, highRiskIntake(), "", session)
	resp = ts.do(t, call{method: "GET", path: "/api/history/export", session: session})
	rows = readCSV(t, resp.Body)
	require.Len(t, rows, 2)
	assert.Equal(t, id, rows[1][0])
	assert.Equal(t, "Unknown", rows[1][14])
	assert.Equal(t, "UTI", rows[1][15])
}

func readCSV(t *testing.T, r io.ReadCloser) [][]string {
	t.Helper()
	defer r.Close()
	rows, err := csv.NewReader(r).ReadAll()
	require.NoError(t, err)
	return rows
}
