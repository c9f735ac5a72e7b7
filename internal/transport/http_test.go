package transport_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
	"github.com/cookiejar-app/cookiejar/internal/domain/project"
	"github.com/cookiejar-app/cookiejar/internal/gateway"
	"github.com/cookiejar-app/cookiejar/internal/store"
	"github.com/cookiejar-app/cookiejar/internal/transport"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := store.NewMemory()
	guard := &store.Guard{}
	cookies := cookie.NewService(st, guard, nil)
	projects := project.NewService(st, guard, nil)
	gatewaySvc := gateway.NewService(st, guard, cookies, projects, nil)

	router := transport.NewServer(transport.Services{
		Cookies:  cookies,
		Projects: projects,
		Gateway:  gatewaySvc,
	}, nil, nil)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func rpc(t *testing.T, srv *httptest.Server, method string, params any) transport.Response {
	t.Helper()
	var rawParams json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		require.NoError(t, err)
		rawParams = data
	}
	body, err := json.Marshal(transport.Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  rawParams,
		ID:      1,
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/rpc", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func result(t *testing.T, res transport.Response, out any) {
	t.Helper()
	require.Nil(t, res.Error, "unexpected rpc error: %+v", res.Error)
	data, err := json.Marshal(res.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestRPC_CreateProjectThenCookie(t *testing.T) {
	srv := newTestServer(t)

	var createRes transport.OpResult
	result(t, rpc(t, srv, "projects.create", map[string]any{"name": "Piano"}), &createRes)
	require.True(t, createRes.Success)
	require.NotNil(t, createRes.Project)
	require.NotEmpty(t, createRes.Project.ID)
	require.Equal(t, "Piano", createRes.Project.Name)
	require.Equal(t, project.StatusActive, createRes.Project.Status)
	require.Equal(t, []string{}, createRes.Project.Tags)

	var created cookie.Cookie
	result(t, rpc(t, srv, "cookies.create", map[string]any{
		"projectId": createRes.Project.ID,
		"note":      "practiced",
	}), &created)
	require.NotEmpty(t, created.ID)

	var cookies []cookie.Cookie
	result(t, rpc(t, srv, "cookies.list", nil), &cookies)
	require.Len(t, cookies, 1)
	require.NotNil(t, cookies[0].ProjectID)
	require.Equal(t, createRes.Project.ID, *cookies[0].ProjectID)
}

func TestRPC_DuplicateProjectNameIsStructuredFailure(t *testing.T) {
	srv := newTestServer(t)

	var first transport.OpResult
	result(t, rpc(t, srv, "projects.create", map[string]any{"name": "Piano"}), &first)
	require.True(t, first.Success)

	var second transport.OpResult
	result(t, rpc(t, srv, "projects.create", map[string]any{"name": "Piano"}), &second)
	require.False(t, second.Success)
	require.Equal(t, "DUPLICATE_NAME", second.Code)
	require.NotEmpty(t, second.Error)
}

func TestRPC_CookieUpdateAndDelete(t *testing.T) {
	srv := newTestServer(t)

	var created cookie.Cookie
	result(t, rpc(t, srv, "cookies.create", map[string]any{"note": "before"}), &created)

	var updated bool
	result(t, rpc(t, srv, "cookies.update", map[string]any{"id": created.ID, "note": "after"}), &updated)
	require.True(t, updated)

	result(t, rpc(t, srv, "cookies.update", map[string]any{"id": "missing", "note": "x"}), &updated)
	require.False(t, updated)

	var removed *cookie.Cookie
	result(t, rpc(t, srv, "cookies.delete", map[string]any{"id": created.ID}), &removed)
	require.NotNil(t, removed)
	require.Equal(t, "after", removed.Note)

	result(t, rpc(t, srv, "cookies.delete", map[string]any{"id": created.ID}), &removed)
	require.Nil(t, removed)
}

func TestRPC_ProjectDeleteCascades(t *testing.T) {
	srv := newTestServer(t)

	var created transport.OpResult
	result(t, rpc(t, srv, "projects.create", map[string]any{"name": "Doomed"}), &created)

	var ck cookie.Cookie
	result(t, rpc(t, srv, "cookies.create", map[string]any{"projectId": created.Project.ID, "note": "x"}), &ck)

	var existed bool
	result(t, rpc(t, srv, "projects.delete", map[string]any{"id": created.Project.ID}), &existed)
	require.True(t, existed)

	var cookies []cookie.Cookie
	result(t, rpc(t, srv, "cookies.list", nil), &cookies)
	require.Empty(t, cookies)
}

func TestRPC_SetStatus(t *testing.T) {
	srv := newTestServer(t)

	var created transport.OpResult
	result(t, rpc(t, srv, "projects.create", map[string]any{"name": "Piano"}), &created)

	var ok bool
	result(t, rpc(t, srv, "projects.setStatus", map[string]any{
		"id": created.Project.ID, "status": "archived",
	}), &ok)
	require.True(t, ok)

	// Unknown ids still report success.
	result(t, rpc(t, srv, "projects.setStatus", map[string]any{
		"id": "missing", "status": "active",
	}), &ok)
	require.True(t, ok)

	res := rpc(t, srv, "projects.setStatus", map[string]any{
		"id": created.Project.ID, "status": "paused",
	})
	require.NotNil(t, res.Error)
	require.Equal(t, transport.ErrInvalidParams, res.Error.Code)
}

func TestRPC_ImportExport(t *testing.T) {
	srv := newTestServer(t)

	var importRes transport.OpResult
	result(t, rpc(t, srv, "data.import", json.RawMessage(
		`{"cookies":[{"id":"imported","note":"from backup"}],"projects":[{"id":"p1","name":"Piano","tags":[],"status":"active","createdAt":1}]}`,
	)), &importRes)
	require.True(t, importRes.Success)

	var snapshot gateway.Snapshot
	result(t, rpc(t, srv, "data.export", nil), &snapshot)
	require.Len(t, snapshot.Cookies, 1)
	require.Equal(t, "imported", snapshot.Cookies[0].ID)
	require.Len(t, snapshot.Projects, 1)
	require.NotEmpty(t, snapshot.ExportDate)
}

func TestRPC_ImportInvalidPayloadIsStructuredFailure(t *testing.T) {
	srv := newTestServer(t)

	var res transport.OpResult
	result(t, rpc(t, srv, "data.import", json.RawMessage(`null`)), &res)
	require.False(t, res.Success)
	require.Equal(t, "INVALID_DATA", res.Code)
}

func TestRPC_StatsOverview(t *testing.T) {
	srv := newTestServer(t)

	var created transport.OpResult
	result(t, rpc(t, srv, "projects.create", map[string]any{"name": "Piano"}), &created)
	var ck cookie.Cookie
	result(t, rpc(t, srv, "cookies.create", map[string]any{"projectId": created.Project.ID}), &ck)

	var overview transport.Overview
	result(t, rpc(t, srv, "stats.overview", nil), &overview)
	require.Equal(t, 1, overview.Totals.TotalCookies)
	require.Equal(t, 1, overview.Totals.ActiveProjects)
	require.Equal(t, 1, overview.Projects[created.Project.ID].CookieCount)
	require.NotEmpty(t, overview.Heatmap)
}

func TestRPC_StatsDaily(t *testing.T) {
	srv := newTestServer(t)

	var ck cookie.Cookie
	result(t, rpc(t, srv, "cookies.create", map[string]any{"note": "today"}), &ck)

	var summary map[string]any
	result(t, rpc(t, srv, "stats.daily", nil), &summary)
	require.EqualValues(t, 1, summary["todayCount"])
	require.EqualValues(t, 1, summary["streak"])
	require.Equal(t, true, summary["newRecord"])
}

func TestRPC_UnknownMethod(t *testing.T) {
	srv := newTestServer(t)
	res := rpc(t, srv, "cookies.devour", nil)
	require.NotNil(t, res.Error)
	require.Equal(t, transport.ErrMethodNotFound, res.Error.Code)
}

func TestRPC_MalformedBody(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/rpc", "application/json", bytes.NewReader([]byte("{nope")))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Error)
	require.Equal(t, transport.ErrInvalidReq, out.Error.Code)
}

func TestRPC_HealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
