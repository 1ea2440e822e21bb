package backend

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/alexedwards/scs/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/editorial/auth"
	"github.com/wansing/editorial/core"
	"github.com/wansing/editorial/sqldb"
)

type testServer struct {
	*httptest.Server
	client     *http.Client
	db         *core.CoreDB
	roleID     int
	workflowID int
}

func newTestServer(t *testing.T) *testServer {

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	db := &core.CoreDB{
		AdhocDB:    sqldb.NewAdhocDB(sqlDB),
		ApprovalDB: sqldb.NewApprovalDB(sqlDB),
		ContentDB:  sqldb.NewContentDB(sqlDB),
		RoleDB:     sqldb.NewRoleDB(sqlDB),
		UserDB:     sqldb.NewUserDB(sqlDB),
		WorkflowDB: sqldb.NewWorkflowDB(sqlDB),
	}
	var resolver = &auth.Resolver{Adhoc: db.AdhocDB, Content: db.ContentDB}
	require.NoError(t, db.Init(resolver))
	resolver.Store = db.Store

	var ctx = context.Background()

	user, err := db.InsertUser(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, db.SetPassword(ctx, user, "secret"))

	author, err := db.InsertRole(ctx, "Author")
	require.NoError(t, err)
	require.NoError(t, db.Join(ctx, author.ID, "bob"))

	w := &core.Workflow{
		Name:  "Press release",
		Roles: map[int]string{author.ID: author.Name},
		States: []*core.State{
			{
				ID:    1,
				Name:  "Draft",
				Roles: []core.StateRole{{RoleID: author.ID, Assignment: core.AssignAssignee}},
				Transitions: []*core.Transition{
					{ID: 11, TargetStateID: 2, Trigger: "submit", Label: "Submit", AllowAllRoles: true},
				},
			},
			{
				ID:          2,
				Name:        "Published",
				Publishable: true,
				Roles:       []core.StateRole{{RoleID: author.ID, Assignment: core.AssignReader}},
			},
		},
		StartingStateID: 1,
	}
	require.NoError(t, db.Store.Save(ctx, w))
	require.NoError(t, db.SetStatus(ctx, core.ContentStatus{ContentID: 100, WorkflowID: w.ID, StateID: 1}))
	require.NoError(t, db.SetStatus(ctx, core.ContentStatus{ContentID: 200, WorkflowID: w.ID, StateID: 2}))

	var sessions = scs.New()
	srv := httptest.NewServer(sessions.LoadAndSave(NewBackendRouter(db, sessions)))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testServer{
		Server:     srv,
		client:     &http.Client{Jar: jar},
		db:         db,
		roleID:     author.ID,
		workflowID: w.ID,
	}
}

func (ts *testServer) login(t *testing.T, password string) *http.Response {
	resp, err := ts.client.PostForm(ts.URL+"/login", url.Values{"username": {"Bob"}, "password": {password}})
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) get(t *testing.T, path string, v interface{}) int {
	resp, err := ts.client.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func (ts *testServer) post(t *testing.T, path string, body interface{}, v interface{}) int {
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := ts.client.Post(ts.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

type action struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	TransitionID int    `json:"transitionId"`
}

func actionNames(actions []action) []string {
	var names = []string{}
	for _, a := range actions {
		names = append(names, a.Name)
	}
	return names
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, ts.get(t, "/actions?content=100", nil))
	assert.Equal(t, http.StatusUnauthorized, ts.login(t, "wrong").StatusCode)

	resp := ts.login(t, "secret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user core.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, "bob", user.Name)

	assert.Equal(t, http.StatusOK, ts.get(t, "/actions?content=100", nil))

	assert.Equal(t, http.StatusNoContent, ts.get(t, "/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, ts.get(t, "/actions?content=100", nil))
}

func TestGetActions(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "secret")

	var actions []action
	require.Equal(t, http.StatusOK, ts.get(t, "/actions?content=100", &actions))
	assert.Equal(t, []string{"checkout", "submit"}, actionNames(actions))
	assert.Equal(t, 11, actions[1].TransitionID)
	assert.Equal(t, "transition", actions[1].Kind)

	actions = nil
	require.Equal(t, http.StatusOK, ts.get(t, "/actions?content=200", &actions))
	assert.Empty(t, actions) // readers can't do anything

	actions = nil
	require.Equal(t, http.StatusOK, ts.get(t, "/actions?content=100,200", &actions))
	assert.Empty(t, actions)

	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/actions", nil))
	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/actions?content=abc", nil))
}

func TestPostActions(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "secret")

	var res struct {
		Actions []action `json:"actions"`
		Faults  []string `json:"faults"`
	}
	code := ts.post(t, "/actions", map[string]interface{}{
		"contentIds":      []int{100, 999},
		"assignmentTypes": []string{"admin", "admin"},
	}, &res)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"checkout", "submit"}, actionNames(res.Actions))
	require.Len(t, res.Faults, 1)
	assert.Contains(t, res.Faults[0], "999")

	code = ts.post(t, "/actions", map[string]interface{}{
		"contentIds":      []int{100, 200},
		"assignmentTypes": []string{"admin"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code = ts.post(t, "/actions", map[string]interface{}{
		"contentIds":      []int{100},
		"assignmentTypes": []string{"owner"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPostActionsCannotRaiseAssignment(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "secret")
	require.NoError(t, ts.db.SetCheckoutOwner(context.Background(), 100, "alice"))

	var res struct {
		Actions []action `json:"actions"`
	}
	code := ts.post(t, "/actions", map[string]interface{}{
		"contentIds":      []int{100},
		"assignmentTypes": []string{"admin"},
	}, &res)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, res.Actions) // no force checkin, bob is an assignee only

	require.NoError(t, ts.db.SetCheckoutOwner(context.Background(), 100, ""))

	res.Actions = nil
	code = ts.post(t, "/actions", map[string]interface{}{
		"contentIds":      []int{100},
		"assignmentTypes": []string{"reader"},
	}, &res)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, res.Actions)
}

func TestWorkflows(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "secret")

	var list []core.Workflow
	require.Equal(t, http.StatusOK, ts.get(t, "/workflows?name=press%25", &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Press release", list[0].Name)

	list = nil
	require.Equal(t, http.StatusOK, ts.get(t, "/workflows?name=blog%25", &list))
	assert.Empty(t, list)

	var w core.Workflow
	require.Equal(t, http.StatusOK, ts.get(t, "/workflow/"+strconv.Itoa(ts.workflowID), &w))
	assert.Len(t, w.States, 2)
	assert.Equal(t, core.AssignAssignee, w.States[0].Roles[0].Assignment)

	assert.Equal(t, http.StatusNotFound, ts.get(t, "/workflow/999", nil))
	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/workflow/abc", nil))

	var public map[string]bool
	require.Equal(t, http.StatusOK, ts.get(t, "/workflow/"+strconv.Itoa(ts.workflowID)+"/state/2/public", &public))
	assert.True(t, public["public"])

	require.Equal(t, http.StatusOK, ts.get(t, "/workflow/"+strconv.Itoa(ts.workflowID)+"/state/1/public", &public))
	assert.False(t, public["public"])

	assert.Equal(t, http.StatusNotFound, ts.get(t, "/workflow/"+strconv.Itoa(ts.workflowID)+"/state/9/public", nil))
}

func TestApprove(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "secret")

	assert.Equal(t, http.StatusNoContent, ts.post(t, "/approve", approveRequest{ContentID: 100, TransitionID: 11}, nil))

	// voted already, so the transition is not offered anymore
	assert.Equal(t, http.StatusBadRequest, ts.post(t, "/approve", approveRequest{ContentID: 100, TransitionID: 11}, nil))

	var actions []action
	require.Equal(t, http.StatusOK, ts.get(t, "/actions?content=100", &actions))
	assert.Equal(t, []string{"checkout"}, actionNames(actions))

	var approvals []core.ContentApproval
	require.Equal(t, http.StatusOK, ts.get(t, "/approvals", &approvals))
	require.Len(t, approvals, 1)
	assert.Equal(t, core.ContentApproval{ContentID: 100, WorkflowID: ts.workflowID, StateID: 1, RoleID: ts.roleID, UserName: "bob"}, approvals[0])

	approvals = nil
	require.Equal(t, http.StatusOK, ts.get(t, "/approvals?content=100", &approvals))
	assert.Len(t, approvals, 1)

	approvals = nil
	require.Equal(t, http.StatusOK, ts.get(t, "/approvals?user=BOB", &approvals))
	assert.Len(t, approvals, 1)

	assert.Equal(t, http.StatusForbidden, ts.get(t, "/approvals?user=alice", nil))

	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/approvals?content=abc", nil))
	assert.Equal(t, http.StatusBadRequest, ts.post(t, "/approve", "not an object", nil))
}
