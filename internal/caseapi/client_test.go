package caseapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robby/casedesk/internal/auth"
	"github.com/robby/casedesk/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, auth.NewStaticProvider("test-token"), nil)
}

func TestListCases_RequestShape(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	var gotAuth, gotRequestID string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"incidentid": "inc-1", "ticketnumber": "CAS-1", "title": "One"},
			},
			"page": map[string]any{"top": 200, "skip": 0},
		})
	})

	cases, err := c.ListCases(context.Background(), domain.ScopeMine)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "inc-1", cases[0].IncidentID)

	assert.Equal(t, "/api/v2/me/incident", gotPath)
	assert.Equal(t, []string{"200"}, gotQuery["top"])
	assert.Equal(t, []string{"modifiedon:desc"}, gotQuery["orderBy"])
	assert.Contains(t, gotQuery["select"][0], "ticketnumber")
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.NotEmpty(t, gotRequestID, "every request carries a request ID")
}

func TestListCases_TeamScopePath(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	_, err := c.ListCases(context.Background(), domain.ScopeTeam)
	require.NoError(t, err)
	assert.Equal(t, "/api/v2/team/incident", gotPath)
}

func TestListCases_TeamForbidden(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not a team member"}`, http.StatusForbidden)
	})

	_, err := c.ListCases(context.Background(), domain.ScopeTeam)
	assert.ErrorIs(t, err, ErrTeamForbidden)
}

func TestListCases_ForbiddenOnMineIsNotTeamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"token expired"}`, http.StatusForbidden)
	})

	_, err := c.ListCases(context.Background(), domain.ScopeMine)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTeamForbidden)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusForbidden, reqErr.Status)
	assert.Equal(t, "token expired", reqErr.Message)
}

func TestListCases_ErrorMessageFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>nginx</html>"))
	})

	_, err := c.ListCases(context.Background(), domain.ScopeMine)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "HTTP 502", reqErr.Message)
}

func TestListCaseNotes_RequestShape(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"annotationid": "note-1", "subject": "Hello", "isdocument": false},
			},
		})
	})

	notes, err := c.ListCaseNotes(context.Background(), domain.ScopeMine, "inc-42")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "note-1", notes[0].AnnotationID)

	assert.Equal(t, "/api/v2/me/casenotes", gotPath)
	assert.Equal(t, []string{"objectid eq inc-42"}, gotQuery["filter"])
	assert.Equal(t, []string{"createdon:desc"}, gotQuery["orderBy"])
	assert.Equal(t, []string{"100"}, gotQuery["top"])
}

func TestCreateCaseNote_Payload(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusCreated)
	})

	err := c.CreateCaseNote(context.Background(), "inc-7", "Subject", "Body text")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/v2/me/casenotes", gotPath)
	assert.Equal(t, "Subject", gotBody["subject"])
	assert.Equal(t, "Body text", gotBody["notetext"])
	assert.Equal(t, "inc-7", gotBody["objectid_incident"])
}

func TestCreateCaseNote_BlankSubjectSentAsNull(t *testing.T) {
	var gotBody map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusCreated)
	})

	err := c.CreateCaseNote(context.Background(), "inc-7", "   ", "Body only")
	require.NoError(t, err)

	require.Contains(t, gotBody, "subject")
	assert.Nil(t, gotBody["subject"], "blank subject is null, not empty string")
	assert.Equal(t, "Body only", gotBody["notetext"])
}

func TestCreateCase_Payload(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusCreated)
	})

	err := c.CreateCase(context.Background(), "  New case  ", "")
	require.NoError(t, err)

	assert.Equal(t, "/api/v2/me/incident", gotPath)
	assert.Equal(t, "New case", gotBody["title"], "title is trimmed")
	assert.Nil(t, gotBody["description"], "blank description is null")
}

func TestDo_TokenFailureShortCircuits(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL, auth.NewDeviceFlowProvider("login.example.com", "client-id", ""), nil)
	_, err := c.ListCases(context.Background(), domain.ScopeMine)

	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	assert.False(t, called, "no request leaves without a token")
}

func TestListCases_ExtraFieldsPreserved(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"incidentid":"inc-1","ticketnumber":"CAS-1","title":"x","customerid_label":"Acme Corp"}]}`))
	})

	cases, err := c.ListCases(context.Background(), domain.ScopeMine)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.JSONEq(t, `"Acme Corp"`, string(cases[0].Extra["customerid_label"]))
}
