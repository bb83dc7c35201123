package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"myvote/internal/auth"
	"myvote/internal/broadcast"
	"myvote/internal/config"
	httpx "myvote/internal/http"
	"myvote/internal/poll"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&poll.User{}, &poll.Poll{}, &poll.Choice{}, &poll.Vote{}, &poll.Suggestion{},
	))

	r := httpx.NewRouter(config.Config{}, gdb, auth.NewTokens("test-secret"), broadcast.NewHub())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createUser(t *testing.T, srv *httptest.Server, name string) uint64 {
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/user", map[string]string{"displayName": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decodeBody[map[string]any](t, resp)
	return uint64(out["userId"].(float64))
}

func createPoll(t *testing.T, srv *httptest.Server, ownerID uint64, endsAt time.Time, choices ...string) *poll.Snapshot {
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/poll", map[string]any{
		"userId":  ownerID,
		"title":   "team lunch",
		"kind":    "multi",
		"endsAt":  endsAt.Format(time.RFC3339),
		"choices": choices,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snap := decodeBody[poll.Snapshot](t, resp)
	return &snap
}

func TestTrackCreatesAndRecognizesVisitor(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/track")
	require.NoError(t, err)
	first := decodeBody[map[string]any](t, resp)
	require.Equal(t, "New user tracked", first["message"])

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/track", nil)
	require.NoError(t, err)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	second := decodeBody[map[string]any](t, resp)
	require.Equal(t, "Existing user found", second["message"])
	require.Equal(t, first["userId"], second["userId"])
}

func TestVoteEndpointFlow(t *testing.T) {
	srv := newTestServer(t)

	owner := createUser(t, srv, "owner")
	voter := createUser(t, srv, "voter")
	snap := createPoll(t, srv, owner, time.Now().UTC().Add(time.Hour), "A", "B")

	choiceA := snap.Choices[0]

	resp := doJSON(t, http.MethodPatch, srv.URL+"/api/poll/vote", map[string]uint64{
		"userId": voter, "choiceId": choiceA.ChoiceID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[poll.Snapshot](t, resp)
	require.Equal(t, 1, updated.Choices[0].VoteCount)
	require.Equal(t, []uint64{voter}, updated.Choices[0].VoterUserIDs)

	// undoing a vote that is not there is a caller error
	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/poll/vote/remove", map[string]uint64{
		"userId": owner, "choiceId": choiceA.ChoiceID,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/poll/vote/remove", map[string]uint64{
		"userId": voter, "choiceId": choiceA.ChoiceID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated = decodeBody[poll.Snapshot](t, resp)
	require.Equal(t, 0, updated.Choices[0].VoteCount)
}

func TestRemoveUserVotesStatusCodes(t *testing.T) {
	srv := newTestServer(t)

	owner := createUser(t, srv, "owner")
	voter := createUser(t, srv, "voter")
	snap := createPoll(t, srv, owner, time.Now().UTC().Add(time.Hour), "A")

	url := fmt.Sprintf("%s/api/poll/%d/user/%d", srv.URL, snap.PollID, voter)

	// nothing to withdraw yet
	resp := doJSON(t, http.MethodDelete, url, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/poll/vote", map[string]uint64{
		"userId": voter, "choiceId": snap.Choices[0].ChoiceID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, url, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestEndedPollIsGone(t *testing.T) {
	srv := newTestServer(t)

	owner := createUser(t, srv, "owner")
	snap := createPoll(t, srv, owner, time.Now().UTC().Add(time.Hour), "A")

	resp := doJSON(t, http.MethodPatch, fmt.Sprintf("%s/api/poll/%d/end", srv.URL, snap.PollID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ended := decodeBody[poll.Snapshot](t, resp)
	require.False(t, ended.IsActive)

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/poll/vote", map[string]uint64{
		"userId": owner, "choiceId": snap.Choices[0].ChoiceID,
	})
	require.Equal(t, http.StatusGone, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/poll/suggestion", map[string]any{
		"pollId": snap.PollID, "userId": owner, "label": "too late",
	})
	require.Equal(t, http.StatusGone, resp.StatusCode)
	resp.Body.Close()
}

func TestMissingEntitiesAreNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/poll/9999")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/user/9999")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/poll/vote", map[string]uint64{
		"userId": 1, "choiceId": 9999,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSuggestionEndpoints(t *testing.T) {
	srv := newTestServer(t)

	owner := createUser(t, srv, "owner")
	snap := createPoll(t, srv, owner, time.Now().UTC().Add(time.Hour), "A")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/suggestion", map[string]any{
		"pollId": snap.PollID, "userId": owner, "label": "add ramen",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(fmt.Sprintf("%s/api/suggestions/%d", srv.URL, owner))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]map[string]any](t, resp)
	require.Len(t, list, 1)
	require.Equal(t, "add ramen", list[0]["text"])
}
