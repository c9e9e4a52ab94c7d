package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/talent-search/internal/model"
	"github.com/hireloop/talent-search/internal/pipeline"
	"github.com/hireloop/talent-search/internal/store"
)

type fakeRunner struct {
	lastOpts pipeline.Options
	record   *model.SearchRecord
	err      error
}

func (f *fakeRunner) Run(_ context.Context, opts pipeline.Options, emit pipeline.EmitFunc) (*model.SearchRecord, error) {
	f.lastOpts = opts
	emit(model.ProgressEvent{Step: model.StepGeneratingQuery, Message: "Translating query to SQL"})
	emit(model.ProgressEvent{Step: model.StepSearching, Message: "Searching candidates"})
	if f.err != nil && f.record == nil {
		emit(model.ProgressEvent{Step: model.StepError, Message: "boom"})
		return nil, f.err
	}
	emit(model.ProgressEvent{Step: model.StepComplete, Message: "Search complete", Data: f.record})
	return f.record, f.err
}

type fakeReader struct {
	byID    map[string]*model.SearchRecord
	list    []model.SearchRecord
	pingErr error
}

func (f *fakeReader) GetSearch(_ context.Context, id string) (*model.SearchRecord, error) {
	rec, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (f *fakeReader) ListSearches(context.Context, store.SearchFilter) ([]model.SearchRecord, error) {
	return f.list, nil
}

func (f *fakeReader) Ping(context.Context) error {
	return f.pingErr
}

func newTestServer(runner *fakeRunner, reader *fakeReader) http.Handler {
	return New(runner, reader).Router([]string{"*"})
}

func record() *model.SearchRecord {
	return &model.SearchRecord{
		ID:           "11111111-2222-3333-4444-555555555555",
		Query:        "engineers",
		SQLQuery:     "SELECT 1",
		TotalResults: 0,
	}
}

func TestSearchStream(t *testing.T) {
	runner := &fakeRunner{record: record()}
	srv := httptest.NewServer(newTestServer(runner, &fakeReader{}))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/search-and-rank-stream", "application/json",
		strings.NewReader(`{"query": "engineers", "connected_to": "all", "ranking": true}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var steps []model.Step
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev model.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		steps = append(steps, ev.Step)
	}

	assert.Equal(t, []model.Step{model.StepGeneratingQuery, model.StepSearching, model.StepComplete}, steps)
	assert.Equal(t, "engineers", runner.lastOpts.Query)
	assert.True(t, runner.lastOpts.RankingEnabled)
	// The "all" sentinel means no filter; the persisted record carries
	// usernames only.
	assert.Empty(t, runner.lastOpts.ConnectedTo)
}

func TestSplitConnected(t *testing.T) {
	assert.Nil(t, splitConnected(""))
	assert.Nil(t, splitConnected("all"))
	assert.Nil(t, splitConnected("ALL"))
	assert.Equal(t, []string{"jane"}, splitConnected("jane"))
	assert.Equal(t, []string{"jane", "omar"}, splitConnected("jane, omar"))
	assert.Equal(t, []string{"jane"}, splitConnected("all, jane"))
}

func TestSearchStreamValidation(t *testing.T) {
	srv := httptest.NewServer(newTestServer(&fakeRunner{record: record()}, &fakeReader{}))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/search-and-rank-stream", "application/json",
		strings.NewReader(`{"connected_to": "all"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchNonStreaming(t *testing.T) {
	runner := &fakeRunner{record: record()}
	srv := httptest.NewServer(newTestServer(runner, &fakeReader{}))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/search-and-rank", "application/json",
		strings.NewReader(`{"query": "engineers", "ranking": false}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.SearchRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", got.ID)
	assert.False(t, runner.lastOpts.RankingEnabled)
}

func TestSearchNonStreamingFailure(t *testing.T) {
	runner := &fakeRunner{err: eris.New("translation failure")}
	srv := httptest.NewServer(newTestServer(runner, &fakeReader{}))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/search-and-rank", "application/json",
		strings.NewReader(`{"query": "engineers"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGetSearch(t *testing.T) {
	reader := &fakeReader{byID: map[string]*model.SearchRecord{
		"abc": {ID: "abc", Query: "engineers"},
	}}
	srv := httptest.NewServer(newTestServer(&fakeRunner{}, reader))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/search/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.SearchRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "engineers", got.Query)
}

func TestGetSearchNotFound(t *testing.T) {
	srv := httptest.NewServer(newTestServer(&fakeRunner{}, &fakeReader{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/search/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListSearches(t *testing.T) {
	reader := &fakeReader{list: []model.SearchRecord{{ID: "a"}, {ID: "b"}}}
	srv := httptest.NewServer(newTestServer(&fakeRunner{}, reader))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/searches")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []model.SearchRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got, 2)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(newTestServer(&fakeRunner{}, &fakeReader{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthDegraded(t *testing.T) {
	srv := httptest.NewServer(newTestServer(&fakeRunner{}, &fakeReader{pingErr: eris.New("down")}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
