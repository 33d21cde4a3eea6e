package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livechat/internal/app/hub"
	"livechat/internal/app/session"
	"livechat/internal/app/store"
	"livechat/internal/configs"
	"livechat/internal/handler"
	"livechat/internal/pkg/errs"
	"livechat/internal/pkg/metrics"
)

type fakeSender struct {
	mu     sync.Mutex
	frames []string
}

func (f *fakeSender) SendFrame(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, text)
	return nil
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.frames...)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type fixture struct {
	server *httptest.Server
	hub    *hub.Hub
	sender *fakeSender
}

func newFixture(t *testing.T, burst int) *fixture {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	h := hub.New(hub.WithMetrics(m))
	st := store.New(store.WithMetrics(m))
	sender := &fakeSender{}
	sess := session.New(session.NewIdentity(), h, st, sender, session.WithMetrics(m))

	cfg := &configs.AppConfig{Environment: "development"}
	cfg.API.RequestRate = 0.001
	cfg.API.RequestBurst = burst

	router, stop := handler.Router(&handler.AppDeps{
		Session:  sess,
		Store:    st,
		Config:   cfg,
		Gatherer: reg,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		stop()
	})

	return &fixture{server: srv, hub: h, sender: sender}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()

	request, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	defer res.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	return res.StatusCode, env
}

func TestHealth(t *testing.T) {
	f := newFixture(t, 10)

	status, env := f.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, env.Code)
	assert.JSONEq(t, `{"status":"ok","service":"livechat"}`, string(env.Data))
}

func TestSubmitBeforeLogin(t *testing.T) {
	f := newFixture(t, 10)

	status, env := f.do(t, http.MethodPost, "/api/messages", `{"message":"hi"}`)

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, errs.ErrNoActiveChat, env.Code)
}

func TestLoginAndChat(t *testing.T) {
	f := newFixture(t, 10)

	status, env := f.do(t, http.MethodPost, "/api/session", `{"username":"alice"}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"username":"alice","active":true}`, string(env.Data))

	status, _ = f.do(t, http.MethodPost, "/api/messages", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, []string{
		`{"messageType":"register","data":"alice"}`,
		`{"messageType":"message","data":"hello"}`,
	}, f.sender.sent())

	f.hub.Publish(`{"messageType":"users","dataArray":["alice","bob"]}`)
	f.hub.Publish(`{"messageType":"message","data":"{\"from\":\"bob\",\"message\":\"hey\"}"}`)

	_, env = f.do(t, http.MethodGet, "/api/roster", "")
	assert.JSONEq(t, `[
		{"name":"alice","avatar":"https://avatars.dicebear.com/api/adventurer-neutral/alice.svg"},
		{"name":"bob","avatar":"https://avatars.dicebear.com/api/adventurer-neutral/bob.svg"}
	]`, string(env.Data))

	_, env = f.do(t, http.MethodGet, "/api/transcript", "")
	var snapshot store.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	require.Len(t, snapshot.Transcript, 1)
	assert.Equal(t, "bob", snapshot.Transcript[0].From)
	assert.Equal(t, "hey", snapshot.Transcript[0].Message)
	assert.True(t, snapshot.Transcript[0].SenderOnline)

	_, env = f.do(t, http.MethodGet, "/api/session", "")
	assert.JSONEq(t, `{"username":"alice","active":true}`, string(env.Data))
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t, 10)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   int
	}{
		{"empty username", `{"username":""}`, http.StatusBadRequest, errs.ErrInvalidUsername},
		{"bad json", `{"username":`, http.StatusBadRequest, errs.ErrInvalidJSONFormat},
		{"unknown field", `{"user":"alice"}`, http.StatusBadRequest, errs.ErrInvalidJSONFormat},
		{"trailing content", `{"username":"alice"} {}`, http.StatusBadRequest, errs.ErrExtraContentInBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := f.do(t, http.MethodPost, "/api/session", tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, env.Code)
		})
	}
}

func TestWriteRoutesAreRateLimited(t *testing.T) {
	f := newFixture(t, 1)

	status, _ := f.do(t, http.MethodPost, "/api/session", `{"username":"alice"}`)
	require.Equal(t, http.StatusOK, status)

	status, env := f.do(t, http.MethodPost, "/api/session", `{"username":"alice"}`)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, errs.ErrRateLimitExceeded, env.Code)
}

func TestRouterStopIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	st := store.New()
	sess := session.New(session.NewIdentity(), hub.New(), st, &fakeSender{})

	cfg := &configs.AppConfig{Environment: "production"}
	cfg.API.RequestRate = 1
	cfg.API.RequestBurst = 1

	_, stop := handler.Router(&handler.AppDeps{Session: sess, Store: st, Config: cfg, Gatherer: reg})

	assert.NotPanics(t, stop)
	assert.NotPanics(t, stop)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, 10)

	res, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
}
