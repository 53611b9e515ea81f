package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDispatcher struct {
	updates []domain.Update
	handled bool
}

func (m *mockDispatcher) Dispatch(ctx context.Context, u domain.Update) bool {
	m.updates = append(m.updates, u)
	return m.handled
}

type staticScenes []router.SceneInfo

func (s staticScenes) Scenes() []router.SceneInfo { return s }

func post(t *testing.T, h http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/updates", strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPostUpdate_Callback(t *testing.T) {
	d := &mockDispatcher{handled: true}
	h := NewHandler(d)

	w := post(t, h, `{"update_id":9,"callback_query":{"id":"cb1","chat_id":5,"data":"cnt:inc","message":{"chat_id":5,"message_id":12}}}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp UpdateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Handled)

	require.Len(t, d.updates, 1)
	q := d.updates[0].CallbackQuery
	require.NotNil(t, q)
	assert.Equal(t, "cnt:inc", *q.Data)
	assert.Equal(t, int32(12), *q.OriginID())
}

func TestPostUpdate_UnhandledIsStillOK(t *testing.T) {
	d := &mockDispatcher{}
	w := post(t, NewHandler(d), `{"update_id":1,"message":{"chat_id":5,"message_id":3,"text":"hi"}}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"handled":false}`, w.Body.String())
	assert.Equal(t, "hi", d.updates[0].Message.TextOrEmpty())
}

func TestPostUpdate_BadBody(t *testing.T) {
	d := &mockDispatcher{}
	w := post(t, NewHandler(d), `{not json`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, d.updates)
}

func TestPostUpdate_SecretToken(t *testing.T) {
	d := &mockDispatcher{}
	h := NewHandler(d, WithSecretToken("s3cret"))
	body := `{"update_id":1}`

	assert.Equal(t, http.StatusUnauthorized, post(t, h, body, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, post(t, h, body, map[string]string{SecretHeader: "nope"}).Code)
	assert.Equal(t, http.StatusOK, post(t, h, body, map[string]string{SecretHeader: "s3cret"}).Code)
	assert.Len(t, d.updates, 1)
}

func TestGetEndpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "stagehand_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	h := NewHandler(&mockDispatcher{},
		WithMetrics(reg),
		WithScenes(staticScenes{{ID: "counter", Prefix: "cnt", Version: 1}}),
	)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	health := get("/health")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.JSONEq(t, `{"status":"ok"}`, health.Body.String())

	scenes := get("/scenes")
	assert.Equal(t, http.StatusOK, scenes.Code)
	assert.JSONEq(t, `[{"id":"counter","prefix":"cnt","version":1}]`, scenes.Body.String())

	metrics := get("/metrics")
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "stagehand_test_total 1")
}

func TestOptionalEndpointsAbsent(t *testing.T) {
	h := NewHandler(&mockDispatcher{})
	for _, path := range []string{"/scenes", "/metrics"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestPostUpdate_CustomDecoder(t *testing.T) {
	d := &mockDispatcher{}
	h := NewHandler(d, WithDecoder(func(body []byte) (domain.Update, error) {
		return domain.Update{ID: int64(len(body))}, nil
	}))

	w := post(t, h, `abc`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, d.updates, 1)
	assert.Equal(t, int64(3), d.updates[0].ID)
}
