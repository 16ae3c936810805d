package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/vfxbridge"
	api "github.com/aretw0/vfxbridge/pkg/adapters/http"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testPath = "Assets/VFX/Http.vfx"

func newHandler(t *testing.T, opts ...api.Option) (http.Handler, *vfxbridge.Bridge) {
	t.Helper()
	b := vfxbridge.New(vfxbridge.WithFileRoot(t.TempDir()))
	require.NoError(t, b.CreateGraph(context.Background(), testPath))
	h, err := api.NewHandler(b, opts...)
	require.NoError(t, err)
	return h, b
}

func post(t *testing.T, h http.Handler, action, body string) (*httptest.ResponseRecorder, domain.Result) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/actions/"+action, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var res domain.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return w, res
}

func TestSpec_IsValid(t *testing.T) {
	doc, err := api.Spec()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.NotNil(t, doc.Paths.Find("/v1/actions/{action}"))
}

func TestExecuteAction(t *testing.T) {
	h, _ := newHandler(t)

	w, res := post(t, h, "add_node", `{"path":"`+testPath+`","type":"VFXBasicSpawner"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.True(t, res.Success, res.Message)
	assert.NotZero(t, res.ID)
	assert.Equal(t, domain.Version, res.Version)

	w, res = post(t, h, "info", `{"path":"`+testPath+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, res.Data.(map[string]any)["nodeCount"])
}

func TestExecuteAction_Errors(t *testing.T) {
	h, _ := newHandler(t)

	tests := []struct {
		name   string
		action string
		body   string
		status int
		code   domain.ErrorCode
	}{
		{"UnknownAction", "frobnicate", `{}`, http.StatusBadRequest, domain.CodeUnknownAction},
		{"NotAnObject", "add_node", `[1, 2]`, http.StatusBadRequest, domain.CodeValidation},
		{"InvalidJSON", "add_node", `{"path":`, http.StatusBadRequest, domain.CodeValidation},
		{"MissingAsset", "add_node", `{"path":"Assets/VFX/Nope.vfx","type":"Add"}`, http.StatusNotFound, domain.CodeAssetNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, res := post(t, h, tt.action, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, res.Success)
			assert.Equal(t, tt.code, res.ErrorCode)
		})
	}
}

func TestExecuteAction_EmptyBody(t *testing.T) {
	h, _ := newHandler(t)
	w, res := post(t, h, "add_node", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.CodeValidation, res.ErrorCode, res.Message)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, api.StatusFor(domain.OK("", nil)))
	assert.Equal(t, http.StatusUnprocessableEntity, api.StatusFor(domain.Fail(domain.CodeResolution, "", nil)))
	assert.Equal(t, http.StatusInternalServerError, api.StatusFor(domain.Fail(domain.CodeInternalException, "", nil)))
}

func TestListActions(t *testing.T) {
	h, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/actions", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Actions []string          `json:"actions"`
		Aliases map[string]string `json:"aliases"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Actions, "add_node")
	assert.Contains(t, body.Actions, "batch_execute")
	assert.Equal(t, "remove_node", body.Aliases["delete_node"])
}

func TestStaticRoutes(t *testing.T) {
	h, _ := newHandler(t, api.WithMetrics(observability.NewMetrics().Handler()))

	for path, want := range map[string]string{
		"/openapi.yaml": "openapi: 3.0.3",
		"/swagger":      "swagger-ui",
		"/health":       `"status":"ok"`,
		"/info":         `"api_version":"1.0.0"`,
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), want, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetrics_NotMountedByDefault(t *testing.T) {
	h, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS_Preflight(t *testing.T) {
	h, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/actions/add_node", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStreamManager(t *testing.T) {
	sm := api.NewStreamManager()
	ch, cancel := sm.Subscribe("a.vfx")
	assert.Equal(t, 1, sm.Subscribers("a.vfx"))

	sm.Broadcast("b.vfx", "ignored")
	sm.Broadcast("a.vfx", "hello")
	assert.Equal(t, "hello", <-ch)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, sm.Subscribers("a.vfx"))
}

func TestSubscribeEvents(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h, _ := newHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	transport := &http.Transport{}
	defer transport.CloseIdleConnections()
	client := &http.Client{Transport: transport}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events?path="+url.QueryEscape(`Assets\VFX\Http.vfx`), nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readData := func() string {
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok {
				return data
			}
		}
		return ""
	}
	require.Equal(t, "connected", readData())

	w, _ := post(t, h, "add_node", `{"path":"`+testPath+`","type":"Add"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var ev api.Event
	require.NoError(t, json.Unmarshal([]byte(readData()), &ev))
	assert.Equal(t, "add_node", ev.Action)
	assert.Equal(t, testPath, ev.Path)
	assert.True(t, ev.Result.Success)

	cancel()
}

func TestSubscribeEvents_RejectsBadPath(t *testing.T) {
	h, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/events?path=../x.vfx", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
