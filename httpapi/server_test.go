package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zapdos-labs/videopipeline/kvs"
	"github.com/zapdos-labs/videopipeline/lifecycle"
	"github.com/zapdos-labs/videopipeline/videoframe"
)

func newTestServer(t *testing.T) (*Server, *lifecycle.Controller) {
	t.Helper()
	store, err := kvs.New(16)
	require.NoError(t, err)
	controller := lifecycle.New()
	controller.SetShutdownToken("secret")
	controller.SetStatus(lifecycle.StatusRunning)
	return NewServer(controller, store, nil), controller
}

func TestHandleStatusReportsControllerStatus(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	require.Equal(t, "running", status)
}

func TestHandleShutdownSucceedsWithCorrectToken(t *testing.T) {
	server, controller := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/shutdown/secret/graceful", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, lifecycle.StatusShutdown, controller.GetStatus())
}

func TestHandleShutdownRejectsWrongToken(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/shutdown/wrong-token/graceful", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleShutdownRejectsDoubleShutdown(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp1, err := http.Post(ts.URL+"/shutdown/secret/graceful", "text/plain", nil)
	require.NoError(t, err)
	resp1.Body.Close()
	require.Equal(t, http.StatusOK, resp1.StatusCode)

	resp2, err := http.Post(ts.URL+"/shutdown/secret/graceful", "text/plain", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp2.StatusCode)
}

func TestHandleShutdownRejectsMalformedPath(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/shutdown/onlytoken", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestKVSSetGetRoundTrip(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	body, err := JSONCodec{}.Encode([]videoframe.Attribute{
		{Namespace: "camera-1", Name: "fps", Value: float64(30)},
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/kvs/set", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, err := http.Get(ts.URL + "/kvs/get/camera-1/fps")
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	attrs, err := JSONCodec{}.Decode(mustReadAll(t, getResp))
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	require.Equal(t, "camera-1", attrs[0].Namespace)
	require.Equal(t, "fps", attrs[0].Name)
}

func TestKVSGetMissingReturnsEmptySet(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/kvs/get/nope/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	attrs, err := JSONCodec{}.Decode(mustReadAll(t, resp))
	require.NoError(t, err)
	require.Empty(t, attrs)
}

func TestKVSSearchInvalidPatternReturnsBadRequest(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/kvs/search/" + "[" + "/name")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestKVSDeleteSingleRemovesOneEntry(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	body, err := JSONCodec{}.Encode([]videoframe.Attribute{
		{Namespace: "ns", Name: "a", Value: 1},
	})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/kvs/set", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	resp.Body.Close()

	delResp, err := http.Post(ts.URL+"/kvs/delete-single/ns/a", "text/plain", nil)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	attrs, err := JSONCodec{}.Decode(mustReadAll(t, delResp))
	require.NoError(t, err)
	require.Len(t, attrs, 1)

	getResp, err := http.Get(ts.URL + "/kvs/get/ns/a")
	require.NoError(t, err)
	defer getResp.Body.Close()
	getAttrs, err := JSONCodec{}.Decode(mustReadAll(t, getResp))
	require.NoError(t, err)
	require.Empty(t, getAttrs)
}

func TestHandleMetricsServesOpenMetricsContentType(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "openmetrics-text")
}

func TestCORSMiddlewareHandlesPreflight(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/status", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "http://example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func mustReadAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}
