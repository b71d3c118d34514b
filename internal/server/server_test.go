package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/hiyori/internal/history"
	"github.com/mgpai22/hiyori/internal/playback"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\n<i>World</i>\n"

type fakeHistory struct {
	mu      sync.Mutex
	entries []history.Entry
	offsets map[string]float64
}

func (f *fakeHistory) Record(_ context.Context, e history.Entry) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return int64(len(f.entries)), nil
}

func (f *fakeHistory) LastOffset(_ context.Context, filename string) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.offsets[filename]
	return v, ok, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(h History) (*Server, *playback.Registry) {
	reg := playback.NewRegistry(nil)
	srv := New(reg, playback.NewStaticDiscovery(), Options{History: h}, nil)
	return srv, reg
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) playback.LoadResult {
	t.Helper()
	var res playback.LoadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestAddTargetGeneratesID(t *testing.T) {
	srv, reg := newTestServer(nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/targets", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var target playback.Target
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &target))
	assert.NotEmpty(t, target.ID)

	_, err := reg.Get(target.ID)
	assert.NoError(t, err)

	rec = do(t, srv.Handler(), http.MethodGet, "/targets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), target.ID)
}

func TestRemoveWatchedTarget(t *testing.T) {
	reg := playback.NewRegistry(nil)
	defer reg.Close()
	discovery := playback.NewStaticDiscovery()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, reg.Watch(ctx, discovery))

	srv := New(reg, discovery, Options{}, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/targets", map[string]any{"id": "tv"})
	require.Equal(t, http.StatusCreated, rec.Code)
	_, err := reg.Get("tv")
	require.NoError(t, err)

	rec = do(t, srv.Handler(), http.MethodDelete, "/targets/tv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResult(t, rec).OK)

	_, err = reg.Get("tv")
	assert.ErrorIs(t, err, playback.ErrSessionNotFound)

	targets, err := discovery.ListTargets(ctx)
	require.NoError(t, err)
	assert.Empty(t, targets)

	rec = do(t, srv.Handler(), http.MethodDelete, "/targets/tv", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveUnwatchedTarget(t *testing.T) {
	srv, reg := newTestServer(nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/targets", map[string]any{"id": "tv"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv.Handler(), http.MethodDelete, "/targets/tv", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := reg.Get("tv")
	assert.ErrorIs(t, err, playback.ErrSessionNotFound)
}

func TestLoadSubtitles(t *testing.T) {
	h := &fakeHistory{}
	srv, reg := newTestServer(h)

	rec := do(t, srv.Handler(), http.MethodPost, "/sessions/tab-1/subtitles", map[string]any{
		"b64":      base64.StdEncoding.EncodeToString([]byte(sampleSRT)),
		"filename": "movie.srt",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "srt", string(resp.Format))

	sess, err := reg.Get("tab-1")
	require.NoError(t, err)
	cues := sess.Cues()
	require.Len(t, cues, 2)
	assert.Equal(t, "<i>World</i>", cues[1].Text)

	require.Len(t, h.entries, 1)
	assert.Equal(t, "movie.srt", h.entries[0].Filename)
	assert.Equal(t, 2, h.entries[0].Cues)
}

func TestLoadSubtitlesReusesLastOffset(t *testing.T) {
	h := &fakeHistory{offsets: map[string]float64{"movie.srt": 750}}
	srv, reg := newTestServer(h)

	rec := do(t, srv.Handler(), http.MethodPost, "/sessions/tab-1/subtitles", map[string]any{
		"b64":      base64.StdEncoding.EncodeToString([]byte(sampleSRT)),
		"filename": "movie.srt",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err := reg.Get("tab-1")
	require.NoError(t, err)
	assert.Equal(t, float64(750), sess.Info().OffsetMs)

	rec = do(t, srv.Handler(), http.MethodPost, "/sessions/tab-1/subtitles", map[string]any{
		"b64":      base64.StdEncoding.EncodeToString([]byte(sampleSRT)),
		"filename": "movie.srt",
		"offsetMs": 0,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), sess.Info().OffsetMs)
}

func TestLoadSubtitlesBadPayload(t *testing.T) {
	srv, _ := newTestServer(nil)

	tests := []struct {
		name string
		body any
	}{
		{"empty", map[string]any{"b64": ""}},
		{"not base64", map[string]any{"b64": "%%%"}},
		{"not json", "just a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodPost, "/sessions/tab-1/subtitles", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, playback.ReasonBadPayload, decodeResult(t, rec).Reason)
		})
	}
}

func TestUnknownSession(t *testing.T) {
	srv, _ := newTestServer(nil)

	rec := do(t, srv.Handler(), http.MethodDelete, "/sessions/nope/subtitles", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, playback.ReasonNoSession, decodeResult(t, rec).Reason)

	rec = do(t, srv.Handler(), http.MethodPut, "/sessions/nope/offset", map[string]any{"offsetMs": 10})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv.Handler(), http.MethodDelete, "/targets/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetOffsetAndUnload(t *testing.T) {
	srv, reg := newTestServer(nil)
	do(t, srv.Handler(), http.MethodPost, "/sessions/tab-1/subtitles", map[string]any{
		"b64": base64.StdEncoding.EncodeToString([]byte(sampleSRT)),
	})

	rec := do(t, srv.Handler(), http.MethodPut, "/sessions/tab-1/offset", map[string]any{"offsetMs": -250})
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err := reg.Get("tab-1")
	require.NoError(t, err)
	assert.Equal(t, float64(-250), sess.Info().OffsetMs)

	rec = do(t, srv.Handler(), http.MethodPut, "/sessions/tab-1/offset", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv.Handler(), http.MethodDelete, "/sessions/tab-1/subtitles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, sess.Info().Cues)
}

func TestWebsocketPushesCueChanges(t *testing.T) {
	srv, _ := newTestServer(nil)
	do(t, srv.Handler(), http.MethodPost, "/sessions/tab-1/subtitles", map[string]any{
		"b64": base64.StdEncoding.EncodeToString([]byte(sampleSRT)),
	})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/tab-1/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	read := func() cueMessage {
		t.Helper()
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg cueMessage
		require.NoError(t, ws.ReadJSON(&msg))
		return msg
	}

	require.NoError(t, ws.WriteJSON(clientMessage{Type: "clock", Time: 1.5}))
	assert.Equal(t, cueMessage{Type: "cue", Index: 0, Text: "Hello"}, read())

	// same cue, then a seek into the second one
	require.NoError(t, ws.WriteJSON(clientMessage{Type: "clock", Time: 1.7}))
	require.NoError(t, ws.WriteJSON(clientMessage{Type: "event", Event: "seeked", Time: 3.2}))
	assert.Equal(t, cueMessage{Type: "cue", Index: 1, Text: "<i>World</i>"}, read())

	require.NoError(t, ws.WriteJSON(clientMessage{Type: "clock", Time: 10}))
	assert.Equal(t, cueMessage{Type: "cue", Index: playback.NoCue}, read())
}

func TestWebsocketUnknownSession(t *testing.T) {
	srv, _ := newTestServer(nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
