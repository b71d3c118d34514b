package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mgpai22/hiyori/internal/history"
	"github.com/mgpai22/hiyori/internal/logging"
	"github.com/mgpai22/hiyori/internal/playback"
	"github.com/mgpai22/hiyori/internal/subtitle"
)

// ErrEmptyPayload is returned for a load request without subtitle bytes.
var ErrEmptyPayload = errors.New("empty subtitle payload")

// History is the part of the history store the server uses.
type History interface {
	Record(ctx context.Context, e history.Entry) (int64, error)
	LastOffset(ctx context.Context, filename string) (float64, bool, error)
}

type Options struct {
	Encoding string // default charset label for loads that name none
	Parse    subtitle.Options
	History  History // optional
}

// Server exposes sessions over HTTP and pushes cue changes over websockets.
type Server struct {
	registry  *playback.Registry
	discovery *playback.StaticDiscovery
	opts      Options
	log       *logging.Logger

	engine   *gin.Engine
	upgrader websocket.Upgrader
}

func New(
	registry *playback.Registry,
	discovery *playback.StaticDiscovery,
	opts Options,
	log *logging.Logger,
) *Server {
	s := &Server{
		registry:  registry,
		discovery: discovery,
		opts:      opts,
		log:       logging.OrNop(log),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/targets", s.listTargets)
	r.POST("/targets", s.addTarget)
	r.DELETE("/targets/:id", s.removeTarget)

	r.POST("/sessions/:id/subtitles", s.loadSubtitles)
	r.DELETE("/sessions/:id/subtitles", s.unloadSubtitles)
	r.GET("/sessions/:id/cues", s.listCues)
	r.PUT("/sessions/:id/offset", s.setOffset)
	r.GET("/sessions/:id/ws", s.watch)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debugw("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func fail(c *gin.Context, status int, reason string) {
	c.JSON(status, playback.LoadResult{Reason: reason})
}

func (s *Server) session(c *gin.Context) (*playback.Session, bool) {
	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, playback.ResultFor(err).Reason)
		return nil, false
	}
	return sess, true
}

func (s *Server) listTargets(c *gin.Context) {
	sessions := s.registry.List()
	out := make([]playback.Info, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.Info())
	}
	c.JSON(http.StatusOK, gin.H{"targets": out})
}

type targetRequest struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (s *Server) addTarget(c *gin.Context) {
	var req targetRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, playback.ReasonBadPayload)
			return
		}
	}
	if strings.TrimSpace(req.ID) == "" {
		req.ID = uuid.New().String()
	}

	target := playback.Target{ID: req.ID, Label: req.Label}
	s.discovery.Add(target)
	s.registry.Ensure(target.ID)

	c.JSON(http.StatusCreated, target)
}

func (s *Server) removeTarget(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.registry.Get(id); err != nil {
		fail(c, http.StatusNotFound, playback.ResultFor(err).Reason)
		return
	}

	// a watching registry drops the session when discovery announces the
	// removal; the direct Remove covers an unwatched one
	s.discovery.Remove(id)
	if err := s.registry.Remove(id); err != nil && !errors.Is(err, playback.ErrSessionNotFound) {
		fail(c, http.StatusInternalServerError, playback.ResultFor(err).Reason)
		return
	}
	c.JSON(http.StatusOK, playback.LoadResult{OK: true})
}

type loadRequest struct {
	B64      string   `json:"b64"`
	Filename string   `json:"filename"`
	Encoding string   `json:"encoding"`
	OffsetMs *float64 `json:"offsetMs"`
}

type loadResponse struct {
	playback.LoadResult
	Format   subtitle.Format `json:"format,omitempty"`
	Encoding string          `json:"encoding,omitempty"`
}

func decodePayload(b64 string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, errors.Wrap(err, "decode base64 payload")
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}

func (s *Server) loadSubtitles(c *gin.Context) {
	var req loadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, playback.ReasonBadPayload)
		return
	}
	data, err := decodePayload(req.B64)
	if err != nil {
		s.log.Warnw("rejected subtitle payload", "session", c.Param("id"), "error", err)
		fail(c, http.StatusBadRequest, playback.ReasonBadPayload)
		return
	}

	encoding := req.Encoding
	if encoding == "" {
		encoding = s.opts.Encoding
	}
	track := s.opts.Parse.Load(data, req.Filename, encoding)
	offset := s.offsetFor(c.Request.Context(), req)

	sess := s.registry.Ensure(c.Param("id"))
	res := sess.Load(track.Cues, offset)
	if !res.OK {
		c.JSON(http.StatusConflict, res)
		return
	}

	s.record(c.Request.Context(), history.Entry{
		Session:  sess.ID,
		Filename: req.Filename,
		Format:   string(track.Format),
		Encoding: track.Encoding,
		Cues:     len(track.Cues),
		OffsetMs: offset,
	})

	c.JSON(http.StatusOK, loadResponse{
		LoadResult: res,
		Format:     track.Format,
		Encoding:   track.Encoding,
	})
}

// an explicit offset wins; otherwise reuse the one last used for the file
func (s *Server) offsetFor(ctx context.Context, req loadRequest) float64 {
	if req.OffsetMs != nil {
		return *req.OffsetMs
	}
	if s.opts.History == nil || req.Filename == "" {
		return 0
	}
	offset, ok, err := s.opts.History.LastOffset(ctx, req.Filename)
	if err != nil {
		s.log.Warnw("failed to look up last offset", "filename", req.Filename, "error", err)
		return 0
	}
	if !ok {
		return 0
	}
	return offset
}

func (s *Server) record(ctx context.Context, e history.Entry) {
	if s.opts.History == nil {
		return
	}
	if _, err := s.opts.History.Record(ctx, e); err != nil {
		s.log.Warnw("failed to record history", "filename", e.Filename, "error", err)
	}
}

func (s *Server) unloadSubtitles(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Unload())
}

type cueJSON struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func (s *Server) listCues(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	cues := sess.Cues()
	out := make([]cueJSON, len(cues))
	for i, cue := range cues {
		out[i] = cueJSON{Start: cue.Start, End: cue.End, Text: cue.Text}
	}
	c.JSON(http.StatusOK, gin.H{"cues": out})
}

type offsetRequest struct {
	OffsetMs *float64 `json:"offsetMs"`
}

func (s *Server) setOffset(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req offsetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OffsetMs == nil {
		fail(c, http.StatusBadRequest, playback.ReasonBadPayload)
		return
	}
	c.JSON(http.StatusOK, sess.SetOffset(*req.OffsetMs))
}
