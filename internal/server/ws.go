package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mgpai22/hiyori/internal/playback"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// client to server: a clock reading or a discrete playback event
type clientMessage struct {
	Type  string  `json:"type"`  // "clock" or "event"
	Event string  `json:"event"` // seeked, ratechange, play, pause
	Time  float64 `json:"time"`  // playback position in seconds
}

// server to client: the active cue changed
type cueMessage struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

func newCueMessage(c playback.Change) cueMessage {
	return cueMessage{Type: "cue", Index: c.Index, Text: c.Text}
}

// watch upgrades to a websocket. Clock readings from the client drive the
// session; cue changes are pushed back as they happen.
func (s *Server) watch(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "session", sess.ID, "error", err)
		return
	}
	defer ws.Close()

	sub := sess.Subscribe()
	defer sess.Unsubscribe(sub)

	log := s.log.With("session", sess.ID)
	log.Debugw("viewer attached")

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		s.readClock(ws, sess)
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if cur := sess.Current(); !cur.Cleared() {
		if err := writeJSON(ws, newCueMessage(cur)); err != nil {
			return
		}
	}

	for {
		select {
		case <-readDone:
			log.Debugw("viewer detached")
			return
		case <-sub.Done:
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
				time.Now().Add(writeWait))
			return
		case change := <-sub.Changed:
			if err := writeJSON(ws, newCueMessage(change)); err != nil {
				log.Debugw("websocket write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) readClock(ws *websocket.Conn, sess *playback.Session) {
	ws.SetReadLimit(4096)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case "clock", "event":
			sess.Tick(msg.Time)
		default:
			s.log.Debugw("ignored websocket message", "session", sess.ID, "type", msg.Type)
		}
	}
}

func writeJSON(ws *websocket.Conn, v any) error {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteJSON(v)
}
