package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"Musarty/core/directory"
	"Musarty/core/player"
	"Musarty/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

// Config tunes the player owned by each session.
type Config struct {
	PopularLimit int
	SearchLimit  int
	Volume       float64
	Icon         player.IconFunc // nil uses the station's own icon address
	SendBuffer   int
}

// Session is one page view: a websocket bound to its own player. The page's
// audio element is the player's output.
type Session struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	player *player.Controller
	icon   player.IconFunc

	mu     sync.Mutex
	closed bool

	dirty   chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	queries sync.WaitGroup
}

// New creates a session for conn. conn may be nil when the session is driven
// directly through HandleMessage.
func New(hub *Hub, conn *websocket.Conn, dir directory.Directory, cfg Config) *Session {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:     uuid.NewString(),
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, cfg.SendBuffer),
		icon:   cfg.Icon,
		dirty:  make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}

	opts := []player.Option{
		player.WithLimits(cfg.PopularLimit, cfg.SearchLimit),
		player.WithChangeListener(func(player.State) { s.markDirty() }),
	}
	if cfg.Volume > 0 {
		opts = append(opts, player.WithVolume(cfg.Volume))
	}
	s.player = player.New(dir, audioOutput{s: s}, opts...)
	return s
}

// Player exposes the session's controller.
func (s *Session) Player() *player.Controller {
	return s.player
}

// Start greets the page, begins pushing state and loads the popular list.
func (s *Session) Start() {
	s.sendMessage(MsgTypeHello, HelloData{SessionID: s.ID})
	go s.stateLoop()
	s.markDirty()
	s.runQuery(s.player.Mount)
}

// Wait blocks until background directory queries have returned.
func (s *Session) Wait() {
	s.queries.Wait()
}

// Close stops the session. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.Send)
	s.cancel()
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// enqueue hands data to the write pump. A full buffer means the page stopped
// reading; the session is closed rather than dropping audio commands.
func (s *Session) enqueue(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.Send <- data:
		return true
	default:
		logger.Warn("send buffer full, closing session", logger.String("session", s.ID))
		s.closeLocked()
		return false
	}
}

func (s *Session) sendMessage(t MessageType, data interface{}) {
	raw, err := encode(t, data)
	if err != nil {
		logger.Error("failed to encode message",
			logger.String("session", s.ID),
			logger.String("type", string(t)),
			logger.ErrorField(err))
		return
	}
	s.enqueue(raw)
}

func (s *Session) sendError(format string, args ...interface{}) {
	s.sendMessage(MsgTypeError, ErrorData{Message: fmt.Sprintf(format, args...)})
}

func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// stateLoop coalesces change notifications and always pushes the latest
// snapshot, so the page never sees states out of order.
func (s *Session) stateLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.dirty:
			s.sendMessage(MsgTypeState, s.player.View(s.icon))
		}
	}
}

// runQuery runs a directory query off the read loop so the page stays
// responsive while it is outstanding.
func (s *Session) runQuery(fn func(context.Context)) {
	s.queries.Add(1)
	go func() {
		defer s.queries.Done()
		fn(s.ctx)
	}()
}

// HandleMessage applies one page message to the player.
func (s *Session) HandleMessage(msg *WSMessage) {
	switch msg.Type {
	case MsgTypeSearchQuery:
		var d QueryData
		if !s.decode(msg, &d) {
			return
		}
		s.player.SetSearchQuery(d.Query)

	case MsgTypeSearchSubmit:
		// The page may send the field text along with the submit.
		if len(msg.Data) > 0 {
			var d QueryData
			if !s.decode(msg, &d) {
				return
			}
			s.player.SetSearchQuery(d.Query)
		}
		s.runQuery(s.player.SubmitSearch)

	case MsgTypeSelect:
		var d SelectData
		if !s.decode(msg, &d) {
			return
		}
		if !s.player.SelectStationByID(d.StationID) {
			s.sendError("unknown station %q", d.StationID)
		}

	case MsgTypeTogglePlay:
		s.player.TogglePlayPause()

	case MsgTypeToggleMute:
		s.player.ToggleMute()

	case MsgTypeVolume:
		var d VolumeData
		if !s.decode(msg, &d) {
			return
		}
		s.player.SetVolume(d.Level)

	case MsgTypeAudioError:
		var d AudioErrorData
		if !s.decode(msg, &d) {
			return
		}
		s.player.ReportStreamError(d.StationID, d.Message)

	case MsgTypePing:
		s.sendMessage(MsgTypePong, nil)

	default:
		s.sendError("unknown message type %q", msg.Type)
	}
}

func (s *Session) decode(msg *WSMessage, v interface{}) bool {
	if len(msg.Data) == 0 {
		s.sendError("%s: missing data", msg.Type)
		return false
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		logger.Warn("invalid message data",
			logger.String("session", s.ID),
			logger.String("type", string(msg.Type)),
			logger.ErrorField(err))
		s.sendError("%s: invalid data", msg.Type)
		return false
	}
	return true
}

// ReadPump reads page messages until the connection drops.
func (s *Session) ReadPump() {
	defer func() {
		s.Hub.Unregister(s)
		s.Conn.Close()
	}()

	s.Conn.SetReadLimit(maxMessageSize)
	s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	s.Conn.SetPongHandler(func(string) error {
		s.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error",
					logger.String("session", s.ID),
					logger.ErrorField(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn("invalid message format",
				logger.String("session", s.ID),
				logger.ErrorField(err))
			s.sendError("invalid message format")
			continue
		}
		s.HandleMessage(&msg)
	}
}

// WritePump writes queued messages and keeps the connection alive with pings.
// Messages queued together are sent in one frame separated by newlines.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.Send:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := s.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(s.Send)
			for i := 0; i < n; i++ {
				next, ok := <-s.Send
				if !ok {
					break
				}
				w.Write([]byte{'\n'})
				w.Write(next)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// audioOutput forwards playback commands to the page. It is called with the
// controller lock held, so commands reach the page in issue order.
type audioOutput struct {
	s *Session
}

func (o audioOutput) SetSource(url string) {
	o.s.sendMessage(MsgTypeAudio, AudioCommand{Op: AudioSetSource, URL: url})
}

func (o audioOutput) SetVolume(level float64) {
	o.s.sendMessage(MsgTypeAudio, AudioCommand{Op: AudioSetVolume, Volume: &level})
}

func (o audioOutput) Play() {
	o.s.sendMessage(MsgTypeAudio, AudioCommand{Op: AudioPlay})
}

func (o audioOutput) Pause() {
	o.s.sendMessage(MsgTypeAudio, AudioCommand{Op: AudioPause})
}
