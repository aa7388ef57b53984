package server

import (
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"
	"github.com/urlstate-go/urlstate/pkg/nav"
	"github.com/urlstate-go/urlstate/pkg/protocol"
	"github.com/urlstate-go/urlstate/pkg/reactive"
)

// ReadLoop continuously reads messages from the WebSocket connection.
// It decodes frames, processes control messages, and dispatches
// navigation and field edits. This method blocks until the connection
// is closed or an error occurs.
//
// Set handlers mutate stores on this goroutine, so the loop releases
// its batch-tracking state on the way out.
func (s *Session) ReadLoop() {
	defer reactive.ReleaseGoroutine()
	defer s.Close()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		s.touch()
		s.bytesRecv.Add(uint64(len(msg)))

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Warn("frame decode error", "error", err)
			s.sendError(protocol.CodeInvalidFrame, "invalid frame")
			continue
		}
		s.framesRecv.Add(1)

		switch frame.Type {
		case protocol.FrameNav:
			s.handleNavFrame(frame.Payload)

		case protocol.FrameSet:
			s.handleSetFrame(frame.Payload)

		case protocol.FrameControl:
			s.handleControlFrame(frame.Payload)

		case protocol.FrameHello:
			// The handshake already happened; a second hello is noise.
			s.logger.Warn("unexpected handshake frame, ignoring")

		default:
			s.logger.Warn("unknown frame type", "type", frame.Type.String())
		}
	}
}

// handleNavFrame processes navigation messages: the one-shot navready,
// and popstate traversals that refresh the mirror only.
func (s *Session) handleNavFrame(payload []byte) {
	m, err := protocol.DecodeNav(payload)
	if err != nil {
		s.logger.Warn("nav decode error", "error", err)
		s.sendError(protocol.CodeInvalidMessage, "invalid nav message")
		return
	}

	switch m.Type {
	case protocol.NavReady:
		s.markReady()

	case protocol.NavPop:
		s.refreshMirror(m.Path, m.Query)

	default:
		s.logger.Warn("unknown nav type", "type", m.Type.String())
	}
}

// handleSetFrame decodes a field edit and dispatches it to the
// application's handler. Handler errors are reported to the client as
// non-fatal error frames; handler panics are contained to the message.
func (s *Session) handleSetFrame(payload []byte) {
	m, err := protocol.DecodeSet(payload)
	if err != nil {
		s.logger.Warn("set decode error", "error", err)
		s.sendError(protocol.CodeInvalidMessage, "invalid set message")
		return
	}

	if s.onSet == nil {
		s.logger.Warn("field edit with no set handler registered",
			"store", m.Store, "field", m.Field)
		s.sendError(protocol.CodeUnknownStore, ErrNoSetHandler.Error())
		return
	}

	if err := s.dispatchSet(m); err != nil {
		s.logger.Warn("field edit rejected",
			"store", m.Store, "field", m.Field, "raw", m.Value, "error", err)
		code := protocol.CodeInvalidValue
		if ec, ok := err.(interface{ ErrorCode() protocol.ErrorCode }); ok {
			code = ec.ErrorCode()
		}
		s.sendError(code, err.Error())
	}
}

// dispatchSet runs the application's set handler with panic recovery.
// A panicking handler is contained to the one message: it is logged with
// its stack and the client gets a server-error frame instead of a
// dropped connection.
func (s *Session) dispatchSet(m *protocol.SetMsg) error {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("set handler panic",
				"panic", r,
				"store", m.Store,
				"field", m.Field,
				"stack", string(debug.Stack()))
			s.sendError(protocol.CodeServerError, "internal error")
		}
	}()
	return s.onSet(m)
}

// handleControlFrame handles control messages (ping, pong, resync,
// close).
func (s *Session) handleControlFrame(payload []byte) {
	ct, data, err := protocol.DecodeControl(payload)
	if err != nil {
		s.logger.Warn("control decode error", "error", err)
		return
	}

	switch ct {
	case protocol.ControlPing:
		if pp, ok := data.(*protocol.PingPong); ok {
			ct, pong := protocol.NewPong(pp.Timestamp)
			s.enqueue(protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(ct, pong)))
		}

	case protocol.ControlPong:
		s.logger.Debug("received pong")

	case protocol.ControlResyncRequest:
		if rr, ok := data.(*protocol.ResyncRequest); ok {
			s.handleResyncRequest(rr.LastSeq)
		}

	case protocol.ControlClose:
		if cm, ok := data.(*protocol.CloseMessage); ok {
			s.logger.Info("client closing",
				"reason", cm.Reason.String(), "message", cm.Message)
		}
		s.Close()

	default:
		s.logger.Warn("unknown control type", "type", ct.String())
	}
}

// handleResyncRequest answers a client that fell behind. URL patches are
// idempotent snapshots, so resync is simply the current query under the
// current sequence number; there is no replay log.
func (s *Session) handleResyncRequest(lastSeq uint64) {
	s.mirrorMu.Lock()
	encoded := nav.EncodeQuery(s.mirror)
	s.mirrorMu.Unlock()

	seq := s.seq.Load()
	s.logger.Debug("resync requested", "client_seq", lastSeq, "seq", seq)

	ct, rq := protocol.NewResyncQuery(seq, encoded)
	s.enqueue(protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(ct, rq)))
}

// WriteLoop drains the outbound frame queue and sends heartbeat pings.
// It is the only writer of data frames; it runs until the session is
// closed or a write fails.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case f := <-s.sendCh:
			if err := s.writeFrame(f); err != nil {
				s.logger.Error("write error", "error", err)
				s.Close()
				return
			}

		case <-ticker.C:
			ct, ping := protocol.NewPing(uint64(time.Now().UnixMilli()))
			f := protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(ct, ping))
			if err := s.writeFrame(f); err != nil {
				s.logger.Error("ping error", "error", err)
				s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

// writeFrame writes a single frame to the connection. Only the write
// loop calls this once the session is started.
func (s *Session) writeFrame(f *protocol.Frame) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.conn == nil {
		return ErrNoConnection
	}

	data := f.Encode()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return err
	}

	s.framesSent.Add(1)
	s.bytesSent.Add(uint64(len(data)))
	return nil
}

// Start starts the session loops. Call after the handshake reply has
// been sent and the application has finished wiring the session.
func (s *Session) Start() {
	go s.ReadLoop()
	go s.WriteLoop()
}
