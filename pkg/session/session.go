package session

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"time"

	"github.com/lxzan/gws"
	"github.com/rs/zerolog"

	"zbws/pkg/core"
	"zbws/pkg/metrics"
)

// Handler receives every inbound text frame, once per frame, in the order the
// frames arrived. It runs on the session's read goroutine, so a slow handler
// delays the frames behind it. It must not call Close.
type Handler func(message string)

// Config holds the transport options of a session.
type Config struct {
	// URL is the ws:// or wss:// endpoint.
	URL string
	// InsecureSkipVerify accepts any server certificate. Off by default.
	InsecureSkipVerify bool
	// HandshakeTimeout bounds dial plus upgrade. Zero means 10s.
	HandshakeTimeout time.Duration
	// Header is sent with the upgrade request.
	Header http.Header
}

// ConfigFrom extracts the transport options from a client configuration.
func ConfigFrom(c *core.Config) Config {
	return Config{
		URL:                c.URL,
		InsecureSkipVerify: c.InsecureSkipVerify,
		HandshakeTimeout:   c.HandshakeTimeout,
	}
}

// Session is a single websocket connection. Send, IsAlive and Close are safe
// for concurrent use; frame writes are serialized by the underlying gws.Conn.
type Session struct {
	config  Config
	state   *State
	events  *eventHandler
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu        sync.RWMutex
	conn      *gws.Conn
	handler   Handler
	connected chan struct{}
	wg        sync.WaitGroup
}

type eventHandler struct {
	session *Session
}

// New creates a disconnected session. handler may be nil.
func New(config Config, handler Handler) *Session {
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = 10 * time.Second
	}

	s := &Session{
		config:  config,
		state:   &State{},
		logger:  zerolog.Nop(),
		handler: handler,
	}
	s.state.Store(StateDisconnected)
	s.events = &eventHandler{session: s}
	return s
}

// Dial creates a session and connects it. On failure nothing is left open.
func Dial(ctx context.Context, config Config, handler Handler) (*Session, error) {
	s := New(config, handler)
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// SetLogger configures the logger for the session.
func (s *Session) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

// SetMetrics attaches collectors updated on connect, send and receive.
func (s *Session) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetHandler replaces the inbound frame handler.
func (s *Session) SetHandler(handler Handler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

// URL returns the configured endpoint.
func (s *Session) URL() string {
	return s.config.URL
}

func (h *eventHandler) OnOpen(socket *gws.Conn) {
	s := h.session
	if !s.state.CompareAndSwap(StateConnecting, StateConnected) {
		return
	}

	s.mu.Lock()
	if s.connected != nil {
		close(s.connected)
		s.connected = nil
	}
	s.mu.Unlock()

	s.metrics.SetConnected(true)
	s.logger.Info().
		Str("url", s.config.URL).
		Msg("websocket connected")
}

func (h *eventHandler) OnClose(socket *gws.Conn, err error) {
	s := h.session
	s.state.CompareAndSwap(StateConnected, StateDisconnected)
	s.metrics.SetConnected(false)

	s.mu.Lock()
	if s.conn == socket {
		s.conn = nil
	}
	s.mu.Unlock()

	s.logger.Warn().
		Err(err).
		Str("url", s.config.URL).
		Msg("websocket disconnected")
}

func (h *eventHandler) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.WritePong(payload)
}

func (h *eventHandler) OnPong(socket *gws.Conn, payload []byte) {}

func (h *eventHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	s := h.session
	if message.Opcode != gws.OpcodeText {
		s.logger.Debug().Uint8("opcode", uint8(message.Opcode)).Msg("ignoring non-text frame")
		return
	}

	text := string(message.Bytes())
	s.metrics.FrameReceived()
	s.logger.Debug().Str("data", text).Msg("received websocket message")

	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()

	if handler != nil {
		handler(text)
	}
}

// Connect dials the endpoint and performs the websocket handshake. It blocks
// until the handshake completes, fails, ctx is done or HandshakeTimeout
// elapses. Calling Connect on a connected session is a no-op; after a remote
// disconnect it dials again. A closed session cannot be reconnected.
func (s *Session) Connect(ctx context.Context) error {
	endpoint, err := ParseEndpoint(s.config.URL)
	if err != nil {
		return err
	}

	if !s.state.CompareAndSwap(StateDisconnected, StateConnecting) {
		switch current := s.state.Load(); current {
		case StateConnected:
			return nil
		case StateClosed:
			return core.NewError(core.ErrorTypeConnection, "connect", core.ErrSessionClosed)
		default:
			return core.NewErrorf(core.ErrorTypeConnection, "connect", "invalid state for connect: %s", current)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.HandshakeTimeout)
	defer cancel()

	option := &gws.ClientOption{
		Addr:             endpoint.String(),
		RequestHeader:    s.config.Header,
		HandshakeTimeout: s.config.HandshakeTimeout,
	}
	if IsSecure(endpoint) {
		option.TlsConfig = &tls.Config{
			ServerName:         endpoint.Hostname(),
			InsecureSkipVerify: s.config.InsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		}
		if s.config.InsecureSkipVerify {
			s.logger.Warn().Str("url", s.config.URL).Msg("tls certificate verification disabled")
		}
	}

	connected := make(chan struct{})
	s.mu.Lock()
	s.connected = connected
	s.mu.Unlock()

	socket, err := s.dial(ctx, option, connected)
	if err != nil {
		s.abortConnect(nil)
		s.metrics.Error(core.ErrorTypeConnection.String())
		s.logger.Error().Err(err).Str("url", s.config.URL).Msg("websocket connect failed")
		return core.NewError(core.ErrorTypeConnection, "connect", err)
	}

	s.mu.Lock()
	if s.state.Load() == StateClosed {
		s.mu.Unlock()
		_ = socket.NetConn().Close()
		return core.NewError(core.ErrorTypeConnection, "connect", core.ErrSessionClosed)
	}
	s.conn = socket
	s.mu.Unlock()

	s.wg.Go(func() {
		socket.ReadLoop()
	})

	select {
	case <-connected:
		if s.state.Load() == StateClosed {
			return core.NewError(core.ErrorTypeConnection, "connect", core.ErrSessionClosed)
		}
		return nil
	case <-ctx.Done():
		s.abortConnect(socket)
		return core.NewError(core.ErrorTypeConnection, "connect", ctx.Err())
	}
}

type dialResult struct {
	conn *gws.Conn
	err  error
}

// dial runs the blocking gws handshake so that ctx or Close can abandon it.
// A socket that completes after that is closed.
func (s *Session) dial(ctx context.Context, option *gws.ClientOption, connected <-chan struct{}) (*gws.Conn, error) {
	resultCh := make(chan dialResult, 1)
	go func() {
		conn, _, err := gws.NewClient(s.events, option)
		resultCh <- dialResult{conn: conn, err: err}
	}()

	abandon := func() {
		go func() {
			if res := <-resultCh; res.conn != nil {
				_ = res.conn.NetConn().Close()
			}
		}()
	}

	select {
	case res := <-resultCh:
		return res.conn, res.err
	case <-connected:
		abandon()
		return nil, core.ErrSessionClosed
	case <-ctx.Done():
		abandon()
		return nil, ctx.Err()
	}
}

// abortConnect releases a half-open connection and returns the session to
// the disconnected state unless it was closed meanwhile.
func (s *Session) abortConnect(socket *gws.Conn) {
	s.mu.Lock()
	if socket != nil {
		_ = socket.NetConn().Close()
		if s.conn == socket {
			s.conn = nil
		}
	}
	s.connected = nil
	s.mu.Unlock()

	s.state.CompareAndSwap(StateConnecting, StateDisconnected)
	s.state.CompareAndSwap(StateConnected, StateDisconnected)
}

// Send writes text as a single text frame. It fails with a ChannelNotActive
// error unless the session is alive. Delivery is not acknowledged.
func (s *Session) Send(text string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.conn == nil || s.state.Load() != StateConnected {
		s.metrics.Error(core.ErrorTypeChannelNotActive.String())
		return core.ChannelNotActive("send")
	}

	if err := s.conn.WriteMessage(gws.OpcodeText, []byte(text)); err != nil {
		s.metrics.Error(core.ErrorTypeConnection.String())
		return core.NewError(core.ErrorTypeConnection, "send", err)
	}

	s.metrics.FrameSent()
	s.logger.Debug().Int("bytes", len(text)).Msg("sent websocket message")
	return nil
}

// IsAlive reports whether the handshake completed and the socket is open.
func (s *Session) IsAlive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn != nil && s.state.Load() == StateConnected
}

// State returns the current connection state.
func (s *Session) State() ConnState {
	return s.state.Load()
}

// Close sends a normal closure frame, releases the connection and waits for
// the read goroutine to exit. A Connect in progress returns ErrSessionClosed.
// Frames already handed to the socket are not retracted. Close is idempotent
// and a no-op on a nil session.
func (s *Session) Close() error {
	if s == nil || s.state.Swap(StateClosed) == StateClosed {
		return nil
	}

	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	if s.connected != nil {
		close(s.connected)
		s.connected = nil
	}
	s.mu.Unlock()

	if conn != nil {
		conn.WriteClose(1000, nil)
		_ = conn.NetConn().Close()
	}

	s.wg.Wait()
	s.metrics.SetConnected(false)
	s.logger.Info().Str("url", s.config.URL).Msg("websocket closed")
	return nil
}
