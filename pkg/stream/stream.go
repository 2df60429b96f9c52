// Package stream routes inbound websocket frames to handlers by channel name.
package stream

import (
	"sync"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

// HandlerFunc handles one inbound frame.
type HandlerFunc func(message string)

// Router dispatches frames by their "channel" field. Frames with no channel,
// or with no handler registered for it, go to the fallback. Router.Dispatch
// can be passed directly as a session handler.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	fallback HandlerFunc
	logger   zerolog.Logger
}

// NewRouter creates a Router with no handlers.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   zerolog.Nop(),
	}
}

// SetLogger configures the logger for the router.
func (r *Router) SetLogger(logger zerolog.Logger) {
	r.logger = logger
}

// Handle registers fn for channel, replacing any previous handler.
func (r *Router) Handle(channel string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fn == nil {
		delete(r.handlers, channel)
		return
	}
	r.handlers[channel] = fn
}

// Remove unregisters the handler for channel.
func (r *Router) Remove(channel string) {
	r.Handle(channel, nil)
}

// HandleFunc sets the fallback handler.
func (r *Router) HandleFunc(fn HandlerFunc) {
	r.mu.Lock()
	r.fallback = fn
	r.mu.Unlock()
}

// Channels returns the channels with a registered handler.
func (r *Router) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for ch := range r.handlers {
		out = append(out, ch)
	}
	return out
}

// Dispatch delivers message to the handler of its channel, or to the fallback.
func (r *Router) Dispatch(message string) {
	channel, ok := ChannelOf(message)

	r.mu.RLock()
	fn := r.handlers[channel]
	if !ok || fn == nil {
		fn = r.fallback
	}
	r.mu.RUnlock()

	if fn == nil {
		r.logger.Debug().Str("channel", channel).Msg("dropping unrouted message")
		return
	}
	fn(message)
}

// ChannelOf extracts the top-level "channel" string of a JSON frame.
func ChannelOf(message string) (string, bool) {
	node, err := sonic.GetFromString(message, "channel")
	if err != nil {
		return "", false
	}
	channel, err := node.StrictString()
	if err != nil || channel == "" {
		return "", false
	}
	return channel, true
}
