// Package session owns the messaging connection lifecycle and routes inbound
// messages to the stock lookup handler.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "stock-bot/internal/common/errors"
	"stock-bot/internal/common/logger"
	"stock-bot/internal/common/metrics"
	"stock-bot/internal/common/observability"
	"stock-bot/internal/dedupe"
	stocklookup "stock-bot/internal/handlers/stock-lookup"
	"stock-bot/internal/models"
)

const (
	DefaultReconnectDelay = 15 * time.Second
	DefaultSendTimeout    = 10 * time.Second

	eventBuffer = 64
)

// Transport is the messaging connection. Connect starts a connection attempt
// and returns once it is under way; progress arrives as events.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect()
	SendMessage(ctx context.Context, recipient, text string) error
}

// MessageHandler turns an inbound message into a reply, or nil and a reason
// when the message is not for the bot. Handle may run concurrently.
type MessageHandler interface {
	Handle(ctx context.Context, msg models.InboundMessage) (*models.OutboundReply, string)
}

// ChallengeRenderer shows a pairing challenge to the operator.
type ChallengeRenderer interface {
	Render(challenge string)
}

// ChallengeRendererFunc adapts a plain function to ChallengeRenderer.
type ChallengeRendererFunc func(challenge string)

func (f ChallengeRendererFunc) Render(challenge string) { f(challenge) }

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through a wrapper.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Config struct {
	ReconnectDelay time.Duration
	SendTimeout    time.Duration
}

type Option func(*Controller)

func WithDedupe(store dedupe.Store) Option {
	return func(c *Controller) { c.dedupe = store }
}

func WithRenderer(r ChallengeRenderer) Option {
	return func(c *Controller) { c.renderer = r }
}

func WithObservability(o *observability.Observability) Option {
	return func(c *Controller) { c.obs = o }
}

func WithAfterFunc(f AfterFunc) Option {
	return func(c *Controller) { c.afterFunc = f }
}

// Controller is the session state machine. All state changes happen on a
// single event loop goroutine; transports and timers only post events.
type Controller struct {
	config     Config
	transport  Transport
	handler    MessageHandler
	renderer   ChallengeRenderer
	dedupe     dedupe.Store
	obs        *observability.Observability
	afterFunc  AfterFunc
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler

	events   chan Event
	ctx      context.Context
	cancel   context.CancelFunc
	loopOnce sync.Once
	loopDone chan struct{}
	stopOnce sync.Once

	mu    sync.RWMutex
	state State

	// owned by the loop goroutine
	timer      Timer
	attempt    uint64
	generation uint64

	connects sync.WaitGroup
	sends    sync.WaitGroup
}

func NewController(config Config, transport Transport, handler MessageHandler, log logger.Logger, opts ...Option) *Controller {
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = DefaultReconnectDelay
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = DefaultSendTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	log = log.WithFields(map[string]interface{}{"component": "session"})
	c := &Controller{
		config:     config,
		transport:  transport,
		handler:    handler,
		renderer:   ChallengeRendererFunc(func(string) {}),
		dedupe:     dedupe.Noop{},
		afterFunc:  realAfterFunc,
		logger:     log,
		errHandler: apperrors.NewErrorHandler(log),
		events:     make(chan Event, eventBuffer),
		ctx:        ctx,
		cancel:     cancel,
		loopDone:   make(chan struct{}),
		state:      StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	publishState(c.state)
	return c
}

// State returns the current session state. Safe for concurrent use.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Start begins a connection sequence. It is a no-op while a sequence is
// active, that is unless the session is DISCONNECTED or LOGGED_OUT.
func (c *Controller) Start() {
	c.loopOnce.Do(func() { go c.loop() })
	c.Dispatch(startRequested{})
}

// Dispatch queues evt for the event loop. It never blocks after Stop.
func (c *Controller) Dispatch(evt Event) {
	select {
	case c.events <- evt:
	case <-c.ctx.Done():
	}
}

// Stop ends the event loop, cancels a pending reconnect, disconnects the
// transport and waits for in-flight replies.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.cancel()
		// a never-started loop must not start later
		c.loopOnce.Do(func() { close(c.loopDone) })
		<-c.loopDone

		if c.timer != nil {
			c.timer.Stop()
		}
		c.connects.Wait()
		c.transport.Disconnect()
		c.sends.Wait()
		c.setState(StateDisconnected)
		c.logger.Info("session stopped", nil)
	})
}

func (c *Controller) loop() {
	defer close(c.loopDone)
	for {
		select {
		case <-c.ctx.Done():
			return
		case evt := <-c.events:
			c.handle(evt)
		}
	}
}

func (c *Controller) handle(evt Event) {
	switch e := evt.(type) {
	case startRequested:
		c.onStart()
	case connectFailed:
		c.onConnectFailed(e)
	case reconnectDue:
		c.onReconnectDue(e)
	case ConnectionUpdate:
		c.onConnectionUpdate(e)
	case CredentialsUpdated:
		c.logger.Info("credentials updated", nil)
	case MessageReceived:
		c.onMessage(e.Message)
	default:
		c.logger.Warn("unknown session event", map[string]interface{}{"event": evt.eventName()})
	}
}

func (c *Controller) onStart() {
	state := c.State()
	if !state.canStart() {
		c.logger.Debug("start ignored, connection sequence active", map[string]interface{}{"state": state})
		return
	}
	c.connect()
}

func (c *Controller) connect() {
	c.setState(StateConnecting)
	c.attempt++
	attempt := c.attempt

	c.connects.Add(1)
	go func() {
		defer c.connects.Done()
		if err := c.transport.Connect(c.ctx); err != nil {
			c.Dispatch(connectFailed{attempt: attempt, err: err})
		}
	}()
}

func (c *Controller) onConnectFailed(e connectFailed) {
	state := c.State()
	if e.attempt != c.attempt || (state != StateConnecting && state != StateAwaitingAuth) {
		return
	}
	c.errHandler.Handle("session.connect", apperrors.NewTransportConnectFailedError(e.err))
	c.scheduleReconnect()
}

func (c *Controller) onConnectionUpdate(e ConnectionUpdate) {
	state := c.State()

	if e.Challenge != "" {
		if state != StateConnecting && state != StateAwaitingAuth {
			return
		}
		c.setState(StateAwaitingAuth)
		c.logger.Info("pairing required, scan the QR code", nil)
		c.renderer.Render(e.Challenge)
	}

	switch e.State {
	case ConnOpen:
		if state == StateConnecting || state == StateAwaitingAuth {
			c.setState(StateConnected)
			c.logger.Info("connected", nil)
		}

	case ConnClose:
		if e.Status == StatusLoggedOut {
			c.onLoggedOut(e)
			return
		}
		if !state.inFlight() {
			// already reconnecting, stopped or logged out
			return
		}
		details := ""
		if e.Err != nil {
			details = e.Err.Error()
		}
		c.errHandler.Handle("session.connection", apperrors.NewTransportDisconnectedError(e.Status, details))
		c.obs.RecordDisconnect(c.ctx, "reconnect")
		c.scheduleReconnect()
	}
}

func (c *Controller) onLoggedOut(e ConnectionUpdate) {
	if c.State() == StateLoggedOut {
		return
	}
	c.cancelReconnect()
	c.setState(StateLoggedOut)

	details := "credentials rejected, scan the QR code again"
	if e.Err != nil {
		details = e.Err.Error()
	}
	c.errHandler.Handle("session.connection", apperrors.NewSessionInvalidatedError(details))
	c.obs.RecordDisconnect(c.ctx, "logged_out")
}

// scheduleReconnect arms exactly one reconnect timer. The timer only posts an
// event, the loop performs the connect.
func (c *Controller) scheduleReconnect() {
	c.cancelReconnect()
	c.setState(StateReconnecting)

	c.generation++
	generation := c.generation
	c.timer = c.afterFunc(c.config.ReconnectDelay, func() {
		c.Dispatch(reconnectDue{generation: generation})
	})
	metrics.ReconnectsScheduled.Inc()

	c.logger.Info("reconnect scheduled", map[string]interface{}{
		"delay": c.config.ReconnectDelay.String(),
	})
}

func (c *Controller) cancelReconnect() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
}

func (c *Controller) onReconnectDue(e reconnectDue) {
	if e.generation != c.generation || c.State() != StateReconnecting {
		return
	}
	c.timer = nil
	c.connect()
}

// onMessage runs the lookup and the send off the loop so a slow Redis or
// transport never delays other events. A redelivered message is dropped before
// the lookup runs.
func (c *Controller) onMessage(msg models.InboundMessage) {
	received := time.Now()
	log := c.logger.WithFields(map[string]interface{}{
		"correlationId": uuid.NewString(),
		"messageId":     msg.ID,
	})

	c.sends.Add(1)
	go func() {
		defer c.sends.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.config.SendTimeout)
		defer cancel()

		if !msg.IsSelf && msg.Text != "" {
			dup, err := c.dedupe.Seen(ctx, msg.ID)
			if err != nil {
				c.errHandler.Handle("session.dedupe", err)
			} else if dup {
				metrics.MessagesIgnored.WithLabelValues(stocklookup.ReasonDuplicate).Inc()
				log.Debug("duplicate message dropped", nil)
				return
			}
		}

		reply, _ := c.handler.Handle(ctx, msg)
		if reply == nil {
			return
		}

		if err := c.transport.SendMessage(ctx, reply.Recipient, reply.Text); err != nil {
			metrics.RepliesFailed.Inc()
			c.errHandler.Handle("session.send", apperrors.NewReplySendFailedError(reply.Recipient, err))
			return
		}

		c.obs.RecordReply(ctx, string(reply.Kind), time.Since(received))
		log.Debug("reply sent", map[string]interface{}{"kind": reply.Kind, "recipient": reply.Recipient})
	}()
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()

	if prev != s {
		publishState(s)
		c.logger.Debug("session state changed", map[string]interface{}{
			"from": prev,
			"to":   s,
		})
	}
}

func publishState(current State) {
	for _, s := range allStates {
		v := 0.0
		if s == current {
			v = 1
		}
		metrics.SessionState.WithLabelValues(string(s)).Set(v)
	}
}
