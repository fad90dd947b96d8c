package relay

import (
	"context"
	"sync"
	"time"

	"github.com/omochice/guessthesong/internal/config"
	"github.com/omochice/guessthesong/pkg/protocol"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// Role is what a client identified itself as.
type Role int

const (
	Unidentified Role = iota
	Receiver
	Sender
	Manager
)

func (r Role) String() string {
	switch r {
	case Receiver:
		return "receiver"
	case Sender:
		return "sender"
	case Manager:
		return "manager"
	default:
		return "unidentified"
	}
}

// DefaultAffinityTTL is how long a connection id keeps its role after the
// client disconnected.
const DefaultAffinityTTL = 10 * time.Minute

// Affinity remembers the role of every handshaken connection id, so a client
// that reconnects, to the same hub or to a later one, gets its role back.
// Entries do not expire while the client is connected.
type Affinity struct {
	roles *cache.Cache
}

// NewAffinity creates an affinity store; ttl counts from the disconnect.
func NewAffinity(ttl time.Duration) *Affinity {
	if ttl <= 0 {
		ttl = DefaultAffinityTTL
	}
	return &Affinity{roles: cache.New(ttl, 2*ttl)}
}

// pin records role for a connected client.
func (a *Affinity) pin(id protocol.ConnectionID, role Role) {
	a.roles.Set(id.String(), role, cache.NoExpiration)
}

// release starts the expiry of a disconnected client's role.
func (a *Affinity) release(id protocol.ConnectionID, role Role) {
	a.roles.SetDefault(id.String(), role)
}

// Lookup returns the role remembered for id.
func (a *Affinity) Lookup(id protocol.ConnectionID) (Role, bool) {
	v, ok := a.roles.Get(id.String())
	if !ok {
		return Unidentified, false
	}
	return v.(Role), true
}

// Client is one connected peer.
type Client struct {
	Conn Conn
	Role Role
	// ID is set when the client opened with the protocol handshake.
	ID *protocol.ConnectionID
}

// Options configures a Hub.
type Options struct {
	Messages config.Messages
	// Affinity is shared across hubs to let clients resume their role after
	// a server restart. A private store with AffinityTTL is used when nil.
	Affinity *Affinity
	// AffinityTTL bounds how long a disconnected client can resume its role.
	AffinityTTL time.Duration
	// OnRestart is called after a manager requested a restart and the
	// request was confirmed.
	OnRestart func()
}

// Hub tracks the connected clients and the pending playback.
type Hub struct {
	msgs      config.Messages
	roles     map[string]Role
	onRestart func()
	log       zerolog.Logger

	affinity *Affinity

	mu        sync.Mutex
	clients   map[*Client]struct{}
	receivers map[*Client]struct{}
	// pending counts confirmations of the last broadcast; nil means no
	// playback is waiting.
	pending *int
}

// NewHub creates a hub speaking the messages in opts.
func NewHub(opts Options, logger zerolog.Logger) *Hub {
	affinity := opts.Affinity
	if affinity == nil {
		affinity = NewAffinity(opts.AffinityTTL)
	}
	return &Hub{
		msgs: opts.Messages,
		roles: map[string]Role{
			opts.Messages.MustGet(config.ReceiverSignature): Receiver,
			opts.Messages.MustGet(config.SenderSignature):   Sender,
			opts.Messages.MustGet(config.ManagerSignature):  Manager,
		},
		onRestart: opts.OnRestart,
		log:       logger.With().Str("component", "hub").Logger(),
		affinity:  affinity,
		clients:   make(map[*Client]struct{}),
		receivers: make(map[*Client]struct{}),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister removes a client. A pending playback is triggered when the
// remaining receivers all confirmed it.
func (h *Hub) Unregister(ctx context.Context, c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	_, wasReceiver := h.receivers[c]
	delete(h.receivers, c)
	count := len(h.clients)
	var targets []*Client
	if wasReceiver && h.pending != nil && len(h.receivers) > 0 && *h.pending >= len(h.receivers) {
		targets = h.takeReceiversLocked()
	}
	h.mu.Unlock()

	if c.ID != nil && c.Role != Unidentified {
		h.affinity.release(*c.ID, c.Role)
	}
	h.log.Info().Str("addr", c.Conn.RemoteAddr()).Int("clients", count).Msg("client disconnected")
	if targets != nil {
		h.trigger(ctx, targets)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ReceiverCount returns the number of identified receivers.
func (h *Hub) ReceiverCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.receivers)
}

// Pending reports the confirmation count of the waiting playback, if any.
func (h *Hub) Pending() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil {
		return 0, false
	}
	return *h.pending, true
}

// Serve runs the message loop of one connection until it fails or the
// client is rejected.
func (h *Hub) Serve(ctx context.Context, conn Conn) {
	c := &Client{Conn: conn}
	h.Register(c)
	defer h.Unregister(ctx, c)

	h.log.Info().Str("addr", conn.RemoteAddr()).Msg("someone is connecting")

	for {
		f, err := conn.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() == nil {
				h.log.Debug().Err(err).Str("addr", conn.RemoteAddr()).Msg("read failed")
			}
			return
		}

		if c.Role == Unidentified {
			if !h.identify(ctx, c, f) {
				return
			}
			continue
		}
		if !h.handle(ctx, c, f) {
			return
		}
	}
}

// identify processes messages until the client names its role. It reports
// false when the connection must be closed.
func (h *Hub) identify(ctx context.Context, c *Client, f protocol.Frame) bool {
	log := h.log.With().Str("addr", c.Conn.RemoteAddr()).Logger()

	if c.ID == nil && f.Kind == protocol.FrameBinary && protocol.IsHandshake(f.Payload) {
		id, err := protocol.ParseHandshake(f.Payload)
		if err != nil {
			log.Warn().Err(err).Msg("malformed handshake, closing connection")
			return false
		}
		if err := c.Conn.WriteFrame(ctx, protocol.Binary(protocol.HandshakeResponse(id))); err != nil {
			log.Warn().Err(err).Msg("failed to answer handshake")
			return false
		}
		c.ID = &id
		if role, ok := h.affinity.Lookup(id); ok {
			h.assign(c, role)
			h.affinity.pin(id, role)
			log.Info().Str("id", id.String()).Stringer("role", c.Role).Msg("client resumed")
		}
		return true
	}

	role, ok := Unidentified, false
	if f.Kind == protocol.FrameText {
		role, ok = h.roles[string(f.Payload)]
	}
	if !ok {
		log.Warn().Msg("first message from client is not a signature, closing connection")
		return false
	}
	h.assign(c, role)
	if c.ID != nil {
		h.affinity.pin(*c.ID, role)
	}
	log.Info().Stringer("role", role).Msg("client identified")
	return true
}

func (h *Hub) assign(c *Client, role Role) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Role = role
	if role == Receiver {
		h.receivers[c] = struct{}{}
	}
}

// handle processes one message of an identified client. It reports false
// when the connection must be closed.
func (h *Hub) handle(ctx context.Context, c *Client, f protocol.Frame) bool {
	log := h.log.With().Str("addr", c.Conn.RemoteAddr()).Stringer("role", c.Role).Logger()

	if _, isSignature := h.roles[string(f.Payload)]; isSignature && f.Kind == protocol.FrameText {
		log.Debug().Msg("ignoring repeated signature")
		return true
	}

	switch {
	case f.IsText(h.msgs.MustGet(config.RestartServer)):
		h.reply(ctx, c, config.RequestConfirmation)
		log.Info().Msg("received restart request")
		if h.onRestart != nil {
			h.onRestart()
		}
		return true

	case f.IsText(h.msgs.MustGet(config.TriggerPlayback)):
		h.mu.Lock()
		var targets []*Client
		if h.pending != nil {
			targets = h.takeReceiversLocked()
		}
		h.mu.Unlock()

		if targets == nil {
			log.Warn().Msg("cannot force playback, no song is pending")
			h.reply(ctx, c, config.RequestError)
			return true
		}
		h.trigger(ctx, targets)
		h.reply(ctx, c, config.RequestConfirmation)
		return true

	case c.Role == Receiver:
		if !f.IsText(h.msgs.MustGet(config.SongReceived)) {
			log.Warn().Str("message", string(f.Payload)).Msg("received something unexpected from a receiver")
			return true
		}
		h.confirm(ctx, log)
		return true

	case f.Kind == protocol.FrameBinary:
		h.broadcast(ctx, f.Payload)
		h.reply(ctx, c, config.SongReceived)
		return true

	default:
		log.Warn().Str("message", string(f.Payload)).Msg("ignoring unexpected text message")
		return true
	}
}

func (h *Hub) confirm(ctx context.Context, log zerolog.Logger) {
	h.mu.Lock()
	if h.pending == nil {
		h.mu.Unlock()
		log.Warn().Msg("confirmation received, but no song is pending")
		return
	}
	*h.pending++
	count, total := *h.pending, len(h.receivers)
	var targets []*Client
	if count >= total {
		targets = h.takeReceiversLocked()
	}
	h.mu.Unlock()

	log.Info().Int("confirmed", count).Int("receivers", total).Msg("received song confirmation")
	if targets != nil {
		h.trigger(ctx, targets)
	}
}

// takeReceiversLocked clears the pending playback and returns the clients
// to trigger.
func (h *Hub) takeReceiversLocked() []*Client {
	h.pending = nil
	targets := make([]*Client, 0, len(h.receivers))
	for c := range h.receivers {
		targets = append(targets, c)
	}
	return targets
}

func (h *Hub) trigger(ctx context.Context, targets []*Client) {
	h.log.Info().Int("receivers", len(targets)).Msg("triggering playback")
	h.send(ctx, targets, protocol.Text(h.msgs.MustGet(config.TriggerPlayback)))
}

func (h *Hub) broadcast(ctx context.Context, clip []byte) {
	h.mu.Lock()
	if len(h.receivers) == 0 {
		h.mu.Unlock()
		h.log.Warn().Msg("no receivers are connected, cannot broadcast song")
		return
	}
	zero := 0
	h.pending = &zero
	targets := make([]*Client, 0, len(h.receivers))
	for c := range h.receivers {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	h.log.Info().Int("receivers", len(targets)).Int("bytes", len(clip)).Msg("broadcasting song")
	h.send(ctx, targets, protocol.Binary(clip))
}

func (h *Hub) send(ctx context.Context, targets []*Client, f protocol.Frame) {
	for _, c := range targets {
		if err := c.Conn.WriteFrame(ctx, f); err != nil {
			h.log.Warn().Err(err).Str("addr", c.Conn.RemoteAddr()).Msg("failed to send to receiver")
		}
	}
}

func (h *Hub) reply(ctx context.Context, c *Client, name string) {
	if err := c.Conn.WriteFrame(ctx, protocol.Text(h.msgs.MustGet(name))); err != nil {
		h.log.Warn().Err(err).Str("addr", c.Conn.RemoteAddr()).Msg("failed to reply")
	}
}
