// Package ws implements the per-connection message protocol: it validates
// inbound frames, drives the owning components, and emits unicast replies
// and hub broadcasts. Handlers that mutate shared state always run
// validate, mutate, persist, broadcast, in that order.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/mkov/pixelwall/internal/accounts"
	"github.com/mkov/pixelwall/internal/canvas"
	"github.com/mkov/pixelwall/internal/dependencies/clock"
	"github.com/mkov/pixelwall/internal/hub"
	"github.com/mkov/pixelwall/internal/ledger"
	"github.com/mkov/pixelwall/internal/model"
	"github.com/mkov/pixelwall/internal/persist"
	"github.com/mkov/pixelwall/internal/ratelimit"
	"github.com/mkov/pixelwall/internal/session"
)

// colorPattern matches the canonical #RRGGBB color form
var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Handler dispatches inbound messages for all connections
type Handler struct {
	logger   *slog.Logger
	clock    clock.Clock
	canvas   *canvas.Service
	accounts *accounts.Directory
	limiter  *ratelimit.Limiter
	ledger   *ledger.Service
	sessions *session.Registry
	hub      *hub.Hub
	gateway  *persist.Gateway
}

// Config wires the handler's collaborators
type Config struct {
	Logger   *slog.Logger
	Clock    clock.Clock
	Canvas   *canvas.Service
	Accounts *accounts.Directory
	Limiter  *ratelimit.Limiter
	Ledger   *ledger.Service
	Sessions *session.Registry
	Hub      *hub.Hub
	Gateway  *persist.Gateway
}

// NewHandler creates a protocol handler
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:   cfg.Logger.With(slog.String("component", "ws")),
		clock:    cfg.Clock,
		canvas:   cfg.Canvas,
		accounts: cfg.Accounts,
		limiter:  cfg.Limiter,
		ledger:   cfg.Ledger,
		sessions: cfg.Sessions,
		hub:      cfg.Hub,
		gateway:  cfg.Gateway,
	}
}

// HandleOpen registers a session for a new connection and pushes the
// current state to it: the full canvas and chat history go to the new
// connection only; the leaderboard is broadcast to everyone so stale
// rankings refresh on every connect.
func (h *Handler) HandleOpen(client *hub.Client, addr string) {
	h.sessions.Register(client, addr)
	h.hub.Register(client)

	h.unicast(client, TypeCanvas, h.canvas.Get())
	h.unicast(client, TypeChatHistory, h.ledger.ChatHistory())
	h.broadcastLeaderboard()
}

// HandleClose destroys the session on disconnect
func (h *Handler) HandleClose(client *hub.Client) {
	h.sessions.Unregister(client)
	h.hub.Unregister(client)
}

// HandleMessage dispatches one inbound frame. Malformed frames and unknown
// types are logged and ignored; they never terminate the connection.
func (h *Handler) HandleMessage(client *hub.Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger.Debug("malformed frame dropped", slog.Any("error", err))
		return
	}

	switch env.Type {
	case TypeRegister:
		h.handleRegister(client, env.Payload)
	case TypeLogin:
		h.handleLogin(client, env.Payload)
	case TypePlacePixel:
		h.handlePlacePixel(client, env.Payload)
	case TypeChatMessage:
		h.handleChat(client, env.Payload)
	case TypeForceLoad:
		h.handleForceLoad()
	default:
		h.logger.Debug("unknown message type", slog.String("type", env.Type))
	}
}

func (h *Handler) handleRegister(client *hub.Client, payload json.RawMessage) {
	var creds credentialsPayload
	if err := json.Unmarshal(payload, &creds); err != nil {
		h.sendError(client, "Malformed registration request.")
		return
	}
	if creds.Username == "" || creds.Password == "" {
		h.sendError(client, "Username and password are required.")
		return
	}

	_, err := h.accounts.Register(creds.Username, creds.Password, creds.VisitorID)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrDuplicateUsername):
		h.sendError(client, "Username already exists.")
		return
	case errors.Is(err, model.ErrDuplicateFingerprint):
		h.sendError(client, "An account is already registered from this browser.")
		return
	default:
		h.logger.Error("registration failed", slog.Any("error", err))
		h.sendError(client, "Registration failed.")
		return
	}

	h.gateway.SaveAsync(h.snapshotNow())
	h.unicast(client, TypeRegistered, userPayload{Username: creds.Username})
}

func (h *Handler) handleLogin(client *hub.Client, payload json.RawMessage) {
	var creds credentialsPayload
	if err := json.Unmarshal(payload, &creds); err != nil {
		h.sendError(client, "Malformed login request.")
		return
	}

	account, err := h.accounts.Authenticate(creds.Username, creds.Password, creds.VisitorID)
	if err != nil {
		h.sendError(client, "Invalid username or password.")
		return
	}

	h.sessions.Identify(client, account.Username, creds.VisitorID)
	h.unicast(client, TypeLoggedIn, userPayload{Username: account.Username})
}

func (h *Handler) handlePlacePixel(client *hub.Client, payload json.RawMessage) {
	sess, ok := h.sessions.Lookup(client)
	if !ok || !sess.Identified() {
		h.sendError(client, "You must be logged in to place a pixel.")
		return
	}

	var req placePixelPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(client, "Malformed pixel request.")
		return
	}
	if !colorPattern.MatchString(req.Color) {
		h.sendError(client, "Invalid color.")
		return
	}
	// Out-of-range coordinates are a silent no-op: no broadcast, and no
	// cooldown is consumed.
	if req.X < 0 || req.X >= model.GridSize || req.Y < 0 || req.Y >= model.GridSize {
		return
	}

	addr := sess.Addr
	if req.ClientAddress != "" {
		addr = req.ClientAddress
	}

	decision := h.limiter.CheckAndReserve(sess.Username, addr, sess.Fingerprint, h.clock.Now())
	if !decision.Allowed {
		h.unicast(client, TypeCooldown, decision.Wait.Milliseconds())
		return
	}

	h.canvas.Set(req.X, req.Y, req.Color)
	h.ledger.RecordScore(sess.Username)
	h.gateway.SaveAsync(h.snapshotNow())

	h.broadcast(TypeUpdate, updatePayload{X: req.X, Y: req.Y, Color: req.Color})
	h.broadcastLeaderboard()
}

func (h *Handler) handleChat(client *hub.Client, payload json.RawMessage) {
	sess, ok := h.sessions.Lookup(client)
	if !ok || !sess.Identified() {
		// Anonymous chat is silently dropped, no error emitted
		return
	}

	var message string
	if err := json.Unmarshal(payload, &message); err != nil {
		h.logger.Debug("malformed chat payload dropped", slog.Any("error", err))
		return
	}
	if message == "" {
		return
	}

	entry := h.ledger.AppendChat(sess.Username, message)
	h.gateway.SaveAsync(h.snapshotNow())
	h.broadcast(TypeChatMessage, entry)
}

// handleForceLoad reloads the snapshot from the store and replaces the
// in-memory state wholesale. Writes racing the reload may be lost if the
// snapshot predates them; that is accepted for this administrative path.
func (h *Handler) handleForceLoad() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap := h.gateway.Load(ctx)
	h.canvas.Replace(snap.Canvas)
	h.accounts.Restore(snap.Users)
	h.ledger.Restore(snap.Leaderboard, snap.ChatHistory)
	h.logger.Info("state reloaded from snapshot")

	h.broadcast(TypeCanvas, h.canvas.Get())
	h.broadcast(TypeChatHistory, h.ledger.ChatHistory())
	h.broadcastLeaderboard()
}

// snapshotNow assembles the aggregate snapshot from the owning components
func (h *Handler) snapshotNow() *model.Snapshot {
	scores, chat := h.ledger.Snapshot()
	return &model.Snapshot{
		Canvas:      h.canvas.Get(),
		Users:       h.accounts.Snapshot(),
		Leaderboard: scores,
		ChatHistory: chat,
	}
}

func (h *Handler) unicast(client *hub.Client, msgType string, payload any) {
	data := encode(msgType, payload)
	if data == nil {
		return
	}
	if !client.TrySend(data) {
		h.logger.Warn("unicast dropped", slog.String("type", msgType))
	}
}

func (h *Handler) broadcast(msgType string, payload any) {
	data := encode(msgType, payload)
	if data == nil {
		return
	}
	h.hub.Broadcast(data)
}

func (h *Handler) broadcastLeaderboard() {
	h.broadcast(TypeLeaderboard, h.ledger.TopN(model.LeaderboardSize))
}

func (h *Handler) sendError(client *hub.Client, reason string) {
	h.unicast(client, TypeError, reason)
}
