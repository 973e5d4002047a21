// Package api serves the campaign over HTTP. Reads are open; writes arrive as
// signed calls and go through the engine like CLI calls do.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/engine"
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
)

// Backend is what the handlers need from the engine.
type Backend interface {
	Campaign() *ledger.Campaign
	Network() *chain.Network
	Events(from uint64) ([]ledger.Event, error)
	NextNonce(addr common.Address) (uint64, error)
	Apply(sc *wallet.SignedCall) (*engine.Receipt, error)
}

// Handler holds the routes.
type Handler struct {
	backend Backend
	logger  *slog.Logger
	router  chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(b Backend, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{backend: b, logger: logger}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/campaign", h.handleCampaign)
		r.Get("/contributions/{addr}", h.handleContribution)
		r.Get("/events", h.handleEvents)
		r.Get("/nonces/{addr}", h.handleNonce)
		r.Post("/calls", h.handleCall)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

// CampaignView is the JSON shape of GET /api/v1/campaign.
type CampaignView struct {
	Network      string           `json:"network"`
	Address      common.Address   `json:"address"`
	Owner        common.Address   `json:"owner"`
	PriceFeed    common.Address   `json:"price_feed"`
	Deadline     time.Time        `json:"deadline"`
	Now          time.Time        `json:"now"`
	Phase        ledger.Phase     `json:"phase,omitempty"`
	PhaseError   string           `json:"phase_error,omitempty"`
	MinimumUSD   string           `json:"minimum_usd"`
	TargetUSD    string           `json:"target_usd"`
	BalanceWei   string           `json:"balance_wei"`
	BalanceETH   string           `json:"balance_eth"`
	Withdrawn    bool             `json:"withdrawn"`
	Contributors []common.Address `json:"contributors"`
}

// ContributionView is the JSON shape of GET /api/v1/contributions/{addr}.
type ContributionView struct {
	Address   common.Address `json:"address"`
	AmountWei string         `json:"amount_wei"`
	AmountETH string         `json:"amount_eth"`
}

// NonceView is the JSON shape of GET /api/v1/nonces/{addr}.
type NonceView struct {
	Address common.Address `json:"address"`
	Next    uint64         `json:"next"`
}

// ReceiptView is the JSON shape of a successful POST /api/v1/calls.
type ReceiptView struct {
	Op        wallet.Op      `json:"op"`
	From      common.Address `json:"from"`
	AmountWei string         `json:"amount_wei,omitempty"`
	Events    []ledger.Event `json:"events"`
}

func (h *Handler) handleCampaign(w http.ResponseWriter, r *http.Request) {
	c := h.backend.Campaign()
	bal := c.Balance()
	v := CampaignView{
		Network:      h.backend.Network().Name,
		Address:      c.Address(),
		Owner:        c.Owner(),
		PriceFeed:    c.PriceFeed(),
		Deadline:     c.Deadline().UTC(),
		Now:          c.Now().UTC(),
		MinimumUSD:   ledger.FormatUSD(c.MinimumUSD()),
		TargetUSD:    ledger.FormatUSD(c.TargetUSD()),
		BalanceWei:   bal.String(),
		BalanceETH:   chain.FormatEther(bal),
		Withdrawn:    c.Withdrawn(),
		Contributors: c.Contributors(),
	}
	if p, err := c.Phase(); err != nil {
		v.PhaseError = err.Error()
	} else {
		v.Phase = p
	}
	// Not cached: Now and Phase move with the clock.
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleContribution(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "addr")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid address: "+raw)
		return
	}
	addr := common.HexToAddress(raw)
	amt := h.backend.Campaign().Contribution(addr)
	writeJSON(w, http.StatusOK, ContributionView{
		Address:   addr,
		AmountWei: amt.String(),
		AmountETH: chain.FormatEther(amt),
	})
}

func (h *Handler) handleNonce(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "addr")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid address: "+raw)
		return
	}
	addr := common.HexToAddress(raw)
	next, err := h.backend.NextNonce(addr)
	if err != nil {
		h.logger.Error("loading nonce", "address", addr.Hex(), "error", err)
		writeError(w, http.StatusInternalServerError, "could not load nonce")
		return
	}
	writeJSON(w, http.StatusOK, NonceView{Address: addr, Next: next})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	var from uint64
	if s := r.URL.Query().Get("from"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from: "+s)
			return
		}
		from = n
	}
	evs, err := h.backend.Events(from)
	if err != nil {
		h.logger.Error("loading events", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load events")
		return
	}
	if evs == nil {
		evs = []ledger.Event{}
	}
	writeCached(w, r, evs)
}

func (h *Handler) handleCall(w http.ResponseWriter, r *http.Request) {
	var sc wallet.SignedCall
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid signed call: "+err.Error())
		return
	}
	rcpt, err := h.backend.Apply(&sc)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	v := ReceiptView{Op: rcpt.Op, From: rcpt.From, Events: rcpt.Events}
	if rcpt.Amount != nil && rcpt.Amount.Sign() != 0 {
		v.AmountWei = rcpt.Amount.String()
	}
	writeJSON(w, http.StatusOK, v)
}

// statusFor maps engine and ledger errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wallet.ErrSignerMismatch),
		errors.Is(err, wallet.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrWrongNetwork),
		errors.Is(err, engine.ErrWrongCampaign),
		errors.Is(err, engine.ErrUnknownOp),
		errors.Is(err, engine.ErrMissingOwner):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrPriceFeed):
		return http.StatusBadGateway
	case errors.Is(err, ledger.ErrWindowClosed),
		errors.Is(err, ledger.ErrWindowNotClosed),
		errors.Is(err, ledger.ErrInsufficientAmount),
		errors.Is(err, ledger.ErrTargetNotReached),
		errors.Is(err, ledger.ErrTargetReached),
		errors.Is(err, ledger.ErrNoContribution),
		errors.Is(err, ledger.ErrZeroAddress),
		errors.Is(err, engine.ErrReplayedCall),
		errors.Is(err, engine.ErrNonceGap):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
