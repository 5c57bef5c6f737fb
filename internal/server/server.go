package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/TYDev01/009-MarketPlace/internal/bank"
	"github.com/TYDev01/009-MarketPlace/internal/marketplace"
	"github.com/TYDev01/009-MarketPlace/internal/model"
	"github.com/TYDev01/009-MarketPlace/internal/version"
)

// CallerHeader carries the principal performing a mutating request.
const CallerHeader = "X-Caller"

// Server routes HTTP requests to the marketplace.
type Server struct {
	market *marketplace.Marketplace
	bank   *bank.Ledger
	events http.Handler // WebSocket event stream, nil when disabled
	logger *slog.Logger
}

// New creates a server. events may be nil when the stream is disabled.
func New(market *marketplace.Marketplace, ledger *bank.Ledger, events http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		market: market,
		bank:   ledger,
		events: events,
		logger: logger,
	}
}

// Router builds the chi router for the full API surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/tokens", func(r chi.Router) {
		r.Post("/", s.handleMint)
		r.Get("/last-id", s.handleLastTokenID)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/owner", s.handleOwner)
			r.Get("/metadata", s.handleMetadata)
			r.Get("/listing", s.handleGetListing)
			r.Post("/listing", s.handleListToken)
			r.Put("/listing", s.handleUpdateListing)
			r.Delete("/listing", s.handleCancelListing)
			r.Post("/purchase", s.handlePurchase)
		})
	})

	r.Get("/accounts/{principal}/balance", s.handleBalance)
	r.Get("/health", s.handleHealth)

	if s.events != nil {
		r.Handle("/events", s.events)
	}

	return r
}

type mintRequest struct {
	Owner      string `json:"owner"`
	URI        string `json:"uri"`
	RoyaltyBps uint64 `json:"royalty_bps"`
}

type priceRequest struct {
	Price uint64 `json:"price"`
}

type tokenResponse struct {
	TokenID uint64 `json:"token_id"`
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Owner == "" {
		writeBadRequest(w, "owner is required")
		return
	}

	id, err := s.market.Mint(caller, model.Principal(req.Owner), req.URI, req.RoyaltyBps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{TokenID: id})
}

func (s *Server) handleListToken(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	id, ok := tokenID(w, r)
	if !ok {
		return
	}

	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if _, err := s.market.ListToken(caller, id, req.Price); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{TokenID: id})
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	id, ok := tokenID(w, r)
	if !ok {
		return
	}

	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if _, err := s.market.UpdateListing(caller, id, req.Price); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{TokenID: id})
}

func (s *Server) handleCancelListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	id, ok := tokenID(w, r)
	if !ok {
		return
	}

	if _, err := s.market.CancelListing(caller, id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{TokenID: id})
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	id, ok := tokenID(w, r)
	if !ok {
		return
	}

	if _, err := s.market.Purchase(caller, id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{TokenID: id})
}

func (s *Server) handleLastTokenID(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint64{"last_token_id": s.market.LastTokenID()})
}

func (s *Server) handleOwner(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenID(w, r)
	if !ok {
		return
	}
	owner, ok := s.market.Owner(id)
	if !ok {
		writeNotFound(w, "token not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Principal{"owner": owner})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenID(w, r)
	if !ok {
		return
	}
	meta, ok := s.market.TokenMetadata(id)
	if !ok {
		writeNotFound(w, "token not found")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := tokenID(w, r)
	if !ok {
		return
	}
	l, ok := s.market.Listing(id)
	if !ok {
		writeNotFound(w, "token not listed")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	principal := chi.URLParam(r, "principal")
	if principal == "" {
		writeBadRequest(w, "principal is required")
		return
	}
	balance := s.bank.Balance(model.Principal(principal))
	writeJSON(w, http.StatusOK, map[string]any{
		"principal": principal,
		"balance":   balance,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"version":       version.Version,
		"last_token_id": s.market.LastTokenID(),
	})
}

// caller extracts the principal from the X-Caller header, rejecting the
// request when absent.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (model.Principal, bool) {
	p := r.Header.Get(CallerHeader)
	if p == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing " + CallerHeader + " header"})
		return "", false
	}
	return model.Principal(p), true
}

// tokenID parses the {id} route parameter.
func tokenID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid token id")
		return 0, false
	}
	return id, true
}

type errorResponse struct {
	Code  uint32 `json:"code,omitempty"`
	Error string `json:"error"`
}

// writeError maps ledger errors to HTTP statuses, preserving the stable
// numeric codes in the body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var lerr *model.Error
	if errors.As(err, &lerr) {
		writeJSON(w, statusForCode(lerr.Code), errorResponse{Code: lerr.Code, Error: lerr.Message})
		return
	}
	if errors.Is(err, bank.ErrInsufficientFunds) {
		writeJSON(w, http.StatusPaymentRequired, errorResponse{Error: err.Error()})
		return
	}
	s.logger.Error("unexpected operation error", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func statusForCode(code uint32) int {
	switch code {
	case model.CodeNotOwner:
		return http.StatusForbidden
	case model.CodeInvalidRoyalty, model.CodeInvalidPrice:
		return http.StatusUnprocessableEntity
	case model.CodeNotListed:
		return http.StatusNotFound
	case model.CodeSelfPurchase:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func writeNotFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: msg})
}
