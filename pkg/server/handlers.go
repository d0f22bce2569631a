package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"xnftctl/pkg/controller"
	"xnftctl/pkg/validate"
	"xnftctl/pkg/wallet"
)

type errorResponse struct {
	Error string `json:"error"`
}

type txResponse struct {
	Transaction controller.Transaction `json:"transaction"`
	ExplorerURL string                 `json:"explorerUrl"`
	State       controller.State       `json:"state"`
}

type transferRequest struct {
	TokenID   *string `json:"token_id"`
	Recipient *string `json:"recipient"`
}

type connectRequest struct {
	Key     string `json:"key"`
	Address string `json:"address"`
}

type modalRequest struct {
	Visible *bool `json:"visible"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps a flow error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, controller.ErrNoAccount), errors.Is(err, controller.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, controller.ErrQueryUnavailable),
		errors.Is(err, controller.ErrSignerUnavailable),
		errors.Is(err, wallet.ErrNoResolver):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "xnftctl"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ctrl.QueryReady() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "query client not attached"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleSupply(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	if err := s.ctrl.FetchSupplyCount(ctx); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleOwned(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	if err := s.ctrl.FetchOwnedCount(ctx); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.TxTimeout)
	defer cancel()

	tx, err := s.ctrl.Mint(ctx)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeTx(w, tx)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	// Omitted fields keep the current draft.
	draft := s.ctrl.Snapshot().Draft
	if req.TokenID != nil {
		draft.TokenID = *req.TokenID
	}
	if req.Recipient != nil {
		draft.Recipient = *req.Recipient
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.TxTimeout)
	defer cancel()

	tx, err := s.ctrl.TransferDraft(ctx, draft)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeTx(w, tx)
}

func (s *Server) writeTx(w http.ResponseWriter, tx controller.Transaction) {
	writeJSON(w, http.StatusOK, txResponse{
		Transaction: tx,
		ExplorerURL: s.config.ExplorerTxLink(tx.TransactionHash),
		State:       s.ctrl.Snapshot(),
	})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var err error
	switch {
	case req.Key != "" && req.Address != "":
		writeError(w, http.StatusBadRequest, "specify either key or address, not both")
		return
	case req.Key != "":
		if err := validate.KeyName(req.Key); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		_, err = s.ctrl.Session().Connect(ctx, req.Key)
	case req.Address != "":
		if err := validate.XionAddress(req.Address); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		_, err = s.ctrl.Session().ConnectAddress(req.Address)
	default:
		writeError(w, http.StatusBadRequest, "key or address is required")
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.Logout()
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleModal(w http.ResponseWriter, r *http.Request) {
	var req modalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Visible == nil {
		s.ctrl.ToggleModal()
	} else {
		s.ctrl.SetModalVisible(*req.Visible)
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}
