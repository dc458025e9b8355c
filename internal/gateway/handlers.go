package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tradegate/internal/domain"
	"tradegate/internal/guard"
	"tradegate/internal/upstox"
)

// ---------------------------------------------------------------------------
// Passthrough endpoints
// ---------------------------------------------------------------------------

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.passthrough(w, r, s.upstream.GetProfile)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	s.passthrough(w, r, s.upstream.GetPositions)
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	s.passthrough(w, r, s.upstream.GetHoldings)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	s.passthrough(w, r, s.upstream.ListOrders)
}

func (s *Server) handleFunds(w http.ResponseWriter, r *http.Request) {
	s.passthrough(w, r, s.upstream.GetFunds)
}

// passthrough forwards a no-argument upstream call and relays its response.
func (s *Server) passthrough(w http.ResponseWriter, r *http.Request, call func(context.Context) (*upstox.Response, error)) {
	resp, err := call(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.relay(w, resp)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "Order ID is required")
		return
	}
	resp, err := s.upstream.GetOrder(r.Context(), orderID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.relay(w, resp)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "Order ID is required")
		return
	}
	s.log.Info("cancelling order", "order_id", orderID)
	resp, err := s.upstream.CancelOrder(r.Context(), orderID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.relay(w, resp)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	instrumentKey := r.URL.Query().Get("instrument_key")
	if instrumentKey == "" {
		writeError(w, http.StatusBadRequest, "instrument_key query parameter is required")
		return
	}
	resp, err := s.upstream.GetQuote(r.Context(), instrumentKey)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.relay(w, resp)
}

// ---------------------------------------------------------------------------
// Order placement (funds-guarded)
// ---------------------------------------------------------------------------

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var order domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	s.placeOrder(w, r, &order)
}

// handleBuy forces transaction_type BUY regardless of the payload.
func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var order domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	order.TransactionType = domain.TransactionBuy
	s.placeOrder(w, r, &order)
}

// handleSell forces transaction_type SELL regardless of the payload.
func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	var order domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	order.TransactionType = domain.TransactionSell
	s.placeOrder(w, r, &order)
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request, order *domain.OrderRequest) {
	order.ApplyDefaults()
	if err := order.Validate(); err != nil {
		s.writeDomainError(w, err)
		return
	}

	res, err := s.guard.Check(r.Context(), guard.Input{
		TransactionType: order.TransactionType,
		InstrumentToken: order.InstrumentToken,
		Quantity:        order.Quantity,
		Price:           order.Price,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !res.Sufficient {
		s.redirectToTopUp(w, res.Reason, order.InstrumentToken, "")
		return
	}

	s.log.Info("placing order",
		"instrument", order.InstrumentToken,
		"transaction_type", order.TransactionType,
		"quantity", order.Quantity)
	resp, err := s.upstream.PlaceOrder(r.Context(), order)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.relay(w, resp)
}

// ---------------------------------------------------------------------------
// Order modification (funds-guarded when quantity or price change)
// ---------------------------------------------------------------------------

func (s *Server) handleModifyOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "Order ID is required")
		return
	}

	var mod domain.ModifyRequest
	if err := json.NewDecoder(r.Body).Decode(&mod); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := mod.Validate(); err != nil {
		s.writeDomainError(w, err)
		return
	}

	// The funds check is re-run only when the modification can change the
	// order's cost. The existing order supplies the transaction type and
	// instrument; the modification overrides quantity and price.
	if mod.TouchesFunds() {
		details, err := s.upstream.GetOrderDetails(r.Context(), orderID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}

		in := guard.Input{
			TransactionType: details.TransactionType,
			InstrumentToken: details.InstrumentToken,
			Quantity:        details.Quantity,
			Price:           details.Price,
			OrderID:         orderID,
		}
		if mod.Quantity != nil {
			in.Quantity = *mod.Quantity
		}
		if mod.Price != nil {
			in.Price = *mod.Price
		}

		res, err := s.guard.Check(r.Context(), in)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		if !res.Sufficient {
			s.redirectToTopUp(w, res.Reason, details.InstrumentToken, orderID)
			return
		}
	}

	s.log.Info("modifying order", "order_id", orderID)
	resp, err := s.upstream.ModifyOrder(r.Context(), orderID, &mod)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.relay(w, resp)
}

// ---------------------------------------------------------------------------
// Funds top-up and health
// ---------------------------------------------------------------------------

// handleAddFunds redirects to the external top-up page.
func (s *Server) handleAddFunds(w http.ResponseWriter, r *http.Request) {
	s.redirectToTopUp(w, "", "", "")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	upstream := "ok"
	if err := s.upstream.Ping(ctx); err != nil {
		s.log.Warn("upstream unreachable", "error", err)
		upstream = "unreachable"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
		Upstream:  upstream,
	})
}
