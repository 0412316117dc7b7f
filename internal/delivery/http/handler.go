package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopkite/ordering-api/internal/domain"
	"github.com/shopkite/ordering-api/internal/usecase"
)

type CreateBalanceRequest struct {
	UserID        int64 `json:"user_id"`
	InitialAmount int64 `json:"initial_amount"`
}

type ChargeRequest struct {
	UserID int64  `json:"user_id"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type BalanceResponse struct {
	UserID int64 `json:"user_id"`
	Amount int64 `json:"amount"`
}

type HistoryResponse struct {
	Amount    int64     `json:"amount"`
	Type      string    `json:"type"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type IssueCouponRequest struct {
	UserID     int64  `json:"user_id"`
	CouponCode string `json:"coupon_code"`
}

type UserCouponResponse struct {
	Code          string    `json:"code"`
	Type          string    `json:"type"`
	DiscountValue int64     `json:"discount_value"`
	IssuedAt      time.Time `json:"issued_at"`
	IsUsed        bool      `json:"is_used"`
}

type PlaceOrderRequest struct {
	UserID     int64              `json:"user_id"`
	CouponCode string             `json:"coupon_code,omitempty"`
	Items      []OrderItemRequest `json:"items"`
}

type OrderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Size      int   `json:"size"`
	Quantity  int   `json:"quantity"`
}

type OrderResponse struct {
	ID          string              `json:"id"`
	UserID      int64               `json:"user_id"`
	Status      string              `json:"status"`
	TotalAmount int64               `json:"total_amount"`
	PaidAmount  int64               `json:"paid_amount"`
	Items       []OrderItemResponse `json:"items"`
}

type OrderItemResponse struct {
	ProductID int64 `json:"product_id"`
	Size      int   `json:"size"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Price       int64           `json:"price"`
	ReleaseDate time.Time       `json:"release_date"`
	Stocks      []StockResponse `json:"stocks,omitempty"`
}

type StockResponse struct {
	Size     int `json:"size"`
	Quantity int `json:"quantity"`
}

type Handler struct {
	balances usecase.BalanceUseCase
	coupons  usecase.CouponUseCase
	catalog  usecase.CatalogUseCase
	orders   usecase.OrderUseCase
}

func NewHandler(balances usecase.BalanceUseCase, coupons usecase.CouponUseCase, catalog usecase.CatalogUseCase, orders usecase.OrderUseCase) *Handler {
	return &Handler{
		balances: balances,
		coupons:  coupons,
		catalog:  catalog,
		orders:   orders,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/balances", h.CreateBalance)
		r.Post("/balances/charge", h.ChargeBalance)
		r.Get("/balances/{userID}", h.GetBalance)
		r.Get("/balances/{userID}/history", h.GetBalanceHistory)

		r.Post("/coupons/issue", h.IssueCoupon)
		r.Get("/coupons/user/{userID}", h.ListUserCoupons)

		r.Get("/products", h.ListProducts)
		r.Get("/products/{productID}", h.GetProduct)

		r.Post("/orders", h.PlaceOrder)
		r.Get("/orders/{orderID}", h.GetOrder)
	})
}

func (h *Handler) CreateBalance(w http.ResponseWriter, r *http.Request) {
	var req CreateBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.balances.CreateBalance(r.Context(), req.UserID, req.InitialAmount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) ChargeBalance(w http.ResponseWriter, r *http.Request) {
	var req ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "user requested charge"
	}
	balance, err := h.balances.Charge(r.Context(), req.UserID, req.Amount, reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{UserID: balance.UserID, Amount: balance.Amount})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	balance, err := h.balances.GetBalance(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{UserID: balance.UserID, Amount: balance.Amount})
}

func (h *Handler) GetBalanceHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	history, err := h.balances.GetHistory(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]HistoryResponse, 0, len(history))
	for _, h := range history {
		resp = append(resp, HistoryResponse{
			Amount:    h.Amount,
			Type:      string(h.Type),
			Reason:    h.Reason,
			CreatedAt: h.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) IssueCoupon(w http.ResponseWriter, r *http.Request) {
	var req IssueCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.coupons.Issue(r.Context(), req.UserID, req.CouponCode); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) ListUserCoupons(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	coupons, err := h.coupons.ListUserCoupons(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]UserCouponResponse, 0, len(coupons))
	for _, uc := range coupons {
		resp = append(resp, UserCouponResponse{
			Code:          uc.Coupon.Code,
			Type:          string(uc.Coupon.Type),
			DiscountValue: uc.Coupon.DiscountValue,
			IssuedAt:      uc.Issue.IssuedAt,
			IsUsed:        uc.Issue.IsUsed,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, ProductResponse{
			ID:          p.ID,
			Name:        p.Name,
			Brand:       p.Brand,
			Price:       p.Price,
			ReleaseDate: p.ReleaseDate,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	detail, err := h.catalog.GetProductDetail(r.Context(), productID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := ProductResponse{
		ID:          detail.Product.ID,
		Name:        detail.Product.Name,
		Brand:       detail.Product.Brand,
		Price:       detail.Product.Price,
		ReleaseDate: detail.Product.ReleaseDate,
	}
	for _, s := range detail.Stocks {
		resp.Stocks = append(resp.Stocks, StockResponse{Size: s.Size, Quantity: s.StockQuantity})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cmd := usecase.PlaceOrderCommand{
		UserID:     req.UserID,
		CouponCode: req.CouponCode,
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, usecase.PlaceOrderItem{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.orders.PlaceOrder(r.Context(), cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse(order))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(order))
}

func orderResponse(order domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:          order.ID,
		UserID:      order.UserID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		PaidAmount:  order.PaidAmount,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBalanceNotFound),
		errors.Is(err, domain.ErrCouponNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrAlreadyExhausted),
		errors.Is(err, domain.ErrAlreadyIssued),
		errors.Is(err, domain.ErrNotIssued),
		errors.Is(err, domain.ErrCouponExpired),
		errors.Is(err, domain.ErrNotReleased):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrConcurrencyExhausted),
		errors.Is(err, domain.ErrLockTimeout):
		// Retryable by the caller.
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, domain.ErrCompensationFailed):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
