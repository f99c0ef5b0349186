package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ordersdomain "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/domain"
	ordersports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/ports"
	paymentsports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/ports"
	riskdomain "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/domain"
	riskports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/ports"
	shippingdomain "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/domain"
	shippingports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/ports"
	sharederrors "github.com/devdazzlee/Licorice4Good-sub001/internal/shared/errors"
)

// Handlers bundles the reconciliation engine's HTTP surface.
type Handlers struct {
	orders      ordersports.Repository
	assessor    riskports.Assessor
	payments    paymentsports.Service
	fulfillment shippingports.Service
	labels      shippingports.WorkflowOrchestrator
	staleWindow time.Duration
	responder   *sharederrors.ChainedResponder
}

// NewHandlers wires the application services into the HTTP layer.
func NewHandlers(
	orders ordersports.Repository,
	assessor riskports.Assessor,
	payments paymentsports.Service,
	fulfillment shippingports.Service,
	labels shippingports.WorkflowOrchestrator,
	staleWindow time.Duration,
) *Handlers {
	return &Handlers{
		orders:      orders,
		assessor:    assessor,
		payments:    payments,
		fulfillment: fulfillment,
		labels:      labels,
		staleWindow: staleWindow,
		responder:   sharederrors.NewChainedResponder("", mapDomainError),
	}
}

func mapDomainError(err error) (sharederrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ordersports.ErrNotFound):
		return sharederrors.ErrNotFound.WithDetail("order not found"), true
	case errors.Is(err, ordersports.ErrCustomerNotFound):
		return sharederrors.ErrNotFound.WithDetail("customer not found"), true
	case errors.Is(err, shippingports.ErrInvalidAddress):
		return sharederrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, shippingdomain.ErrNoRates):
		return sharederrors.ErrUnprocessable.WithDetail(err.Error()), true
	case errors.Is(err, shippingdomain.ErrLabelPurchase),
		errors.Is(err, shippingdomain.ErrMissingTracking):
		return sharederrors.ErrUnprocessable.WithDetail(err.Error()), true
	case errors.Is(err, ordersdomain.ErrInvalidTransition):
		return sharederrors.ErrConflict.WithDetail(err.Error()), true
	}
	return sharederrors.ProblemDetail{}, false
}

// Healthz reports process liveness.
func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PaymentWebhook ingests a pushed gateway notification.
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	var note paymentsports.Notification
	if err := c.ShouldBindJSON(&note); err != nil {
		h.responder.BadRequest(c, "invalid payment notification payload")
		return
	}
	if err := h.payments.ReconcileNotification(c.Request.Context(), note); err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// ShippingWebhook ingests a pushed transaction or tracking event.
func (h *Handlers) ShippingWebhook(c *gin.Context) {
	var note shippingports.Notification
	if err := c.ShouldBindJSON(&note); err != nil {
		h.responder.BadRequest(c, "invalid shipping notification payload")
		return
	}
	if err := h.fulfillment.ReconcileShipment(c.Request.Context(), note); err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

type lineItemRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	FlavorID  string  `json:"flavorId"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unitPrice" binding:"gte=0"`
}

type snapshotRequest struct {
	OrderID       string            `json:"orderId" binding:"required"`
	CustomerID    string            `json:"customerId" binding:"required"`
	Total         float64           `json:"total"`
	PaymentStatus string            `json:"paymentStatus"`
	Items         []lineItemRequest `json:"items" binding:"required,dive"`
}

type batchAssessRequest struct {
	Snapshots []snapshotRequest `json:"snapshots" binding:"required,min=1,dive"`
}

type assessmentResponse struct {
	OrderID         string   `json:"orderId"`
	Score           int      `json:"score"`
	Flags           []string `json:"flags"`
	AutoApprove     bool     `json:"autoApprove"`
	Valid           bool     `json:"valid"`
	Recommendations []string `json:"recommendations,omitempty"`
}

func toSnapshot(req snapshotRequest) riskdomain.Snapshot {
	items := make([]riskdomain.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, riskdomain.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return riskdomain.Snapshot{
		OrderID:       req.OrderID,
		CustomerID:    req.CustomerID,
		Total:         req.Total,
		PaymentStatus: req.PaymentStatus,
		Items:         items,
	}
}

func toAssessmentResponse(a riskdomain.Assessment) assessmentResponse {
	return assessmentResponse{
		OrderID:         a.OrderID,
		Score:           a.Score,
		Flags:           a.Flags,
		AutoApprove:     a.AutoApprove,
		Valid:           a.Valid,
		Recommendations: a.Recommendations,
	}
}

// AssessOrder scores a single order snapshot synchronously.
func (h *Handlers) AssessOrder(c *gin.Context) {
	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, "invalid assessment payload")
		return
	}
	verdict := h.assessor.Assess(c.Request.Context(), toSnapshot(req))
	c.JSON(http.StatusOK, toAssessmentResponse(verdict))
}

// BatchAssess scores many order snapshots with bounded concurrency.
func (h *Handlers) BatchAssess(c *gin.Context) {
	var req batchAssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, "invalid batch assessment payload")
		return
	}
	snapshots := make([]riskdomain.Snapshot, 0, len(req.Snapshots))
	for _, snap := range req.Snapshots {
		snapshots = append(snapshots, toSnapshot(snap))
	}
	results := h.assessor.BatchAssess(c.Request.Context(), snapshots)
	out := make(map[string]assessmentResponse, len(results))
	for orderID, verdict := range results {
		out[orderID] = toAssessmentResponse(verdict)
	}
	c.JSON(http.StatusOK, gin.H{"assessments": out})
}

type sweepRequest struct {
	StaleWindowHours int `json:"staleWindowHours"`
}

type sweepResponse struct {
	Fixed        int `json:"fixed"`
	Failed       int `json:"failed"`
	StillPending int `json:"stillPending"`
}

// SweepPayments runs the pull-based payment reconciliation pass.
func (h *Handlers) SweepPayments(c *gin.Context) {
	window := h.staleWindow
	if c.Request.ContentLength > 0 {
		var req sweepRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.responder.BadRequest(c, "invalid sweep payload")
			return
		}
		if req.StaleWindowHours > 0 {
			window = time.Duration(req.StaleWindowHours) * time.Hour
		}
	}
	report, err := h.payments.SweepPendingPayments(c.Request.Context(), window)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sweepResponse{
		Fixed:        report.Fixed,
		Failed:       report.Failed,
		StillPending: report.StillPending,
	})
}

type addressRequest struct {
	Name    string `json:"name"`
	Street1 string `json:"street1" binding:"required"`
	Street2 string `json:"street2"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	Zip     string `json:"zip" binding:"required"`
	Country string `json:"country" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type parcelRequest struct {
	Length float64 `json:"length" binding:"gt=0"`
	Width  float64 `json:"width" binding:"gt=0"`
	Height float64 `json:"height" binding:"gt=0"`
	Weight float64 `json:"weight" binding:"gt=0"`
}

type ratesRequest struct {
	To     addressRequest `json:"to" binding:"required"`
	Parcel parcelRequest  `json:"parcel" binding:"required"`
}

type rateResponse struct {
	ID            string  `json:"id"`
	Carrier       string  `json:"carrier"`
	ServiceLevel  string  `json:"serviceLevel"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	EstimatedDays int     `json:"estimatedDays"`
}

func toDomainAddress(req addressRequest) shippingdomain.Address {
	return shippingdomain.Address{
		Name:    req.Name,
		Street1: req.Street1,
		Street2: req.Street2,
		City:    req.City,
		State:   req.State,
		Zip:     req.Zip,
		Country: req.Country,
		Email:   req.Email,
		Phone:   req.Phone,
	}
}

func toDomainParcel(req parcelRequest) shippingdomain.Parcel {
	return shippingdomain.Parcel{
		Length: req.Length,
		Width:  req.Width,
		Height: req.Height,
		Weight: req.Weight,
	}
}

// ShippingRates quotes carrier options for a destination.
func (h *Handlers) ShippingRates(c *gin.Context) {
	var req ratesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, "invalid rates payload")
		return
	}
	rates, err := h.fulfillment.GetRates(c.Request.Context(), toDomainAddress(req.To), toDomainParcel(req.Parcel))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	out := make([]rateResponse, 0, len(rates))
	for _, rate := range rates {
		out = append(out, rateResponse{
			ID:            rate.ID,
			Carrier:       rate.Carrier,
			ServiceLevel:  rate.ServiceLevel,
			Amount:        rate.Amount,
			Currency:      rate.Currency,
			EstimatedDays: rate.EstimatedDays,
		})
	}
	c.JSON(http.StatusOK, gin.H{"rates": out})
}

type labelRequest struct {
	To     addressRequest `json:"to" binding:"required"`
	Parcel parcelRequest  `json:"parcel" binding:"required"`
	RateID string         `json:"rateId"`
}

type labelResponse struct {
	TransactionID  string `json:"transactionId"`
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	LabelURL       string `json:"labelUrl,omitempty"`
}

// PurchaseLabel buys a shipping label for an order.
func (h *Handlers) PurchaseLabel(c *gin.Context) {
	orderID := c.Param("id")
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, "invalid label payload")
		return
	}
	tx, err := h.labels.PurchaseLabel(c.Request.Context(), shippingports.LabelRequest{
		OrderID: orderID,
		To:      toDomainAddress(req.To),
		Parcel:  toDomainParcel(req.Parcel),
		RateID:  req.RateID,
	})
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, labelResponse{
		TransactionID:  tx.ID,
		Status:         string(tx.Status),
		TrackingNumber: tx.TrackingNumber,
		LabelURL:       tx.LabelURL,
	})
}

type orderResponse struct {
	ID             string            `json:"id"`
	CustomerID     string            `json:"customerId"`
	Total          float64           `json:"total"`
	OrderStatus    string            `json:"orderStatus"`
	PaymentStatus  string            `json:"paymentStatus"`
	ShippingStatus string            `json:"shippingStatus"`
	RiskScore      int               `json:"riskScore"`
	RiskFlags      []string          `json:"riskFlags,omitempty"`
	AutoApproved   bool              `json:"autoApproved"`
	Shipment       *shipmentResponse `json:"shipment,omitempty"`
	ShippingError  string            `json:"shippingError,omitempty"`
	Items          []lineItemRequest `json:"items"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

type shipmentResponse struct {
	ShipmentID     string  `json:"shipmentId"`
	TrackingNumber string  `json:"trackingNumber"`
	TrackingURL    string  `json:"trackingUrl,omitempty"`
	LabelURL       string  `json:"labelUrl,omitempty"`
	Carrier        string  `json:"carrier,omitempty"`
	Service        string  `json:"service,omitempty"`
	Cost           float64 `json:"cost,omitempty"`
}

// GetOrder returns the reconciled view of one order.
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.orders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func toOrderResponse(order *ordersdomain.Order) orderResponse {
	items := make([]lineItemRequest, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, lineItemRequest{
			ProductID: item.ProductID,
			FlavorID:  item.FlavorID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	resp := orderResponse{
		ID:             order.ID,
		CustomerID:     order.CustomerID,
		Total:          order.Total,
		OrderStatus:    string(order.OrderStatus),
		PaymentStatus:  string(order.PaymentStatus),
		ShippingStatus: string(order.ShippingStatus),
		RiskScore:      order.RiskScore,
		RiskFlags:      order.RiskFlags,
		AutoApproved:   order.AutoApproved,
		ShippingError:  order.ShippingError,
		Items:          items,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	if order.Shipment.ShipmentID != "" {
		resp.Shipment = &shipmentResponse{
			ShipmentID:     order.Shipment.ShipmentID,
			TrackingNumber: order.Shipment.TrackingNumber,
			TrackingURL:    order.Shipment.TrackingURL,
			LabelURL:       order.Shipment.LabelURL,
			Carrier:        order.Shipment.Carrier,
			Service:        order.Shipment.Service,
			Cost:           order.Shipment.Cost,
		}
	}
	return resp
}
