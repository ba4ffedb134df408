package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/carenest-app/bookingservice/internal/auth"
	"github.com/carenest-app/bookingservice/internal/booking/domain"
	"github.com/carenest-app/bookingservice/internal/booking/usecase"
	"github.com/carenest-app/bookingservice/internal/log"
	"github.com/carenest-app/bookingservice/internal/pricing"
)

// Server exposes the booking service over HTTP. Admin routes (pricing
// config mutation) require a bearer token; everything else identifies the
// caller through the X-User-ID header the gateway injects.
type Server struct {
	pricing  *usecase.PricingUseCase
	bookings *usecase.BookingUseCase
	payments *usecase.PaymentUseCase
	auth     *auth.Validator
	logger   *zap.Logger
}

func New(pricingUC *usecase.PricingUseCase, bookings *usecase.BookingUseCase, payments *usecase.PaymentUseCase, validator *auth.Validator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		pricing:  pricingUC,
		bookings: bookings,
		payments: payments,
		auth:     validator,
		logger:   logger,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger())
	router.Use(Metrics())

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/pricing/config", s.getPricingConfig)
		api.PUT("/pricing/config", AdminAuth(s.auth), s.replacePricingConfig)
		api.POST("/pricing/calculate", s.calculate)

		api.POST("/bookings", s.createBooking)
		api.GET("/bookings/:id", s.getBooking)
		api.PATCH("/bookings/:id/status", s.updateBookingStatus)

		api.POST("/payments/intent", s.prepareIntent)
		api.POST("/payments/charge", s.charge)
	}

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getPricingConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.pricing.ActiveConfig(c.Request.Context()))
}

func (s *Server) replacePricingConfig(c *gin.Context) {
	var cfg pricing.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, fmt.Errorf("invalid pricing config: %w", err))
		return
	}

	saved, err := s.pricing.ReplaceConfig(c.Request.Context(), cfg)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// calculateRequest is the preview input. Timestamps arrive as strings so
// clients can send either full RFC 3339 or a bare local datetime; an
// inline config, when present, replaces the stored one for this call only.
type calculateRequest struct {
	Age       *int            `json:"age"`
	CareType  string          `json:"care_type"`
	IsPremium bool            `json:"is_premium"`
	Province  string          `json:"province"`
	StartAt   string          `json:"start_at"`
	EndAt     string          `json:"end_at"`
	Hours     *float64        `json:"hours"`
	Config    *pricing.Config `json:"config"`
}

func (s *Server) calculate(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid calculate request: %w", err))
		return
	}

	startAt, err := parseTimestamp(req.StartAt)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid start_at: %w", err))
		return
	}
	endAt, err := parseTimestamp(req.EndAt)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid end_at: %w", err))
		return
	}

	factors := pricing.Factors{
		Age:       req.Age,
		CareType:  req.CareType,
		IsPremium: req.IsPremium,
		Province:  req.Province,
		StartAt:   startAt,
		EndAt:     endAt,
		Hours:     req.Hours,
	}
	c.JSON(http.StatusOK, s.pricing.Quote(c.Request.Context(), factors, req.Config))
}

type createBookingRequest struct {
	ParentID        string `json:"parent_id"`
	ProviderID      string `json:"provider_id"`
	ChildAge        *int   `json:"child_age"`
	CareType        string `json:"care_type"`
	IsPremium       bool   `json:"is_premium"`
	Province        string `json:"province"`
	StartAt         string `json:"start_at"`
	EndAt           string `json:"end_at"`
	PaymentMethodID string `json:"payment_method_id"`
}

func (s *Server) createBooking(c *gin.Context) {
	var body createBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, fmt.Errorf("invalid booking request: %w", err))
		return
	}
	if body.ParentID == "" {
		body.ParentID = callerID(c)
	}

	startAt, err := parseTimestamp(body.StartAt)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid start_at: %w", err))
		return
	}
	endAt, err := parseTimestamp(body.EndAt)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid end_at: %w", err))
		return
	}

	req := &domain.Request{
		ParentID:        body.ParentID,
		ProviderID:      body.ProviderID,
		ChildAge:        body.ChildAge,
		CareType:        body.CareType,
		IsPremium:       body.IsPremium,
		Province:        body.Province,
		StartAt:         startAt,
		EndAt:           endAt,
		PaymentMethodID: body.PaymentMethodID,
	}

	created, err := s.bookings.CreateRequest(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	req, err := s.bookings.GetRequest(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (s *Server) updateBookingStatus(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, fmt.Errorf("invalid status request: %w", err))
		return
	}

	if err := s.bookings.UpdateStatus(c.Request.Context(), id, body.Status); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.fail(c, err)
		} else {
			badRequest(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": body.Status})
}

type paymentRequest struct {
	RequestID       string `json:"request_id"`
	PaymentMethodID string `json:"payment_method_id"`
}

func (s *Server) prepareIntent(c *gin.Context) {
	id, ok := paymentRequestID(c)
	if !ok {
		return
	}

	result, err := s.payments.PrepareIntent(c.Request.Context(), id, callerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) charge(c *gin.Context) {
	var body paymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, fmt.Errorf("invalid charge request: %w", err))
		return
	}
	id, err := uuid.Parse(body.RequestID)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid request_id: %w", err))
		return
	}

	result, err := s.payments.Charge(c.Request.Context(), id, callerID(c), body.PaymentMethodID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// paymentRequestID binds a payment body and validates its request_id
func paymentRequestID(c *gin.Context) (uuid.UUID, bool) {
	var body paymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, fmt.Errorf("invalid payment request: %w", err))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(body.RequestID)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid request_id: %w", err))
		return uuid.Nil, false
	}
	return id, true
}

func bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid booking id: %w", err))
		return uuid.Nil, false
	}
	return id, true
}

// callerID identifies the requesting user. The gateway strips and re-adds
// this header after authenticating, so inside the mesh it is trusted.
func callerID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

// fail maps domain errors onto HTTP statuses
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotPayable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoPaymentMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error(c.Request.Context(), "Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// timestampLayouts are tried in order when parsing client timestamps.
// Clients send either full RFC 3339 or a bare local datetime without zone.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseTimestamp(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", value)
}
