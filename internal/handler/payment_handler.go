package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/service"
	"github.com/noah-isme/skillhub-api/pkg/response"
)

type paymentService interface {
	Pay(ctx context.Context, actor *models.JWTClaims, req dto.PaymentRequest, meta service.RequestMeta) (*models.PaymentResult, error)
	ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.Payment, error)
	Receipt(ctx context.Context, actor *models.JWTClaims, id string) ([]byte, string, error)
}

// PaymentHandler serves the simulated checkout and receipts.
type PaymentHandler struct {
	service paymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(svc paymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// Pay godoc
// @Summary Pay for a course and enroll
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body dto.PaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope "amount mismatch or already enrolled"
// @Security BearerAuth
// @Router /payments [post]
func (h *PaymentHandler) Pay(c *gin.Context) {
	var req dto.PaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.Pay(c.Request.Context(), claimsFromContext(c), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListMine godoc
// @Summary My payments
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) ListMine(c *gin.Context) {
	items, err := h.service.ListMine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Receipt godoc
// @Summary Download a PDF receipt
// @Tags Payments
// @Produce application/pdf
// @Param id path string true "Payment ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /payments/{id}/receipt [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	body, name, err := h.service.Receipt(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", body)
}
