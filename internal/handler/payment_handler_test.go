package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/service"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

type fakePaymentSrv struct {
	req        dto.PaymentRequest
	payErr     error
	receiptErr error
}

func (f *fakePaymentSrv) Pay(_ context.Context, actor *models.JWTClaims, req dto.PaymentRequest, _ service.RequestMeta) (*models.PaymentResult, error) {
	if f.payErr != nil {
		return nil, f.payErr
	}
	f.req = req
	return &models.PaymentResult{Payment: models.Payment{ID: "pay-1", StudentID: actor.UserID, Amount: *req.Amount, TransactionID: "TXN-1"}}, nil
}

func (f *fakePaymentSrv) ListMine(context.Context, *models.JWTClaims) ([]models.Payment, error) {
	return []models.Payment{}, nil
}

func (f *fakePaymentSrv) Receipt(context.Context, *models.JWTClaims, string) ([]byte, string, error) {
	if f.receiptErr != nil {
		return nil, "", f.receiptErr
	}
	return []byte("%PDF-1.3"), "receipt_TXN-1.pdf", nil
}

func TestPaymentHandlerPayParsesDecimalAmount(t *testing.T) {
	srv := &fakePaymentSrv{}
	handler := NewPaymentHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/payments", jsonBody(t, map[string]string{
		"course": "7f1c9a52-2c1e-4b8e-9a51-3f1c2b7d9e10", "amount": "49.99", "payment_method": "MOCK_WALLET",
	}))
	withClaims(c, "stu-1", models.RoleStudent)
	handler.Pay(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, srv.req.Amount)
	assert.Equal(t, models.Money(4999), *srv.req.Amount)
	assert.Equal(t, models.PaymentMethod("MOCK_WALLET"), srv.req.PaymentMethod)
}

func TestPaymentHandlerAmountMismatch(t *testing.T) {
	handler := NewPaymentHandler(&fakePaymentSrv{payErr: appErrors.ErrAmountMismatch})

	c, rec := newTestContext(http.MethodPost, "/payments", jsonBody(t, map[string]string{"course": "x", "amount": "1.00", "payment_method": "MOCK_WALLET"}))
	withClaims(c, "stu-1", models.RoleStudent)
	handler.Pay(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, "AMOUNT_MISMATCH", env.Error.Code)
	}
}

func TestPaymentHandlerReceiptStreamsPDF(t *testing.T) {
	handler := NewPaymentHandler(&fakePaymentSrv{})

	c, rec := newTestContext(http.MethodGet, "/payments/pay-1/receipt", nil)
	c.AddParam("id", "pay-1")
	withClaims(c, "stu-1", models.RoleStudent)
	handler.Receipt(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="receipt_TXN-1.pdf"`)
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}

func TestPaymentHandlerReceiptNotFound(t *testing.T) {
	handler := NewPaymentHandler(&fakePaymentSrv{receiptErr: appErrors.ErrNotFound})

	c, rec := newTestContext(http.MethodGet, "/payments/missing/receipt", nil)
	c.AddParam("id", "missing")
	withClaims(c, "stu-1", models.RoleStudent)
	handler.Receipt(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
