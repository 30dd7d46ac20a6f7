package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubmitter struct {
	got ledger.OrderRequest
	res *ledger.Result
	err error
}

func (s *stubSubmitter) SubmitOrder(_ context.Context, req ledger.OrderRequest) (*ledger.Result, error) {
	s.got = req
	return s.res, s.err
}

func newOrderApp(s OrderSubmitter) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, "cashier-1")
		return c.Next()
	})
	app.Post("/orders", NewOrderHandler(s).CreateOrder)
	return app
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	receiptID := uuid.New()

	tests := []struct {
		name            string
		body            string
		res             *ledger.Result
		err             error
		expectedStatus  int
		expectedCode    string
		expectedMessage string
	}{
		{
			name:           "confirmed",
			body:           `{"order_type":"DINE_IN","lines":[{"product_id":5,"quantity":2}]}`,
			res:            &ledger.Result{ReceiptID: receiptID, Total: decimal.RequireFromString("7.00"), NewQuantities: map[uint]int{1: 4}},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid json",
			body:           `{"lines":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "validation",
			body:           `{"order_type":"DINE_IN","lines":[]}`,
			err:            &ledger.ValidationError{Fields: map[string]string{"lines": "failed on min=1"}},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "insufficient stock",
			body:           `{"order_type":"DINE_IN","lines":[{"product_id":5,"quantity":4}]}`,
			err:            &ledger.InsufficientStockError{StockID: 1, Required: 12, Available: 10},
			expectedStatus: http.StatusConflict,
			expectedCode:   "INSUFFICIENT_STOCK",
		},
		{
			name:           "in flight",
			body:           `{"order_type":"DINE_IN","lines":[{"product_id":5,"quantity":1}]}`,
			err:            ledger.ErrOrderInFlight,
			expectedStatus: http.StatusTooManyRequests,
			expectedCode:   "ORDER_IN_FLIGHT",
		},
		{
			name:           "duplicate",
			body:           `{"order_type":"DINE_IN","lines":[{"product_id":5,"quantity":1}]}`,
			err:            &ledger.DuplicateOrderError{OrderKey: "k", ReceiptID: receiptID},
			expectedStatus: http.StatusConflict,
			expectedCode:   "DUPLICATE_ORDER",
		},
		{
			name:           "conflict exhausted",
			body:           `{"order_type":"DINE_IN","lines":[{"product_id":5,"quantity":1}]}`,
			err:             &ledger.ConflictError{Attempts: 3, Err: ledger.ErrConflict},
			expectedStatus:  http.StatusServiceUnavailable,
			expectedCode:    "LEDGER_CONFLICT",
			expectedMessage: msgVerifyInventory,
		},
		{
			name:           "partial failure",
			body:           `{"order_type":"DINE_IN","lines":[{"product_id":5,"quantity":1}]}`,
			err:             &ledger.PartialFailureError{Reference: "r", Stage: ledger.StageReceipt, Err: errors.New("db")},
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    "PARTIAL_FAILURE",
			expectedMessage: msgVerifyInventory,
		},
		{
			name:           "unexpected",
			body:           `{"order_type":"DINE_IN","lines":[{"product_id":5,"quantity":1}]}`,
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSubmitter{res: tt.res, err: tt.err}
			app := newOrderApp(stub)

			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, body["code"])
			}
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, body["error"])
			}
		})
	}
}

func TestOrderHandler_PassesHeadersAndActor(t *testing.T) {
	stub := &stubSubmitter{res: &ledger.Result{}}
	app := newOrderApp(stub)

	req := httptest.NewRequest(http.MethodPost, "/orders",
		bytes.NewBufferString(`{"order_type":"TAKE_OUT","lines":[{"product_id":5,"quantity":1}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSessionID, "till-3")
	req.Header.Set(HeaderIdempotencyKey, "till-3-0007")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, "cashier-1", stub.got.ActorID)
	assert.Equal(t, "till-3", stub.got.SessionID)
	assert.Equal(t, "till-3-0007", stub.got.OrderKey)
	require.Len(t, stub.got.Lines, 1)
	assert.Equal(t, uint(5), stub.got.Lines[0].ProductID)
}
