package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ytsub/internal/api/controllers"
	"ytsub/internal/models/request_models"
	"ytsub/internal/models/response_models"
	"ytsub/internal/services"
	"ytsub/pkg/utils"
)

type stubPaymentService struct {
	checkout     *response_models.CheckoutResponse
	checkoutErr  error
	outcome      services.NotificationOutcome
	gotTradeRef  string
	reconcile    *response_models.ReconcileResponse
	reconcileErr error
	orderResult  *response_models.OrderResultResponse
}

func (s *stubPaymentService) CreateCheckoutForPlan(_ context.Context, _ uuid.UUID, _ string) (*response_models.CheckoutResponse, error) {
	return s.checkout, s.checkoutErr
}

func (s *stubPaymentService) HandleNotification(_ context.Context, n *request_models.GatewayNotification) services.NotificationOutcome {
	s.gotTradeRef = n.MerchantTradeNo
	return s.outcome
}

func (s *stubPaymentService) Reconcile(_ context.Context, tradeRef string) (*response_models.ReconcileResponse, error) {
	s.gotTradeRef = tradeRef
	return s.reconcile, s.reconcileErr
}

func (s *stubPaymentService) OrderResult(_ context.Context, tradeRef string) (*response_models.OrderResultResponse, error) {
	s.gotTradeRef = tradeRef
	return s.orderResult, nil
}

func newRouter(stub *stubPaymentService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := controllers.NewPaymentController(stub, zap.NewNop())

	r := gin.New()
	r.POST("/ecpay/create", func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		controller.CreateCheckout(c)
	})
	r.POST("/ecpay/return", controller.HandleNotification)
	r.POST("/ecpay/reconcile/:tradeRef", controller.Reconcile)
	r.GET("/ecpay/order_result", controller.OrderResult)
	r.POST("/ecpay/order_result", controller.OrderResult)
	return r
}

func TestCreateCheckout_ReturnsSignedFields(t *testing.T) {
	stub := &stubPaymentService{
		checkout: &response_models.CheckoutResponse{
			TradeRef:   "YTT0826100000AAAAAAA",
			GatewayURL: "https://payment-stage.ecpay.com.tw/Cashier/AioCheckOut/V5",
			Amount:     129,
			Fields:     map[string]string{"MerchantTradeNo": "YTT0826100000AAAAAAA"},
		},
	}
	router := newRouter(stub, uuid.NewString())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ecpay/create", strings.NewReader(`{"plan_code":"MONTHLY"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Status string                           `json:"status"`
		Data   response_models.CheckoutResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, "YTT0826100000AAAAAAA", envelope.Data.TradeRef)
	assert.Equal(t, int64(129), envelope.Data.Amount)
}

func TestCreateCheckout_MissingBody(t *testing.T) {
	router := newRouter(&stubPaymentService{}, uuid.NewString())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ecpay/create", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCheckout_Unauthenticated(t *testing.T) {
	router := newRouter(&stubPaymentService{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ecpay/create", strings.NewReader(`{"plan_code":"MONTHLY"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateCheckout_UnknownPlan(t *testing.T) {
	stub := &stubPaymentService{checkoutErr: utils.ErrInvalidPlan}
	router := newRouter(stub, uuid.NewString())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ecpay/create", strings.NewReader(`{"plan_code":"LIFETIME"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleNotification_SpeaksWireProtocol(t *testing.T) {
	stub := &stubPaymentService{outcome: services.OutcomeAcknowledged}
	router := newRouter(stub, "")

	form := url.Values{}
	form.Set("MerchantTradeNo", "YTT0826100000AAAAAAA")
	form.Set("RtnCode", "1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ecpay/return", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	// Plain text body, no JSON envelope; HTTP 200 regardless of outcome.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1|OK", w.Body.String())
	assert.Equal(t, "YTT0826100000AAAAAAA", stub.gotTradeRef)
}

func TestHandleNotification_UnknownReferenceBody(t *testing.T) {
	stub := &stubPaymentService{outcome: services.OutcomeUnknownReference}
	router := newRouter(stub, "")

	form := url.Values{}
	form.Set("MerchantTradeNo", "YTT0000000000XXXXXXX")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ecpay/return", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0|Unknown MerchantTradeNo", w.Body.String())
}

func TestReconcile_PassesTradeRef(t *testing.T) {
	stub := &stubPaymentService{
		reconcile: &response_models.ReconcileResponse{OK: true, Status: "PAID", Verified: true},
	}
	router := newRouter(stub, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ecpay/reconcile/YTT0826100000AAAAAAA", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "YTT0826100000AAAAAAA", stub.gotTradeRef)

	var result response_models.ReconcileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.OK)
	assert.Equal(t, "PAID", result.Status)
}

func TestReconcile_UnknownOrder(t *testing.T) {
	stub := &stubPaymentService{reconcileErr: utils.ErrOrderNotFound}
	router := newRouter(stub, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ecpay/reconcile/YTT0000000000XXXXXXX", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderResult_QueryParam(t *testing.T) {
	stub := &stubPaymentService{
		orderResult: &response_models.OrderResultResponse{
			Success:  true,
			Message:  "Payment successful, your subscription is active.",
			TradeRef: "YTT0826100000AAAAAAA",
			Status:   "PAID",
		},
	}
	router := newRouter(stub, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ecpay/order_result?MerchantTradeNo=YTT0826100000AAAAAAA", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "YTT0826100000AAAAAAA", stub.gotTradeRef)

	var result response_models.OrderResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
}

func TestOrderResult_FormPost(t *testing.T) {
	stub := &stubPaymentService{
		orderResult: &response_models.OrderResultResponse{Success: false, Message: "Payment status not yet confirmed. The gateway callback may still be on its way."},
	}
	router := newRouter(stub, "")

	form := url.Values{}
	form.Set("MerchantTradeNo", "YTT0826100000AAAAAAA")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ecpay/order_result", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "YTT0826100000AAAAAAA", stub.gotTradeRef)
}
