package tests

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"paybot/internal/app"
	"paybot/internal/handler"
	"paybot/internal/metrics"
	"paybot/internal/service"
)

const testChannel = "@payments"

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	gateway  *MockGateway
	notifier *MockNotifier
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	service  *service.PaymentService
}

func newFixture(defaultAmount int64) *fixture {
	f := &fixture{
		gateway:  NewMockGateway(),
		notifier: NewMockNotifier(),
		registry: prometheus.NewRegistry(),
	}
	f.metrics = metrics.New(f.registry)
	notifications := service.NewNotificationService(f.notifier, testChannel, f.metrics)
	f.service = service.NewPaymentService(f.gateway, notifications, f.metrics, service.PaymentOptions{
		DefaultAmount:  defaultAmount,
		GatewayTimeout: time.Second,
		NotifyTimeout:  time.Second,
	})
	return f
}

func (f *fixture) router() *gin.Engine {
	return app.NewRouter(app.RouterDeps{
		PaymentHandler: handler.NewPaymentHandler(f.service),
		Logger:         zap.NewNop(),
		Metrics:        f.metrics,
		Gatherer:       f.registry,
	})
}

func int64Ptr(v int64) *int64 {
	return &v
}
