package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mavvricks/eloque/api"
	"github.com/mavvricks/eloque/config"
	"github.com/mavvricks/eloque/internal/domain"
	"github.com/mavvricks/eloque/internal/middleware"
	"github.com/mavvricks/eloque/internal/service/booking"
	"github.com/mavvricks/eloque/internal/service/payments"
	"github.com/mavvricks/eloque/internal/service/tastings"
)

// Run starts the HTTP server and blocks until the context is canceled
// or the server fails.
func Run(ctx context.Context, cfg *config.Config, bookingSvc booking.BookingUseCase, paymentSvc payments.PaymentUseCase, tastingSvc tastings.TastingUseCase) error {
	router := NewRouter(cfg, bookingSvc, paymentSvc, tastingSvc)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// NewRouter assembles the gin engine with the role-gated route groups.
func NewRouter(cfg *config.Config, bookingSvc booking.BookingUseCase, paymentSvc payments.PaymentUseCase, tastingSvc tastings.TastingUseCase) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	bookingHandler := api.NewBookingHandler(bookingSvc)
	opsHandler := api.NewOpsHandler(bookingSvc)
	paymentHandler := api.NewPaymentHandler(paymentSvc)
	tastingHandler := api.NewTastingHandler(tastingSvc)

	identity := middleware.Identity(cfg.Auth.JWTSecret)

	root := router.Group("/api")

	public := root.Group("/bookings")
	bookingHandler.RegisterPublic(public)

	publicTastings := root.Group("/tastings", middleware.OptionalIdentity(cfg.Auth.JWTSecret))
	tastingHandler.RegisterPublic(publicTastings)

	client := root.Group("/bookings", identity, middleware.RequireRole(domain.RoleClient))
	bookingHandler.Register(client)

	clientTastings := root.Group("/tastings", identity, middleware.RequireRole(domain.RoleClient))
	tastingHandler.Register(clientTastings)

	clientPayments := root.Group("/payments", identity, middleware.RequireRole(domain.RoleClient))
	paymentHandler.RegisterClient(clientPayments)

	ops := root.Group("/ops", identity, middleware.RequireRole(domain.RoleOps))
	opsHandler.Register(ops)

	finance := root.Group("/finance", identity, middleware.RequireRole(domain.RoleFinance))
	paymentHandler.RegisterFinance(finance)

	return router
}
