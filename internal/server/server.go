package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"circular-storefront/internal/config"
	"circular-storefront/internal/handler"
	authmw "circular-storefront/internal/middleware"
	"circular-storefront/internal/model"
	"circular-storefront/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Services struct {
	Order         service.OrderService
	Intake        service.PaymentIntakeService
	Chat          service.ChatService
	Content       service.ContentService
	Newsletter    service.NewsletterService
	Role          service.RoleService
	PaymentConfig service.PaymentConfigService
	Product       service.ProductService
	Integration   service.IntegrationService
}

type Server struct {
	echo   *echo.Echo
	server *http.Server
	cfg    *config.Config
	log    *zap.Logger
	// cancelBase ends the contexts of open chat streams on shutdown
	cancelBase context.CancelFunc

	roleService        service.RoleService
	orderHandler       *handler.OrderHandler
	webhookHandler     *handler.WebhookHandler
	chatHandler        *handler.ChatHandler
	contentHandler     *handler.ContentHandler
	newsletterHandler  *handler.NewsletterHandler
	adminHandler       *handler.AdminHandler
	productHandler     *handler.ProductHandler
	integrationHandler *handler.IntegrationHandler
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func NewServer(cfg *config.Config, services Services, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSOrigins,
	}))

	base, cancelBase := context.WithCancel(context.Background())

	s := &Server{
		echo: e,
		server: &http.Server{
			Addr:         cfg.HTTP.Host + ":" + cfg.HTTP.Port,
			Handler:      e,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			BaseContext:  func(net.Listener) context.Context { return base },
		},
		cancelBase:         cancelBase,
		cfg:                cfg,
		log:                log,
		roleService:        services.Role,
		orderHandler:       handler.NewOrderHandler(services.Order),
		webhookHandler:     handler.NewWebhookHandler(services.Intake),
		chatHandler:        handler.NewChatHandler(services.Chat, log),
		contentHandler:     handler.NewContentHandler(services.Content),
		newsletterHandler:  handler.NewNewsletterHandler(services.Newsletter),
		adminHandler:       handler.NewAdminHandler(services.Role, services.PaymentConfig),
		productHandler:     handler.NewProductHandler(services.Product),
		integrationHandler: handler.NewIntegrationHandler(services.Integration),
	}

	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- storefront --------
	api.GET("/products", s.productHandler.ListProducts)
	api.GET("/products/:id", s.productHandler.GetProduct)
	api.GET("/content/:page", s.contentHandler.PublicPage)
	api.GET("/orders/track", s.orderHandler.TrackOrder)
	api.POST("/newsletter/subscribe", s.newsletterHandler.Subscribe)
	api.POST("/newsletter/unsubscribe", s.newsletterHandler.Unsubscribe)

	// -------- payment webhooks --------
	webhooks := api.Group("/webhooks")
	webhooks.POST("/stripe", s.webhookHandler.StripeWebhook)
	webhooks.POST("/mobile-money", s.webhookHandler.MobileMoneyWebhook)

	// -------- admin console --------
	admin := api.Group("/admin",
		authmw.JWTAuth(s.cfg.Auth.JWTSecret, s.cfg.Auth.Issuer),
		authmw.RequireRole(s.roleService, s.log, model.RoleAdmin, model.RoleModerator),
	)

	admin.GET("/orders", s.orderHandler.ListOrders)
	admin.GET("/orders/carriers", s.orderHandler.Carriers)
	admin.GET("/orders/:id", s.orderHandler.GetOrder)
	admin.PATCH("/orders/:id/status", s.orderHandler.UpdateStatus)
	admin.PATCH("/orders/:id/tracking", s.orderHandler.UpdateTracking)

	admin.GET("/chat/messages", s.chatHandler.Messages)
	admin.POST("/chat/messages", s.chatHandler.Send)
	admin.GET("/chat/stream", s.chatHandler.Stream)

	admin.GET("/content", s.contentHandler.ListSections)
	admin.GET("/content/schemas", s.contentHandler.Schemas)
	admin.GET("/content/:page/:section", s.contentHandler.GetSection)
	admin.PUT("/content/:page/:section", s.contentHandler.PutSection)

	admin.GET("/subscribers", s.newsletterHandler.ListSubscribers)

	// admin only
	owner := admin.Group("", authmw.RequireRole(s.roleService, s.log, model.RoleAdmin))

	owner.GET("/roles", s.adminHandler.ListRoles)
	owner.POST("/roles", s.adminHandler.AssignRole)
	owner.DELETE("/roles/:id", s.adminHandler.RevokeRole)

	owner.GET("/payment-configs", s.adminHandler.ListPaymentConfigs)
	owner.POST("/payment-configs", s.adminHandler.CreatePaymentConfig)
	owner.POST("/payment-configs/:id/default", s.adminHandler.SetDefaultPaymentConfig)
	owner.DELETE("/payment-configs/:id", s.adminHandler.DeletePaymentConfig)

	integrations := owner.Group("/integrations")
	integrations.POST("/email/test", s.integrationHandler.TestEmail)
	integrations.POST("/email/send", s.integrationHandler.SendEmail)
	integrations.POST("/mailing-list/test", s.integrationHandler.TestMailingList)
	integrations.POST("/mailing-list/sync", s.integrationHandler.SyncMailingList)
	integrations.POST("/mailing-list/send", s.integrationHandler.SendCampaign)
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. It returns
// http.ErrServerClosed after a graceful stop.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
	return s.server.Serve(ln)
}

// Shutdown stops accepting connections, ends open chat streams and waits
// for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancelBase()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
