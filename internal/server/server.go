package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/market-backend/internal/auth"
	"github.com/shinyyama/market-backend/internal/cache"
	"github.com/shinyyama/market-backend/internal/config"
	"github.com/shinyyama/market-backend/internal/events"
	"github.com/shinyyama/market-backend/internal/handler"
	"github.com/shinyyama/market-backend/internal/mailer"
	"github.com/shinyyama/market-backend/internal/media"
	appmw "github.com/shinyyama/market-backend/internal/middleware"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/repository"
	"github.com/shinyyama/market-backend/internal/service"
	"gorm.io/gorm"
)

// Deps are the collaborators built by main.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Cache     cache.Cache
	Media     media.Store
	Mailer    mailer.Mailer
	Social    auth.SocialVerifier
	Events    events.Publisher
	SHA       string
	BuildTime string
}

type Server struct {
	e *echo.Echo
}

func New(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Validator = handler.Validator{}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.HeaderAccessToken, appmw.HeaderRefreshToken},
		ExposeHeaders:    []string{appmw.HeaderAccessToken},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(d.Config.Origin),
	}))

	userRepo := repository.NewUserRepository(d.DB)
	categoryRepo := repository.NewCategoryRepository(d.DB)
	productRepo := repository.NewProductRepository(d.DB)
	orderRepo := repository.NewOrderRepository(d.DB)
	paymentRepo := repository.NewPaymentRepository(d.DB)
	reviewRepo := repository.NewReviewRepository(d.DB)
	notifRepo := repository.NewNotificationRepository(d.DB)

	tokens := auth.NewTokenManager(d.Config)
	sessions := auth.NewSessionStore(d.Cache, d.Config.RefreshTokenTTL)
	authMw := appmw.NewAuthMiddleware(tokens, sessions, d.Config.CookieSecure)

	notifySvc := service.NewNotificationService(notifRepo)
	authSvc := service.NewAuthService(service.AuthDeps{
		Users:    userRepo,
		Tokens:   tokens,
		Sessions: sessions,
		Grants:   auth.NewGrantStore(d.Cache),
		Mailer:   d.Mailer,
		Social:   d.Social,
	})
	userSvc := service.NewUserService(userRepo, notifRepo, sessions, d.Media, notifySvc)
	categorySvc := service.NewCategoryService(categoryRepo, d.Cache)
	productSvc := service.NewProductService(service.ProductDeps{
		Products:      productRepo,
		Categories:    categoryRepo,
		Orders:        orderRepo,
		Payments:      paymentRepo,
		Reviews:       reviewRepo,
		Notifications: notifRepo,
		Media:         d.Media,
		Cache:         d.Cache,
		Notify:        notifySvc,
	})
	orderSvc := service.NewOrderService(service.OrderDeps{
		Orders:        orderRepo,
		Products:      productRepo,
		Users:         userRepo,
		Payments:      paymentRepo,
		Notifications: notifRepo,
		Notify:        notifySvc,
		Events:        d.Events,
		Producer:      d.Config.ServiceName,
	})
	paymentSvc := service.NewPaymentService(service.PaymentDeps{
		Payments: paymentRepo,
		Orders:   orderRepo,
		Users:    userRepo,
		Notify:   notifySvc,
		Events:   d.Events,
		Producer: d.Config.ServiceName,
	})
	reviewSvc := service.NewReviewService(reviewRepo, orderRepo, productRepo, d.Cache, notifySvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    d.SHA,
			"build_time": d.BuildTime,
		})
	})

	Routes(e.Group("/api/v1"), authMw, Handlers{
		Auth:         handler.NewAuthHandler(authSvc, authMw),
		User:         handler.NewUserHandler(userSvc),
		Category:     handler.NewCategoryHandler(categorySvc),
		Product:      handler.NewProductHandler(productSvc),
		Order:        handler.NewOrderHandler(orderSvc),
		Payment:      handler.NewPaymentHandler(paymentSvc),
		Review:       handler.NewReviewHandler(reviewSvc),
		Notification: handler.NewNotificationHandler(notifySvc),
	})

	return &Server{e: e}
}

type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Category     *handler.CategoryHandler
	Product      *handler.ProductHandler
	Order        *handler.OrderHandler
	Payment      *handler.PaymentHandler
	Review       *handler.ReviewHandler
	Notification *handler.NotificationHandler
}

// Routes mounts the API on api.
func Routes(api *echo.Group, authMw *appmw.AuthMiddleware, h Handlers) {
	requireAuth := authMw.RequireAuth
	admin := appmw.RequireRoles(model.RoleAdmin)
	sellerOnly := appmw.RequireRoles(model.RoleSeller)
	sellerOrAdmin := appmw.RequireRoles(model.RoleSeller, model.RoleAdmin)

	a := api.Group("/auth")
	a.POST("/registration", h.Auth.Register)
	a.POST("/activate-user", h.Auth.Activate)
	a.POST("/login", h.Auth.Login)
	a.POST("/social-auth", h.Auth.SocialAuth)
	a.POST("/forgot-password", h.Auth.ForgotPassword)
	a.POST("/forgot-password-verify", h.Auth.VerifyResetOTP)
	a.PUT("/reset-password", h.Auth.ResetPassword)
	a.GET("/logout", h.Auth.Logout, requireAuth)

	u := api.Group("/users", requireAuth)
	u.GET("/me", h.User.Me)
	u.PUT("/update-user-info", h.User.UpdateInfo)
	u.PUT("/update-user-password", h.User.UpdatePassword)
	u.PUT("/update-user-avatar", h.User.UpdateAvatar)
	u.PUT("/become-seller", h.User.BecomeSeller)
	u.GET("/get-users", h.User.List, admin)
	u.PUT("/update-user", h.User.UpdateRole, admin)
	u.DELETE("/delete-user/:id", h.User.Delete, admin)

	cat := api.Group("/categories")
	cat.GET("", h.Category.List)
	cat.GET("/:id", h.Category.Get)
	cat.POST("/create", h.Category.Create, requireAuth, admin)
	cat.PUT("/:id", h.Category.Update, requireAuth, admin)
	cat.DELETE("/:id", h.Category.Delete, requireAuth, admin)

	p := api.Group("/products")
	p.GET("", h.Product.List)
	p.GET("/search", h.Product.Search)
	p.GET("/category/:categoryId", h.Product.ListByCategory)
	p.GET("/seller/mine", h.Product.ListMine, requireAuth, sellerOnly)
	p.GET("/:id", h.Product.Get)
	p.POST("/create", h.Product.Create, requireAuth, sellerOnly)
	p.PUT("/:id", h.Product.Update, requireAuth, sellerOnly)
	p.PATCH("/:id/availability", h.Product.ToggleAvailability, requireAuth, sellerOnly)
	p.DELETE("/:id", h.Product.Delete, requireAuth, sellerOrAdmin)

	o := api.Group("/orders", requireAuth)
	o.POST("/create", h.Order.Create)
	o.GET("/user", h.Order.ListMine)
	o.GET("/all", h.Order.ListAll, admin)
	o.GET("/:id", h.Order.Get)
	o.PUT("/:id/status", h.Order.UpdateStatus)
	o.PUT("/:id/progress", h.Order.UpdateProgress, admin)
	o.PUT("/:id", h.Order.AdminUpdate, admin)
	o.DELETE("/:id", h.Order.Delete, admin)

	pay := api.Group("/payments", requireAuth)
	pay.POST("/create", h.Payment.Create)
	pay.GET("/user", h.Payment.ListMine)
	pay.GET("/order/:orderId", h.Payment.GetByOrder)
	pay.GET("/all", h.Payment.ListAll, admin)
	pay.PATCH("/:id/status", h.Payment.UpdateStatus, admin)
	pay.DELETE("/:id", h.Payment.Delete, admin)

	r := api.Group("/reviews")
	r.POST("/create", h.Review.Create, requireAuth)
	r.GET("/product/:productId", h.Review.ListByProduct)

	n := api.Group("/notifications", requireAuth)
	n.POST("/create", h.Notification.Create)
	n.GET("/user/:userId", h.Notification.ListByUser)
	n.PUT("/read-all", h.Notification.MarkAllRead)
	n.PUT("/:id/read", h.Notification.MarkRead)
	n.DELETE("/purge", h.Notification.Purge, admin)
}

// allowOrigin accepts the configured origins plus any local development host.
func allowOrigin(origins []string) func(string) (bool, error) {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")] = struct{}{}
	}
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if _, ok := allowed[low]; ok {
			return true, nil
		}
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		return false, nil
	}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.e
}
