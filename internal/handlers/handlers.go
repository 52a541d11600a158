package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"kidotrendz/storefront/internal/cache"
	"kidotrendz/storefront/internal/config"
	"kidotrendz/storefront/internal/mail"
	"kidotrendz/storefront/internal/middleware"
	"kidotrendz/storefront/internal/models"
	"kidotrendz/storefront/internal/repository"
	"kidotrendz/storefront/internal/service"
)

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	db      *mongo.Database
	cache   *redis.Client
	users   *repository.UserRepository
	auth    *service.AuthService
	catalog *service.CatalogService
	orders  *service.OrderService
	contact *service.ContactService
}

func NewHandlerSet(log zerolog.Logger, db *mongo.Database, redisClient *redis.Client, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	contactRepo := repository.NewContactRepository(db)

	tokenStore := cache.NewRefreshTokenStore(redisClient, cfg.Security.RefreshTTL)
	featuredCache := cache.NewFeaturedCache(redisClient, cfg.Catalog.FeaturedCacheTTL)

	var mailer mail.Mailer = mail.NopMailer{}
	if smtp := mail.NewSMTPMailer(cfg.SMTP); smtp.Configured() {
		mailer = smtp
	}

	return HandlerSet{
		log:     log,
		cfg:     cfg,
		db:      db,
		cache:   redisClient,
		users:   userRepo,
		auth:    service.NewAuthService(userRepo, tokenStore, cfg, log),
		catalog: service.NewCatalogService(productRepo, featuredCache, log),
		orders:  service.NewOrderService(orderRepo),
		contact: service.NewContactService(contactRepo, mailer, log),
	}
}

// Catalog exposes the catalog service for the cron refresh job.
func (h HandlerSet) Catalog() *service.CatalogService { return h.catalog }

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	authn := middleware.Auth(h.cfg, h.users)
	adminOnly := middleware.RequireRoles(models.UserRoleAdmin)

	auth := router.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", authn, h.Logout)
		auth.GET("/profile", authn, h.Profile)
		auth.PUT("/profile", authn, h.UpdateProfile)
	}

	products := router.Group("/products")
	{
		products.GET("/shop", h.ShopProducts)
		products.GET("/featured", h.FeaturedProducts)
		products.GET("/category/:category", h.ProductsByCategory)
		products.GET("/gender/:gender", h.ProductsByGender)
		products.GET("/recommendations", h.RecommendedProducts)
		products.GET("/:id", h.ProductByID)

		products.GET("", authn, adminOnly, h.ListProducts)
		products.POST("", authn, adminOnly, h.CreateProduct)
		products.PATCH("/:id", authn, adminOnly, h.ToggleFeatured)
		products.DELETE("/:id", authn, adminOnly, h.DeleteProduct)
	}

	cart := router.Group("/cart", authn)
	{
		cart.GET("", h.GetCart)
		cart.PUT("", h.ReplaceCart)
	}

	admin := router.Group("/admin", authn, adminOnly)
	{
		admin.GET("/orders", h.AdminListOrders)
	}

	router.POST("/contact", h.SubmitContact)
	messages := router.Group("/contact-messages", authn, adminOnly)
	{
		messages.GET("", h.ListContactMessages)
		messages.DELETE("/:id", h.DeleteContactMessage)
	}
}
