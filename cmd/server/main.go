package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/billionairedev24/royal-grace-cards/internal/appconfig"
	cartcache "github.com/billionairedev24/royal-grace-cards/internal/cart/cache"
	cartrepo "github.com/billionairedev24/royal-grace-cards/internal/cart/repository"
	cartsvc "github.com/billionairedev24/royal-grace-cards/internal/cart/service"
	"github.com/billionairedev24/royal-grace-cards/internal/catalog"
	"github.com/billionairedev24/royal-grace-cards/internal/checkout"
	h "github.com/billionairedev24/royal-grace-cards/internal/http"
	"github.com/billionairedev24/royal-grace-cards/internal/notification"
	"github.com/billionairedev24/royal-grace-cards/internal/order"
	"github.com/billionairedev24/royal-grace-cards/internal/payment"
)

type Config struct {
	HTTPPort        string
	PublicBaseURL   string
	Environment     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	MigrationsDir    string

	MongoURI string
	MongoDB  string

	RedisAddr string

	KafkaBrokers []string

	StripeAPIBase       string
	StripeAPIKey        string
	StripeWebhookSecret string
	GatewayTimeout      time.Duration
}

func loadConfig() *Config {
	port, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		log.Fatalf("invalid POSTGRES_PORT: %v", err)
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		Environment:     getEnv("APP_ENV", "local"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     port,
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "cards"),
		MigrationsDir:    getEnv("MIGRATIONS_DIR", "migrations"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "cards"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),

		StripeAPIBase:       getEnv("STRIPE_API_BASE", "https://api.stripe.com"),
		StripeAPIKey:        getEnv("STRIPE_API_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		GatewayTimeout:      15 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	creds := &order.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDB,
		MigrationsDirPath: cfg.MigrationsDir,
	}

	orderRepo, err := order.NewPostgresRepository(creds)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer orderRepo.Close()

	if err := orderRepo.RunMigrations(creds); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	catalogRepo := catalog.NewRepository(orderRepo.DB())
	configRepo := appconfig.NewRepository(orderRepo.DB())

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 15*time.Second)
	mongoDB, err := cartrepo.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDB)
	connectCancel()
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}

	cartRepository := cartrepo.NewMongoRepository(mongoDB)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	cartCache := cartcache.NewRedisCache(redisClient)

	cartService := cartsvc.NewCartService(cartRepository, cartCache, catalogRepo)

	gateway := payment.NewStripeClient(cfg.StripeAPIBase, cfg.StripeAPIKey, cfg.GatewayTimeout)
	checkoutService := checkout.NewService(orderRepo, catalogRepo, configRepo, gateway, cfg.PublicBaseURL)

	publisher := notification.NewPublisher(cfg.KafkaBrokers...)
	defer publisher.Close()

	settler := payment.NewSettler(orderRepo, cartService, publisher, cfg.StripeWebhookSecret)
	qrService := payment.NewQRService(orderRepo, configRepo)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	sweeper := cartsvc.NewSweeper(cartRepository)
	go sweeper.Run(rootCtx)

	consumer := notification.NewConsumer(notification.LogMailer{}, cfg.KafkaBrokers...)
	defer consumer.Close()
	go consumer.Run(rootCtx)

	cookie := h.SessionCookie{Secure: cfg.Environment != "local"}

	cartHandler := h.NewCartHandler(cartService, cookie, cfg.RequestTimeout)
	cardsHandler := h.NewCardsHandler(catalogRepo, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(checkoutService, qrService, cookie, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(orderRepo, settler, cfg.RequestTimeout)
	webhookHandler := h.NewWebhookHandler(settler, cfg.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", cardsHandler.List)
			r.Get("/{card_id}", cardsHandler.Get)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{card_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{card_id}", cartHandler.RemoveItem)
		})
		r.Route("/payment", func(r chi.Router) {
			r.Post("/checkout", checkoutHandler.Checkout)
			r.Post("/qr-codes", checkoutHandler.GenerateQRCodes)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListByEmail)
			r.Get("/{order_id}", ordersHandler.Get)
			r.Put("/{order_id}/status", ordersHandler.UpdateStatus)
			r.Post("/{order_id}/tracking", ordersHandler.AddTracking)
			r.Post("/{order_id}/retry-payment", checkoutHandler.RetryPayment)
		})
		r.Post("/webhooks/stripe", webhookHandler.Handle)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	rootCancel()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
