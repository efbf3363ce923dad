package main

import (
	"context"
	"errors"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-service/internal/config"
	"checkout-service/internal/controllers/http"
	"checkout-service/internal/infra"
	"checkout-service/internal/infra/database"
	"checkout-service/internal/infra/kafka"
	"checkout-service/internal/infra/rabbitmq"
	"checkout-service/internal/infra/settings"
	sqlrepo "checkout-service/internal/repository/sql"
	"checkout-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
)

const pendingCheckoutTTL = 24 * time.Hour

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("db: connect: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost + ":6379",
		DB:           0,
		PoolSize:     200,
		MinIdleConns: 20,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	defer redisClient.Close()

	publisher, closePublisher := newPublisher(cfg)
	defer closePublisher()

	catalog := services.NewCatalogService(sqlrepo.NewProductRepository(db))
	catalog.SetRedisClient(redisClient)

	orders := services.NewOrderService(sqlrepo.NewOrderRepository(db), publisher, services.NewOrderFeed())
	orders.SetRedisClient(redisClient)

	gateway := infra.NewGatewayClient(cfg.GatewayBaseURL, cfg.GatewayAccessToken, cfg.GatewayTimeout)
	if gateway.Sandbox() {
		log.Println("gateway: using test credentials, sandbox checkout URLs enabled")
	}

	store := settings.NewRedisStore(redisClient, pendingCheckoutTTL)
	cart := services.NewCartService(catalog)
	checkout := services.NewCheckoutService(cart, orders, gateway, store, services.CheckoutConfig{
		CurrencyID:      cfg.CurrencyID,
		RedirectBaseURL: cfg.RedirectBaseURL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.WarmupProductIDs) > 0 {
		go func() {
			time.Sleep(5 * time.Second)
			if err := catalog.WarmupProductCache(ctx, cfg.WarmupProductIDs); err != nil {
				log.Printf("Failed to warm up cache: %v", err)
			} else {
				log.Println("Cache warmed up successfully")
			}
		}()
	}

	handler := http.NewHandler(catalog, cart, checkout, orders)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler.RegisterRoutes(r, cfg.JWTSecret)

	srv := &nethttp.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting checkout service on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.ReconcileInterval > 0 {
		reconciler := services.NewReconciler(store, gateway, orders, cfg.ReconcileInterval)
		g.Go(func() error { return reconciler.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		log.Printf("server stopped: %v", err)
	}
	checkout.Wait()
	log.Println("checkout service stopped")
}

// newPublisher picks the event transport from EVENT_BROKER.
func newPublisher(cfg config.Config) (infra.Publisher, func()) {
	switch cfg.EventBroker {
	case "rabbitmq":
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.Exchange)
		if err != nil {
			log.Fatalf("failed to init publisher: %v", err)
		}
		return p, p.Close
	case "kafka":
		p, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.Exchange)
		if err != nil {
			log.Fatalf("failed to init kafka producer: %v", err)
		}
		return p, func() {
			if err := p.Close(); err != nil {
				log.Printf("kafka: close: %v", err)
			}
		}
	default:
		log.Printf("events: broker %q disabled, events are dropped", cfg.EventBroker)
		return infra.NopPublisher{}, func() {}
	}
}
