package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"hatid/internal/catalog"
	"hatid/internal/config"
	"hatid/internal/database"
	"hatid/internal/geo"
	"hatid/internal/handlers"
	"hatid/internal/kv"
	"hatid/internal/middleware"
	"hatid/internal/models"
	"hatid/internal/orders"
	"hatid/internal/route"
	"hatid/internal/session"
)

func main() {
	config.Load()

	gateway, err := openGateway()
	if err != nil {
		log.Fatal(err)
	}

	resolver := geo.NewResolver(config.AppEnv.GeocodeBaseURL, "ph")
	estimator := route.NewEstimator(config.AppEnv.RouteBaseURL, config.AppEnv.RouteAPIKey)
	catalogClient := catalog.NewClient(config.AppEnv.CatalogServiceURL)
	orderClient := orders.NewClient(config.AppEnv.OrderServiceURL)
	submitter := orders.NewSubmitter(orderClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager := session.NewManager(ctx, gateway, resolver, orderClient, config.AppEnv.PollInterval)

	r := gin.Default()

	customerAuth := middleware.Auth(config.AppEnv.JWTSecret, models.RoleCustomer)
	riderAuth := middleware.Auth(config.AppEnv.JWTSecret, models.RoleRider)
	anyAuth := middleware.Auth(config.AppEnv.JWTSecret)

	r.GET("/catalog/restaurants", customerAuth, handlers.Restaurants(catalogClient))
	r.GET("/catalog/restaurants/:id/menu", customerAuth, handlers.Menu(catalogClient))

	cartGroup := r.Group("/cart")
	cartGroup.Use(customerAuth)
	{
		cartGroup.GET("", handlers.GetCart(manager))
		cartGroup.POST("/items", handlers.AddCartItem(manager))
		cartGroup.POST("/items/bulk-remove", handlers.BulkRemoveCartItems(manager))
		cartGroup.POST("/items/:id/confirm", handlers.ConfirmCartItem(manager))
		cartGroup.POST("/items/:id/increment", handlers.IncrementCartItem(manager))
		cartGroup.POST("/items/:id/decrement", handlers.DecrementCartItem(manager))
		cartGroup.DELETE("", handlers.ClearCart(manager))
		cartGroup.PUT("/panel", handlers.SetCartPanel(manager))
	}

	r.GET("/address/suggest", customerAuth, handlers.SuggestAddress(manager))
	r.POST("/address/resolve", customerAuth, handlers.ResolveAddress(resolver))
	r.GET("/address/reverse", customerAuth, handlers.ReverseAddress(resolver))
	r.POST("/route/preview", customerAuth, handlers.RoutePreview(manager, estimator))

	r.POST("/checkout", customerAuth, handlers.Checkout(manager, submitter))

	ordersGroup := r.Group("/orders")
	ordersGroup.Use(customerAuth)
	{
		ordersGroup.GET("", handlers.ListOrders(manager))
		ordersGroup.POST("/refresh", handlers.RefreshOrders(manager))
		ordersGroup.POST("/:id/cancel", handlers.CancelOrder(manager))
		ordersGroup.GET("/notifications", handlers.Notifications(manager))
		ordersGroup.POST("/notifications/read", handlers.MarkNotificationsRead(manager))
	}

	courier := r.Group("/courier")
	courier.Use(riderAuth)
	{
		courier.GET("/orders/available", handlers.AvailableOrders(orderClient))
		courier.GET("/orders/accepted", handlers.AcceptedOrders(manager))
		courier.POST("/orders/:id/accept", handlers.AcceptOrder(manager))
		courier.POST("/orders/:id/complete", handlers.CompleteOrder(manager))
	}

	r.POST("/session/logout", anyAuth, handlers.Logout(manager))

	log.Println("listening on :" + config.AppEnv.Port)
	r.Run(":" + config.AppEnv.Port)
}

func openGateway() (kv.Store, error) {
	switch config.AppEnv.KVBackend {
	case "redis":
		store, err := kv.NewRedisStore(config.AppEnv.RedisURL, "hatid", config.AppEnv.SessionTTL)
		if err != nil {
			return nil, err
		}
		log.Println("session gateway: redis")
		return store, nil
	case "memory":
		log.Println("session gateway: memory (non-durable)")
		return kv.NewMemoryStore(), nil
	default:
		client, err := database.Connect(config.AppEnv.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(config.AppEnv.DBName)
		log.Println("MongoDB connected to:", db.Name())
		if err := database.EnsureSessionIndexes(db, config.AppEnv.SessionTTL); err != nil {
			log.Println("⚠️ session index warning:", err)
		}
		return kv.NewMongoStore(db), nil
	}
}
