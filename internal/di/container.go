package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/quickfynd/api/internal/payments"
	"github.com/quickfynd/api/internal/platform/config"
	"github.com/quickfynd/api/internal/repositories"
	"github.com/quickfynd/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	CustomerInsights services.CustomerInsightsService
	Shipping         services.ShippingService
	Checkout         services.CheckoutService
	Orders           services.OrderService
	Cart             services.CartService
	Catalog          services.CatalogService
	Content          services.ContentService
	Notifications    services.NotificationService
	System           services.SystemService
}

// Infrastructure carries the external adapters the service layer depends on.
// Optional members may be nil; the container degrades the wiring accordingly.
type Infrastructure struct {
	Payments payments.Provider
	Events   services.OrderEventPublisher
	SMS      services.SMSSender
	Email    services.EmailSender
	Build    services.BuildInfo
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring will provide real
// implementations, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, infra Infrastructure) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(ctx, reg, cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients, background workers, or caches.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(_ context.Context, reg repositories.Registry, cfg config.Config, infra Infrastructure) (Services, error) {
	var svc Services
	if reg == nil {
		return svc, nil
	}

	newID := func() string { return ulid.Make().String() }

	if policies := reg.ShippingPolicies(); policies != nil {
		shippingSvc, err := services.NewShippingService(services.ShippingServiceDeps{
			Policies: policies,
			CacheTTL: cfg.Shipping.QuoteCacheTTL,
			Clock:    time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build shipping service: %w", err)
		}
		svc.Shipping = shippingSvc
	}

	ordersRepo := reg.Orders()
	if ordersRepo != nil && reg.Users() != nil {
		insightsSvc, err := services.NewCustomerInsightsService(services.CustomerInsightsServiceDeps{
			Orders:         ordersRepo,
			Users:          reg.Users(),
			AbandonedCarts: reg.AbandonedCarts(),
			Logger:         infra.Logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build customer insights service: %w", err)
		}
		svc.CustomerInsights = insightsSvc
	}

	if ordersRepo != nil && reg.Counters() != nil && svc.Shipping != nil {
		checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
			Orders:         ordersRepo,
			Counters:       reg.Counters(),
			AbandonedCarts: reg.AbandonedCarts(),
			Shipping:       svc.Shipping,
			Payments:       infra.Payments,
			UnitOfWork:     reg,
			Clock:          time.Now,
			IDGenerator:    newID,
			Events:         infra.Events,
			Logger:         infra.Logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build checkout service: %w", err)
		}
		svc.Checkout = checkoutSvc
	}

	if ordersRepo != nil {
		orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
			Orders: ordersRepo,
			Clock:  time.Now,
			Events: infra.Events,
			Logger: infra.Logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build order service: %w", err)
		}
		svc.Orders = orderSvc
	}

	if cartsRepo := reg.Carts(); cartsRepo != nil {
		cartSvc, err := services.NewCartService(services.CartServiceDeps{
			Carts:           cartsRepo,
			AbandonedCarts:  reg.AbandonedCarts(),
			Clock:           time.Now,
			DefaultCurrency: cfg.Checkout.DefaultCurrency,
			IDGenerator:     newID,
			Logger:          infra.Logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build cart service: %w", err)
		}
		svc.Cart = cartSvc
	}

	if productsRepo := reg.Products(); productsRepo != nil {
		catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
			Products: productsRepo,
			Clock:    time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build catalog service: %w", err)
		}
		svc.Catalog = catalogSvc
	}

	if sectionsRepo := reg.HomeSections(); sectionsRepo != nil {
		contentSvc, err := services.NewContentService(services.ContentServiceDeps{
			Sections:    sectionsRepo,
			Clock:       time.Now,
			IDGenerator: newID,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build content service: %w", err)
		}
		svc.Content = contentSvc
	}

	notificationSvc, err := services.NewNotificationService(services.NotificationServiceDeps{
		SMS:    infra.SMS,
		Email:  infra.Email,
		Logger: infra.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build notification service: %w", err)
	}
	svc.Notifications = notificationSvc

	if healthRepo := reg.Health(); healthRepo != nil {
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            time.Now,
			Build:            infra.Build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}
