package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	domain "github.com/quickfynd/api/internal/domain"
	"github.com/quickfynd/api/internal/repositories"
)

const (
	// missingProductName substitutes for line items whose product was removed
	// from the catalog after the order was placed.
	missingProductName = "Product"

	fallbackCustomerName = "Unknown Customer"
	fallbackGuestName    = "Guest"
	fallbackEmail        = "No email"
)

var (
	// ErrCustomerNotFound indicates the referenced customer identity record does not exist.
	ErrCustomerNotFound = errors.New("customer insights: customer not found")
	// ErrCustomerStoreRequired signals a missing store scope.
	ErrCustomerStoreRequired = errors.New("customer insights: store id is required")
)

// CustomerInsightsServiceDeps bundles collaborators for the insights service.
type CustomerInsightsServiceDeps struct {
	Orders         repositories.OrderRepository
	Users          repositories.UserRepository
	AbandonedCarts repositories.AbandonedCartRepository
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type customerInsightsService struct {
	orders         repositories.OrderRepository
	users          repositories.UserRepository
	abandonedCarts repositories.AbandonedCartRepository
	logger         func(context.Context, string, map[string]any)
}

var _ CustomerInsightsService = (*customerInsightsService)(nil)

// NewCustomerInsightsService wires repositories into a CustomerInsightsService.
func NewCustomerInsightsService(deps CustomerInsightsServiceDeps) (CustomerInsightsService, error) {
	if deps.Orders == nil {
		return nil, errors.New("customer insights service: order repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("customer insights service: user repository is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &customerInsightsService{
		orders:         deps.Orders,
		users:          deps.Users,
		abandonedCarts: deps.AbandonedCarts,
		logger:         logger,
	}, nil
}

func (s *customerInsightsService) ListCustomers(ctx context.Context, storeID string) ([]CustomerSummary, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, ErrCustomerStoreRequired
	}

	orders, err := s.orders.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	summaries := AggregateCustomers(orders)

	for _, summary := range summaries {
		if summary.TotalSpent < 0 {
			// Negative spend means an upstream data defect; surface it in the
			// logs without failing the listing.
			s.logger(ctx, "customer_rollup_negative_spend", map[string]any{
				"storeId":  storeID,
				"customer": summary.Identity.String(),
				"spent":    summary.TotalSpent,
			})
		}
	}

	return summaries, nil
}

// AggregateCustomers folds orders into per-customer summaries keyed by their
// resolved identity, sorted by total spend descending. Ties preserve the
// relative input order, so callers passing orders newest-first get
// most-recently-active customers first within a tie.
//
// The fold is insensitive to input ordering for correctness: first/last order
// dates compare timestamps rather than trusting arrival order, and totals are
// plain sums. Every input order lands in exactly one summary's order list.
func AggregateCustomers(orders []Order) []CustomerSummary {
	index := make(map[CustomerIdentity]int, len(orders))
	summaries := make([]CustomerSummary, 0, len(orders))

	for _, order := range orders {
		identity := domain.ResolveIdentity(order)

		pos, seen := index[identity]
		if !seen {
			pos = len(summaries)
			index[identity] = pos
			summaries = append(summaries, seedSummary(identity, order))
		}

		summary := &summaries[pos]
		summary.TotalOrders++
		summary.TotalSpent += order.Total
		if order.CreatedAt.Before(summary.FirstOrderDate) {
			summary.FirstOrderDate = order.CreatedAt
		}
		if order.CreatedAt.After(summary.LastOrderDate) {
			summary.LastOrderDate = order.CreatedAt
		}
		summary.Orders = append(summary.Orders, buildCustomerOrder(order))
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalSpent > summaries[j].TotalSpent
	})

	return summaries
}

func seedSummary(identity CustomerIdentity, order Order) CustomerSummary {
	summary := CustomerSummary{
		Identity:       identity,
		IsGuest:        identity.IsGuest(),
		FirstOrderDate: order.CreatedAt,
		LastOrderDate:  order.CreatedAt,
	}

	if identity.IsGuest() {
		summary.Name = fallbackGuestName
		if name := strings.TrimSpace(order.GuestName); name != "" {
			summary.Name = name
		}
		summary.Email = fallbackEmail
		if email := strings.TrimSpace(order.GuestEmail); email != "" {
			summary.Email = email
		}
		return summary
	}

	summary.Name = fallbackCustomerName
	if name := strings.TrimSpace(order.CustomerName); name != "" {
		summary.Name = name
	}
	summary.Email = fallbackEmail
	if email := strings.TrimSpace(order.CustomerEmail); email != "" {
		summary.Email = email
	}
	summary.Image = order.CustomerImage
	return summary
}

// buildCustomerOrder projects an order into its dashboard record, serializing
// the line items to JSON the way the dashboard consumes them.
func buildCustomerOrder(order Order) CustomerOrder {
	return CustomerOrder{
		ID:        order.ID,
		Total:     order.Total,
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
		Items:     serializeOrderItems(order.Items),
	}
}

type orderItemSnapshot struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

func serializeOrderItems(items []OrderItem) string {
	snapshots := make([]orderItemSnapshot, len(items))
	for i, item := range items {
		name := missingProductName
		if item.Product != nil && strings.TrimSpace(item.Product.Name) != "" {
			name = item.Product.Name
		}
		snapshots[i] = orderItemSnapshot{
			Name:     name,
			Price:    item.UnitPrice,
			Quantity: item.Quantity,
		}
	}
	// Marshalling a slice of plain structs cannot fail.
	data, _ := json.Marshal(snapshots)
	return string(data)
}

func (s *customerInsightsService) GetCustomerDetail(ctx context.Context, storeID string, customerID string) (CustomerDetail, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return CustomerDetail{}, ErrCustomerStoreRequired
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return CustomerDetail{}, ErrCustomerNotFound
	}

	profile, err := s.users.FindByID(ctx, customerID)
	if err != nil {
		if isRepoNotFound(err) {
			return CustomerDetail{}, ErrCustomerNotFound
		}
		return CustomerDetail{}, err
	}

	orders, err := s.orders.ListByCustomer(ctx, storeID, customerID)
	if err != nil {
		return CustomerDetail{}, err
	}

	detail := CustomerDetail{
		ID:    profile.ID,
		Name:  profile.Name,
		Email: profile.Email,
		Image: profile.Image,
	}

	var totalSpent int64
	records := make([]CustomerOrder, len(orders))
	for i, order := range orders {
		totalSpent += order.Total
		records[i] = buildCustomerOrder(order)
	}

	detail.TotalOrders = len(orders)
	detail.TotalSpent = totalSpent
	detail.AverageOrderValue = averageOrderValue(totalSpent, len(orders))
	detail.Orders = records

	if len(orders) > 0 {
		// ListByCustomer returns newest-first, so the boundaries sit at the
		// list ends.
		last := orders[0].CreatedAt
		first := orders[len(orders)-1].CreatedAt
		detail.LastOrderDate = &last
		detail.FirstOrderDate = &first
	}

	if s.abandonedCarts != nil {
		cart, err := s.abandonedCarts.FindByCustomer(ctx, storeID, customerID)
		switch {
		case err == nil:
			detail.AbandonedCart = &cart
		case isRepoNotFound(err):
			// No abandoned cart is the normal case.
		default:
			return CustomerDetail{}, err
		}
	}

	return detail, nil
}

// averageOrderValue rounds half away from zero, matching how the dashboard has
// always displayed averages (166.5 rounds to 167).
func averageOrderValue(totalSpent int64, totalOrders int) int64 {
	if totalOrders <= 0 {
		return 0
	}
	n := int64(totalOrders)
	if totalSpent >= 0 {
		return (totalSpent + n/2) / n
	}
	return -((-totalSpent + n/2) / n)
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}
