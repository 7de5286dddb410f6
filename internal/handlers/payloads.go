package handlers

import (
	domain "github.com/quickfynd/api/internal/domain"
)

type addressPayload struct {
	Name       string `json:"name,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func buildAddressPayload(addr *domain.Address) *addressPayload {
	if addr == nil {
		return nil
	}
	return &addressPayload{
		Name:       addr.Name,
		Street:     addr.Street,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
		Phone:      addr.Phone,
	}
}

type orderItemPayload struct {
	ProductID string          `json:"product_id"`
	Product   *productPayload `json:"product,omitempty"`
	UnitPrice int64           `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

type orderPayload struct {
	ID              string             `json:"id"`
	OrderNumber     string             `json:"order_number"`
	StoreID         string             `json:"store_id"`
	UserID          string             `json:"user_id,omitempty"`
	IsGuest         bool               `json:"is_guest"`
	GuestName       string             `json:"guest_name,omitempty"`
	GuestEmail      string             `json:"guest_email,omitempty"`
	GuestPhone      string             `json:"guest_phone,omitempty"`
	Status          string             `json:"status"`
	Currency        string             `json:"currency"`
	Total           int64              `json:"total"`
	ShippingFee     int64              `json:"shipping_fee"`
	PaymentMethod   string             `json:"payment_method"`
	PaymentStatus   string             `json:"payment_status,omitempty"`
	IsPaid          bool               `json:"is_paid"`
	Courier         string             `json:"courier,omitempty"`
	TrackingID      string             `json:"tracking_id,omitempty"`
	TrackingURL     string             `json:"tracking_url,omitempty"`
	Items           []orderItemPayload `json:"items"`
	ShippingAddress *addressPayload    `json:"shipping_address,omitempty"`
	CustomerName    string             `json:"customer_name,omitempty"`
	CustomerEmail   string             `json:"customer_email,omitempty"`
	CreatedAt       string             `json:"created_at,omitempty"`
	UpdatedAt       string             `json:"updated_at,omitempty"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		payload := orderItemPayload{
			ProductID: item.ProductID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
		if item.Product != nil {
			product := buildProductPayload(*item.Product)
			payload.Product = &product
		}
		items = append(items, payload)
	}

	return orderPayload{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		StoreID:         order.StoreID,
		UserID:          order.UserID,
		IsGuest:         order.IsGuest,
		GuestName:       order.GuestName,
		GuestEmail:      order.GuestEmail,
		GuestPhone:      order.GuestPhone,
		Status:          string(order.Status),
		Currency:        order.Currency,
		Total:           order.Total,
		ShippingFee:     order.ShippingFee,
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   order.PaymentStatus,
		IsPaid:          order.IsPaid,
		Courier:         order.Courier,
		TrackingID:      order.TrackingID,
		TrackingURL:     order.TrackingURL,
		Items:           items,
		ShippingAddress: buildAddressPayload(order.ShippingAddress),
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		CreatedAt:       formatTime(order.CreatedAt),
		UpdatedAt:       formatTime(order.UpdatedAt),
	}
}

type productPayload struct {
	ID            string   `json:"id"`
	StoreID       string   `json:"store_id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description,omitempty"`
	MRP           int64    `json:"mrp"`
	Price         int64    `json:"price"`
	Currency      string   `json:"currency"`
	Images        []string `json:"images,omitempty"`
	Category      string   `json:"category,omitempty"`
	SKU           string   `json:"sku,omitempty"`
	InStock       bool     `json:"in_stock"`
	StockQuantity int      `json:"stock_quantity"`
	FastDelivery  bool     `json:"fast_delivery"`
	AllowReturn   bool     `json:"allow_return"`
	CreatedAt     string   `json:"created_at,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
}

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:            product.ID,
		StoreID:       product.StoreID,
		Name:          product.Name,
		Slug:          product.Slug,
		Description:   product.Description,
		MRP:           product.MRP,
		Price:         product.Price,
		Currency:      product.Currency,
		Images:        product.Images,
		Category:      product.Category,
		SKU:           product.SKU,
		InStock:       product.InStock,
		StockQuantity: product.StockQuantity,
		FastDelivery:  product.FastDelivery,
		AllowReturn:   product.AllowReturn,
		CreatedAt:     formatTime(product.CreatedAt),
		UpdatedAt:     formatTime(product.UpdatedAt),
	}
}

type cartItemPayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type cartPayload struct {
	ID        string            `json:"id"`
	StoreID   string            `json:"store_id"`
	UserID    string            `json:"user_id"`
	Currency  string            `json:"currency"`
	Items     []cartItemPayload `json:"items"`
	UpdatedAt string            `json:"updated_at,omitempty"`
}

func buildCartPayload(cart domain.Cart) cartPayload {
	items := make([]cartItemPayload, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return cartPayload{
		ID:        cart.ID,
		StoreID:   cart.StoreID,
		UserID:    cart.UserID,
		Currency:  cart.Currency,
		Items:     items,
		UpdatedAt: formatTime(cart.UpdatedAt),
	}
}

type sectionPayload struct {
	ID         string   `json:"id"`
	Section    string   `json:"section"`
	Title      string   `json:"title,omitempty"`
	Subtitle   string   `json:"subtitle,omitempty"`
	Category   string   `json:"category,omitempty"`
	Tag        string   `json:"tag,omitempty"`
	ProductIDs []string `json:"product_ids,omitempty"`
	GridSize   int      `json:"grid_size,omitempty"`
	Layout     string   `json:"layout,omitempty"`
	CTAText    string   `json:"cta_text,omitempty"`
	CTALink    string   `json:"cta_link,omitempty"`
	Visible    bool     `json:"visible"`
	SortOrder  int      `json:"sort_order"`
	CreatedAt  string   `json:"created_at,omitempty"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
}

func buildSectionPayload(section domain.HomeSection) sectionPayload {
	return sectionPayload{
		ID:         section.ID,
		Section:    section.Section,
		Title:      section.Title,
		Subtitle:   section.Subtitle,
		Category:   section.Category,
		Tag:        section.Tag,
		ProductIDs: section.ProductIDs,
		GridSize:   section.GridSize,
		Layout:     section.Layout,
		CTAText:    section.CTAText,
		CTALink:    section.CTALink,
		Visible:    section.Visible,
		SortOrder:  section.SortOrder,
		CreatedAt:  formatTime(section.CreatedAt),
		UpdatedAt:  formatTime(section.UpdatedAt),
	}
}

type shippingPolicyPayload struct {
	StoreID         string `json:"store_id"`
	Enabled         bool   `json:"enabled"`
	Strategy        string `json:"strategy"`
	FlatRate        int64  `json:"flat_rate"`
	FreeShippingMin *int64 `json:"free_shipping_min,omitempty"`
	PerItemFee      int64  `json:"per_item_fee"`
	MaxItemFee      *int64 `json:"max_item_fee,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

func buildShippingPolicyPayload(policy domain.ShippingPolicy) shippingPolicyPayload {
	return shippingPolicyPayload{
		StoreID:         policy.StoreID,
		Enabled:         policy.Enabled,
		Strategy:        string(policy.Strategy),
		FlatRate:        policy.FlatRate,
		FreeShippingMin: policy.FreeShippingMin,
		PerItemFee:      policy.PerItemFee,
		MaxItemFee:      policy.MaxItemFee,
		UpdatedAt:       formatTime(policy.UpdatedAt),
	}
}

type customerOrderPayload struct {
	ID        string `json:"id"`
	Total     int64  `json:"total"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
	Items     string `json:"items,omitempty"`
}

func buildCustomerOrderPayloads(orders []domain.CustomerOrder) []customerOrderPayload {
	out := make([]customerOrderPayload, 0, len(orders))
	for _, order := range orders {
		out = append(out, customerOrderPayload{
			ID:        order.ID,
			Total:     order.Total,
			Status:    string(order.Status),
			CreatedAt: formatTime(order.CreatedAt),
			Items:     order.Items,
		})
	}
	return out
}

type abandonedCartPayload struct {
	ID         string            `json:"id"`
	StoreID    string            `json:"store_id"`
	UserID     string            `json:"user_id"`
	Items      []cartItemPayload `json:"items"`
	Subtotal   int64             `json:"subtotal"`
	LastSeenAt string            `json:"last_seen_at,omitempty"`
	CreatedAt  string            `json:"created_at,omitempty"`
}

func buildAbandonedCartPayload(cart *domain.AbandonedCart) *abandonedCartPayload {
	if cart == nil {
		return nil
	}
	items := make([]cartItemPayload, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return &abandonedCartPayload{
		ID:         cart.ID,
		StoreID:    cart.StoreID,
		UserID:     cart.UserID,
		Items:      items,
		Subtotal:   cart.Subtotal,
		LastSeenAt: formatTime(cart.LastSeenAt),
		CreatedAt:  formatTime(cart.CreatedAt),
	}
}
