package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotificationInvalidInput signals a malformed notification command.
var ErrNotificationInvalidInput = errors.New("notifications: invalid input")

// SMSSender delivers a single text message. Implementations wrap a gateway
// such as Twilio; the returned id is the gateway message sid.
type SMSSender interface {
	SendSMS(ctx context.Context, to string, body string) (string, error)
}

// EmailMessage is a rendered outbound email.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// EmailSender delivers transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// NotificationServiceDeps bundles collaborators for the notification service.
// Both senders are optional; an unconfigured channel is skipped, never an error.
type NotificationServiceDeps struct {
	SMS    SMSSender
	Email  EmailSender
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type notificationService struct {
	sms    SMSSender
	email  EmailSender
	logger func(context.Context, string, map[string]any)
}

var _ NotificationService = (*notificationService)(nil)

// NewNotificationService wires the channel senders into a NotificationService.
func NewNotificationService(deps NotificationServiceDeps) (NotificationService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &notificationService{
		sms:    deps.SMS,
		email:  deps.Email,
		logger: logger,
	}, nil
}

func (s *notificationService) NotifyOrderStatus(ctx context.Context, cmd OrderNotificationCommand) (NotificationResult, error) {
	if strings.TrimSpace(cmd.OrderID) == "" {
		return NotificationResult{}, fmt.Errorf("%w: order id is required", ErrNotificationInvalidInput)
	}

	body, subject, ok := composeOrderMessage(cmd)
	if !ok {
		return NotificationResult{}, fmt.Errorf("%w: no message for status %q", ErrNotificationInvalidInput, cmd.Status)
	}

	var result NotificationResult

	phone := strings.TrimSpace(cmd.PhoneNumber)
	switch {
	case s.sms == nil:
		result.SkipReason = "sms gateway not configured"
	case phone == "":
		result.SkipReason = "no phone number on order"
	default:
		sid, err := s.sms.SendSMS(ctx, phone, body)
		if err != nil {
			s.logger(ctx, "notifications.sms.failed", map[string]any{
				"order": cmd.OrderID,
				"error": err.Error(),
			})
		} else {
			result.SMSSent = true
			result.SMSID = sid
		}
	}

	email := strings.TrimSpace(cmd.Email)
	if s.email != nil && email != "" {
		err := s.email.SendEmail(ctx, EmailMessage{
			To:      email,
			Subject: subject,
			Body:    body,
		})
		if err != nil {
			s.logger(ctx, "notifications.email.failed", map[string]any{
				"order": cmd.OrderID,
				"error": err.Error(),
			})
		} else {
			result.EmailSent = true
		}
	}

	if !result.SMSSent && !result.EmailSent && result.SkipReason == "" {
		result.SkipReason = "no reachable channel"
	}

	return result, nil
}

// composeOrderMessage renders the status-keyed customer message. Unknown
// statuses produce no message.
func composeOrderMessage(cmd OrderNotificationCommand) (body string, subject string, ok bool) {
	name := strings.TrimSpace(cmd.CustomerName)
	if name == "" {
		name = "there"
	}
	ref := orderReference(cmd.OrderID)

	switch cmd.Status {
	case OrderStatusPlaced, OrderStatusConfirmed:
		body = fmt.Sprintf(
			"Hi %s! Your order #%s has been placed successfully. Total: %s. We'll notify you once it's shipped. Thank you for shopping with us! - QuickFynd",
			name, ref, formatAmount(cmd.TotalAmount, cmd.Currency),
		)
		return body, "Order Confirmation - #" + ref, true
	case OrderStatusShipped:
		var b strings.Builder
		fmt.Fprintf(&b, "Hi %s! Your order #%s has been shipped", name, ref)
		if courier := strings.TrimSpace(cmd.Courier); courier != "" {
			b.WriteString(" via " + courier)
		}
		if id := strings.TrimSpace(cmd.TrackingID); id != "" {
			b.WriteString(". Tracking ID: " + id)
		}
		if url := strings.TrimSpace(cmd.TrackingURL); url != "" {
			b.WriteString(". Track: " + url)
		}
		b.WriteString(". - QuickFynd")
		return b.String(), "Order Shipped - #" + ref, true
	case OrderStatusDelivered:
		body = fmt.Sprintf(
			"Hi %s! Your order #%s has been delivered. Thank you for shopping with QuickFynd! We hope you love your purchase.",
			name, ref,
		)
		return body, "Order Delivered - #" + ref, true
	case OrderStatusCancelled, OrderStatusRefunded:
		body = fmt.Sprintf(
			"Hi %s! Your order #%s has been cancelled. If you have any questions, please contact our support team. - QuickFynd",
			name, ref,
		)
		return body, "Order Cancelled - #" + ref, true
	}
	return "", "", false
}

// orderReference shortens long internal ids to the last eight characters,
// uppercased, matching the reference shown to customers elsewhere.
func orderReference(orderID string) string {
	id := strings.TrimSpace(orderID)
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}

// formatAmount renders a smallest-unit amount as major units.
func formatAmount(amount int64, currency string) string {
	major := amount / 100
	minor := amount % 100
	if minor < 0 {
		minor = -minor
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return fmt.Sprintf("%d.%02d", major, minor)
	}
	return fmt.Sprintf("%s %d.%02d", currency, major, minor)
}
