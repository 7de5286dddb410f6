package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quickfynd/api/internal/domain"
)

type fakeSMSSender struct {
	to   string
	body string
	sid  string
	err  error
}

func (f *fakeSMSSender) SendSMS(ctx context.Context, to string, body string) (string, error) {
	f.to = to
	f.body = body
	if f.err != nil {
		return "", f.err
	}
	return f.sid, nil
}

type fakeEmailSender struct {
	msg EmailMessage
	err error
}

func (f *fakeEmailSender) SendEmail(ctx context.Context, msg EmailMessage) error {
	f.msg = msg
	return f.err
}

func newNotificationServiceForTest(t *testing.T, deps NotificationServiceDeps) NotificationService {
	t.Helper()
	svc, err := NewNotificationService(deps)
	if err != nil {
		t.Fatalf("NewNotificationService returned error: %v", err)
	}
	return svc
}

func TestNotifyOrderStatusConfirmationBothChannels(t *testing.T) {
	sms := &fakeSMSSender{sid: "SM123"}
	email := &fakeEmailSender{}
	svc := newNotificationServiceForTest(t, NotificationServiceDeps{SMS: sms, Email: email})

	result, err := svc.NotifyOrderStatus(context.Background(), OrderNotificationCommand{
		OrderID:      "01hx4k9v2w3e4r5t",
		Status:       domain.OrderStatusPlaced,
		CustomerName: "Ann",
		PhoneNumber:  "+919876543210",
		Email:        "ann@example.com",
		TotalAmount:  123450,
		Currency:     "INR",
	})
	if err != nil {
		t.Fatalf("NotifyOrderStatus returned error: %v", err)
	}
	if !result.SMSSent || result.SMSID != "SM123" {
		t.Fatalf("expected sms to be sent, got %+v", result)
	}
	if !result.EmailSent {
		t.Fatalf("expected email to be sent, got %+v", result)
	}
	if sms.to != "+919876543210" {
		t.Fatalf("unexpected sms recipient %q", sms.to)
	}
	if !strings.Contains(sms.body, "Hi Ann!") || !strings.Contains(sms.body, "placed successfully") {
		t.Fatalf("unexpected sms body %q", sms.body)
	}
	if !strings.Contains(sms.body, "INR 1234.50") {
		t.Fatalf("expected major-unit amount in body, got %q", sms.body)
	}
	if !strings.Contains(sms.body, "#2W3E4R5T") {
		// Reference is the uppercased last eight characters of the id.
		t.Fatalf("expected short order reference in body %q", sms.body)
	}
	if !strings.HasPrefix(email.msg.Subject, "Order Confirmation - #") {
		t.Fatalf("unexpected email subject %q", email.msg.Subject)
	}
}

func TestNotifyOrderStatusShippedIncludesTracking(t *testing.T) {
	sms := &fakeSMSSender{sid: "SM9"}
	svc := newNotificationServiceForTest(t, NotificationServiceDeps{SMS: sms})

	_, err := svc.NotifyOrderStatus(context.Background(), OrderNotificationCommand{
		OrderID:      "ord-1",
		Status:       domain.OrderStatusShipped,
		CustomerName: "Bea",
		PhoneNumber:  "+15550001111",
		Courier:      "BlueDart",
		TrackingID:   "BD42",
		TrackingURL:  "https://track.example/BD42",
	})
	if err != nil {
		t.Fatalf("NotifyOrderStatus returned error: %v", err)
	}
	for _, want := range []string{"has been shipped via BlueDart", "Tracking ID: BD42", "Track: https://track.example/BD42"} {
		if !strings.Contains(sms.body, want) {
			t.Fatalf("expected %q in body %q", want, sms.body)
		}
	}
}

func TestNotifyOrderStatusShippedOmitsMissingTrackingParts(t *testing.T) {
	sms := &fakeSMSSender{}
	svc := newNotificationServiceForTest(t, NotificationServiceDeps{SMS: sms})

	if _, err := svc.NotifyOrderStatus(context.Background(), OrderNotificationCommand{
		OrderID:     "ord-1",
		Status:      domain.OrderStatusShipped,
		PhoneNumber: "+15550001111",
	}); err != nil {
		t.Fatalf("NotifyOrderStatus returned error: %v", err)
	}
	if strings.Contains(sms.body, "via") || strings.Contains(sms.body, "Tracking") {
		t.Fatalf("expected bare shipped message, got %q", sms.body)
	}
}

func TestNotifyOrderStatusSkipsWhenUnconfigured(t *testing.T) {
	svc := newNotificationServiceForTest(t, NotificationServiceDeps{})

	result, err := svc.NotifyOrderStatus(context.Background(), OrderNotificationCommand{
		OrderID:     "ord-1",
		Status:      domain.OrderStatusDelivered,
		PhoneNumber: "+15550001111",
		Email:       "x@example.com",
	})
	if err != nil {
		t.Fatalf("unconfigured channels must not error: %v", err)
	}
	if result.SMSSent || result.EmailSent {
		t.Fatalf("expected nothing sent, got %+v", result)
	}
	if result.SkipReason == "" {
		t.Fatalf("expected a skip reason")
	}
}

func TestNotifyOrderStatusSkipsWithoutPhone(t *testing.T) {
	sms := &fakeSMSSender{sid: "SM1"}
	svc := newNotificationServiceForTest(t, NotificationServiceDeps{SMS: sms})

	result, err := svc.NotifyOrderStatus(context.Background(), OrderNotificationCommand{
		OrderID: "ord-1",
		Status:  domain.OrderStatusCancelled,
	})
	if err != nil {
		t.Fatalf("NotifyOrderStatus returned error: %v", err)
	}
	if result.SMSSent {
		t.Fatalf("sms must not be sent without a phone number")
	}
	if result.SkipReason != "no phone number on order" {
		t.Fatalf("unexpected skip reason %q", result.SkipReason)
	}
}

func TestNotifyOrderStatusSendFailureIsNotFatal(t *testing.T) {
	sms := &fakeSMSSender{err: errors.New("gateway timeout")}
	email := &fakeEmailSender{}
	var logged []string
	svc := newNotificationServiceForTest(t, NotificationServiceDeps{
		SMS:   sms,
		Email: email,
		Logger: func(ctx context.Context, event string, fields map[string]any) {
			logged = append(logged, event)
		},
	})

	result, err := svc.NotifyOrderStatus(context.Background(), OrderNotificationCommand{
		OrderID:     "ord-1",
		Status:      domain.OrderStatusDelivered,
		PhoneNumber: "+15550001111",
		Email:       "ann@example.com",
	})
	if err != nil {
		t.Fatalf("send failures must not error the command: %v", err)
	}
	if result.SMSSent {
		t.Fatalf("failed sms must not be reported as sent")
	}
	if !result.EmailSent {
		t.Fatalf("email channel should still deliver")
	}
	if len(logged) != 1 || logged[0] != "notifications.sms.failed" {
		t.Fatalf("expected sms failure log, got %v", logged)
	}
}

func TestNotifyOrderStatusRejectsUnknownStatus(t *testing.T) {
	svc := newNotificationServiceForTest(t, NotificationServiceDeps{SMS: &fakeSMSSender{}})
	if _, err := svc.NotifyOrderStatus(context.Background(), OrderNotificationCommand{
		OrderID: "ord-1",
		Status:  domain.OrderStatus("UNKNOWN"),
	}); !errors.Is(err, ErrNotificationInvalidInput) {
		t.Fatalf("expected ErrNotificationInvalidInput, got %v", err)
	}
}

func TestNotifyOrderStatusRequiresOrderID(t *testing.T) {
	svc := newNotificationServiceForTest(t, NotificationServiceDeps{})
	if _, err := svc.NotifyOrderStatus(context.Background(), OrderNotificationCommand{Status: domain.OrderStatusPlaced}); !errors.Is(err, ErrNotificationInvalidInput) {
		t.Fatalf("expected ErrNotificationInvalidInput, got %v", err)
	}
}
