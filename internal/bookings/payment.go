package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"showtime/internal/shared/apperrors"
	"showtime/internal/shared/config"

	"github.com/google/uuid"
)

// walletMethods get a gateway-style transaction id of {unix millis}-{METHOD}.
var walletMethods = map[string]bool{
	"applepay":   true,
	"googlepay":  true,
	"samsungpay": true,
}

// PaymentReceipt is what the gateway returns for an accepted charge.
type PaymentReceipt struct {
	Method        string    `json:"method"`
	Amount        float64   `json:"amount"`
	TransactionID string    `json:"transactionId"`
	ProcessedAt   time.Time `json:"processedAt"`
}

type PaymentGateway interface {
	Supports(method string) bool
	// Charge makes a single attempt. A rejection is a *apperrors.PaymentError.
	Charge(ctx context.Context, method string, amount float64) (*PaymentReceipt, error)
	// Refund returns a captured charge in full.
	Refund(ctx context.Context, receipt *PaymentReceipt) error
}

type simulatedGateway struct {
	methods  map[string]bool
	declines map[string]bool
	delay    time.Duration
	now      func() time.Time
}

// NewSimulatedGateway accepts every configured method except the declined ones.
func NewSimulatedGateway(cfg config.PaymentConfig) PaymentGateway {
	g := &simulatedGateway{
		methods:  make(map[string]bool, len(cfg.Methods)),
		declines: make(map[string]bool, len(cfg.DeclineMethods)),
		delay:    cfg.SimulatedDelay,
		now:      time.Now,
	}
	for _, m := range cfg.Methods {
		g.methods[normaliseMethod(m)] = true
	}
	for _, m := range cfg.DeclineMethods {
		g.declines[normaliseMethod(m)] = true
	}
	return g
}

func (g *simulatedGateway) Supports(method string) bool {
	return g.methods[normaliseMethod(method)]
}

func (g *simulatedGateway) Charge(ctx context.Context, method string, amount float64) (*PaymentReceipt, error) {
	method = normaliseMethod(method)
	if !g.methods[method] {
		return nil, &apperrors.PaymentError{Method: method, Reason: "payment method not supported"}
	}

	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, &apperrors.PaymentError{Method: method, Reason: "payment interrupted: " + ctx.Err().Error()}
		case <-timer.C:
		}
	}

	if g.declines[method] {
		return nil, &apperrors.PaymentError{Method: method, Reason: "payment declined"}
	}

	now := g.now()
	return &PaymentReceipt{
		Method:        method,
		Amount:        amount,
		TransactionID: generateTransactionID(method, now),
		ProcessedAt:   now,
	}, nil
}

func (g *simulatedGateway) Refund(ctx context.Context, receipt *PaymentReceipt) error {
	if receipt == nil || receipt.TransactionID == "" {
		return &apperrors.PaymentError{Reason: "refund needs a captured transaction"}
	}
	return ctx.Err()
}

// generateTransactionID generates a mock transaction ID
func generateTransactionID(method string, now time.Time) string {
	if walletMethods[method] {
		return fmt.Sprintf("%d-%s", now.UnixMilli(), strings.ToUpper(method))
	}
	shortUUID := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("TXN_%d_%s", now.Unix(), strings.ToUpper(shortUUID))
}

func normaliseMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}
