package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

// ErrGateway covers every failure talking to the external payment
// provider. The order stays PENDING and retryable behind it.
var ErrGateway = errors.New("payment gateway error")

type Session struct {
	ID  string
	URL string
}

// Gateway opens hosted checkout sessions for an order. Offline methods
// never reach it.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, order *domain.Order, successURL, cancelURL string) (*Session, error)
}

type StripeClient struct {
	apiBase string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Session]
}

func NewStripeClient(apiBase, apiKey string, timeout time.Duration) *StripeClient {
	breaker := gobreaker.NewCircuitBreaker[*Session](gobreaker.Settings{
		Name:    "stripe",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &StripeClient{
		apiBase: strings.TrimRight(apiBase, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

// CreateCheckoutSession describes each order line plus the shipping
// fee as gateway line items and attaches the order id and originating
// cart session id as metadata, which the webhook needs for
// correlation. The call carries a bounded timeout and sits behind a
// circuit breaker so a dead provider fails fast instead of tying up
// request handlers.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, order *domain.Order, successURL, cancelURL string) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("metadata[orderId]", order.ID)
	form.Set("metadata[cartSessionId]", order.CartSessionID)

	idx := 0
	for _, item := range order.Items {
		addLineItem(form, idx, item.CardName, item.PriceAtPurchase, item.Quantity)
		idx++
	}
	if order.ShippingFee.IsPositive() {
		addLineItem(form, idx, "Shipping Fee", order.ShippingFee, 1)
	}

	session, err := c.breaker.Execute(func() (*Session, error) {
		return c.postSession(ctx, form)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return session, nil
}

func addLineItem(form url.Values, idx int, name string, price decimal.Decimal, quantity int) {
	prefix := fmt.Sprintf("line_items[%d]", idx)
	form.Set(prefix+"[quantity]", strconv.Itoa(quantity))
	form.Set(prefix+"[price_data][currency]", "usd")
	form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(minorUnits(price), 10))
	form.Set(prefix+"[price_data][product_data][name]", name)
}

// minorUnits converts a decimal dollar amount to integer cents, the
// only place an amount leaves fixed point representation.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (c *StripeClient) postSession(ctx context.Context, form url.Values) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read session response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	var parsed struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	if parsed.ID == "" {
		return nil, errors.New("gateway response missing session id")
	}

	return &Session{ID: parsed.ID, URL: parsed.URL}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
