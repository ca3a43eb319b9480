package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mynt-trade-bot-go/internal/config"
)

const (
	orderTypeLimit    = "LIMIT"
	orderSideBuy      = "BUY"
	orderSideSell     = "SELL"
	timeInForceGTC    = "GOOD_TIL_CANCELLED"
	candleIntervalMin = "MINUTE_1"
)

// RestClient is a client for the exchange's v3 REST API. It implements the
// Exchange interface.
type RestClient struct {
	client    *resty.Client
	apiKey    string
	apiSecret string
	logger    *zap.Logger
	limiter   *rate.Limiter
	timeout   time.Duration
}

// ensure RestClient implements the interface
var _ Exchange = (*RestClient)(nil)

// NewRestClient creates a new exchange REST API client.
func NewRestClient(cfg *config.Exchange, logger *zap.Logger) *RestClient {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		client:    client,
		apiKey:    cfg.ApiKey,
		apiSecret: cfg.ApiSecret,
		logger:    logger.Named("exchange"),
		limiter:   limiter,
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// sign creates a HMAC-SHA512 signature over the request payload.
func (c *RestClient) sign(data string) string {
	h := hmac.New(sha512.New, []byte(c.apiSecret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// marketSymbol converts a market name like "ETH/BTC" to the venue's
// "ETH-BTC" form.
func marketSymbol(market string) string {
	return strings.ReplaceAll(market, "/", "-")
}

// doRequest handles request execution with a per-call deadline, rate
// limiting and retry logic for throttling and server errors.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req.SetContext(ctx)
	req.ForceContentType("application/json")

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.StatusCode() != 0 {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// authRequest builds a request carrying the authentication headers the venue
// requires on account and order endpoints.
func (c *RestClient) authRequest(method, url, body string) *resty.Request {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	payload := timestamp + method + url + body
	return c.client.R().
		SetHeader("Api-Key", c.apiKey).
		SetHeader("Api-Timestamp", timestamp).
		SetHeader("Api-Signature", c.sign(payload))
}

type marketSummaryResponse struct {
	Symbol        string `json:"symbol"`
	BaseVolume    string `json:"volume"`
	QuoteVolume   string `json:"quoteVolume"`
	UpdatedAt     string `json:"updatedAt"`
	BaseCurrency  string `json:"baseCurrencySymbol"`
	QuoteCurrency string `json:"quoteCurrencySymbol"`
}

// GetMarketSummaries fetches the market overview for all listed markets.
func (c *RestClient) GetMarketSummaries(ctx context.Context) ([]MarketSummary, error) {
	var rows []marketSummaryResponse
	req := c.client.R().SetResult(&rows)

	if _, err := c.doRequest(ctx, resty.MethodGet, "/markets/summaries", req); err != nil {
		return nil, fmt.Errorf("failed to get market summaries: %w", err)
	}

	summaries := make([]MarketSummary, 0, len(rows))
	for _, row := range rows {
		volume, err := strconv.ParseFloat(row.BaseVolume, 64)
		if err != nil {
			c.logger.Warn("Skipping summary with unparsable volume",
				zap.String("symbol", row.Symbol), zap.String("volume", row.BaseVolume))
			continue
		}
		base, quote := row.BaseCurrency, row.QuoteCurrency
		if base == "" || quote == "" {
			// Older gateway versions only return the symbol.
			parts := strings.SplitN(row.Symbol, "-", 2)
			if len(parts) != 2 {
				continue
			}
			base, quote = parts[0], parts[1]
		}
		summaries = append(summaries, MarketSummary{
			MarketName:   base + "/" + quote,
			BaseVolume:   volume,
			CurrencyPair: CurrencyPair{Base: base, Quote: quote},
		})
	}
	return summaries, nil
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Last   string `json:"lastTradeRate"`
	Bid    string `json:"bidRate"`
	Ask    string `json:"askRate"`
}

// GetTicker fetches the current quote for one market.
func (c *RestClient) GetTicker(ctx context.Context, market string) (*Ticker, error) {
	var row tickerResponse
	req := c.client.R().SetResult(&row)

	url := fmt.Sprintf("/markets/%s/ticker", marketSymbol(market))
	if _, err := c.doRequest(ctx, resty.MethodGet, url, req); err != nil {
		return nil, fmt.Errorf("failed to get ticker for %s: %w", market, err)
	}

	bid, err := decimal.NewFromString(row.Bid)
	if err != nil {
		return nil, fmt.Errorf("invalid bid rate %q for %s: %w", row.Bid, market, err)
	}
	ask, err := decimal.NewFromString(row.Ask)
	if err != nil {
		return nil, fmt.Errorf("invalid ask rate %q for %s: %w", row.Ask, market, err)
	}
	last, err := decimal.NewFromString(row.Last)
	if err != nil {
		return nil, fmt.Errorf("invalid last rate %q for %s: %w", row.Last, market, err)
	}
	return &Ticker{Bid: bid, Ask: ask, Last: last}, nil
}

type candleResponse struct {
	StartsAt string `json:"startsAt"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// GetTickerHistory fetches recent candles for one market. The venue serves
// fixed interval buckets; the requested period selects the longest bucket
// that does not exceed it, with one minute as the shortest.
func (c *RestClient) GetTickerHistory(ctx context.Context, market string, since time.Time, period time.Duration) ([]Candle, error) {
	var rows []candleResponse
	req := c.client.R().SetResult(&rows)

	url := fmt.Sprintf("/markets/%s/candles/%s/recent", marketSymbol(market), candleInterval(period))
	if _, err := c.doRequest(ctx, resty.MethodGet, url, req); err != nil {
		return nil, fmt.Errorf("failed to get candles for %s: %w", market, err)
	}

	candles := make([]Candle, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse(time.RFC3339, row.StartsAt)
		if err != nil || ts.Before(since) {
			continue
		}
		candle, err := parseCandle(row, ts)
		if err != nil {
			c.logger.Warn("Skipping unparsable candle", zap.String("market", market), zap.Error(err))
			continue
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func parseCandle(row candleResponse, ts time.Time) (Candle, error) {
	open, err := decimal.NewFromString(row.Open)
	if err != nil {
		return Candle{}, err
	}
	high, err := decimal.NewFromString(row.High)
	if err != nil {
		return Candle{}, err
	}
	low, err := decimal.NewFromString(row.Low)
	if err != nil {
		return Candle{}, err
	}
	cls, err := decimal.NewFromString(row.Close)
	if err != nil {
		return Candle{}, err
	}
	volume, err := strconv.ParseFloat(row.Volume, 64)
	if err != nil {
		return Candle{}, err
	}
	return Candle{Timestamp: ts, Open: open, High: high, Low: low, Close: cls, Volume: volume}, nil
}

func candleInterval(period time.Duration) string {
	switch {
	case period >= 24*time.Hour:
		return "DAY_1"
	case period >= time.Hour:
		return "HOUR_1"
	case period >= 5*time.Minute:
		return "MINUTE_5"
	default:
		return candleIntervalMin
	}
}

type balanceResponse struct {
	CurrencySymbol string `json:"currencySymbol"`
	Total          string `json:"total"`
	Available      string `json:"available"`
}

// GetBalance fetches the account balance for one currency.
func (c *RestClient) GetBalance(ctx context.Context, currency string) (*Balance, error) {
	var row balanceResponse
	url := fmt.Sprintf("/balances/%s", currency)
	req := c.authRequest(resty.MethodGet, url, "").SetResult(&row)

	if _, err := c.doRequest(ctx, resty.MethodGet, url, req); err != nil {
		return nil, fmt.Errorf("failed to get balance for %s: %w", currency, err)
	}

	available, err := decimal.NewFromString(row.Available)
	if err != nil {
		return nil, fmt.Errorf("invalid available balance %q for %s: %w", row.Available, currency, err)
	}
	total, err := decimal.NewFromString(row.Total)
	if err != nil {
		return nil, fmt.Errorf("invalid total balance %q for %s: %w", row.Total, currency, err)
	}
	return &Balance{
		Currency:  row.CurrencySymbol,
		Available: available,
		Reserved:  total.Sub(available),
	}, nil
}

type orderResponse struct {
	ID           string `json:"id"`
	MarketSymbol string `json:"marketSymbol"`
	Quantity     string `json:"quantity"`
	Limit        string `json:"limit"`
	FillQuantity string `json:"fillQuantity"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
	ClosedAt     string `json:"closedAt"`
}

func (c *RestClient) placeOrder(ctx context.Context, market, side string, quantity, price decimal.Decimal) (string, error) {
	body := fmt.Sprintf(`{"marketSymbol":%q,"direction":%q,"type":%q,"quantity":%q,"limit":%q,"timeInForce":%q}`,
		marketSymbol(market), side, orderTypeLimit, quantity.String(), price.String(), timeInForceGTC)

	req := c.authRequest(resty.MethodPost, "/orders", body).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&orderResponse{})

	resp, err := c.doRequest(ctx, resty.MethodPost, "/orders", req)
	if err != nil {
		c.logger.Error("Failed to place order",
			zap.String("market", market),
			zap.String("side", side),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to place %s order on %s: %w", side, market, err)
	}

	result := resp.Result().(*orderResponse)
	c.logger.Info("Order placed",
		zap.String("market", market),
		zap.String("side", side),
		zap.String("order_id", result.ID),
	)
	return result.ID, nil
}

// Buy places a limit buy order and returns its id.
func (c *RestClient) Buy(ctx context.Context, market string, quantity, price decimal.Decimal) (string, error) {
	return c.placeOrder(ctx, market, orderSideBuy, quantity, price)
}

// Sell places a limit sell order and returns its id.
func (c *RestClient) Sell(ctx context.Context, market string, quantity, price decimal.Decimal) (string, error) {
	return c.placeOrder(ctx, market, orderSideSell, quantity, price)
}

// GetOrder fetches the current state of an order.
func (c *RestClient) GetOrder(ctx context.Context, orderID, market string) (*Order, error) {
	var row orderResponse
	url := fmt.Sprintf("/orders/%s", orderID)
	req := c.authRequest(resty.MethodGet, url, "").SetResult(&row)

	if _, err := c.doRequest(ctx, resty.MethodGet, url, req); err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}

	return normalizeOrder(&row, market)
}

func normalizeOrder(row *orderResponse, market string) (*Order, error) {
	quantity, err := decimal.NewFromString(row.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q on order %s: %w", row.Quantity, row.ID, err)
	}
	price, err := decimal.NewFromString(row.Limit)
	if err != nil {
		return nil, fmt.Errorf("invalid limit %q on order %s: %w", row.Limit, row.ID, err)
	}

	status := OrderStatusOpen
	fill := decimal.Zero
	if row.FillQuantity != "" {
		if fill, err = decimal.NewFromString(row.FillQuantity); err != nil {
			return nil, fmt.Errorf("invalid fill quantity %q on order %s: %w", row.FillQuantity, row.ID, err)
		}
	}
	switch row.Status {
	case "CLOSED":
		if fill.Equal(quantity) {
			status = OrderStatusFilled
		} else {
			status = OrderStatusCancelled
		}
	case "OPEN":
		if fill.IsPositive() {
			status = OrderStatusPartiallyFilled
		}
	}

	ts := time.Now()
	stamp := row.ClosedAt
	if stamp == "" {
		stamp = row.CreatedAt
	}
	if stamp != "" {
		if parsed, err := time.Parse(time.RFC3339, stamp); err == nil {
			ts = parsed
		}
	}

	return &Order{
		ID:       row.ID,
		Market:   market,
		Status:   status,
		Quantity: quantity,
		Price:    price,
		Time:     ts,
	}, nil
}

// CancelOrder cancels an outstanding order.
func (c *RestClient) CancelOrder(ctx context.Context, orderID, market string) error {
	url := fmt.Sprintf("/orders/%s", orderID)
	req := c.authRequest(resty.MethodDelete, url, "")

	if _, err := c.doRequest(ctx, resty.MethodDelete, url, req); err != nil {
		return fmt.Errorf("failed to cancel order %s on %s: %w", orderID, market, err)
	}
	c.logger.Info("Order cancelled", zap.String("order_id", orderID), zap.String("market", market))
	return nil
}
