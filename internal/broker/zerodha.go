package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imishra/tradejournal/internal/domain"
)

const (
	zerodhaBaseURL         = "https://api.kite.trade"
	zerodhaAccountName     = "KITE"
	zerodhaOrderTimeLayout = "2006-01-02 15:04:05"
)

// ZerodhaClient talks to the Kite Connect REST API using a pre-obtained
// access token. Token acquisition (login, 2FA) happens outside this process.
type ZerodhaClient struct {
	baseURL     string
	apiKey      string
	accessToken string
	httpClient  *http.Client
	log         *slog.Logger
}

// NewZerodhaClient creates a client against the production Kite API.
func NewZerodhaClient(apiKey, accessToken string, logger *slog.Logger) *ZerodhaClient {
	return NewZerodhaClientWithURL(zerodhaBaseURL, apiKey, accessToken, logger)
}

// NewZerodhaClientWithURL creates a client with a custom base URL (for testing).
func NewZerodhaClientWithURL(baseURL, apiKey, accessToken string, logger *slog.Logger) *ZerodhaClient {
	return &ZerodhaClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		log:         logger.With("adapter", "zerodha"),
	}
}

// AccountName returns the journal account this client reports under.
func (c *ZerodhaClient) AccountName() string { return zerodhaAccountName }

type zerodhaPosition struct {
	Exchange string  `json:"exchange"`
	M2M      float64 `json:"m2m"`
}

type zerodhaOrder struct {
	Status          string  `json:"status"`
	Exchange        string  `json:"exchange"`
	TradingSymbol   string  `json:"tradingsymbol"`
	TransactionType string  `json:"transaction_type"`
	FilledQuantity  float64 `json:"filled_quantity"`
	AveragePrice    float64 `json:"average_price"`
	OrderTimestamp  string  `json:"order_timestamp"`
}

// FetchDailyPnL returns today's F&O mark-to-market PnL together with charges
// estimated from today's executed orders.
func (c *ZerodhaClient) FetchDailyPnL(ctx context.Context) (domain.AccountEntry, error) {
	positions, err := c.positions(ctx)
	if err != nil {
		return domain.AccountEntry{}, err
	}

	var totalPnL float64
	for _, pos := range positions {
		if isDerivativeExchange(pos.Exchange) {
			totalPnL += pos.M2M
		}
	}

	brokerage, taxes, err := c.todayCharges(ctx)
	if err != nil {
		// Charges are an estimate; a failed orders call does not void the PnL.
		c.log.WarnContext(ctx, "charge estimation failed", "error", err.Error())
	}

	return domain.AccountEntry{
		AccountName: zerodhaAccountName,
		PnL:         round2(totalPnL),
		Brokerage:   round2(brokerage),
		Taxes:       round2(taxes),
	}, nil
}

func (c *ZerodhaClient) positions(ctx context.Context) ([]zerodhaPosition, error) {
	var payload struct {
		Data struct {
			Net []zerodhaPosition `json:"net"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/portfolio/positions", &payload); err != nil {
		return nil, fmt.Errorf("zerodha positions: %w", err)
	}
	return payload.Data.Net, nil
}

// todayCharges estimates brokerage and taxes from today's completed
// derivative orders. STT is applied to option sell premium only.
func (c *ZerodhaClient) todayCharges(ctx context.Context) (float64, float64, error) {
	var payload struct {
		Data []zerodhaOrder `json:"data"`
	}
	if err := c.get(ctx, "/orders", &payload); err != nil {
		return 0, 0, fmt.Errorf("zerodha orders: %w", err)
	}

	today := domain.Today()

	numOrders := 0
	turnover := decimal.Zero
	optionSellPremium := decimal.Zero
	buyTurnover := decimal.Zero

	for _, o := range payload.Data {
		if o.Status != "COMPLETE" || !isDerivativeExchange(o.Exchange) {
			continue
		}
		ts, err := time.Parse(zerodhaOrderTimeLayout, o.OrderTimestamp)
		if err != nil || !domain.DateOf(ts).Equal(today) {
			continue
		}

		numOrders++
		value := decimal.NewFromFloat(o.FilledQuantity).Mul(decimal.NewFromFloat(o.AveragePrice))
		turnover = turnover.Add(value)

		if isOptionSymbol(o.TradingSymbol) && o.TransactionType == "SELL" {
			optionSellPremium = optionSellPremium.Add(value)
		}
		if o.TransactionType == "BUY" {
			buyTurnover = buyTurnover.Add(value)
		}
	}

	brokerage, taxes := estimateOrderCharges(numOrders, turnover, optionSellPremium, decimal.Zero, buyTurnover)
	return brokerage, taxes, nil
}

func (c *ZerodhaClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Kite-Version", "3")
	req.Header.Set("Authorization", "token "+c.apiKey+":"+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
