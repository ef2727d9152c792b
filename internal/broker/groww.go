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

const growwBaseURL = "https://api.groww.in"

// GrowwClient talks to the Groww trading API for one account using a
// pre-obtained access token.
type GrowwClient struct {
	baseURL     string
	accountName string
	accessToken string
	httpClient  *http.Client
	log         *slog.Logger
}

// NewGrowwClient creates a client against the production Groww API.
func NewGrowwClient(accountName, accessToken string, logger *slog.Logger) *GrowwClient {
	return NewGrowwClientWithURL(growwBaseURL, accountName, accessToken, logger)
}

// NewGrowwClientWithURL creates a client with a custom base URL (for testing).
func NewGrowwClientWithURL(baseURL, accountName, accessToken string, logger *slog.Logger) *GrowwClient {
	return &GrowwClient{
		baseURL:     baseURL,
		accountName: accountName,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		log:         logger.With("adapter", "groww", "account", accountName),
	}
}

// AccountName returns the journal account this client reports under.
func (c *GrowwClient) AccountName() string { return c.accountName }

// growwPosition carries credit (buy) and debit (sell) legs of one F&O
// position plus the realised PnL accumulated on it.
type growwPosition struct {
	TradingSymbol  string  `json:"trading_symbol"`
	Quantity       float64 `json:"quantity"`
	RealisedPnL    float64 `json:"realised_pnl"`
	CreditQuantity float64 `json:"credit_quantity"`
	CreditPrice    float64 `json:"credit_price"`
	DebitQuantity  float64 `json:"debit_quantity"`
	DebitPrice     float64 `json:"debit_price"`
}

// FetchDailyPnL returns the account's realised F&O PnL with charges
// estimated from position turnover. Unrealised PnL on open positions is not
// included; it settles into realised PnL once the position closes.
func (c *GrowwClient) FetchDailyPnL(ctx context.Context) (domain.AccountEntry, error) {
	positions, err := c.positions(ctx)
	if err != nil {
		return domain.AccountEntry{}, err
	}

	var totalPnL float64
	openPositions := 0
	for _, pos := range positions {
		totalPnL += pos.RealisedPnL
		if pos.Quantity != 0 {
			openPositions++
		}
	}
	if openPositions > 0 {
		c.log.DebugContext(ctx, "open positions excluded from unrealised pnl", "count", openPositions)
	}

	brokerage, taxes := estimateGrowwCharges(positions)

	return domain.AccountEntry{
		AccountName: c.accountName,
		PnL:         round2(totalPnL),
		Brokerage:   round2(brokerage),
		Taxes:       round2(taxes),
	}, nil
}

func (c *GrowwClient) positions(ctx context.Context) ([]growwPosition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/positions/user?segment=FNO", nil)
	if err != nil {
		return nil, fmt.Errorf("groww create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groww request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("groww unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("groww read body: %w", err)
	}
	return decodeGrowwPositions(body)
}

// decodeGrowwPositions accepts both response envelopes seen from the API:
// an object with a positions (or userPositions) array, or a bare array.
func decodeGrowwPositions(body []byte) ([]growwPosition, error) {
	var positions []growwPosition
	if err := json.Unmarshal(body, &positions); err == nil {
		return positions, nil
	}

	var envelope struct {
		Positions     []growwPosition `json:"positions"`
		UserPositions []growwPosition `json:"userPositions"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("groww unrecognized positions payload")
	}
	if envelope.Positions != nil {
		return envelope.Positions, nil
	}
	return envelope.UserPositions, nil
}

// estimateGrowwCharges estimates brokerage and taxes from position legs.
// Every non-empty credit or debit leg counts as one order.
func estimateGrowwCharges(positions []growwPosition) (float64, float64) {
	numOrders := 0
	buyTurnover := decimal.Zero
	sellTurnover := decimal.Zero
	optionSellPremium := decimal.Zero
	futureSellTurnover := decimal.Zero

	for _, pos := range positions {
		if pos.CreditQuantity > 0 {
			numOrders++
		}
		if pos.DebitQuantity > 0 {
			numOrders++
		}

		buyValue := decimal.NewFromFloat(pos.CreditQuantity).Mul(decimal.NewFromFloat(pos.CreditPrice))
		sellValue := decimal.NewFromFloat(pos.DebitQuantity).Mul(decimal.NewFromFloat(pos.DebitPrice))
		buyTurnover = buyTurnover.Add(buyValue)
		sellTurnover = sellTurnover.Add(sellValue)

		if isOptionSymbol(pos.TradingSymbol) {
			optionSellPremium = optionSellPremium.Add(sellValue)
		} else {
			futureSellTurnover = futureSellTurnover.Add(sellValue)
		}
	}

	turnover := buyTurnover.Add(sellTurnover)
	return estimateOrderCharges(numOrders, turnover, optionSellPremium, futureSellTurnover, buyTurnover)
}
