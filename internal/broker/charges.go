package broker

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Indian F&O charge schedule. STT applies to option sell premium and, on
// position-based estimation, to futures sell turnover; stamp duty applies to
// buys only; GST applies to brokerage plus exchange and SEBI charges.
var (
	brokeragePerOrder = decimal.NewFromFloat(20.0)
	sttOptionSellRate = decimal.NewFromFloat(0.000625)
	sttFutureSellRate = decimal.NewFromFloat(0.000125)
	exchangeTxnRate   = decimal.NewFromFloat(0.00053)
	sebiRate          = decimal.NewFromFloat(0.000001)
	stampDutyRate     = decimal.NewFromFloat(0.00003)
	gstRate           = decimal.NewFromFloat(0.18)
)

// derivativeExchanges are the exchanges whose orders and positions count
// toward F&O PnL and charges.
var derivativeExchanges = map[string]struct{}{
	"NFO": {},
	"MCX": {},
	"CDS": {},
	"BFO": {},
}

func isDerivativeExchange(exchange string) bool {
	_, ok := derivativeExchanges[exchange]
	return ok
}

func isOptionSymbol(symbol string) bool {
	return strings.HasSuffix(symbol, "CE") || strings.HasSuffix(symbol, "PE")
}

// estimateOrderCharges computes brokerage and taxes from executed-order
// turnover. Orders are flat-fee, so brokerage is per order; everything else
// scales with turnover. Returns (brokerage, taxes).
func estimateOrderCharges(numOrders int, turnover, optionSellPremium, futureSellTurnover, buyTurnover decimal.Decimal) (float64, float64) {
	brokerage := brokeragePerOrder.Mul(decimal.NewFromInt(int64(numOrders)))

	stt := optionSellPremium.Mul(sttOptionSellRate).
		Add(futureSellTurnover.Mul(sttFutureSellRate))
	exchangeTxn := turnover.Mul(exchangeTxnRate)
	sebi := turnover.Mul(sebiRate)
	stampDuty := buyTurnover.Mul(stampDutyRate)
	gst := brokerage.Add(exchangeTxn).Add(sebi).Mul(gstRate)

	taxes := stt.Add(exchangeTxn).Add(sebi).Add(stampDuty).Add(gst)

	brokerageF, _ := brokerage.Float64()
	taxesF, _ := taxes.Float64()
	return brokerageF, taxesF
}

func round2(f float64) float64 {
	out, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return out
}
