package prices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// tickerInterval spaces full ticker requests, which carry a heavy request weight.
const tickerInterval = 2 * time.Second

// Binance reads spot tickers from Binance. Only public endpoints are used, so
// keys may be empty.
type Binance struct {
	client  *binance.Client
	limiter *rate.Limiter
}

// NewBinance creates a Binance price source.
func NewBinance(apiKey, secretKey string) *Binance {
	return &Binance{
		client:  binance.NewClient(apiKey, secretKey),
		limiter: rate.NewLimiter(rate.Every(tickerInterval), 1),
	}
}

// VenueSymbol converts BASE/QUOTE to Binance's BASEQUOTE form.
func VenueSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// Prices fetches the 24h tickers and picks a price for each requested symbol.
func (b *Binance) Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("binance: rate limit: %w", err)
	}
	stats, err := b.client.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance: list tickers: %w", err)
	}

	bySymbol := make(map[string]*binance.PriceChangeStats, len(stats))
	for _, s := range stats {
		bySymbol[s.Symbol] = s
	}

	out := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		s, ok := bySymbol[VenueSymbol(symbol)]
		if !ok {
			continue
		}
		p := SelectPrice(parse(s.LastPrice), parse(s.PrevClosePrice), parse(s.BidPrice), parse(s.AskPrice))
		if p.IsPositive() {
			out[symbol] = p
		}
	}
	return out, nil
}

// parse reads a venue decimal, treating garbage as zero.
func parse(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
