package yahoo

import (
	"context"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

// QuoteAPIClient reads quotes through the finance-go quote endpoint.
//
// finance-go calls cannot be cancelled, so QueryQuote returns when ctx is done
// and the outstanding call is left to finish on its own.
type QuoteAPIClient struct {
	get func(symbol string) (*finance.Quote, error)
}

// NewQuoteAPIClient creates a client backed by quote.Get.
func NewQuoteAPIClient() *QuoteAPIClient {
	return &QuoteAPIClient{get: quote.Get}
}

type quoteResult struct {
	q   *finance.Quote
	err error
}

// QueryQuote fetches a quote for symbol, giving up when ctx is done.
func (c *QuoteAPIClient) QueryQuote(ctx context.Context, symbol string) (model.RawQuote, error) {
	ch := make(chan quoteResult, 1)
	go func() {
		q, err := c.get(symbol)
		ch <- quoteResult{q: q, err: err}
	}()

	select {
	case <-ctx.Done():
		return model.RawQuote{}, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return model.RawQuote{}, r.err
		}
		if r.q == nil {
			return model.RawQuote{}, fmt.Errorf("no quote returned for symbol %s", symbol)
		}
		return fromFinanceQuote(symbol, r.q), nil
	}
}

func fromFinanceQuote(symbol string, q *finance.Quote) model.RawQuote {
	raw := model.RawQuote{
		Symbol:      q.Symbol,
		Price:       q.RegularMarketPrice,
		DisplayName: q.ShortName,
		Timestamp:   int64(q.RegularMarketTime),
	}
	if raw.Symbol == "" {
		raw.Symbol = symbol
	}
	// finance-go zero-fills missing fields; without a previous close there is no change.
	if q.RegularMarketPreviousClose > 0 {
		change := q.RegularMarketChangePercent
		raw.ChangePercent = &change
	}
	return raw
}
