package testutil

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/yahoo"
)

// ErrMockQuoteNotFound is returned for symbols the mock has no quote for.
var ErrMockQuoteNotFound = errors.New("mock: no quote for symbol")

// MockQuoteClient is a mock implementation of yahoo.Client for testing.
// Quotes, errors and delays are configured per symbol. Delays honor ctx, so a
// delayed symbol behaves like a slow provider that stops when abandoned.
type MockQuoteClient struct {
	mu       sync.Mutex
	quotes   map[string]model.RawQuote
	errs     map[string]error
	delays   map[string]time.Duration
	delayAll time.Duration
	calls    []string
}

// NewMockQuoteClient creates an empty mock. Unknown symbols return ErrMockQuoteNotFound.
func NewMockQuoteClient() *MockQuoteClient {
	return &MockQuoteClient{
		quotes: make(map[string]model.RawQuote),
		errs:   make(map[string]error),
		delays: make(map[string]time.Duration),
	}
}

// WithQuote registers a quote for symbol with the given price and daily change.
func (m *MockQuoteClient) WithQuote(symbol string, price, changePercent float64) *MockQuoteClient {
	change := changePercent
	return m.WithRawQuote(model.RawQuote{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: &change,
		DisplayName:   symbol + " Test Fund",
		Timestamp:     1700000000,
	})
}

// WithRawQuote registers a fully specified quote.
func (m *MockQuoteClient) WithRawQuote(q model.RawQuote) *MockQuoteClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[q.Symbol] = q
	return m
}

// WithError makes symbol fail with err.
func (m *MockQuoteClient) WithError(symbol string, err error) *MockQuoteClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
	return m
}

// WithDelay makes symbol wait d before answering.
func (m *MockQuoteClient) WithDelay(symbol string, d time.Duration) *MockQuoteClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[symbol] = d
	return m
}

// WithDelayAll makes every symbol wait d before answering.
func (m *MockQuoteClient) WithDelayAll(d time.Duration) *MockQuoteClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delayAll = d
	return m
}

// QueryQuote implements yahoo.Client.
func (m *MockQuoteClient) QueryQuote(ctx context.Context, symbol string) (model.RawQuote, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	q, hasQuote := m.quotes[symbol]
	err := m.errs[symbol]
	delay := m.delays[symbol]
	if delay == 0 {
		delay = m.delayAll
	}
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return model.RawQuote{}, ctx.Err()
		}
	}

	if err != nil {
		return model.RawQuote{}, err
	}
	if !hasQuote {
		return model.RawQuote{}, ErrMockQuoteNotFound
	}
	return q, nil
}

// Calls returns the symbols queried so far, in call order.
func (m *MockQuoteClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times symbol was queried.
func (m *MockQuoteClient) CallCount(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == symbol {
			n++
		}
	}
	return n
}

var _ yahoo.Client = (*MockQuoteClient)(nil)

// CreateChartResponseJSON returns a Yahoo chart API body for one symbol.
func CreateChartResponseJSON(symbol string, price, previousClose float64) string {
	return `{"chart":{"result":[{"meta":{"symbol":"` + symbol + `","longName":"` + symbol + ` Test Fund","regularMarketPrice":` +
		formatFloat(price) + `,"previousClose":` + formatFloat(previousClose) + `,"regularMarketTime":1700000000}}],"error":null}}`
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
