package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

// DefaultBaseURL is the Yahoo Finance chart endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Client is the quote provider contract used by the acquisition pipeline.
// Implementations must honor ctx cancellation where the transport allows it.
type Client interface {
	QueryQuote(ctx context.Context, symbol string) (model.RawQuote, error)
}

// FinanceClient provides methods for fetching quote snapshots from the Yahoo Finance chart API.
type FinanceClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewFinanceClient creates a new Yahoo Finance client with default HTTP settings.
// Request deadlines come from the caller's context.
func NewFinanceClient() *FinanceClient {
	return NewFinanceClientWithBaseURL(DefaultBaseURL)
}

// NewFinanceClientWithBaseURL creates a client against a different chart endpoint,
// used by tests to point at an httptest server.
func NewFinanceClientWithBaseURL(baseURL string) *FinanceClient {
	return &FinanceClient{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// QueryQuote fetches the latest quote snapshot for a symbol.
//
// Returns:
//   - model.RawQuote: Price, change percent (nil when no previous close is known),
//     display name and raw market time
//   - error: If the HTTP request fails, the API returns an error, or no results are found
func (c *FinanceClient) QueryQuote(ctx context.Context, symbol string) (model.RawQuote, error) {
	endpoint := fmt.Sprintf("%s/%s?interval=1d&range=1d", c.baseURL, url.PathEscape(symbol))
	result, err := c.queryYahoo(ctx, endpoint)
	if err != nil {
		return model.RawQuote{}, err
	}
	if len(result.Chart.Result) == 0 {
		return model.RawQuote{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}

	quote := ParseQuote(result.Chart.Result[0].Meta)
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}
	return quote, nil
}

// ParseQuote converts chart metadata into a RawQuote.
// The daily change is derived from the previous close; without one it stays nil.
// A missing price yields zero, which the normalizer rejects.
func ParseQuote(meta Meta) model.RawQuote {
	quote := model.RawQuote{
		Symbol:      meta.Symbol,
		DisplayName: meta.LongName,
		Timestamp:   meta.RegularMarketTime,
	}
	if quote.DisplayName == "" {
		quote.DisplayName = meta.ShortName
	}
	if meta.RegularMarketPrice == nil {
		return quote
	}
	quote.Price = *meta.RegularMarketPrice

	prev := meta.PreviousClose
	if prev == 0 {
		prev = meta.ChartPreviousClose
	}
	if prev > 0 {
		change := (quote.Price - prev) / prev * 100
		quote.ChangePercent = &change
	}
	return quote
}

// queryYahoo is an internal helper that executes HTTP requests to Yahoo Finance API.
//
// The method sets required headers:
//   - User-Agent: Mimics a browser to avoid API blocking
//   - Accept: Requests JSON response format
func (c *FinanceClient) queryYahoo(ctx context.Context, endpoint string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Response{}, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
		}
		return Response{}, err
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s: %s", response.Chart.Error.Code, response.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return response, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}

	return response, nil
}
