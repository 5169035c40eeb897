package yahoo

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
// Only the meta block is decoded; the quote snapshot lives there.
//
// The structure includes:
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Latest market price, previous close and symbol metadata
//   - Chart.Error: Optional error object from Yahoo API
type Response struct {
	Chart Chart `json:"chart"`
}

// Chart is the top-level chart envelope.
type Chart struct {
	Result []Result   `json:"result"`
	Error  *ChartError `json:"error"`
}

// Result is one symbol's chart result.
type Result struct {
	Meta Meta `json:"meta"`
}

// Meta carries the quote snapshot for a symbol.
//
// RegularMarketPrice is a pointer so that a missing price can be told apart from zero.
// RegularMarketTime is in Unix seconds.
type Meta struct {
	Currency           string   `json:"currency"`
	Symbol             string   `json:"symbol"`
	ExchangeName       string   `json:"exchangeName"`
	LongName           string   `json:"longName"`
	ShortName          string   `json:"shortName"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	RegularMarketTime  int64    `json:"regularMarketTime"`
	ChartPreviousClose float64  `json:"chartPreviousClose"`
	PreviousClose      float64  `json:"previousClose"`
}

// ChartError is the error object Yahoo returns in place of a result.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
