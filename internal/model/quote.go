package model

// RawQuote is a single provider response for a symbol. It only lives for the
// duration of one acquisition cycle.
//
// ChangePercent is nil when the provider did not report enough data to derive
// a daily change. Timestamp is the provider's raw market time, which may be in
// seconds or milliseconds; zero means absent.
type RawQuote struct {
	Symbol        string
	Price         float64
	ChangePercent *float64
	DisplayName   string
	Timestamp     int64
}
