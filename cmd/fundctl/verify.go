package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

func newVerifyCmd() *cobra.Command {
	var (
		baseURL string
		symbols string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "verify --base-url URL",
		Short: "Check a deployed server",
		Long: `Call the health, funds and analyze endpoints of a running server and
report the status and record count of each. Exits non-zero when any check fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := verifier{
				client:  &http.Client{Timeout: timeout},
				baseURL: strings.TrimRight(baseURL, "/"),
				out:     cmd.OutOrStdout(),
			}
			return v.run(cmd.Context(), symbols)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:5001", "server base URL")
	cmd.Flags().StringVar(&symbols, "symbols", "SPY,QQQ,AAPL", "comma separated symbols for the funds check, empty for the server default")
	cmd.Flags().DurationVar(&timeout, "timeout", 45*time.Second, "per request timeout")
	return cmd
}

type verifier struct {
	client  *http.Client
	baseURL string
	out     io.Writer
}

type checkResult struct {
	name   string
	status int
	detail string
	err    error
}

func (v verifier) run(ctx context.Context, symbols string) error {
	var results []checkResult

	results = append(results, v.checkHealth(ctx))

	funds, fundsResult := v.checkFunds(ctx, symbols)
	results = append(results, fundsResult)

	if len(funds) >= 2 {
		results = append(results, v.checkAnalyze(ctx, funds))
	} else {
		results = append(results, checkResult{name: "POST /api/analyze", err: fmt.Errorf("skipped, fewer than 2 funds available")})
	}

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(v.out, "FAIL %-20s %3d  %v\n", r.name, r.status, r.err)
			continue
		}
		fmt.Fprintf(v.out, "ok   %-20s %3d  %s\n", r.name, r.status, r.detail)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	fmt.Fprintf(v.out, "all %d checks passed against %s\n", len(results), v.baseURL)
	return nil
}

func (v verifier) checkHealth(ctx context.Context) checkResult {
	res := checkResult{name: "GET /api/system/health"}

	var body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	res.status, res.err = v.do(ctx, http.MethodGet, "/api/system/health", nil, &body)
	if res.err == nil {
		res.detail = fmt.Sprintf("%s, database %s", body.Status, body.Database)
	}
	return res
}

func (v verifier) checkFunds(ctx context.Context, symbols string) ([]model.FundRecord, checkResult) {
	res := checkResult{name: "GET /api/funds"}

	path := "/api/funds"
	if symbols != "" {
		path += "?" + url.Values{"symbols": {symbols}}.Encode()
	}

	var funds []model.FundRecord
	res.status, res.err = v.do(ctx, http.MethodGet, path, nil, &funds)
	if res.err == nil {
		res.detail = fmt.Sprintf("%d records", len(funds))
	}
	return funds, res
}

func (v verifier) checkAnalyze(ctx context.Context, funds []model.FundRecord) checkResult {
	res := checkResult{name: "POST /api/analyze"}

	payload, err := json.Marshal(map[string]any{"funds": funds})
	if err != nil {
		res.err = err
		return res
	}

	var report model.RecommendationReport
	res.status, res.err = v.do(ctx, http.MethodPost, "/api/analyze", payload, &report)
	if res.err == nil {
		res.detail = fmt.Sprintf("%d recommendations, provenance %s", len(report.Recommendations), report.Provenance)
		if report.FallbackReason != "" {
			res.detail += " (" + report.FallbackReason + ")"
		}
	}
	return res
}

// do sends one request and decodes a 200 response into out.
func (v verifier) do(ctx context.Context, method, path string, payload []byte, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, v.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("response is not valid JSON: %w", err)
	}
	return resp.StatusCode, nil
}
