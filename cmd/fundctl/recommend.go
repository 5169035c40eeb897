package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/api/request"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/validation"
)

func newRecommendCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "recommend --file funds.json",
		Short: "Rank a set of funds",
		Long: `Rank the funds in a JSON file and print the recommendation report.
The file holds either an array of fund records, as printed by acquire,
or an analyze request body {"funds": [...]}. Use "-" to read stdin.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := openInput(file)
			if err != nil {
				return err
			}
			defer in.Close()

			req, err := readAnalyzeRequest(in)
			if err != nil {
				return err
			}
			if err := validation.ValidateAnalyzeRequest(req); err != nil {
				return err
			}

			a, _, err := loadApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Recommendation.Recommend(cmd.Context(), req.Normalized())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `fund records JSON file, or "-" for stdin`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readAnalyzeRequest accepts a bare array of records or a request object.
func readAnalyzeRequest(r io.Reader) (request.AnalyzeRequest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return request.AnalyzeRequest{}, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return request.AnalyzeRequest{}, fmt.Errorf("no fund records in input")
	}

	if data[0] == '[' {
		var funds []model.FundRecord
		if err := json.Unmarshal(data, &funds); err != nil {
			return request.AnalyzeRequest{}, fmt.Errorf("parse fund records: %w", err)
		}
		return request.AnalyzeRequest{Funds: funds}, nil
	}

	var req request.AnalyzeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return request.AnalyzeRequest{}, fmt.Errorf("parse analyze request: %w", err)
	}
	return req, nil
}
