package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column names of the bank statement sheet behind the relay.
const (
	ColumnID          = "Mã GD"
	ColumnDescription = "Mô tả"
	ColumnAmount      = "Giá trị"
	ColumnAccount     = "Số tài khoản"
)

var ErrFeedUnavailable = errors.New("transaction feed unavailable")

type Transaction struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Account     string          `json:"account"`
}

// FeedClient reads recent transactions through the relay.
type FeedClient struct {
	URL  string
	HTTP *http.Client
}

func NewFeedClient(url string) *FeedClient {
	return &FeedClient{URL: url, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

type feedBody struct {
	Data  []map[string]any `json:"data"`
	Error string           `json:"error"`
}

func (c *FeedClient) Transactions(ctx context.Context) ([]Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFeedUnavailable, err)
	}
	var body feedBody
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: status %d: decode: %w", ErrFeedUnavailable, res.StatusCode, err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrFeedUnavailable, body.Error)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFeedUnavailable, res.StatusCode)
	}
	return ParseRows(body.Data), nil
}

// ParseRows converts sheet rows to transactions, dropping header rows and rows
// without a usable amount. The transaction id column is optional.
func ParseRows(rows []map[string]any) []Transaction {
	out := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		id, desc, raw := cell(row, ColumnID), cell(row, ColumnDescription), cell(row, ColumnAmount)
		if id == ColumnID || desc == ColumnDescription || raw == ColumnAmount {
			continue
		}
		amount, err := ParseAmount(raw)
		if err != nil {
			continue
		}
		out = append(out, Transaction{
			ID:          id,
			Description: desc,
			Amount:      amount,
			Account:     cell(row, ColumnAccount),
		})
	}
	return out
}

func cell(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

var dotGrouped = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)

// ParseAmount accepts plain numbers and thousands grouped ones, either with
// commas ("150,000") or with dots the way the bank sheet prints VND ("150.000").
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	if dotGrouped.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}
	return decimal.NewFromString(s)
}
