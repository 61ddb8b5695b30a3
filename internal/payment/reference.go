package payment

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxMemoLen is what the bank accepts in a transfer memo.
const MaxMemoLen = 50

const memoPrefix = "Payment for order "

var (
	ErrInvalidAmount      = errors.New("payment amount must be positive")
	ErrDescriptionTooLong = errors.New("payment memo too long")
)

// Bank is the fixed receiving account.
type Bank struct {
	BankID      string
	AccountNo   string
	AccountName string
	Template    string
	ImageBase   string
}

// Reference is what the customer needs to make the transfer. It is derived
// per checkout attempt and never stored.
type Reference struct {
	BankID      string `json:"bankId"`
	AccountNo   string `json:"accountNo"`
	AccountName string `json:"accountName"`
	Amount      int64  `json:"amount"`
	Memo        string `json:"memo"`
	ImageURL    string `json:"imageUrl"`
}

type Generator struct {
	Bank Bank
}

// Reference builds the transfer details and QR image URL for an order.
// A memo that would not fit is rejected rather than cut, since a cut memo
// could lose part of the order id the reconciler matches on.
func (g *Generator) Reference(orderID string, total decimal.Decimal) (Reference, error) {
	if !total.IsPositive() {
		return Reference{}, ErrInvalidAmount
	}
	memo, err := Memo(orderID)
	if err != nil {
		return Reference{}, err
	}
	name := NormalizeName(g.Bank.AccountName)
	amount := total.IntPart()
	return Reference{
		BankID:      g.Bank.BankID,
		AccountNo:   g.Bank.AccountNo,
		AccountName: name,
		Amount:      amount,
		Memo:        memo,
		ImageURL: fmt.Sprintf("%s/image/%s-%s-%s.png?amount=%d&addInfo=%s&accountName=%s",
			strings.TrimRight(g.Bank.ImageBase, "/"), g.Bank.BankID, g.Bank.AccountNo, g.Bank.Template,
			amount, queryEscape(memo), queryEscape(name)),
	}, nil
}

// Memo returns the sanitized transfer memo for orderID.
func Memo(orderID string) (string, error) {
	raw := memoPrefix + orderID
	if len(raw) > MaxMemoLen {
		return "", fmt.Errorf("%w: %d > %d characters", ErrDescriptionTooLong, len(raw), MaxMemoLen)
	}
	return SanitizeMemo(raw), nil
}

// SanitizeMemo keeps ASCII letters, digits and single spaces, then caps the
// result at MaxMemoLen.
func SanitizeMemo(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			space = false
		case r == ' ' && !space && b.Len() > 0:
			b.WriteRune(r)
			space = true
		}
	}
	out := strings.TrimRight(b.String(), " ")
	if len(out) > MaxMemoLen {
		out = out[:MaxMemoLen]
	}
	return out
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName turns a payee name into the upper case ASCII form banks print,
// e.g. "Cửa hàng Thú cưng" -> "CUA HANG THU CUNG".
func NormalizeName(s string) string {
	s = strings.NewReplacer("đ", "d", "Đ", "D").Replace(s)
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(SanitizeMemo(out))
}

func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
