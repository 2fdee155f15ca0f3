package contact

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/lifesync-ledger/internal/domain/money"
)

const (
	summaryDateLayout = "02/01/2006"
	previewLength     = 150
	shareBaseURL      = "https://wa.me/?text="
)

// SummaryOptions controls the branding of the rendered summary
type SummaryOptions struct {
	AppName        string
	CurrencySymbol string
}

// DefaultSummaryOptions matches the wording of the original share message
var DefaultSummaryOptions = SummaryOptions{AppName: "LifeSync", CurrencySymbol: "Rs"}

// Summary is the shareable text rendering of a contact's ledger
type Summary struct {
	Text      string `json:"text"`
	ShareLink string `json:"share_link"`
	Preview   string `json:"preview"`
}

// Summary renders the contact deterministically: the same contact always yields the same text
func (c *Contact) Summary(opts SummaryOptions) Summary {
	if opts.AppName == "" {
		opts.AppName = DefaultSummaryOptions.AppName
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = DefaultSummaryOptions.CurrencySymbol
	}
	amount := func(a money.Amount) string {
		return opts.CurrencySymbol + " " + a.String()
	}

	var b strings.Builder
	b.WriteString("*" + opts.AppName + " - Udhaar Summary*\n\n")
	b.WriteString("*Person:* " + c.Name + "\n")
	if c.Phone != "" {
		b.WriteString("*Contact:* " + c.Phone + "\n")
	}
	if c.Email != "" {
		b.WriteString("*Email:* " + c.Email + "\n")
	}
	if c.Relationship != "" {
		b.WriteString("*Relationship:* " + string(c.Relationship) + "\n")
	}
	b.WriteString("*Status:* " + strings.ToUpper(string(c.BalanceType)) + "\n\n")

	b.WriteString("*CURRENT BALANCE:*\n")
	switch c.BalanceType {
	case BalanceOwe:
		b.WriteString("YOU OWE: " + amount(c.CurrentBalance) + "\n\n")
	case BalanceOwed:
		b.WriteString("OWES YOU: " + amount(c.CurrentBalance) + "\n\n")
	default:
		b.WriteString("SETTLED\n\n")
	}

	b.WriteString("*Transaction History:*\n--------------------------------\n")
	for _, t := range c.Chronological() {
		b.WriteString("*" + t.Date.UTC().Format(summaryDateLayout) + "*\n")
		b.WriteString("   " + t.Verb() + ": " + amount(t.Amount) + "\n")
		if t.Note != "" {
			b.WriteString("   (" + t.Note + ")\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("--------------------------------\n")
	b.WriteString("*Last Updated:* " + c.UpdatedAt.UTC().Format(summaryDateLayout) + "\n\n")
	b.WriteString("*Generated via " + opts.AppName + " App*")

	text := b.String()
	return Summary{
		Text:      text,
		ShareLink: shareBaseURL + strings.ReplaceAll(url.QueryEscape(text), "+", "%20"),
		Preview:   preview(text),
	}
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength]) + "..."
}
