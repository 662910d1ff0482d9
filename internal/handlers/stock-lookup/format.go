// internal/handlers/stock-lookup/format.go
package stocklookup

import (
	"fmt"
	"strings"

	"stock-bot/internal/models"
)

const (
	usageTmpl    = "Format: %s nama_barang"
	narrowHint   = "Ketik nama yang lebih spesifik."
	notFoundTmpl = "❌ Barang \"%s\" tidak ditemukan."
	listHeadTmpl = "🔎 Ditemukan %d barang untuk \"%s\":"
)

// UsageHint is sent when the trigger is followed by nothing.
func UsageHint(trigger string) string {
	return fmt.Sprintf(usageTmpl, trigger)
}

// FormatNotFound echoes the query back to the user.
func FormatNotFound(query string) string {
	return fmt.Sprintf(notFoundTmpl, query)
}

// FormatCard renders the detail card for a single match.
func FormatCard(p models.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *%s*\n", p.Name)
	fmt.Fprintf(&b, "🔢 Kode: %s\n", p.Code)
	fmt.Fprintf(&b, "📊 Stok: *%s %s*\n", p.Quantity, p.Unit)
	fmt.Fprintf(&b, "📍 Lokasi: %s\n", p.Location)
	fmt.Fprintf(&b, "⏱ Last update: %s", p.LastUpdate)
	return b.String()
}

// FormatList renders a numbered list of matches followed by a hint to narrow
// the query.
func FormatList(query string, matches []models.ScoredMatch) string {
	lines := make([]string, 0, len(matches)+2)
	lines = append(lines, fmt.Sprintf(listHeadTmpl, len(matches), query))
	for i, m := range matches {
		lines = append(lines, fmt.Sprintf("%d. %s (stok: %s %s, lokasi: %s, last update: %s)",
			i+1, m.Name, m.Quantity, m.Unit, m.Location, m.LastUpdate))
	}
	lines = append(lines, narrowHint)
	return strings.Join(lines, "\n")
}

// FormatMatches picks the reply shape for the number of matches.
func FormatMatches(query string, matches []models.ScoredMatch) (string, models.ReplyKind) {
	switch len(matches) {
	case 0:
		return FormatNotFound(query), models.ReplyNotFound
	case 1:
		return FormatCard(matches[0].Product), models.ReplySingle
	default:
		return FormatList(query, matches), models.ReplyList
	}
}
