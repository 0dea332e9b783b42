package reporting

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

var signalHeader = []string{
	"token_id", "token_name", "artist_address", "artist_alias", "price", "royalty_percent",
	"editions_listed", "editions_sold", "sold_rate", "avg_collect_interval_minutes",
	"fa_contract", "marketplace",
}

// RenderCSV renders accepted signals as CSV. Free-text fields are quoted as needed.
func RenderCSV(rows []SignalRow) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(signalHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.TokenID,
			r.TokenName,
			r.ArtistAddress,
			r.ArtistAlias,
			r.Price,
			strconv.FormatFloat(r.RoyaltyPercent, 'f', 4, 64),
			strconv.FormatInt(r.EditionsListed, 10),
			strconv.FormatInt(r.EditionsSold, 10),
			strconv.FormatFloat(r.SoldRate, 'f', 6, 64),
			r.CollectMinutes,
			r.FAContract,
			r.Marketplace,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv row %s: %w", r.TokenID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return sb.String(), nil
}
