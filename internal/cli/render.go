package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/categorizer"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

const barWidth = 20

// ScoreBar draws score (0-100) as a fixed-width bar.
func ScoreBar(score int) string {
	switch {
	case score < 0:
		score = 0
	case score > 100:
		score = 100
	}
	filled := score * barWidth / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// RenderMatches writes ranked results as a table followed by each card's
// explanations. Card names are looked up in cards; unknown IDs print as-is.
func RenderMatches(w io.Writer, results []model.MatchResult, cards []model.CardFeatures) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, FormatWarning("No cards to recommend."))
		return err
	}

	names := make(map[string]string, len(cards))
	for _, c := range cards {
		names[c.CardID] = c.Name
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("#"),
		HeaderStyle.Render("Card"),
		HeaderStyle.Render("Score"),
		HeaderStyle.Render("")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range results {
		name := names[r.CardID]
		if name == "" {
			name = r.CardID
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, name, r.Score, ScoreBar(r.Score)); err != nil {
			return fmt.Errorf("failed to write result row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}

	for _, r := range results {
		if len(r.Explanations) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", SubtleStyle.Render(r.CardID)); err != nil {
			return err
		}
		for _, e := range r.Explanations {
			if _, err := fmt.Fprintf(w, "  %s\n", FormatSuccess(e)); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderBreakdown writes one result's per-criterion sub-scores.
func RenderBreakdown(w io.Writer, r model.MatchResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range model.AllCriteria() {
		score, ok := r.Breakdown[c]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(tw, "  %s\t%5.1f\t%s\n", c, score, ScoreBar(int(score))); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// RenderFeatures writes a feature vector: scalars first, then non-zero
// category shares from largest to smallest.
func RenderFeatures(w io.Writer, v model.UserFeatureVector) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Source:               %s\n", v.Source)
	fmt.Fprintf(&b, "Monthly spend:        ₹%.2f\n", v.TotalMonthlySpend)
	fmt.Fprintf(&b, "Months of coverage:   %d\n", v.MonthsOfCoverage)
	fmt.Fprintf(&b, "Confidence:           %.2f\n", v.Confidence)
	fmt.Fprintf(&b, "Pay in full:          %.2f\n", v.PayInFullScore)
	fmt.Fprintf(&b, "Fee tolerance:        ₹%.0f\n", v.FeeToleranceAmount)
	fmt.Fprintf(&b, "Travel intensity:     %.2f\n", v.TravelIntensity)
	fmt.Fprintf(&b, "Lounge importance:    %.2f\n", v.LoungeImportance)
	fmt.Fprintf(&b, "Forex spend:          %.1f%%\n", v.ForexSpendPct*100)
	fmt.Fprintf(&b, "Amex acceptance risk: %.2f", v.AmexAcceptanceRisk)

	if _, err := fmt.Fprintln(w, RenderBox("Spending profile", b.String())); err != nil {
		return err
	}

	type share struct {
		category model.CanonicalCategory
		value    float64
	}
	var shares []share
	for _, c := range model.AllCategories() {
		if s := v.CategoryShares[c]; s > 0 {
			shares = append(shares, share{c, s})
		}
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].value > shares[j].value })

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range shares {
		if _, err := fmt.Fprintf(tw, "%s\t%5.1f%%\t₹%.2f\n", s.category, s.value*100, v.CategorySpend[s.category]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// RenderResolutions writes merchant categorizations sorted by merchant.
func RenderResolutions(w io.Writer, results map[string]categorizer.Result) error {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("Merchant"),
		HeaderStyle.Render("Category"),
		HeaderStyle.Render("Source"),
		HeaderStyle.Render("Confidence")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, k := range keys {
		r := results[k]
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\n", k, r.Category, r.Source, r.Confidence); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return tw.Flush()
}

// RenderMerchants writes knowledge-store records in the order given.
func RenderMerchants(w io.Writer, records []model.MerchantRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No merchants found. Use 'cardcarry merchants add' to create one."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("Key"),
		HeaderStyle.Render("Category"),
		HeaderStyle.Render("Source"),
		HeaderStyle.Render("Uses"),
		HeaderStyle.Render("Last Seen")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, m := range records {
		lastSeen := "Never"
		if !m.LastSeen.IsZero() {
			lastSeen = m.LastSeen.Format("2006-01-02")
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			m.RawKey, m.Category, m.Source, m.UsageCount, lastSeen); err != nil {
			return fmt.Errorf("failed to write merchant row: %w", err)
		}
	}
	return tw.Flush()
}

// RenderCatalog writes one row per card in catalog order.
func RenderCatalog(w io.Writer, cards []model.CardFeatures) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("ID"),
		HeaderStyle.Render("Name"),
		HeaderStyle.Render("Issuer"),
		HeaderStyle.Render("Network"),
		HeaderStyle.Render("Annual Fee")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, c := range cards {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t₹%.0f\n", c.CardID, c.Name, c.Issuer, c.Network, c.AnnualFee); err != nil {
			return fmt.Errorf("failed to write card row: %w", err)
		}
	}
	return tw.Flush()
}

// RenderCard writes a card's terms and its enabled benefits.
func RenderCard(w io.Writer, c model.CardFeatures) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Issuer:       %s\n", c.Issuer)
	fmt.Fprintf(&b, "Network:      %s\n", c.Network)
	fmt.Fprintf(&b, "Annual fee:   ₹%.0f\n", c.AnnualFee)
	if c.WaiverRule != "" {
		fmt.Fprintf(&b, "Waiver:       %s\n", c.WaiverRule)
	}
	fmt.Fprintf(&b, "Forex markup: %.1f%%", c.ForexMarkupPct)
	if c.Eligibility != nil {
		if c.Eligibility.MinIncome > 0 {
			fmt.Fprintf(&b, "\nMin income:   ₹%.0f", c.Eligibility.MinIncome)
		}
		if len(c.Eligibility.Cities) > 0 {
			fmt.Fprintf(&b, "\nCities:       %s", strings.Join(c.Eligibility.Cities, ", "))
		}
	}

	title := c.Name
	if title == "" {
		title = c.CardID
	}
	if _, err := fmt.Fprintln(w, RenderBox(title, b.String())); err != nil {
		return err
	}

	for _, benefit := range c.Benefits {
		if !benefit.Bool() {
			continue
		}
		line := benefit.BenefitKey
		if benefit.ValueKind != model.ValueBoolean && benefit.Value != nil {
			line = fmt.Sprintf("%s: %v", benefit.BenefitKey, benefit.Value)
		}
		if _, err := fmt.Fprintf(w, "  %s\n", FormatSuccess(line)); err != nil {
			return err
		}
	}
	return nil
}
