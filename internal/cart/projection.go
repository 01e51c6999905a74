package cart

import (
	"artisan_storefront/internal/models"
	"artisan_storefront/internal/pricing"
)

// Projection est ce que consomment les composants d'affichage (badge, récapitulatif)
type Projection struct {
	Items      []models.CartLineItem `json:"items"`
	ItemCount  int                   `json:"item_count"`
	LineCount  int                   `json:"line_count"`
	TotalCents int64                 `json:"total_cents"`
	Summary    pricing.Summary       `json:"summary"`
	Formatted  FormattedTotals       `json:"formatted"`
}

type FormattedTotals struct {
	Subtotal   string `json:"subtotal"`
	Shipping   string `json:"shipping"`
	Tax        string `json:"tax"`
	GrandTotal string `json:"grand_total"`
}

func Project(items []models.CartLineItem) Projection {
	if items == nil {
		items = []models.CartLineItem{}
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}

	summary := pricing.Summarize(items)
	return Projection{
		Items:      items,
		ItemCount:  count,
		LineCount:  len(items),
		TotalCents: summary.SubtotalCents,
		Summary:    summary,
		Formatted: FormattedTotals{
			Subtotal:   pricing.FormatRupees(summary.SubtotalCents),
			Shipping:   pricing.FormatRupees(summary.ShippingCents),
			Tax:        pricing.FormatRupees(summary.TaxCents),
			GrandTotal: pricing.FormatRupees(summary.GrandTotalCents),
		},
	}
}
