package pricing

import (
	"strings"

	"artisan_storefront/internal/models"

	"github.com/shopspring/decimal"
)

// Montants en paise (1 ₹ = 100 paise)
const (
	FreeShippingThreshold int64 = 500000 // ₹5000
	FlatShippingFee       int64 = 10000  // ₹100
)

const Currency = "INR"

// TaxRate = 18 %, gardé en décimal exact (jamais en float64)
var TaxRate = decimal.RequireFromString("0.18")

// ComputeTotal additionne prix unitaire × quantité sur toutes les lignes.
func ComputeTotal(items []models.CartLineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotalCents()
	}
	return total
}

// ComputeShipping : gratuit strictement au-dessus du seuil, sinon forfait.
func ComputeShipping(subtotalCents int64) int64 {
	if subtotalCents > FreeShippingThreshold {
		return 0
	}
	return FlatShippingFee
}

// ComputeTax arrondit subtotal × 18 % à l'entier le plus proche,
// les demis s'éloignant de zéro (comportement de Math.round sur des valeurs positives).
func ComputeTax(subtotalCents int64) int64 {
	return decimal.NewFromInt(subtotalCents).Mul(TaxRate).Round(0).IntPart()
}

func ComputeGrandTotal(subtotalCents, shippingCents, taxCents int64) int64 {
	return subtotalCents + shippingCents + taxCents
}

// Summary est le détail affiché au récapitulatif panier / checkout
type Summary struct {
	SubtotalCents         int64  `json:"subtotal_cents"`
	ShippingCents         int64  `json:"shipping_cents"`
	TaxCents              int64  `json:"tax_cents"`
	GrandTotalCents       int64  `json:"grand_total_cents"`
	FreeShippingRemaining int64  `json:"free_shipping_remaining_cents"`
	Currency              string `json:"currency"`
}

func Summarize(items []models.CartLineItem) Summary {
	subtotal := ComputeTotal(items)
	shipping := ComputeShipping(subtotal)
	tax := ComputeTax(subtotal)

	var remaining int64
	if subtotal <= FreeShippingThreshold {
		// il faut dépasser le seuil d'au moins 1 paisa
		remaining = FreeShippingThreshold - subtotal + 1
	}

	return Summary{
		SubtotalCents:         subtotal,
		ShippingCents:         shipping,
		TaxCents:              tax,
		GrandTotalCents:       ComputeGrandTotal(subtotal, shipping, tax),
		FreeShippingRemaining: remaining,
		Currency:              Currency,
	}
}

// FormatRupees formate un montant en paise : 541000 → "₹5,410.00"
func FormatRupees(cents int64) string {
	amount := decimal.New(cents, -2)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	fixed := amount.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")
	return sign + "₹" + groupIndian(intPart) + "." + fracPart
}

// groupIndian applique le groupement indien : 1,23,45,678
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}
