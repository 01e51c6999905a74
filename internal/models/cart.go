package models

// CartLineItem est une ligne du panier (produit + variante + quantité).
// Les montants sont en paise (unité mineure) pour éviter les flottants.
type CartLineItem struct {
	ProductID      string  `json:"product_id"`
	VariantID      *string `json:"variant_id"`
	Title          string  `json:"title"`
	SKU            string  `json:"sku"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	ImageURL       string  `json:"image_url"`
}

// LineKey identifie une ligne : (product_id, variant_id).
type LineKey struct {
	ProductID  string
	VariantID  string
	HasVariant bool
}

// Key retourne la clé d'identité de la ligne
func (i CartLineItem) Key() LineKey {
	return NewLineKey(i.ProductID, i.VariantID)
}

// LineTotalCents retourne prix unitaire × quantité
func (i CartLineItem) LineTotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// NewLineKey construit une clé ; une variante nil ne correspond qu'à nil.
func NewLineKey(productID string, variantID *string) LineKey {
	if variantID == nil {
		return LineKey{ProductID: productID}
	}
	return LineKey{ProductID: productID, VariantID: *variantID, HasVariant: true}
}

// Cart est l'état exposé du panier
type Cart struct {
	Items      []CartLineItem `json:"items"`
	TotalCents int64          `json:"total_cents"`
}
