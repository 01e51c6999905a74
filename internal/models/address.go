package models

// ShippingAddress est validée côté storefront mais jamais calculée.
type ShippingAddress struct {
	FullName     string `json:"full_name" binding:"required"`
	Phone        string `json:"phone" binding:"required,in_phone"`
	AddressLine1 string `json:"address_line1" binding:"required,min=10"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	Pincode      string `json:"pincode" binding:"required,pincode"`
	Country      string `json:"country"`
}
