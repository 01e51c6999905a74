package validation

import (
	"testing"

	"artisan_storefront/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:     "Asha Verma",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road, Indiranagar",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560038",
		Country:      "India",
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("asha@example.com"))
	assert.True(t, IsValidEmail("a.b+c@shop.co.in"))

	assert.False(t, IsValidEmail(""))
	assert.False(t, IsValidEmail("asha.example.com"))
	assert.False(t, IsValidEmail("asha@@example.com"))
	assert.False(t, IsValidEmail("as ha@example.com"))
	assert.False(t, IsValidEmail("asha@example"))
	assert.False(t, IsValidEmail("@example.com"))
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("9876543210"))
	assert.True(t, IsValidPhone("+919876543210"))
	assert.True(t, IsValidPhone("+91 9876543210"))
	assert.True(t, IsValidPhone("+91-6123456789"))

	assert.False(t, IsValidPhone("5876543210"))
	assert.False(t, IsValidPhone("987654321"))
	assert.False(t, IsValidPhone("98765432101"))
	assert.False(t, IsValidPhone("+44 9876543210"))
}

func TestIsValidPincode(t *testing.T) {
	assert.True(t, IsValidPincode("560038"))
	assert.True(t, IsValidPincode("110001"))

	assert.False(t, IsValidPincode("1234"))
	assert.False(t, IsValidPincode("012345"))
	assert.False(t, IsValidPincode("1234567"))
	assert.False(t, IsValidPincode("56003a"))
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("Secret123"))

	assert.False(t, IsValidPassword("Sec123"))
	assert.False(t, IsValidPassword("secret123"))
	assert.False(t, IsValidPassword("SECRET123"))
	assert.False(t, IsValidPassword("SecretPass"))
}

func TestValidateAddress_Valid(t *testing.T) {
	assert.Empty(t, ValidateAddress(validAddress()))
}

func TestValidateAddress_ShortPincodeOnlyFlagsPincode(t *testing.T) {
	addr := validAddress()
	addr.Pincode = "1234"

	errs := ValidateAddress(addr)
	require.Len(t, errs, 1)
	assert.NotEmpty(t, errs["pincode"])
}

func TestValidateAddress_ReportsEveryFailingField(t *testing.T) {
	errs := ValidateAddress(models.ShippingAddress{AddressLine1: "short"})

	for _, field := range []string{"full_name", "phone", "address_line1", "city", "state", "pincode"} {
		assert.Contains(t, errs, field)
	}
}

func TestValidateRegistration(t *testing.T) {
	assert.Empty(t, ValidateRegistration("Asha", "asha@example.com", "Secret123"))

	errs := ValidateRegistration(" ", "nope", "weak")
	assert.Len(t, errs, 3)
}

func TestRegisterBindings(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterBindings(v))

	type form struct {
		Pincode  string `validate:"pincode"`
		Phone    string `validate:"in_phone"`
		Password string `validate:"strong_password"`
	}

	assert.NoError(t, v.Struct(form{Pincode: "560038", Phone: "9876543210", Password: "Secret123"}))
	assert.Error(t, v.Struct(form{Pincode: "1234", Phone: "9876543210", Password: "Secret123"}))
}
