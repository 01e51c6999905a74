package validation

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"artisan_storefront/internal/models"

	"github.com/go-playground/validator/v10"
)

const (
	MinPasswordLength    = 8
	MinAddressLineLength = 10
)

var (
	emailRegex   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex   = regexp.MustCompile(`^(\+91[\-\s]?)?[6-9]\d{9}$`)
	pincodeRegex = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

// IsValidEmail : un seul @, pas d'espace, et un point après le @
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidPhone : mobile indien à 10 chiffres, préfixe +91 optionnel
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// IsValidPincode : 6 chiffres, le premier entre 1 et 9
func IsValidPincode(pincode string) bool {
	return pincodeRegex.MatchString(pincode)
}

// IsValidPassword : au moins 8 caractères dont une majuscule, une minuscule et un chiffre
func IsValidPassword(password string) bool {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return false
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// ValidateAddress lance toutes les règles et renvoie champ → message pour chaque champ en erreur.
// Une map vide signifie adresse valide.
func ValidateAddress(addr models.ShippingAddress) map[string]string {
	errs := make(map[string]string)

	if isBlank(addr.FullName) {
		errs["full_name"] = "Le nom est requis"
	}
	if !IsValidPhone(strings.TrimSpace(addr.Phone)) {
		errs["phone"] = "Numéro de téléphone invalide (10 chiffres)"
	}
	if utf8.RuneCountInString(strings.TrimSpace(addr.AddressLine1)) < MinAddressLineLength {
		errs["address_line1"] = "Adresse trop courte (10 caractères minimum)"
	}
	if isBlank(addr.City) {
		errs["city"] = "La ville est requise"
	}
	if isBlank(addr.State) {
		errs["state"] = "L'état est requis"
	}
	if !IsValidPincode(strings.TrimSpace(addr.Pincode)) {
		errs["pincode"] = "Code PIN invalide (6 chiffres)"
	}

	return errs
}

// ValidateRegistration vérifie le formulaire d'inscription
func ValidateRegistration(name, email, password string) map[string]string {
	errs := make(map[string]string)

	if isBlank(name) {
		errs["name"] = "Le nom est requis"
	}
	if !IsValidEmail(strings.TrimSpace(email)) {
		errs["email"] = "Adresse e-mail invalide"
	}
	if !IsValidPassword(password) {
		errs["password"] = "Le mot de passe doit contenir 8 caractères, une majuscule, une minuscule et un chiffre"
	}

	return errs
}

// RegisterBindings expose les règles comme tags validator ("pincode", "in_phone", "strong_password")
// pour les binding gin. Les erreurs portent le nom JSON du champ.
func RegisterBindings(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	rules := map[string]func(string) bool{
		"pincode":         trimmed(IsValidPincode),
		"in_phone":        trimmed(IsValidPhone),
		"strong_password": IsValidPassword,
	}
	for tag, rule := range rules {
		rule := rule
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return rule(fl.Field().String())
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func trimmed(rule func(string) bool) func(string) bool {
	return func(s string) bool {
		return rule(strings.TrimSpace(s))
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
