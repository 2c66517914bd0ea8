// Package currency converts base-currency (INR) amounts into a customer's
// local currency using a static rate table, and maps device hints
// (timezone, locale) to a country code. The resolver chain itself lives in
// the resolve-currency worker; this package is pure lookup.
package currency

import (
	"fmt"
	"math"
	"strings"
)

// DefaultCountry is used when every resolution step is inconclusive.
const DefaultCountry = "IN"

type rate struct {
	Code       string
	Symbol     string
	PerBase    float64 // units of this currency per 1 INR
	SymbolLast bool
}

// rates are expressed relative to the base currency (INR). Static by design;
// pricing tiers are coarse enough that live FX is not worth the dependency.
var rates = map[string]rate{
	"IN": {Code: "INR", Symbol: "₹", PerBase: 1.0},
	"US": {Code: "USD", Symbol: "$", PerBase: 0.012},
	"GB": {Code: "GBP", Symbol: "£", PerBase: 0.0095},
	"EU": {Code: "EUR", Symbol: "€", PerBase: 0.011},
	"AE": {Code: "AED", Symbol: "د.إ", PerBase: 0.044},
	"SG": {Code: "SGD", Symbol: "S$", PerBase: 0.016},
	"AU": {Code: "AUD", Symbol: "A$", PerBase: 0.018},
	"CA": {Code: "CAD", Symbol: "C$", PerBase: 0.016},
	"JP": {Code: "JPY", Symbol: "¥", PerBase: 1.8},
}

// Conversion is a localized price.
type Conversion struct {
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
	Formatted    string `json:"formatted"`
}

// Convert localizes a base amount, rounding to the nearest whole unit and
// flooring at 1 so a cheap tier can never round down to a zero-amount order
// the gateway would reject. Unknown countries fall back to the base currency.
func Convert(amountBase int64, countryCode string) Conversion {
	r, ok := rates[strings.ToUpper(countryCode)]
	if !ok {
		r = rates[DefaultCountry]
	}

	amount := int64(math.Round(float64(amountBase) * r.PerBase))
	if amountBase > 0 && amount < 1 {
		amount = 1
	}

	return Conversion{
		Amount:       amount,
		CurrencyCode: r.Code,
		Formatted:    fmt.Sprintf("%s%d", r.Symbol, amount),
	}
}

// tzCountries maps timezone city substrings to countries. First match wins.
var tzCountries = []struct {
	substr  string
	country string
}{
	{"Kolkata", "IN"}, {"Calcutta", "IN"}, {"Mumbai", "IN"},
	{"New_York", "US"}, {"Chicago", "US"}, {"Denver", "US"}, {"Los_Angeles", "US"}, {"Phoenix", "US"},
	{"London", "GB"},
	{"Dubai", "AE"},
	{"Singapore", "SG"},
	{"Sydney", "AU"}, {"Melbourne", "AU"}, {"Brisbane", "AU"},
	{"Toronto", "CA"}, {"Vancouver", "CA"},
	{"Tokyo", "JP"},
	{"Paris", "EU"}, {"Berlin", "EU"}, {"Madrid", "EU"}, {"Rome", "EU"}, {"Amsterdam", "EU"}, {"Brussels", "EU"},
}

// FromTimezone matches an IANA timezone string against the city table.
func FromTimezone(tz string) (string, bool) {
	for _, entry := range tzCountries {
		if strings.Contains(tz, entry.substr) {
			return entry.country, true
		}
	}
	return "", false
}

// localeCountries maps BCP47 locale prefixes to countries. Region subtags are
// checked before bare language tags so "en-US" never matches a language rule.
var localeCountries = []struct {
	prefix  string
	country string
}{
	{"en-in", "IN"}, {"hi", "IN"}, {"ta", "IN"}, {"te", "IN"}, {"bn", "IN"},
	{"en-us", "US"},
	{"en-gb", "GB"},
	{"en-au", "AU"},
	{"en-ca", "CA"}, {"fr-ca", "CA"},
	{"en-sg", "SG"},
	{"ar-ae", "AE"},
	{"ja", "JP"},
	{"de", "EU"}, {"fr", "EU"}, {"es", "EU"}, {"it", "EU"}, {"nl", "EU"},
}

// FromLocale matches a device locale string against the locale table.
func FromLocale(locale string) (string, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(locale, "_", "-"))
	for _, entry := range localeCountries {
		if strings.HasPrefix(normalized, entry.prefix) {
			return entry.country, true
		}
	}
	return "", false
}

// Supported reports whether a country code has a rate entry.
func Supported(countryCode string) bool {
	_, ok := rates[strings.ToUpper(countryCode)]
	return ok
}
