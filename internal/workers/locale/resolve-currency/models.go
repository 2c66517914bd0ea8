// internal/workers/locale/resolve-currency/models.go
package resolvecurrency

type Input struct {
	Timezone   string `json:"timezone,omitempty"`
	Locale     string `json:"locale,omitempty"`
	ClientIP   string `json:"clientIp,omitempty"`
	AmountBase int64  `json:"amountBase"`
}

type Output struct {
	CountryCode     string `json:"countryCode"`
	CurrencyCode    string `json:"currencyCode"`
	ConvertedAmount int64  `json:"convertedAmount"`
	Formatted       string `json:"formatted"`
	Source          string `json:"source"`
}
