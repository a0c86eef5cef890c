package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// currencySymbols covers the currencies travelers actually ask for; anything
// else renders as its ISO code.
var currencySymbols = map[string]string{
	"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥", "CNY": "¥",
	"KRW": "₩", "INR": "₹", "THB": "฿", "VND": "₫", "BRL": "R$",
	"MXN": "MX$", "CAD": "C$", "AUD": "A$", "CHF": "CHF", "SEK": "kr",
	"NOK": "kr", "DKK": "kr", "PLN": "zł", "TRY": "₺", "AED": "د.إ",
}

// fallbackRates holds approximate per-USD rates for the major currencies,
// used as a last resort when both providers are unreachable.
var fallbackRates = map[string]float64{
	"USD": 1.0, "EUR": 0.92, "GBP": 0.79, "JPY": 150.0, "CNY": 7.2,
	"CAD": 1.36, "AUD": 1.52, "CHF": 0.88, "INR": 83.0, "BRL": 5.0,
	"MXN": 17.0, "THB": 35.0, "KRW": 1330.0, "SEK": 10.5, "NOK": 10.6,
	"DKK": 6.9, "PLN": 4.0, "TRY": 32.0, "AED": 3.67, "VND": 24500.0,
}

func staticRate(base, target string) (float64, bool) {
	b, okBase := fallbackRates[base]
	t, okTarget := fallbackRates[target]
	if !okBase || !okTarget || b == 0 {
		return 0, false
	}
	return t / b, true
}

// ExchangeRate returns how many units of target one unit of base buys. Two
// upstream providers are tried in order, then the static table; when even
// that has no entry the rate degrades to 1.0 so totals stay displayable.
func (c *Client) ExchangeRate(ctx context.Context, base, target string) (float64, error) {
	ctx, span := otel.Tracer("ExternalClient").Start(ctx, "ExchangeRate")
	defer span.End()

	base = strings.ToUpper(base)
	target = strings.ToUpper(target)
	span.SetAttributes(attribute.String("currency.base", base), attribute.String("currency.target", target))

	if base == target {
		return 1.0, nil
	}

	cacheKey := fmt.Sprintf("fx:%s:%s", base, target)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(float64), nil
	}

	rate, err := c.fetchRate(ctx, fmt.Sprintf("%s/latest/%s",
		strings.TrimRight(c.cfg.External.ExchangeURL, "/"), base), target, "rates")
	if err != nil {
		c.logger.WarnContext(ctx, "Primary exchange provider failed, trying fallback",
			slog.Any("error", err))
		rate, err = c.fetchRate(ctx, fmt.Sprintf("%s/latest?base=%s&symbols=%s",
			strings.TrimRight(c.cfg.External.ExchangeAltURL, "/"), base, target), target, "rates")
	}
	if err != nil {
		span.RecordError(err)
		if rate, ok := staticRate(base, target); ok {
			c.logger.WarnContext(ctx, "All exchange providers failed, using static rate",
				slog.String("base", base), slog.String("target", target), slog.Any("error", err))
			span.SetStatus(codes.Ok, "Static fallback rate")
			return rate, nil
		}
		c.logger.WarnContext(ctx, "All exchange providers failed, using 1.0",
			slog.String("base", base), slog.String("target", target), slog.Any("error", err))
		span.SetStatus(codes.Error, "Exchange rate unavailable")
		return 1.0, nil
	}

	c.cache.Set(cacheKey, rate, currencyCacheTTL)
	span.SetStatus(codes.Ok, "Rate fetched")
	return rate, nil
}

func (c *Client) fetchRate(ctx context.Context, endpoint, target, ratesKey string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build exchange request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("exchange provider returned status %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode exchange response: %w", err)
	}

	rates, ok := body[ratesKey].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("exchange response missing %q table", ratesKey)
	}
	rate, ok := rates[target].(float64)
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("exchange response has no usable rate for %s", target)
	}
	return rate, nil
}

// FormatCurrency renders an amount with its conventional symbol.
func FormatCurrency(amount float64, currency string) string {
	code := strings.ToUpper(currency)
	if symbol, ok := currencySymbols[code]; ok {
		return fmt.Sprintf("%s%.2f", symbol, amount)
	}
	return fmt.Sprintf("%.2f %s", amount, code)
}
