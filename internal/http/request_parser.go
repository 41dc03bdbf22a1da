// Request parsing helpers: form-to-subscription mapping and list query
// extraction shared by the CRUD and partial handlers.

package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"subtrack/internal/billing"
	"subtrack/internal/core"
)

const dateLayout = "2006-01-02"

// ParseSubscriptionForm maps submitted form values onto a subscription.
// Missing optional fields are left for Normalize to default; validation
// happens in the service.
func ParseSubscriptionForm(form url.Values) (core.Subscription, error) {
	s := core.Subscription{
		Name:         sanitizeInput(form.Get("name")),
		ExpenseType:  core.ExpenseType(strings.TrimSpace(form.Get("expenseType"))),
		Category:     core.Category(strings.TrimSpace(form.Get("category"))),
		Currency:     core.Currency(strings.TrimSpace(form.Get("currency"))),
		BillingCycle: core.BillingCycle(strings.TrimSpace(form.Get("billingCycle"))),
		Description:  sanitizeInput(form.Get("description")),
	}

	priceStr := strings.TrimSpace(form.Get("price"))
	if priceStr != "" {
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return core.Subscription{}, fmt.Errorf("invalid price %q", priceStr)
		}
		s.Price = price
	}

	startStr := strings.TrimSpace(form.Get("startDate"))
	if startStr != "" {
		start, err := time.ParseInLocation(dateLayout, startStr, time.UTC)
		if err != nil {
			return core.Subscription{}, fmt.Errorf("invalid start date %q", startStr)
		}
		s.StartDate = start
	}

	endStr := strings.TrimSpace(form.Get("endDate"))
	if endStr != "" {
		end, err := time.ParseInLocation(dateLayout, endStr, time.UTC)
		if err != nil {
			return core.Subscription{}, fmt.Errorf("invalid end date %q", endStr)
		}
		s.EndDate = &end
	}

	return s, nil
}

// ParseListQuery extracts tab, category and search filters from the URL
// query. Unknown tabs fall back to "all".
func ParseListQuery(query url.Values) billing.Query {
	q := billing.Query{
		Tab:    strings.TrimSpace(query.Get("tab")),
		Search: sanitizeInput(query.Get("q")),
	}
	switch q.Tab {
	case "personal", "company":
	default:
		q.Tab = "all"
	}
	if cat := strings.TrimSpace(query.Get("category")); cat != "" && cat != "all" {
		q.Category = core.Category(cat)
	}
	return q
}

// sanitizeInput trims whitespace and strips control characters except
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// RequireMethod returns an error response when the request method is not
// one of the expected methods, nil otherwise.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// ParseFormOrFail parses the request form, returning an error response on
// failure and nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
