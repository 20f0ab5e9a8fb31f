/**
 * @description
 * Typed response shapes for the Financial Modeling Prep quote API.
 *
 * @notes
 * - The single-quote endpoint returns a JSON array holding one quote object.
 * - Validation is explicit: a payload element only counts as a quote when it is
 *   an object carrying a non-empty string "symbol". Nothing else from the body
 *   is trusted beyond the documented fields.
 */

package fmp

// Quote is a validated quote for one symbol
type Quote struct {
	Symbol             string   `json:"symbol"`
	Name               string   `json:"name"`
	Price              *float64 `json:"price"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
}

// valid reports whether the decoded object satisfies the quote contract
func (q Quote) valid() bool {
	return q.Symbol != ""
}

// BestPrice resolves the quoted price, preferring "price" and falling back to
// "regularMarketPrice". Nil when neither field is present.
func (q Quote) BestPrice() *float64 {
	if q.Price != nil {
		return q.Price
	}
	return q.RegularMarketPrice
}
