// Package fixtures holds the request payloads and expected values shared by
// the API suites and the fake API.
package fixtures

import "github.com/gaborage/apitest/endpoints"

// Login credentials.
const (
	Username = "testuser"
	Password = "securepassword"

	InvalidUsername = "invalid_user"
	InvalidPassword = "wrong_password"

	// ExpiredToken is a token the API no longer accepts.
	ExpiredToken = "expired_token"
	// InvalidToken is an Authorization header value the API rejects.
	InvalidToken = "Token invalid_token"
)

// Valuation identifiers.
const (
	DealerInfoID    = 21739
	ConfigID        = 1421
	DealerID        = "52"
	ValuationName   = "Estimate_22 Apr 2025 12:15:17"
	InvalidDealerID = "99999"
	InvalidConfigID = 9999
)

// Messages returned by the API.
const (
	MsgInvalidCredentials = "Invalid username or password"
	MsgValuationCreated   = "Successfully Created New Valuation"
)

// Defaults mirrored from the endpoint builder.
const (
	DefaultUsername   = endpoints.DefaultUsername
	DefaultPageSize   = endpoints.DefaultPerPage
	DefaultPageNumber = endpoints.DefaultPageNo
)

// LoginPayload returns a well-formed login body.
func LoginPayload() map[string]any {
	return map[string]any{"username": Username, "password": Password}
}

// InvalidLoginPayload returns credentials the API does not know.
func InvalidLoginPayload() map[string]any {
	return map[string]any{"username": "invaliduser", "password": "wrongpassword"}
}

// ValuationPayload returns a complete valuation create body.
func ValuationPayload() map[string]any {
	return map[string]any{
		"dealer_info_id":  DealerInfoID,
		"name":            ValuationName,
		"config_id":       ConfigID,
		"isInstantReport": true,
		"dealer_id":       DealerID,
	}
}

// ValuationMissingFields returns a valuation body without config and dealer ids.
func ValuationMissingFields() map[string]any {
	return map[string]any{
		"dealer_info_id": DealerInfoID,
		"name":           "Test Valuation",
	}
}

// DefaultHeaders returns the headers sent with every request.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
}

// AuthHeaders returns the headers used by the valuation list endpoint, which
// expects a plain-text content type.
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": token,
		"Content-Type":  "text/plain",
	}
}

// DealerRadiusSteps is the sorted list of radius options.
func DealerRadiusSteps() []int {
	return []int{1, 2, 3, 4, 5, 7, 10, 15, 20, 30, 40, 50, 75, 100}
}

// Factor is a factor id and display name.
type Factor struct {
	ID   int
	Name string
}

// Factors returns the first page of factors in API order.
func Factors() []Factor {
	return []Factor{
		{ID: 4, Name: "Profitability % of Revenue"},
		{ID: 33, Name: "F&I (per car) Used"},
		{ID: 43, Name: "PVR (per car) Used"},
		{ID: 54, Name: ""},
		{ID: 56, Name: "Financials Test"},
		{ID: 115, Name: "PVR (New & Used)"},
		{ID: 116, Name: "F&I (New & Used)"},
		{ID: 141, Name: "PVR New"},
		{ID: 142, Name: "F&I New"},
		{ID: 149, Name: "testing"},
	}
}

// FactorTotal is the number of factors across all pages.
const FactorTotal = 15

// FactorFields are the keys present on every factor result.
var FactorFields = []string{"id", "name", "kpi__name", "factortype__name", "active", "createdOn", "weight"}
