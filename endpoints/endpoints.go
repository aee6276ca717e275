// Package endpoints builds the URLs of the API under test.
package endpoints

import (
	"net/url"
	"strconv"
	"strings"
)

// Paths of the API under test.
const (
	PathLogin              = "/api/login"
	PathValuation          = "/api/valuation"
	PathDocumentsBySection = "/api/get_documents_by_section"
	PathFactor             = "/api/factor"
	PathDealerRadiusFactor = "/api/dealer_radius_factor"
)

// Document sections served by PathDocumentsBySection.
const (
	SectionEULA    = "eula"
	SectionPrivacy = "pp"
	SectionTerms   = "tc"
	SectionHelp    = "help"
)

// DealerRadiusStepsOptions is the type parameter of the dealer radius factor endpoint.
const DealerRadiusStepsOptions = "StepsOptions"

// Defaults for ListQuery.
const (
	DefaultPerPage  = 10
	DefaultPageNo   = 1
	DefaultUsername = "mohit"
)

// Builder joins endpoint paths onto a base URL.
type Builder struct {
	baseURL string
}

// New returns a Builder for baseURL. A trailing slash is ignored.
func New(baseURL string) *Builder {
	return &Builder{baseURL: strings.TrimRight(baseURL, "/")}
}

// BaseURL returns the base URL without a trailing slash.
func (b *Builder) BaseURL() string {
	return b.baseURL
}

// Login is the authentication endpoint.
func (b *Builder) Login() string {
	return b.baseURL + PathLogin
}

// Valuation is the valuation create endpoint.
func (b *Builder) Valuation() string {
	return b.baseURL + PathValuation
}

// ValuationFor is the valuation endpoint scoped to username.
func (b *Builder) ValuationFor(username string) string {
	return b.Valuation() + "?username=" + url.QueryEscape(username)
}

// ListQuery holds the valuation list parameters.
type ListQuery struct {
	PerPage  int
	PageNo   int
	Query    string
	Username string
}

// DefaultListQuery returns 10 results per page, page 1, no search and the
// default user.
func DefaultListQuery() ListQuery {
	return ListQuery{
		PerPage:  DefaultPerPage,
		PageNo:   DefaultPageNo,
		Username: DefaultUsername,
	}
}

// ValuationList is the paginated valuation list endpoint. Zero PerPage,
// PageNo and Username fall back to the defaults; an empty Query is sent as q=.
func (b *Builder) ValuationList(q ListQuery) string {
	if q.PerPage == 0 {
		q.PerPage = DefaultPerPage
	}
	if q.PageNo == 0 {
		q.PageNo = DefaultPageNo
	}
	if q.Username == "" {
		q.Username = DefaultUsername
	}

	params := []string{
		"perPage=" + strconv.Itoa(q.PerPage),
		"pageNo=" + strconv.Itoa(q.PageNo),
		"q=" + url.QueryEscape(q.Query),
		"username=" + url.QueryEscape(q.Username),
	}
	return b.Valuation() + "?" + strings.Join(params, "&")
}

// DocumentsBySection is the document endpoint; the section goes in the
// "section" query parameter.
func (b *Builder) DocumentsBySection() string {
	return b.baseURL + PathDocumentsBySection
}

// Factors is the factor listing endpoint.
func (b *Builder) Factors() string {
	return b.baseURL + PathFactor
}

// DealerRadiusFactor is the dealer radius factor endpoint; the type goes in
// the "type" query parameter.
func (b *Builder) DealerRadiusFactor() string {
	return b.baseURL + PathDealerRadiusFactor
}
