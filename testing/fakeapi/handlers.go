package fakeapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/apitest/endpoints"
	"github.com/gaborage/apitest/fixtures"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type pagingQuery struct {
	PageNo  int `validate:"min=1,max=1000000"`
	PerPage int `validate:"min=1,max=1000"`
}

type valuationRequest struct {
	DealerInfoID    int    `json:"dealer_info_id" validate:"required"`
	Name            string `json:"name" validate:"required"`
	ConfigID        int    `json:"config_id" validate:"required"`
	IsInstantReport bool   `json:"isInstantReport"`
	DealerID        string `json:"dealer_id" validate:"required"`
}

// page is the pagination envelope shared by list endpoints.
type page[T any] struct {
	Total   int `json:"total"`
	PageNo  int `json:"pageNo"`
	PerPage int `json:"perPage"`
	Pages   int `json:"pages"`
	Results []T `json:"results"`
}

func paginate[T any](items []T, pageNo, perPage int) page[T] {
	p := page[T]{
		Total:   len(items),
		PageNo:  pageNo,
		PerPage: perPage,
		Pages:   (len(items) + perPage - 1) / perPage,
		Results: []T{},
	}
	start := (pageNo - 1) * perPage
	if start < 0 || start >= len(items) {
		return p
	}
	end := min(start+perPage, len(items))
	p.Results = append(p.Results, items[start:end]...)
	return p
}

// bindPaging reads pageNo and perPage with the list defaults.
func bindPaging(c echo.Context) (pageNo, perPage int, err error) {
	pageNo, perPage = endpoints.DefaultPageNo, endpoints.DefaultPerPage
	err = echo.QueryParamsBinder(c).
		Int("pageNo", &pageNo).
		Int("perPage", &perPage).
		BindError()
	if err != nil {
		return 0, 0, err
	}
	if err := c.Validate(&pagingQuery{PageNo: pageNo, PerPage: perPage}); err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "pageNo must be in [1, 1000000] and perPage in [1, 1000]")
	}
	return pageNo, perPage, nil
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]any{"message": "malformed login request", "status": false})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]any{"message": "username and password are required", "status": false})
	}

	s.mu.Lock()
	password, ok := s.accounts[req.Username]
	s.mu.Unlock()
	if !ok || password != req.Password {
		return c.JSON(http.StatusUnauthorized, map[string]any{"message": fixtures.MsgInvalidCredentials, "status": false})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Login successful",
		"status":  true,
		"token":   s.IssueToken(),
	})
}

func (s *Server) listValuations(c echo.Context) error {
	pageNo, perPage, err := bindPaging(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"detail": err.Error()})
	}
	query := strings.ToLower(c.QueryParam("q"))
	username := c.QueryParam("username")

	s.mu.Lock()
	matched := make([]valuation, 0, len(s.valuations))
	for _, v := range s.valuations {
		if username != "" && v.Username != username {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(v.Name), query) {
			continue
		}
		matched = append(matched, v)
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, paginate(matched, pageNo, perPage))
}

// createValuation answers 408 for payloads it cannot use, as the live service does.
func (s *Server) createValuation(c echo.Context) error {
	var req valuationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusRequestTimeout, map[string]any{"Message": "Request Timeout", "Status": false})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusRequestTimeout, map[string]any{"Message": "Request Timeout", "Status": false})
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.valuations = append(s.valuations, valuation{
		ID:              id,
		Name:            req.Name,
		DealerInfoID:    req.DealerInfoID,
		ConfigID:        req.ConfigID,
		DealerID:        req.DealerID,
		IsInstantReport: req.IsInstantReport,
		Username:        c.QueryParam("username"),
		CreatedOn:       s.now().UTC().Format(createdOnLayout),
	})
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{
		"Message":      fixtures.MsgValuationCreated,
		"Valuation_id": id,
		"Status":       true,
	})
}

func (s *Server) documentsBySection(c echo.Context) error {
	doc, ok := documents()[c.QueryParam("section")]
	if !ok {
		doc = document{Sections: map[string][]string{}}
	}
	return c.JSON(http.StatusOK, doc)
}

func (s *Server) listFactors(c echo.Context) error {
	pageNo, perPage, err := bindPaging(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"detail": err.Error()})
	}
	return c.JSON(http.StatusOK, paginate(factors(), pageNo, perPage))
}

func (s *Server) dealerRadiusFactor(c echo.Context) error {
	if c.QueryParam("type") != endpoints.DealerRadiusStepsOptions {
		return c.JSON(http.StatusBadRequest, map[string]any{"detail": "unsupported type"})
	}
	return c.JSON(http.StatusOK, fixtures.DealerRadiusSteps())
}
