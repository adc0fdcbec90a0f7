package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/minhanee-art/kingtire/internal/discount"
)

// GET /api/discounts
func (s *Server) listDiscounts(c *gin.Context) {
	ok(c, "Discounts fetched", s.Admin.All())
}

type setDiscountRequest struct {
	Code    string `json:"code"`
	Brand   string `json:"brand"`
	Pattern string `json:"pattern"`
	Model   string `json:"model"`
	Size    string `json:"size"`

	// Either Grade+Rate, Grade "ALL"+Rate for every managed grade, or Rates.
	Grade string             `json:"grade"`
	Rate  *float64           `json:"rate"`
	Rates map[string]float64 `json:"rates"`
}

func (r setDiscountRequest) key(kind discount.Kind) discount.Key {
	switch kind {
	case discount.KindCode:
		return discount.CodeKey(r.Code)
	case discount.KindPattern:
		return discount.PatternKey(r.Brand, r.Pattern)
	case discount.KindSize:
		return discount.SizeKey(r.Size)
	default:
		return discount.ModelKey(r.Brand, r.Model)
	}
}

// PUT /api/discounts/:kind
func (s *Server) setDiscount(c *gin.Context) {
	kind, err := discount.ParseKind(c.Param("kind"))
	if err != nil {
		fail(c, http.StatusNotFound, err.Error())
		return
	}
	var req setDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	k := req.key(kind)
	ctx := c.Request.Context()

	switch {
	case len(req.Rates) > 0:
		rates, perr := parseRates(req.Rates)
		if perr != nil {
			fail(c, http.StatusBadRequest, perr.Error())
			return
		}
		err = s.Admin.ApplyRates(ctx, k, rates)
	case req.Rate == nil:
		fail(c, http.StatusBadRequest, "rate or rates required")
		return
	case strings.EqualFold(req.Grade, "ALL"):
		err = s.Admin.ApplyAllGrades(ctx, k, *req.Rate)
	default:
		g, gerr := discount.ParseGrade(req.Grade)
		if gerr != nil {
			fail(c, http.StatusBadRequest, gerr.Error())
			return
		}
		err = s.Admin.Set(ctx, k, g, *req.Rate)
	}
	if err != nil {
		s.adminError(c, err)
		return
	}
	ok(c, "Discount saved", k)
}

type bulkRequest struct {
	Brand string             `json:"brand"`
	Rates map[string]float64 `json:"rates"`
}

// POST /api/discounts/bulk applies rates to every pattern of a brand.
func (s *Server) bulkPatternDiscount(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Rates) == 0 {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	rates, err := parseRates(req.Rates)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.Catalog.Fetch(c.Request.Context())
	if err != nil {
		fail(c, http.StatusBadGateway, "Catalog unavailable")
		return
	}
	groups := discount.PatternGroups(entries, s.AllowedBrands)
	n, err := s.Admin.ApplyBrandPatterns(c.Request.Context(), req.Brand, groups, rates)
	if err != nil {
		s.log.Error().Err(err).Int("written", n).Msg("bulk discount stopped")
		c.JSON(http.StatusInternalServerError, Response{Message: "Bulk update stopped", Data: gin.H{"patterns": n}, Error: true})
		return
	}
	ok(c, "Bulk discount applied", gin.H{"patterns": n})
}

// GET /api/admin/patterns?brand=
func (s *Server) patternGroups(c *gin.Context) {
	entries, err := s.Catalog.Fetch(c.Request.Context())
	if err != nil {
		fail(c, http.StatusBadGateway, "Catalog unavailable")
		return
	}
	groups := discount.PatternGroups(entries, s.AllowedBrands)
	if brand := c.Query("brand"); brand != "" && !strings.EqualFold(brand, "All") {
		filtered := groups[:0]
		for _, g := range groups {
			if g.Brand == brand {
				filtered = append(filtered, g)
			}
		}
		groups = filtered
	}
	ok(c, "Pattern groups fetched", groups)
}

// GET /api/admin/sizes
func (s *Server) sizeList(c *gin.Context) {
	entries, err := s.Catalog.Fetch(c.Request.Context())
	if err != nil {
		fail(c, http.StatusBadGateway, "Catalog unavailable")
		return
	}
	ok(c, "Sizes fetched", discount.Sizes(entries))
}

func parseRates(in map[string]float64) (discount.Rates, error) {
	out := make(discount.Rates, len(in))
	for name, v := range in {
		g, err := discount.ParseGrade(name)
		if err != nil {
			return nil, err
		}
		out[g] = v
	}
	return out, nil
}

func (s *Server) adminError(c *gin.Context, err error) {
	if errors.Is(err, discount.ErrInvalidKey) || errors.Is(err, discount.ErrInvalidGrade) {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s.log.Error().Err(err).Msg("discount write failed")
	fail(c, http.StatusInternalServerError, "Failed to save discount")
}
