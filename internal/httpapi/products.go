package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minhanee-art/kingtire/internal/discount"
	"github.com/minhanee-art/kingtire/internal/merge"
	"github.com/minhanee-art/kingtire/internal/quote"
)

// GET /api/products?q=&grade=&mode=&brand=&session=
// With a session the grade, mode and manual rates come from it.
func (s *Server) searchProducts(c *gin.Context) {
	var cust merge.Customer
	if id := c.Query("session"); id != "" {
		sess, err := s.Sessions.Get(id)
		if err != nil {
			fail(c, http.StatusNotFound, "Session not found")
			return
		}
		cust = sess.Customer()
	} else {
		g, err := discount.ParseGrade(c.Query("grade"))
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		cust = merge.Customer{Grade: g, Mode: merge.ParseMode(c.Query("mode"))}
	}

	products, err := s.Engine.Search(c.Request.Context(), c.Query("q"), cust)
	if err != nil {
		fail(c, http.StatusServiceUnavailable, "Search cancelled")
		return
	}
	if brand := c.Query("brand"); brand != "" {
		products = merge.FilterBrand(products, brand)
	}
	ok(c, "Products fetched", products)
}

// POST /api/catalog/refresh
func (s *Server) refreshCatalog(c *gin.Context) {
	entries, err := s.Catalog.Refresh(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("catalog refresh failed")
		fail(c, http.StatusBadGateway, "Catalog refresh failed")
		return
	}
	_, at := s.Catalog.Snapshot()
	ok(c, "Catalog refreshed", gin.H{"entries": len(entries), "fetchedAt": at})
}

// findProduct re-runs a search for the catalog size of code and returns the
// priced product for that code.
func (s *Server) findProduct(c *gin.Context, sess *quote.Session, code string) (merge.Product, error) {
	entries, err := s.Catalog.Fetch(c.Request.Context())
	if err != nil {
		return merge.Product{}, err
	}
	size := ""
	for _, e := range entries {
		if e.Code == code {
			size = e.Size
			break
		}
	}
	if size == "" {
		return merge.Product{}, errProductNotFound
	}
	products, err := s.Engine.Search(c.Request.Context(), size, sess.Customer())
	if err != nil {
		return merge.Product{}, err
	}
	for _, p := range products {
		if p.Code == code {
			return p, nil
		}
	}
	return merge.Product{}, errProductNotFound
}

var errProductNotFound = errors.New("product not found")
