package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/minhanee-art/kingtire/internal/discount"
	"github.com/minhanee-art/kingtire/internal/merge"
	"github.com/minhanee-art/kingtire/internal/pricing"
	"github.com/minhanee-art/kingtire/internal/quote"
)

type lineView struct {
	quote.Line
	Rate      float64 `json:"rate"`
	UnitPrice int64   `json:"unitPrice"`
	Subtotal  int64   `json:"subtotal"`
}

type cartView struct {
	ID      string          `json:"id"`
	Grade   discount.Grade  `json:"grade"`
	Mode    merge.Mode      `json:"mode"`
	Lines   []lineView      `json:"lines"`
	Total   int64           `json:"total"`
	Compare []merge.Product `json:"compare"`
}

func viewLine(l quote.Line) lineView {
	return lineView{Line: l, Rate: l.Rate(), UnitPrice: l.UnitPrice(), Subtotal: l.Subtotal()}
}

func viewCart(sess *quote.Session) cartView {
	cust := sess.Customer()
	lines := sess.Lines()
	v := cartView{
		ID:      sess.ID,
		Grade:   cust.Grade,
		Mode:    cust.Mode,
		Lines:   make([]lineView, len(lines)),
		Total:   sess.Total(),
		Compare: sess.CompareList(),
	}
	for i, l := range lines {
		v.Lines[i] = viewLine(l)
	}
	return v
}

// session resolves :id or aborts with 404.
func (s *Server) session(c *gin.Context) (*quote.Session, bool) {
	sess, err := s.Sessions.Get(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, "Cart not found")
		return nil, false
	}
	return sess, true
}

func (s *Server) lineError(c *gin.Context, err error) {
	if errors.Is(err, quote.ErrLineNotFound) {
		fail(c, http.StatusNotFound, "Line not found")
		return
	}
	fail(c, http.StatusInternalServerError, err.Error())
}

type gradeRequest struct {
	Grade string `json:"grade"`
}

// POST /api/carts
func (s *Server) createCart(c *gin.Context) {
	var req gradeRequest
	_ = c.ShouldBindJSON(&req)
	g, err := discount.ParseGrade(req.Grade)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	sess := s.Sessions.New(g)
	c.JSON(http.StatusCreated, Response{Message: "Cart created", Data: viewCart(sess)})
}

func (s *Server) getCart(c *gin.Context) {
	if sess, found := s.session(c); found {
		ok(c, "Cart fetched", viewCart(sess))
	}
}

func (s *Server) deleteCart(c *gin.Context) {
	if _, found := s.session(c); found {
		s.Sessions.Delete(c.Param("id"))
		ok(c, "Cart deleted", nil)
	}
}

// PUT /api/carts/:id/grade applies to later searches and additions.
func (s *Server) setCartGrade(c *gin.Context) {
	sess, found := s.session(c)
	if !found {
		return
	}
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	g, err := discount.ParseGrade(req.Grade)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	sess.SetGrade(g)
	ok(c, "Grade updated", viewCart(sess))
}

func (s *Server) setCartMode(c *gin.Context) {
	sess, found := s.session(c)
	if !found {
		return
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	sess.SetMode(merge.ParseMode(req.Mode))
	ok(c, "Mode updated", viewCart(sess))
}

type rateInput struct {
	// Raw operator input; non-numeric characters are ignored and blank clears.
	Rate string `json:"rate"`
}

// PUT /api/carts/:id/manual/:code
func (s *Server) setManualRate(c *gin.Context) {
	sess, found := s.session(c)
	if !found {
		return
	}
	var req rateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	sess.SetManualRate(c.Param("code"), req.Rate)
	ok(c, "Manual rate updated", viewCart(sess))
}

type codeRequest struct {
	Code string `json:"code" binding:"required"`
}

// POST /api/carts/:id/lines
func (s *Server) addLine(c *gin.Context) {
	sess, found := s.session(c)
	if !found {
		return
	}
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "code required")
		return
	}
	p, err := s.findProduct(c, sess, strings.TrimSpace(req.Code))
	if err != nil {
		s.productError(c, err)
		return
	}
	l := sess.Add(p)
	ok(c, "Line added", viewLine(l))
}

func (s *Server) clearLines(c *gin.Context) {
	if sess, found := s.session(c); found {
		sess.Clear()
		ok(c, "Cart cleared", viewCart(sess))
	}
}

// PATCH /api/carts/:id/lines/:code {"delta": n}
func (s *Server) changeQuantity(c *gin.Context) {
	sess, found := s.session(c)
	if !found {
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	l, err := sess.AddQuantity(c.Param("code"), req.Delta)
	if err != nil {
		s.lineError(c, err)
		return
	}
	ok(c, "Quantity updated", viewLine(l))
}

// PUT /api/carts/:id/lines/:code/discount; blank rate restores the product rate.
func (s *Server) setLineDiscount(c *gin.Context) {
	sess, found := s.session(c)
	if !found {
		return
	}
	var req rateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	var rate *float64
	if v, set := pricing.ParseRate(req.Rate); set {
		rate = &v
	}
	l, err := sess.SetLineDiscount(c.Param("code"), rate)
	if err != nil {
		s.lineError(c, err)
		return
	}
	ok(c, "Line discount updated", viewLine(l))
}

func (s *Server) removeLine(c *gin.Context) {
	sess, found := s.session(c)
	if !found {
		return
	}
	if err := sess.Remove(c.Param("code")); err != nil {
		s.lineError(c, err)
		return
	}
	ok(c, "Line removed", viewCart(sess))
}

// GET /api/carts/:id/quote returns the shareable quote as plain text.
func (s *Server) quoteText(c *gin.Context) {
	if sess, found := s.session(c); found {
		c.String(http.StatusOK, quote.QuoteText(sess.Lines(), s.Branding))
	}
}

// POST /api/carts/:id/compare {"code": "..."} toggles a product in the comparison list.
func (s *Server) toggleCompare(c *gin.Context) {
	sess, found := s.session(c)
	if !found {
		return
	}
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "code required")
		return
	}
	code := strings.TrimSpace(req.Code)

	// removal must not depend on the product still being in stock
	for _, p := range sess.CompareList() {
		if p.Code == code {
			sess.ToggleCompare(p)
			ok(c, "Removed from comparison", gin.H{"selected": false})
			return
		}
	}

	p, err := s.findProduct(c, sess, code)
	if err != nil {
		s.productError(c, err)
		return
	}
	in, err := sess.ToggleCompare(p)
	if errors.Is(err, quote.ErrCompareFull) {
		fail(c, http.StatusConflict, "Comparison list is full")
		return
	}
	ok(c, "Added to comparison", gin.H{"selected": in})
}

func (s *Server) compareText(c *gin.Context) {
	if sess, found := s.session(c); found {
		c.String(http.StatusOK, quote.CompareText(sess.CompareList(), s.Branding))
	}
}

func (s *Server) productError(c *gin.Context, err error) {
	if errors.Is(err, errProductNotFound) {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	s.log.Error().Err(err).Msg("product lookup failed")
	fail(c, http.StatusBadGateway, "Catalog unavailable")
}
