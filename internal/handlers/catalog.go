package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
	"github.com/ukegedo/fruver-orderflow/internal/catalog"
	"github.com/ukegedo/fruver-orderflow/internal/validation"
)

func (a *api) registerCatalog(r *gin.Engine) {
	r.POST("/categories", a.createCategory)
	r.GET("/categories", a.listCategories)

	g := r.Group("/products")
	g.POST("", a.createProduct)
	g.GET("", a.listProducts)
	g.GET("/:id", a.getProduct)
	g.PUT("/:id", a.updateProduct)
	g.DELETE("/:id", a.deleteProduct)
	g.POST("/:id/stock", a.adjustStock)
}

func (a *api) createCategory(c *gin.Context) {
	var req validation.CategoryRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	cat, err := a.cfg.Catalog.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (a *api) listCategories(c *gin.Context) {
	list, err := a.cfg.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": list})
}

func productFromRequest(req validation.ProductRequest) catalog.Product {
	return catalog.Product{
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		Unit:        req.Unit,
	}
}

func (a *api) createProduct(c *gin.Context) {
	var req validation.ProductRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	p, err := a.cfg.Catalog.Create(c.Request.Context(), productFromRequest(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", "/products/"+p.ProductID)
	c.JSON(http.StatusCreated, p)
}

func (a *api) listProducts(c *gin.Context) {
	list, err := a.cfg.Catalog.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": list})
}

func (a *api) getProduct(c *gin.Context) {
	id := c.Param("id")
	p, err := a.cfg.Catalog.Get(c.Request.Context(), id)
	if err == nil && p == nil {
		err = apperrors.NotFound("product", id)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *api) updateProduct(c *gin.Context) {
	var req validation.ProductRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	p := productFromRequest(req)
	p.ProductID = c.Param("id")
	updated, err := a.cfg.Catalog.Update(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *api) deleteProduct(c *gin.Context) {
	if err := a.cfg.Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) adjustStock(c *gin.Context) {
	var req validation.StockAdjustRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	p, err := a.cfg.Catalog.AdjustStock(c.Request.Context(), c.Param("id"), req.Delta)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
