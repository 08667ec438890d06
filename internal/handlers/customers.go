package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
	"github.com/ukegedo/fruver-orderflow/internal/customers"
	"github.com/ukegedo/fruver-orderflow/internal/validation"
)

func (a *api) registerCustomers(r *gin.Engine) {
	g := r.Group("/customers")
	g.POST("", a.createCustomer)
	g.GET("", a.listCustomers)
	g.GET("/:id", a.getCustomer)
	g.PUT("/:id", a.updateCustomer)
	g.DELETE("/:id", a.deleteCustomer)
}

func customerFromRequest(req validation.CustomerRequest) customers.Customer {
	return customers.Customer{
		Name:    req.Name,
		Contact: req.Contact,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
}

func (a *api) createCustomer(c *gin.Context) {
	var req validation.CustomerRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	created, err := a.cfg.Customers.Create(c.Request.Context(), customerFromRequest(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", "/customers/"+created.CustomerID)
	c.JSON(http.StatusCreated, created)
}

func (a *api) listCustomers(c *gin.Context) {
	list, err := a.cfg.Customers.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": list})
}

func (a *api) getCustomer(c *gin.Context) {
	id := c.Param("id")
	cu, err := a.cfg.Customers.Get(c.Request.Context(), id)
	if err == nil && cu == nil {
		err = apperrors.NotFound("customer", id)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cu)
}

func (a *api) updateCustomer(c *gin.Context) {
	var req validation.CustomerRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	cu := customerFromRequest(req)
	cu.CustomerID = c.Param("id")
	updated, err := a.cfg.Customers.Update(c.Request.Context(), cu)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *api) deleteCustomer(c *gin.Context) {
	if err := a.cfg.Customers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
