package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ukegedo/fruver-orderflow/internal/idempotency"
	"github.com/ukegedo/fruver-orderflow/internal/lifecycle"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
	"github.com/ukegedo/fruver-orderflow/internal/validation"
)

func (a *api) registerOrders(r *gin.Engine) {
	g := r.Group("/orders")
	g.POST("", a.createOrder)
	g.GET("", a.listOrders)
	g.GET("/:id", a.getOrder)
	g.PUT("/:id/status", a.setStatus)
}

// createOrder is idempotent on the Idempotency-Key header: the first request
// with a key creates the order, later ones replay its stored response.
// An order created with status FULFILLED takes its stock at creation; the
// response then lists the resulting stock levels under "stock".
func (a *api) createOrder(c *gin.Context) {
	ctx := c.Request.Context()

	// Require idempotency key header
	idempKey := c.GetHeader(idempotency.HeaderKey)
	if idempKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key", "detail": "the Idempotency-Key header is required"})
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "detail": err.Error()})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	// Bind + validate request
	var req validation.CreateOrderRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		// BindAndValidate already wrote a 400
		return
	}

	fingerprint := idempotency.Fingerprint(raw)
	orderID := uuid.NewString()
	created, err := a.cfg.Idempotency.CreateIfNotExists(ctx, idempKey, orderID, fingerprint)
	if err != nil {
		writeError(c, fmt.Errorf("idempotency check: %w", err))
		return
	}
	if !created {
		a.replay(c, idempKey, fingerprint)
		return
	}

	draft := lifecycle.Draft{
		OrderID:    orderID,
		CustomerID: req.CustomerID,
	}
	if req.DeliveryDate != nil {
		draft.DeliveryDate = *req.DeliveryDate
	}
	if req.Status != "" {
		// already checked by the validator
		draft.Status, _ = orders.ParseStatus(req.Status)
	}
	for _, it := range req.Items {
		draft.Items = append(draft.Items, lifecycle.DraftItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	res, err := a.cfg.Lifecycle.CreateOrder(ctx, draft)
	if err != nil {
		status, body := errorBody(err)
		if status >= http.StatusInternalServerError {
			// let the client see the failure on retry instead of a replayed success
			if merr := a.cfg.Idempotency.MarkFailed(ctx, idempKey, err.Error()); merr != nil {
				log.Printf("[http] mark idempotency failed key=%s: %v", idempKey, merr)
			}
			writeError(c, err)
			return
		}
		a.respondAndRemember(c, idempKey, status, body)
		return
	}

	c.Header("Location", "/orders/"+res.Order.OrderID)
	body := gin.H{"order": res.Order, "warnings": res.Warnings}
	if len(res.Stock) > 0 {
		body["stock"] = res.Stock
	}
	a.respondAndRemember(c, idempKey, http.StatusCreated, body)
}

// respondAndRemember writes the response and stores it for replays.
func (a *api) respondAndRemember(c *gin.Context, key string, status int, body gin.H) {
	payload, err := json.Marshal(body)
	if err != nil {
		writeError(c, fmt.Errorf("marshal response: %w", err))
		return
	}
	if err := a.cfg.Idempotency.MarkDone(c.Request.Context(), key, string(payload), status); err != nil {
		log.Printf("[http] mark idempotency done key=%s: %v", key, err)
	}
	c.Data(status, "application/json; charset=utf-8", payload)
}

func (a *api) replay(c *gin.Context, key, fingerprint string) {
	rec, err := a.cfg.Idempotency.Get(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
		return
	}
	if rec == nil {
		// Unexpected: the conditional put failed but no record found
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_record_missing", "detail": key})
		return
	}
	if rec.Fingerprint != "" && rec.Fingerprint != fingerprint {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency_key_reused", "detail": "the key was used with a different request body"})
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "order_id": rec.OrderID})
	case idempotency.StatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "detail": rec.Note, "order_id": rec.OrderID})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status", "detail": rec.Status})
	}
}

func (a *api) listOrders(c *gin.Context) {
	list, err := a.cfg.Orders.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if raw := c.Query("status"); raw != "" {
		s, err := orders.ParseStatus(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		filtered := list[:0]
		for _, o := range list {
			if o.Status == s {
				filtered = append(filtered, o)
			}
		}
		list = filtered
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (a *api) getOrder(c *gin.Context) {
	o, err := a.cfg.Lifecycle.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (a *api) setStatus(c *gin.Context) {
	var req validation.StatusRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	status, err := orders.ParseStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := a.cfg.Lifecycle.SetStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
