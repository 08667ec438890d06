package validation

import (
	"reflect"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/ukegedo/fruver-orderflow/internal/money"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
)

// New returns a configured validator with the money type and the struct-level
// checks registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// money.Amount validates as its float value so gt/gte/lt tags apply.
	v.RegisterCustomTypeFunc(amountValue, money.Amount{})

	v.RegisterStructValidation(stockAdjustStructValidation, StockAdjustRequest{})
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})
	v.RegisterStructValidation(statusStructValidation, StatusRequest{})

	return v
}

func amountValue(field reflect.Value) interface{} {
	if a, ok := field.Interface().(money.Amount); ok {
		return a.Float64()
	}
	return nil
}

// stockAdjustStructValidation rejects a zero delta.
func stockAdjustStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(StockAdjustRequest)
	if req.Delta == 0 {
		sl.ReportError(req.Delta, "delta", "Delta", "nonzero", "")
	}
}

// createOrderStructValidation checks the optional initial status.
func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)
	if req.Status == "" {
		return
	}
	if _, err := orders.ParseStatus(req.Status); err != nil {
		sl.ReportError(req.Status, "status", "Status", "order_status", req.Status)
	}
}

func statusStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(StatusRequest)
	if req.Status == "" {
		return
	}
	if _, err := orders.ParseStatus(req.Status); err != nil {
		sl.ReportError(req.Status, "status", "Status", "order_status", req.Status)
	}
}
