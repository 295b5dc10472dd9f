package handlers

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"retail-catalog/internal/models"
)

var registerOnce sync.Once

// RegisterValidators installs the custom rules on gin's validator. Field errors
// are reported under their JSON names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("handlers.RegisterValidators: unexpected validator engine %T", binding.Validator.Engine())
	}

	registerOnce.Do(func() {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterStructValidation(validatePriceBounds, models.NewProductInput{})
	})
	return nil
}

// validatePriceBounds keeps a new product's starting price inside its own bounds.
func validatePriceBounds(sl validator.StructLevel) {
	in := sl.Current().Interface().(models.NewProductInput)
	switch {
	case in.MinPrice > in.MaxPrice:
		sl.ReportError(in.MinPrice, "minPrice", "MinPrice", "ltefield", "maxPrice")
	case in.BasePrice < in.MinPrice:
		sl.ReportError(in.BasePrice, "basePrice", "BasePrice", "gtefield", "minPrice")
	case in.BasePrice > in.MaxPrice:
		sl.ReportError(in.BasePrice, "basePrice", "BasePrice", "ltefield", "maxPrice")
	}
}
