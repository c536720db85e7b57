package handler

import (
	"errors"
	"net/http"
	"reflect"

	"fiadopos/internal/apierror"
	"fiadopos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps the service error taxonomy to HTTP status codes:
// validation → 400, not found → 404, insufficient stock → 409, consistency
// violations and everything unexpected → 500 (logged, detail hidden).
func respondError(c *gin.Context, err error) {
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, apierror.New(validation.Error()))
		return
	}
	var notFound *service.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, apierror.New(notFound.Error()))
		return
	}
	var stock *service.InsufficientStockError
	if errors.As(err, &stock) {
		c.JSON(http.StatusConflict, apierror.New(stock.Error()))
		return
	}
	var consistency *service.ConsistencyError
	if errors.As(err, &consistency) {
		log.Error().Err(err).Msg("consistency violation")
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
		return
	}
	log.Error().Err(err).Msg("unexpected service error")
	c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
}
