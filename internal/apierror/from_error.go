package apierror

import (
	"errors"
	"net/http"

	"boutique/internal/service"
)

// FromError maps an engine error to its HTTP status and response body.
// Unknown errors become an opaque 500.
func FromError(err error) (int, interface{}) {
	var (
		verr  *service.ValidationError
		nferr *service.NotFoundError
		cerr  *service.ConflictError
		serr  *service.InsufficientStockError
		cperr *service.CouponIneligibleError
	)
	switch {
	case errors.As(err, &verr):
		fields := map[string]string{}
		if verr.Field != "" {
			fields[verr.Field] = verr.Message
		}
		return http.StatusUnprocessableEntity, &ValidationError{Code: CodeValidation, Detail: verr.Error(), Fields: fields}
	case errors.As(err, &nferr):
		return http.StatusNotFound, WithCode(CodeNotFound, nferr.Error())
	case errors.As(err, &serr):
		return http.StatusConflict, &APIError{Code: CodeInsufficientStock, Detail: serr.Error(), VariantID: serr.VariantID.String()}
	case errors.As(err, &cperr):
		return http.StatusConflict, WithCode(CodeCouponIneligible, cperr.Error())
	case errors.As(err, &cerr):
		code := cerr.Code
		if code == "" {
			code = CodeConflict
		}
		return http.StatusConflict, WithCode(code, cerr.Error())
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusUnprocessableEntity, WithCode(CodeEmptyCart, err.Error())
	}
	return http.StatusInternalServerError, WithCode(CodeInternal, "internal server error")
}
