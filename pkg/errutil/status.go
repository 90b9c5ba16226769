package errutil

import "net/http"

// CoreStatus is the transport-agnostic error classification used across the
// engine. Handlers map it to HTTP at the edge.
type CoreStatus string

const (
	StatusBadRequest          CoreStatus = "BAD_REQUEST"
	StatusUnauthorized        CoreStatus = "UNAUTHORIZED"
	StatusForbidden           CoreStatus = "FORBIDDEN"
	StatusNotFound            CoreStatus = "NOT_FOUND"
	StatusConflict            CoreStatus = "CONFLICT"
	StatusUnprocessableEntity CoreStatus = "UNPROCESSABLE_ENTITY"
	StatusValidationFailed    CoreStatus = "VALIDATION_FAILED"
	StatusInternal            CoreStatus = "INTERNAL"
	StatusNotImplemented      CoreStatus = "NOT_IMPLEMENTED"

	// Loyalty-domain statuses.
	StatusInsufficientPoints CoreStatus = "INSUFFICIENT_POINTS"
	StatusCouponUsed         CoreStatus = "COUPON_ALREADY_USED"
	StatusCouponExpired      CoreStatus = "COUPON_EXPIRED"
	StatusCouponApplied      CoreStatus = "COUPON_ALREADY_APPLIED"
)

// HTTPStatus converts the CoreStatus to its closest HTTP status code equivalent.
func (s CoreStatus) HTTPStatus() int {
	switch s {
	case StatusBadRequest, StatusValidationFailed:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusConflict
	case StatusUnprocessableEntity, StatusInsufficientPoints,
		StatusCouponUsed, StatusCouponExpired, StatusCouponApplied:
		return http.StatusUnprocessableEntity
	case StatusNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
