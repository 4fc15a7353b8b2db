package public

import (
	"errors"

	"github.com/flashbites/flashbites/internal/http/response"
	"github.com/flashbites/flashbites/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var orderCommonErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrUnauthorizedActor, code: response.CodeForbidden, key: "error.order_actor_forbidden"},
}

var orderTransitionErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidStatus, code: response.CodeBadRequest, key: "error.order_status_invalid"},
	{target: service.ErrInvalidTransition, code: response.CodeBadRequest, key: "error.order_transition_invalid"},
	{target: service.ErrStaleState, code: response.CodeConflict, key: "error.order_state_stale"},
	{target: service.ErrNoPartnerAssigned, code: response.CodeBadRequest, key: "error.order_no_partner"},
}

var verifyDeliveryErrorRules = []mappedHandlerError{
	{target: service.ErrOtpMismatch, code: response.CodeBadRequest, key: "error.otp_mismatch"},
	{target: service.ErrNoPendingOtp, code: response.CodeBadRequest, key: "error.otp_not_pending"},
	{target: service.ErrOtpRateLimited, code: response.CodeTooManyRequests, key: "error.otp_rate_limited"},
	{target: service.ErrStaleState, code: response.CodeConflict, key: "error.order_state_stale"},
}

var notificationErrorRules = []mappedHandlerError{
	{target: service.ErrNotificationNotFound, code: response.CodeNotFound, key: "error.notification_not_found"},
}

var pushSubscriptionErrorRules = []mappedHandlerError{
	{target: service.ErrSubscriptionInvalid, code: response.CodeBadRequest, key: "error.subscription_invalid"},
}

func respondOrderTransitionError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderCommonErrorRules, orderTransitionErrorRules), response.CodeInternal, "error.order_update_failed")
}

func respondVerifyDeliveryError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderCommonErrorRules, verifyDeliveryErrorRules), response.CodeInternal, "error.order_update_failed")
}
