package partner

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

var claimErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrAlreadyClaimed, code: response.CodeConflict, key: "error.order_already_claimed"},
	{target: service.ErrOrderNotReady, code: response.CodeConflict, key: "error.order_not_ready"},
	{target: service.ErrPartnerInvalid, code: response.CodeForbidden, key: "error.partner_invalid"},
}

var locationErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidLocation, code: response.CodeBadRequest, key: "error.location_invalid"},
}

var deliverErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrUnauthorizedActor, code: response.CodeForbidden, key: "error.order_actor_forbidden"},
	{target: service.ErrOtpMismatch, code: response.CodeBadRequest, key: "error.otp_mismatch"},
	{target: service.ErrNoPendingOtp, code: response.CodeBadRequest, key: "error.otp_not_pending"},
	{target: service.ErrOtpRateLimited, code: response.CodeTooManyRequests, key: "error.otp_rate_limited"},
	{target: service.ErrStaleState, code: response.CodeConflict, key: "error.order_state_stale"},
}
