package partner

import (
	handlershared "github.com/flashbites/flashbites/internal/http/handlers/shared"
	"github.com/flashbites/flashbites/internal/service"

	"github.com/gin-gonic/gin"
)

func getPartnerID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "user_id", "error.user_id_invalid", "error.user_id_type_invalid")
}

func getActor(c *gin.Context) (service.Actor, bool) {
	uid, ok := getPartnerID(c)
	if !ok {
		return service.Actor{}, false
	}
	role := ""
	if value, ok := c.Get("user_role"); ok {
		role, _ = value.(string)
	}
	return service.Actor{UserID: uid, Role: role}, true
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}
