package public

import "github.com/flashbites/flashbites/internal/provider"

// Handler 用户侧接口处理器入口
// 说明：该处理器覆盖顾客、餐厅老板的订单与通知 API。
type Handler struct {
	*provider.Container
}

// New 创建用户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
