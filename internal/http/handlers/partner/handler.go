package partner

import "github.com/flashbites/flashbites/internal/provider"

// Handler 配送员接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建配送员处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
