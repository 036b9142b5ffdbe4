package public

import "github.com/meili-next/internal/provider"

// Handler 经销商侧接口处理器入口
// 说明：该处理器仅用于经销商自助 API。
type Handler struct {
	*provider.Container
}

// New 创建经销商侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
