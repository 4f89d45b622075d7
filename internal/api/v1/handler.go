package v1

import (
	"sync"

	"github.com/gin-gonic/gin"

	"skumapper/internal/config"
	"skumapper/internal/service/store"
)

// Handler API 处理器
type Handler struct {
	cfg       *config.AppConfig
	store     *store.MemoryStore
	downloads *transformDownloadStore

	mu sync.RWMutex // 保护 cfg 中可被 PATCH /config 修改的字段
}

// NewHandler 创建 API 处理器
func NewHandler(cfg *config.AppConfig, st *store.MemoryStore) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     st,
		downloads: newTransformDownloadStore(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 字段映射表
	router.GET("/mapping", h.GetMapping)
	router.POST("/mapping/reload", h.ReloadMapping)

	// 配置管理
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)

	// 转换
	router.POST("/transform", h.Transform)
	router.POST("/transform/stream", h.TransformStream)
	router.GET("/transform/download/:token", h.DownloadResult)
}

// mappingPath 当前映射文件路径（相对路径解析到程序目录）
func (h *Handler) mappingPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return config.ResolvePath(h.cfg.Mapping.Path)
}

// templatePath 当前 SKU 模板路径；未配置时返回空串（使用内置结构）
func (h *Handler) templatePath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return config.ResolvePath(h.cfg.Excel.TemplatePath)
}

// filePrefix 下载文件名前缀
func (h *Handler) filePrefix() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg.Output.FilePrefix
}

// exportsDir 输出目录（数据目录下的 exports/）
func (h *Handler) exportsDir() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return config.GetDataPath(h.cfg, "exports", "")
}
