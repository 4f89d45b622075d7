package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const appVersion = "1.2.0"

// StatusResponse 系统状态响应
type StatusResponse struct {
	App               string `json:"app"`               // 应用名
	Version           string `json:"version"`           // 版本号
	MappingLoaded     bool   `json:"mappingLoaded"`     // 映射表是否已加载
	MappingPath       string `json:"mappingPath"`       // 映射文件路径
	MappingAttributes int    `json:"mappingAttributes"` // 映射属性数量
	MappingLoadedAt   string `json:"mappingLoadedAt"`   // 加载时间
	MappingError      string `json:"mappingError,omitempty"`
	TemplatePath      string `json:"templatePath"`    // SKU 模板路径（空为内置结构）
	TransformCount    int    `json:"transformCount"`  // 成功转换次数
	ProcessedRows     int    `json:"processedRows"`   // 累计处理行数
	FailureCount      int    `json:"failureCount"`    // 失败次数
	LastTransformAt   string `json:"lastTransformAt"` // 最近一次转换时间
	UptimeSeconds     int64  `json:"uptimeSeconds"`   // 运行时长
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	state := h.store.MappingState()
	stats := h.store.Stats()

	resp := StatusResponse{
		App:               "skumapper",
		Version:           appVersion,
		MappingLoaded:     state.Loaded,
		MappingPath:       state.Path,
		MappingAttributes: state.Attributes,
		MappingError:      state.LoadError,
		TemplatePath:      h.templatePath(),
		TransformCount:    stats.TransformCount,
		ProcessedRows:     stats.ProcessedRows,
		FailureCount:      stats.FailureCount,
		UptimeSeconds:     int64(time.Since(h.store.StartedAt()).Seconds()),
	}
	if !state.LoadedAt.IsZero() {
		resp.MappingLoadedAt = state.LoadedAt.Format(time.RFC3339)
	}
	if !stats.LastTransformAt.IsZero() {
		resp.LastTransformAt = stats.LastTransformAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}
