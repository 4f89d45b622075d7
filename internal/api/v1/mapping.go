package v1

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"skumapper/internal/model"
	"skumapper/internal/service/mapping"
)

// MappingResponse 字段映射响应
type MappingResponse struct {
	Loaded     bool                 `json:"loaded"`
	Path       string               `json:"path"`
	Attributes int                  `json:"attributes"`
	Fields     []model.FieldMapping `json:"fields"`
	LoadedAt   string               `json:"loadedAt,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// GetMapping 获取当前字段映射
// GET /api/mapping
func (h *Handler) GetMapping(c *gin.Context) {
	state := h.store.MappingState()

	resp := MappingResponse{
		Loaded:     state.Loaded,
		Path:       state.Path,
		Attributes: state.Attributes,
		Fields:     []model.FieldMapping{},
		Error:      state.LoadError,
	}
	if m, ok := h.store.Mapping(); ok {
		resp.Fields = m.Fields
	}
	if !state.LoadedAt.IsZero() {
		resp.LoadedAt = state.LoadedAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}

// ReloadMapping 重新加载映射文件
// POST /api/mapping/reload
func (h *Handler) ReloadMapping(c *gin.Context) {
	path := h.mappingPath()

	m, err := mapping.Load(path)
	if err != nil {
		h.store.SetMappingError(path, err)
		log.Printf("重新加载映射失败: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "无法处理：映射配置不可用",
			"code":  "MAPPING_LOAD_ERROR",
		})
		return
	}

	h.store.ReplaceMapping(m, path)
	c.JSON(http.StatusOK, gin.H{
		"loaded":     true,
		"path":       path,
		"attributes": m.Len(),
	})
}
