package v1

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"skumapper/internal/config"
	"skumapper/internal/service/mapping"
)

// ConfigResponse 配置响应
type ConfigResponse struct {
	Port         int    `json:"port"`         // 服务端口
	DataDir      string `json:"dataDir"`      // 数据目录
	MappingPath  string `json:"mappingPath"`  // 映射文件路径
	TemplatePath string `json:"templatePath"` // SKU 模板路径（空为内置结构）
	FilePrefix   string `json:"filePrefix"`   // 导出文件名前缀
}

// UpdateConfigRequest 更新配置请求，字段为空指针表示不修改
type UpdateConfigRequest struct {
	MappingPath  *string `json:"mappingPath"`
	TemplatePath *string `json:"templatePath"`
	FilePrefix   *string `json:"filePrefix"`
}

// GetConfig 获取当前配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	h.mu.RLock()
	resp := ConfigResponse{
		Port:         h.cfg.Server.Port,
		DataDir:      h.cfg.Data.DataDir,
		MappingPath:  h.cfg.Mapping.Path,
		TemplatePath: h.cfg.Excel.TemplatePath,
		FilePrefix:   h.cfg.Output.FilePrefix,
	}
	h.mu.RUnlock()

	c.JSON(http.StatusOK, resp)
}

// UpdateConfig 更新配置
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误", "code": "BAD_REQUEST"})
		return
	}

	mappingChanged := false

	h.mu.Lock()
	if req.MappingPath != nil && *req.MappingPath != h.cfg.Mapping.Path {
		h.cfg.Mapping.Path = *req.MappingPath
		mappingChanged = true
	}
	if req.TemplatePath != nil {
		h.cfg.Excel.TemplatePath = *req.TemplatePath
	}
	if req.FilePrefix != nil && *req.FilePrefix != "" {
		h.cfg.Output.FilePrefix = *req.FilePrefix
	}
	err := config.SaveConfig(h.cfg)
	h.mu.Unlock()

	if err != nil {
		log.Printf("保存配置失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存配置失败", "code": "CONFIG_SAVE_ERROR"})
		return
	}

	// 映射路径变化后立即重载，保持状态与配置一致
	if mappingChanged {
		path := h.mappingPath()
		if m, err := mapping.Load(path); err != nil {
			h.store.SetMappingError(path, err)
			log.Printf("切换映射文件后加载失败: %v", err)
		} else {
			h.store.ReplaceMapping(m, path)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "配置更新成功"})
}
