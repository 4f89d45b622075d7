package v1

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
)

// DownloadResult 下载转换结果文件（一次性）
// GET /api/transform/download/:token
func (h *Handler) DownloadResult(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token", "code": "BAD_REQUEST"})
		return
	}

	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效", "code": "DOWNLOAD_EXPIRED"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "转换结果文件不存在", "code": "DOWNLOAD_MISSING"})
		return
	}

	c.Header("Content-Disposition", buildDownloadContentDisposition(item.filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.File(item.filePath)
	_ = os.Remove(item.filePath)
}

// buildDownloadContentDisposition 生成带 RFC 5987 编码文件名的响应头，
// ASCII 回退名供不支持 filename* 的客户端使用
func buildDownloadContentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s",
		asciiFallbackFilename(filename), url.PathEscape(filename))
}

func asciiFallbackFilename(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		if r > unicode.MaxASCII || r < 0x20 || r == '"' || r == '\\' {
			continue
		}
		b.WriteRune(r)
	}
	fallback := b.String()
	if strings.TrimSuffix(fallback, filepath.Ext(fallback)) == "" {
		return "download.xlsx"
	}
	return fallback
}
