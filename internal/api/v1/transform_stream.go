package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"skumapper/internal/service/transform"
)

type transformProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// 结果预览最多返回的数据行数
const previewRowLimit = 20

// TransformStream 转换上传表格（SSE 进度 + 完成后提供下载地址）
// POST /api/transform/stream
func (h *Handler) TransformStream(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的表单数据", "code": "BAD_REQUEST"})
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件", "code": "BAD_REQUEST"})
		return
	}

	uploadedFile := files[0]
	ext := strings.ToLower(filepath.Ext(uploadedFile.Filename))
	if !allowedUploadExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "不支持的文件格式，请上传 .xlsx / .xlsm / .xls / .csv",
			"code":  "BAD_REQUEST",
		})
		return
	}

	tempFilePath := filepath.Join(os.TempDir(), fmt.Sprintf("skumapper_upload_%d_%s", time.Now().Unix(), uploadedFile.Filename))
	if err := c.SaveUploadedFile(uploadedFile, tempFilePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败", "code": "UPLOAD_SAVE_ERROR"})
		return
	}
	defer os.Remove(tempFilePath)

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应", "code": "STREAM_UNSUPPORTED"})
		return
	}

	send := func(event transformProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	sendError := func(err error) {
		_, msg, code := classifyTransformError(err, uploadedFile.Filename)
		send(transformProgressEvent{
			Type:      "error",
			Message:   msg,
			Data:      map[string]any{"code": code},
			Timestamp: time.Now(),
		})
	}

	send(transformProgressEvent{
		Type:    "start",
		Message: "开始转换",
		Data: map[string]any{
			"filename": uploadedFile.Filename,
		},
		Timestamp: time.Now(),
	})

	m, ok := h.store.Mapping()
	if !ok {
		send(transformProgressEvent{
			Type:      "error",
			Message:   "无法处理：映射配置不可用",
			Data:      map[string]any{"code": "MAPPING_LOAD_ERROR"},
			Timestamp: time.Now(),
		})
		return
	}

	lastPercent := -1
	progressFn := func(p transform.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(transformProgressEvent{
			Type:      "progress",
			Message:   p.Stage,
			Data:      map[string]any{"percent": p.Percent},
			Timestamp: time.Now(),
		})
	}

	result, err := transform.Run(transform.Options{
		FilePath:     tempFilePath,
		Filename:     uploadedFile.Filename,
		Sheet:        c.PostForm("sheet"),
		Mapping:      m,
		TemplatePath: h.templatePath(),
		OutputDir:    h.exportsDir(),
		FilePrefix:   h.filePrefix(),
		Progress:     progressFn,
	})
	if err != nil {
		h.store.RecordFailure()
		sendError(err)
		return
	}

	h.store.RecordTransform(result.RowCount)

	token := h.downloads.put(result.OutputPath, result.Filename, 10*time.Minute)
	downloadURL := "/api/transform/download/" + token

	previewRows := result.Values.Rows
	if len(previewRows) > previewRowLimit {
		previewRows = previewRows[:previewRowLimit]
	}

	send(transformProgressEvent{
		Type:    "done",
		Message: "转换完成",
		Data: map[string]any{
			"percent":       100,
			"fileId":        result.FileID,
			"downloadUrl":   downloadURL,
			"filename":      result.Filename,
			"sourceSheet":   result.SourceSheet,
			"rowCount":      result.RowCount,
			"attributes":    result.Attributes,
			"distinctCount": result.DistinctCount,
			"columns":       result.Values.Columns,
			"previewRows":   previewRows,
			"types":         result.Types,
		},
		Timestamp: time.Now(),
	})
}
