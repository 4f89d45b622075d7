package v1

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"skumapper/internal/model"
	"skumapper/internal/service/transform"
)

// 允许上传的表格格式
var allowedUploadExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
	".csv":  true,
}

// Transform 转换上传表格并直接返回模板文件
// POST /api/transform
func (h *Handler) Transform(c *gin.Context) {
	// 解析 multipart form
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

	// 保存到临时目录
	tempFilePath := filepath.Join(os.TempDir(), fmt.Sprintf("skumapper_upload_%d_%s", time.Now().Unix(), uploadedFile.Filename))
	if err := c.SaveUploadedFile(uploadedFile, tempFilePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败", "code": "UPLOAD_SAVE_ERROR"})
		return
	}
	defer os.Remove(tempFilePath)

	m, ok := h.store.Mapping()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "无法处理：映射配置不可用",
			"code":  "MAPPING_LOAD_ERROR",
		})
		return
	}

	result, err := transform.Run(transform.Options{
		FilePath:     tempFilePath,
		Filename:     uploadedFile.Filename,
		Sheet:        c.PostForm("sheet"),
		Mapping:      m,
		TemplatePath: h.templatePath(),
		OutputDir:    h.exportsDir(),
		FilePrefix:   h.filePrefix(),
	})
	if err != nil {
		h.store.RecordFailure()
		writeTransformError(c, err, uploadedFile.Filename)
		return
	}
	defer os.Remove(result.OutputPath)

	h.store.RecordTransform(result.RowCount)

	c.Header("Content-Disposition", buildDownloadContentDisposition(result.Filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.File(result.OutputPath)
}

// classifyTransformError 按错误类型映射 HTTP 状态码、用户提示与错误码
func classifyTransformError(err error, filename string) (int, string, string) {
	var parseErr *model.InputParseError
	if errors.As(err, &parseErr) {
		msg := "解析上传文件失败: " + err.Error()
		if strings.EqualFold(filepath.Ext(filename), ".xls") {
			msg = "无法读取 .xls 文件，请在 Excel 中另存为 .xlsx 后重新上传"
		}
		return http.StatusBadRequest, msg, "INPUT_PARSE_ERROR"
	}

	var mappingErr *model.InvalidMappingError
	if errors.As(err, &mappingErr) {
		return http.StatusUnprocessableEntity, "字段映射无效: " + mappingErr.Reason, "INVALID_MAPPING"
	}

	var loadErr *model.MappingLoadError
	if errors.As(err, &loadErr) {
		return http.StatusServiceUnavailable, "无法处理：映射配置不可用", "MAPPING_LOAD_ERROR"
	}

	return http.StatusInternalServerError, "转换失败: " + err.Error(), "TRANSFORM_ERROR"
}

func writeTransformError(c *gin.Context, err error, filename string) {
	status, msg, code := classifyTransformError(err, filename)
	c.JSON(status, gin.H{"error": msg, "code": code})
}
