package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"skumapper/internal/model"
	"skumapper/internal/service/excel"
)

// ProgressEvent 转换进度
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
}

// ProgressFunc 进度回调（可为 nil）
type ProgressFunc func(ProgressEvent)

// Options 一次转换的全部输入
// 映射与路径由调用方显式传入，管线自身不读配置
type Options struct {
	FilePath     string         // 已保存的上传文件
	Filename     string         // 上传时的原始文件名
	Sheet        string         // 指定工作表；为空时自动挑选
	Mapping      *model.Mapping // 已加载的字段映射
	TemplatePath string         // SKU 模板路径；为空时使用内置固定结构
	OutputDir    string         // 输出目录；为空时使用系统临时目录
	FilePrefix   string         // 输出文件名前缀
	Progress     ProgressFunc
}

// Result 转换产物
type Result struct {
	OutputPath    string             `json:"-"`
	FileID        string             `json:"fileId"` // 本次上传的文件 ID，输出文件以此命名
	Filename      string             `json:"filename"`
	SourceSheet   string             `json:"sourceSheet"`
	RowCount      int                `json:"rowCount"`
	Attributes    int                `json:"attributes"`
	DistinctCount int                `json:"distinctCount"`
	Values        *model.ValuesTable `json:"values"`
	Types         model.TypeTable    `json:"types"`
}

// Run 执行一次完整转换：读输入 → 映射转换 → 写出模板工作簿
// 任何一步失败都不产出文件；成功时输出工作簿已写入 OutputPath
func Run(opts Options) (*Result, error) {
	report := func(percent int, stage string) {
		if opts.Progress == nil {
			return
		}
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		opts.Progress(ProgressEvent{Percent: percent, Stage: stage})
	}

	report(5, "读取上传文件")
	table, fileID, err := readInput(opts)
	if err != nil {
		return nil, err
	}

	report(35, "执行字段映射")
	values, types, err := Apply(table.Rows, opts.Mapping)
	if err != nil {
		return nil, err
	}

	report(60, "生成模板工作簿")
	wb, err := excel.LoadTemplate(opts.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("打开 SKU 模板失败: %w", err)
	}
	defer wb.Close()

	writer := excel.NewTemplateWriter(wb)
	if err := writer.WriteValues(values); err != nil {
		return nil, fmt.Errorf("写入 Values 页失败: %w", err)
	}
	if err := writer.WriteTypes(types); err != nil {
		return nil, fmt.Errorf("写入 Type 页失败: %w", err)
	}

	report(85, "保存输出文件")
	outputPath, err := saveWorkbook(wb, opts.OutputDir, fileID)
	if err != nil {
		return nil, err
	}

	report(100, "完成")
	return &Result{
		OutputPath:    outputPath,
		FileID:        fileID,
		Filename:      downloadFilename(opts.FilePrefix, opts.Filename),
		SourceSheet:   table.SheetName,
		RowCount:      len(values.Rows),
		Attributes:    len(types),
		DistinctCount: countDistinct(types),
		Values:        values,
		Types:         types,
	}, nil
}

// readInput 按扩展名读取上传文件为 RawTable，同时返回本次上传的文件 ID
func readInput(opts Options) (*model.RawTable, string, error) {
	if strings.EqualFold(filepath.Ext(opts.FilePath), ".csv") {
		f, err := os.Open(opts.FilePath)
		if err != nil {
			return nil, "", &model.InputParseError{Reason: "open upload", Err: err}
		}
		defer f.Close()

		table, err := excel.ReadCSVTable(f)
		if err != nil {
			return nil, "", err
		}
		// CSV 没有解析器对象，文件 ID 在这里分配
		return table, uuid.New().String(), nil
	}

	f, err := os.Open(opts.FilePath)
	if err != nil {
		return nil, "", &model.InputParseError{Reason: "open upload", Err: err}
	}
	defer f.Close()

	parser := excel.NewParser()
	if err := parser.LoadFile(f); err != nil {
		return nil, "", err
	}
	defer parser.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = excel.PickSheet(parser.Workbook(), opts.Mapping)
	}
	if sheet == "" {
		return nil, "", &model.InputParseError{Reason: "workbook has no sheets"}
	}

	table, err := parser.ParseTable(sheet)
	if err != nil {
		return nil, "", err
	}
	return table, parser.GetFileID(), nil
}

// saveWorkbook 把输出工作簿写到磁盘，以上传文件 ID 命名避免互相覆盖
func saveWorkbook(wb *excelize.File, outputDir, fileID string) (string, error) {
	dir := outputDir
	if dir == "" {
		dir = os.TempDir()
	}

	path := filepath.Join(dir, fmt.Sprintf("skumapper_export_%s.xlsx", fileID))
	if err := wb.SaveAs(path); err != nil {
		return "", fmt.Errorf("保存输出文件失败: %w", err)
	}
	return path, nil
}

// downloadFilename 面向用户的下载文件名：<前缀><原始文件名去扩展>.xlsx
func downloadFilename(prefix, original string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	if base == "" || base == "." {
		base = "output"
	}
	if prefix == "" {
		prefix = "SKU模板-"
	}
	return prefix + base + ".xlsx"
}

func countDistinct(types model.TypeTable) int {
	total := 0
	for _, t := range types {
		total += len(t.Values)
	}
	return total
}
