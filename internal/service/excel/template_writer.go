package excel

import (
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"skumapper/internal/model"
)

// SKU 模板固定的两个输出页
const (
	ValuesSheet = "Values"
	TypeSheet   = "Type"
)

var fixedTemplateSheets = []string{
	ValuesSheet,
	TypeSheet,
}

// TemplateWriter SKU 模板写入器：在模板工作簿上写出 Values/Type 两页
type TemplateWriter struct {
	wb *excelize.File
}

// NewTemplateWriter 创建写入器
func NewTemplateWriter(wb *excelize.File) *TemplateWriter {
	return &TemplateWriter{wb: wb}
}

// OpenTemplate 从路径打开 SKU 模板工作簿
func OpenTemplate(path string) (*excelize.File, error) {
	if path == "" {
		return nil, errors.New("template path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("template not found: %w", err)
	}
	return excelize.OpenFile(path)
}

// LoadTemplate 打开模板；路径为空或文件不存在时回退到内置固定结构
// 路径存在但工作簿损坏时返回错误（配置问题应当暴露而不是悄悄回退）
func LoadTemplate(path string) (*excelize.File, error) {
	if path == "" {
		return NewFixedTemplateWorkbook(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return NewFixedTemplateWorkbook(), nil
	}
	return excelize.OpenFile(path)
}

// NewFixedTemplateWorkbook 创建固定结构的 SKU 模板骨架（无样式，供缺省输出使用）
func NewFixedTemplateWorkbook() *excelize.File {
	wb := excelize.NewFile()
	wb.SetSheetName("Sheet1", fixedTemplateSheets[0])
	for _, name := range fixedTemplateSheets[1:] {
		wb.NewSheet(name)
	}
	wb.SetActiveSheet(0)
	return wb
}

// File 返回底层工作簿
func (w *TemplateWriter) File() *excelize.File {
	return w.wb
}

// WriteValues 写出 Values 页：第一行是映射目标属性（按映射迭代顺序），下面逐行数据
// 模板页里残留的旧数据先清空
func (w *TemplateWriter) WriteValues(values *model.ValuesTable) error {
	if w == nil || w.wb == nil {
		return errors.New("template workbook is nil")
	}

	ensureSheet(w.wb, ValuesSheet)
	if err := clearSheetRows(w.wb, ValuesSheet); err != nil {
		return err
	}

	header := toCellRow(values.Columns)
	if err := w.wb.SetSheetRow(ValuesSheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range values.Rows {
		cells := toCellRow(row)
		if err := w.wb.SetSheetRow(ValuesSheet, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return err
		}
	}

	return w.styleValuesHeader(len(values.Columns))
}

// WriteTypes 写出 Type 页：每个目标属性一行，依次是属性名、来源列名、各去重取值
func (w *TemplateWriter) WriteTypes(types model.TypeTable) error {
	if w == nil || w.wb == nil {
		return errors.New("template workbook is nil")
	}

	ensureSheet(w.wb, TypeSheet)
	if err := clearSheetRows(w.wb, TypeSheet); err != nil {
		return err
	}

	for i, t := range types {
		cells := make([]interface{}, 0, len(t.Values)+2)
		cells = append(cells, t.Header, t.Source)
		for _, v := range t.Values {
			cells = append(cells, v)
		}
		if err := w.wb.SetSheetRow(TypeSheet, fmt.Sprintf("A%d", i+1), &cells); err != nil {
			return err
		}
	}

	return nil
}

// styleValuesHeader 表头加粗、灰底、居中，并给数据列一个可读列宽
func (w *TemplateWriter) styleValuesHeader(columns int) error {
	headerStyle, err := w.wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	if err := w.wb.SetRowStyle(ValuesSheet, 1, 1, headerStyle); err != nil {
		return err
	}

	for i := 0; i < columns; i++ {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			continue
		}
		if err := w.wb.SetColWidth(ValuesSheet, col, col, 18); err != nil {
			return err
		}
	}
	return nil
}

// clearSheetRows 自底向上移除工作表现有行
func clearSheetRows(wb *excelize.File, sheetName string) error {
	rows, err := wb.GetRows(sheetName)
	if err != nil {
		return err
	}
	for r := len(rows); r >= 1; r-- {
		if err := wb.RemoveRow(sheetName, r); err != nil {
			return err
		}
	}
	return nil
}

func ensureSheet(wb *excelize.File, sheetName string) {
	if idx, err := wb.GetSheetIndex(sheetName); err == nil && idx >= 0 {
		return
	}
	wb.NewSheet(sheetName)
}

func toCellRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
