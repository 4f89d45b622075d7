package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"skumapper/internal/model"
)

// Parser 上传工作簿解析器
type Parser struct {
	file   *excelize.File
	fileID string
}

// NewParser 创建解析器
func NewParser() *Parser {
	return &Parser{
		fileID: uuid.New().String(),
	}
}

// LoadFile 加载 Excel 文件
func (p *Parser) LoadFile(reader io.Reader) error {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return &model.InputParseError{Reason: "not a readable workbook", Err: err}
	}
	p.file = file
	return nil
}

// GetFileID 获取文件ID
func (p *Parser) GetFileID() string {
	return p.fileID
}

// Workbook 返回已加载的工作簿对象（只读使用）
func (p *Parser) Workbook() *excelize.File {
	return p.file
}

// GetSheets 获取工作表列表
func (p *Parser) GetSheets() ([]model.SheetInfo, error) {
	if p.file == nil {
		return nil, errors.New("no file loaded")
	}

	sheets := p.file.GetSheetList()
	result := make([]model.SheetInfo, 0, len(sheets))

	for _, name := range sheets {
		rows, err := p.file.GetRows(name)
		if err != nil {
			continue
		}
		result = append(result, model.SheetInfo{
			Name:     name,
			RowCount: len(rows),
		})
	}

	return result, nil
}

// GetColumns 获取表头列名（已裁剪首尾空白）
func (p *Parser) GetColumns(sheet string) ([]string, error) {
	if p.file == nil {
		return nil, errors.New("no file loaded")
	}

	rows, err := p.file.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty sheet")
	}

	return normalizeHeaders(rows[0]), nil
}

// GetPreviewRows 获取预览数据行
func (p *Parser) GetPreviewRows(sheet string, limit int) ([][]string, error) {
	if p.file == nil {
		return nil, errors.New("no file loaded")
	}

	rows, err := p.file.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return [][]string{}, nil
	}

	end := limit + 1
	if end > len(rows) {
		end = len(rows)
	}
	return rows[1:end], nil
}

// ParseTable 把指定工作表解析为 RawTable
// 第一行是表头（定义来源列名，裁剪首尾空白）；数据单元格保持原样不裁剪。
// 表头重名时以先出现的列为准；没有表头行时返回 *model.InputParseError。
func (p *Parser) ParseTable(sheet string) (*model.RawTable, error) {
	if p.file == nil {
		return nil, errors.New("no file loaded")
	}

	rows, err := p.file.GetRows(sheet)
	if err != nil {
		return nil, &model.InputParseError{Reason: fmt.Sprintf("read sheet %q", sheet), Err: err}
	}

	return buildRawTable(sheet, rows)
}

// Close 关闭工作簿
func (p *Parser) Close() error {
	if p.file == nil {
		return nil
	}
	return p.file.Close()
}

// ReadCSVTable 把 CSV 输入解析为 RawTable（与工作簿解析同一产物形态）
func ReadCSVTable(reader io.Reader) (*model.RawTable, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, &model.InputParseError{Reason: "not a readable csv", Err: err}
	}

	return buildRawTable("", records)
}

// buildRawTable 从表头行 + 数据行构建 RawTable
func buildRawTable(sheet string, rows [][]string) (*model.RawTable, error) {
	if len(rows) == 0 {
		return nil, &model.InputParseError{Reason: "no header row"}
	}

	headers := normalizeHeaders(rows[0])

	// 列名 → 列索引；重名列只保留先出现的
	colIndex := make(map[string]int, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if _, ok := colIndex[h]; !ok {
			colIndex[h] = i
		}
	}

	table := &model.RawTable{
		SheetName: sheet,
		Headers:   headers,
		Rows:      make([]model.RawRow, 0, len(rows)-1),
	}

	for _, row := range rows[1:] {
		raw := make(model.RawRow, len(colIndex))
		for h, idx := range colIndex {
			if idx < len(row) {
				raw[h] = row[idx]
			}
		}
		table.Rows = append(table.Rows, raw)
	}

	return table, nil
}

// normalizeHeaders 裁剪表头单元格的首尾空白
func normalizeHeaders(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
