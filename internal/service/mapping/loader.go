package mapping

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"skumapper/internal/model"
)

// Load 从映射文件读取字段映射表
// 按扩展名选择读取方式：.csv 走 CSV，其余按 Excel 工作簿处理（取第一个工作表）。
// 第一行视为表头并跳过。文件缺失或无法解析时返回 *model.MappingLoadError。
func Load(path string) (*model.Mapping, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &model.MappingLoadError{Path: path, Err: errors.New("mapping path not configured")}
	}

	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rows, err = readCSVRows(path)
	} else {
		rows, err = readWorkbookRows(path)
	}
	if err != nil {
		return nil, &model.MappingLoadError{Path: path, Err: err}
	}

	return Parse(rows), nil
}

// Parse 从两列数据行构建映射表（不接触文件系统，便于测试）
// 规则：
//   - 来源列或目标属性为空的行直接跳过
//   - 来源列重名时后出现的行覆盖目标值，但条目保持首次出现的位置
//   - 解析完成后无条件把 Option1/Option2 归一化为 Size/Color
func Parse(rows [][]string) *model.Mapping {
	fields := make([]model.FieldMapping, 0, len(rows))
	index := make(map[string]int)

	for _, row := range rows {
		var source, target string
		if len(row) > 0 {
			source = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			target = strings.TrimSpace(row[1])
		}
		if source == "" || target == "" {
			continue
		}

		if i, ok := index[source]; ok {
			fields[i].Target = target
			continue
		}
		index[source] = len(fields)
		fields = append(fields, model.FieldMapping{Source: source, Target: target})
	}

	m := &model.Mapping{Fields: fields}
	applyReservedSlots(m)
	return m
}

// applyReservedSlots 保留槽位归一化
// Option1/Option2 永远落到 Size/Color，下游不依赖映射文件里的原始目标值
func applyReservedSlots(m *model.Mapping) {
	for i := range m.Fields {
		switch m.Fields[i].Target {
		case model.SlotOption1:
			m.Fields[i].Target = model.TargetSize
		case model.SlotOption2:
			m.Fields[i].Target = model.TargetColor
		}
	}
}

// readWorkbookRows 读取映射工作簿第一个工作表的数据行（跳过表头）
func readWorkbookRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("mapping workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read mapping sheet %q: %w", sheets[0], err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

// readCSVRows 读取 CSV 映射文件的数据行（跳过表头）
func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read mapping csv: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}
