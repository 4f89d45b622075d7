package transform

import (
	"fmt"

	"skumapper/internal/model"
)

// Apply 执行映射转换，产出 Values 与 Type 两张表
// 每个输入行产出一个 Values 行（顺序保持一致）：映射中的每个 (来源列, 目标属性)
// 把 row[来源列] 复制到目标属性，来源列缺失写空串；映射之外的输入列全部丢弃。
// Type 表在 Values 之后构建：每个目标属性一行，按映射迭代顺序。
// 除映射本身非法外不会失败；失败时不产出任何表。
func Apply(rows []model.RawRow, m *model.Mapping) (*model.ValuesTable, model.TypeTable, error) {
	if err := ValidateMapping(m); err != nil {
		return nil, nil, err
	}

	columns := m.Targets()
	values := &model.ValuesTable{
		Columns: columns,
		Rows:    make([][]string, 0, len(rows)),
	}

	for _, row := range rows {
		out := make([]string, len(m.Fields))
		for i, f := range m.Fields {
			out[i] = row[f.Source]
		}
		values.Rows = append(values.Rows, out)
	}

	types := make(model.TypeTable, 0, len(m.Fields))
	for i, f := range m.Fields {
		types = append(types, model.TypeRow{
			Header: f.Target,
			Source: f.Source,
			Values: distinctColumn(values.Rows, i),
		})
	}

	return values, types, nil
}

// ValidateMapping 校验映射表结构
// 目标属性重复或映射表没有可用条目时返回 *model.InvalidMappingError
func ValidateMapping(m *model.Mapping) error {
	if m.Len() == 0 {
		return &model.InvalidMappingError{Reason: "mapping has no usable rows"}
	}

	seen := make(map[string]string, len(m.Fields))
	for _, f := range m.Fields {
		if prev, ok := seen[f.Target]; ok {
			return &model.InvalidMappingError{
				Reason: fmt.Sprintf("duplicate target attribute %q (mapped from %q and %q)", f.Target, prev, f.Source),
			}
		}
		seen[f.Target] = f.Source
	}
	return nil
}

// distinctColumn 提取某一列的去重取值：跳过空串，逐字节精确比较，保持首次出现顺序
func distinctColumn(rows [][]string, col int) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)

	for _, row := range rows {
		v := row[col]
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
