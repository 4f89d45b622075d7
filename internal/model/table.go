package model

// RawRow 输入表的一行，按来源列名取值
// 单元格内容保持读入原样（不做裁剪），Type 页去重要求逐字节精确比较
type RawRow map[string]string

// RawTable 解析后的输入表
type RawTable struct {
	SheetName string   `json:"sheetName"`
	Headers   []string `json:"headers"`
	Rows      []RawRow `json:"rows"`
}

// ValuesTable Values 页：列为映射目标属性（按映射迭代顺序），每行与输入行一一对应
type ValuesTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// TypeRow Type 页的一行：目标属性名、来源列名、该属性的去重取值（首次出现顺序）
type TypeRow struct {
	Header string   `json:"header"`
	Source string   `json:"source"`
	Values []string `json:"values"`
}

// TypeTable Type 页，每个映射目标属性一行
type TypeTable []TypeRow

// SheetInfo 工作表信息
type SheetInfo struct {
	Name     string `json:"name"`
	RowCount int    `json:"rowCount"`
}
