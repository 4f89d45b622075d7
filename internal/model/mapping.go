package model

// 保留目标槽位：映射表中的 Option1/Option2 固定绑定为 Size/Color
const (
	SlotOption1 = "Option1"
	SlotOption2 = "Option2"

	TargetSize  = "Size"
	TargetColor = "Color"
)

// FieldMapping 单条字段映射：来源列名 → 模板目标属性名
type FieldMapping struct {
	Source string `json:"source"` // 上传表的列名
	Target string `json:"target"` // SKU 模板的属性名
}

// Mapping 有序字段映射表
// Fields 的顺序是映射文件中来源列首次出现的行序，后续所有输出都按此迭代
type Mapping struct {
	Fields []FieldMapping `json:"fields"`
}

// Len 映射条目数
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Fields)
}

// Targets 按迭代顺序返回目标属性名
func (m *Mapping) Targets() []string {
	out := make([]string, 0, m.Len())
	for _, f := range m.Fields {
		out = append(out, f.Target)
	}
	return out
}

// Sources 按迭代顺序返回来源列名
func (m *Mapping) Sources() []string {
	out := make([]string, 0, m.Len())
	for _, f := range m.Fields {
		out = append(out, f.Source)
	}
	return out
}

// TargetFor 查找来源列对应的目标属性名
func (m *Mapping) TargetFor(source string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, f := range m.Fields {
		if f.Source == source {
			return f.Target, true
		}
	}
	return "", false
}
