package excel

import (
	"github.com/xuri/excelize/v2"

	"skumapper/internal/model"
)

// SheetRecognition 单个工作表的识别结果
type SheetRecognition struct {
	SheetName string `json:"sheetName"`
	Hits      int    `json:"hits"` // 表头命中的映射来源列数
}

// RecognizeWorkbook 统计每个工作表表头与映射来源列的命中情况
func RecognizeWorkbook(wb *excelize.File, m *model.Mapping) []SheetRecognition {
	if wb == nil {
		return []SheetRecognition{}
	}

	sources := make(map[string]struct{}, m.Len())
	for _, s := range m.Sources() {
		sources[s] = struct{}{}
	}

	results := make([]SheetRecognition, 0)
	for _, sheetName := range wb.GetSheetList() {
		hits := 0
		for _, h := range normalizeHeaders(readHeaderRow(wb, sheetName)) {
			if _, ok := sources[h]; ok {
				hits++
			}
		}
		results = append(results, SheetRecognition{SheetName: sheetName, Hits: hits})
	}
	return results
}

// PickSheet 挑选数据工作表：表头命中映射来源列最多的胜出
// 并列取靠前的工作表；全部无命中时退回第一个工作表。
func PickSheet(wb *excelize.File, m *model.Mapping) string {
	results := RecognizeWorkbook(wb, m)
	if len(results) == 0 {
		return ""
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Hits > best.Hits {
			best = r
		}
	}
	return best.SheetName
}

func readHeaderRow(wb *excelize.File, sheetName string) []string {
	rows, err := wb.GetRows(sheetName)
	if err != nil {
		return []string{}
	}
	if len(rows) == 0 {
		return []string{}
	}
	return rows[0]
}
