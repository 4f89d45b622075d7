package transform_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"skumapper/internal/model"
	"skumapper/internal/service/mapping"
	"skumapper/internal/service/transform"
)

type testSheet struct {
	name string
	rows [][]string
}

func buildWorkbookFile(t *testing.T, path string, sheets []testSheet) {
	t.Helper()

	wb := excelize.NewFile()
	defaultSheet := wb.GetSheetName(wb.GetActiveSheetIndex())

	for i, sheet := range sheets {
		if i == 0 {
			if err := wb.SetSheetName(defaultSheet, sheet.name); err != nil {
				t.Fatalf("SetSheetName failed: %v", err)
			}
		} else {
			if _, err := wb.NewSheet(sheet.name); err != nil {
				t.Fatalf("NewSheet %s failed: %v", sheet.name, err)
			}
		}
		for r, cells := range sheet.rows {
			row := make([]interface{}, 0, len(cells))
			for _, c := range cells {
				row = append(row, c)
			}
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			if err := wb.SetSheetRow(sheet.name, cell, &row); err != nil {
				t.Fatalf("SetSheetRow %s failed: %v", sheet.name, err)
			}
		}
	}

	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
}

func TestRunTransformsWorkbookEndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.xlsx")
	buildWorkbookFile(t, input, []testSheet{
		{name: "商品", rows: [][]string{
			{"ProdColor", "ProdSize", "SKU", "Ignore"},
			{"Red", "M", "A1", "x"},
			{"Red", "L", "A2", "y"},
		}},
	})

	m := mapping.Parse([][]string{
		{"ProdColor", "Option2"},
		{"ProdSize", "Option1"},
		{"SKU", "SKU"},
	})

	result, err := transform.Run(transform.Options{
		FilePath:  input,
		Filename:  "商品表.xlsx",
		Mapping:   m,
		OutputDir: dir,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got, want := result.SourceSheet, "商品"; got != want {
		t.Fatalf("SourceSheet = %q, want %q", got, want)
	}
	if got, want := result.RowCount, 2; got != want {
		t.Fatalf("RowCount = %d, want %d", got, want)
	}
	if got, want := result.Attributes, 3; got != want {
		t.Fatalf("Attributes = %d, want %d", got, want)
	}
	if got, want := result.DistinctCount, 5; got != want {
		t.Fatalf("DistinctCount = %d, want %d", got, want)
	}
	if got, want := result.Filename, "SKU模板-商品表.xlsx"; got != want {
		t.Fatalf("Filename = %q, want %q", got, want)
	}

	out, err := excelize.OpenFile(result.OutputPath)
	if err != nil {
		t.Fatalf("open output workbook: %v", err)
	}
	defer out.Close()

	if got, want := out.GetSheetList(), []string{"Values", "Type"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}

	valuesRows, err := out.GetRows("Values")
	if err != nil {
		t.Fatalf("GetRows Values: %v", err)
	}
	wantValues := [][]string{
		{"Color", "Size", "SKU"},
		{"Red", "M", "A1"},
		{"Red", "L", "A2"},
	}
	if !reflect.DeepEqual(valuesRows, wantValues) {
		t.Fatalf("Values rows = %v, want %v", valuesRows, wantValues)
	}

	typeRows, err := out.GetRows("Type")
	if err != nil {
		t.Fatalf("GetRows Type: %v", err)
	}
	wantTypes := [][]string{
		{"Color", "ProdColor", "Red"},
		{"Size", "ProdSize", "M", "L"},
		{"SKU", "SKU", "A1", "A2"},
	}
	if !reflect.DeepEqual(typeRows, wantTypes) {
		t.Fatalf("Type rows = %v, want %v", typeRows, wantTypes)
	}
}

func TestRunWithCSVInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.csv")
	content := "ProdColor,ProdSize,SKU\nBlue,S,B1\nBlue,M,B2\n"
	if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	m := mapping.Parse([][]string{
		{"ProdColor", "Option2"},
		{"SKU", "SKU"},
	})

	result, err := transform.Run(transform.Options{
		FilePath:  input,
		Filename:  "input.csv",
		Mapping:   m,
		OutputDir: dir,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got, want := result.RowCount, 2; got != want {
		t.Fatalf("RowCount = %d, want %d", got, want)
	}
	if got, want := result.SourceSheet, ""; got != want {
		t.Fatalf("SourceSheet = %q, want empty for csv", got)
	}
	if got, want := result.Filename, "SKU模板-input.xlsx"; got != want {
		t.Fatalf("Filename = %q, want %q", got, want)
	}
	// CSV 上传同样分配文件 ID
	if result.FileID == "" {
		t.Fatal("FileID should be assigned for csv input")
	}
}

func TestRunPicksSheetByMappingHeaders(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "multi.xlsx")
	buildWorkbookFile(t, input, []testSheet{
		{name: "说明", rows: [][]string{
			{"备注", "版本"},
			{"内部使用", "v2"},
		}},
		{name: "商品数据", rows: [][]string{
			{"ProdColor", "SKU"},
			{"Red", "A1"},
		}},
	})

	m := mapping.Parse([][]string{
		{"ProdColor", "Option2"},
		{"SKU", "SKU"},
	})

	result, err := transform.Run(transform.Options{
		FilePath:  input,
		Filename:  "multi.xlsx",
		Mapping:   m,
		OutputDir: dir,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got, want := result.SourceSheet, "商品数据"; got != want {
		t.Fatalf("SourceSheet = %q, want %q", got, want)
	}
}

func TestRunHonorsExplicitSheet(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "multi.xlsx")
	buildWorkbookFile(t, input, []testSheet{
		{name: "商品A", rows: [][]string{
			{"SKU"},
			{"A1"},
		}},
		{name: "商品B", rows: [][]string{
			{"SKU"},
			{"B1"},
			{"B2"},
		}},
	})

	m := mapping.Parse([][]string{{"SKU", "SKU"}})

	result, err := transform.Run(transform.Options{
		FilePath:  input,
		Filename:  "multi.xlsx",
		Sheet:     "商品B",
		Mapping:   m,
		OutputDir: dir,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got, want := result.SourceSheet, "商品B"; got != want {
		t.Fatalf("SourceSheet = %q, want %q", got, want)
	}
	if got, want := result.RowCount, 2; got != want {
		t.Fatalf("RowCount = %d, want %d", got, want)
	}
}

func TestRunNamesOutputByUploadFileID(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.xlsx")
	buildWorkbookFile(t, input, []testSheet{
		{name: "Sheet1", rows: [][]string{
			{"SKU"},
			{"A1"},
		}},
	})

	opts := transform.Options{
		FilePath:  input,
		Filename:  "input.xlsx",
		Mapping:   mapping.Parse([][]string{{"SKU", "SKU"}}),
		OutputDir: dir,
	}

	first, err := transform.Run(opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := transform.Run(opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if first.FileID == "" {
		t.Fatal("FileID should be assigned")
	}
	if first.FileID == second.FileID {
		t.Fatal("FileID should be unique per upload")
	}
	// 输出文件以上传文件 ID 命名，重复转换互不覆盖
	if !strings.Contains(first.OutputPath, first.FileID) {
		t.Fatalf("OutputPath %q does not carry FileID %q", first.OutputPath, first.FileID)
	}
	if first.OutputPath == second.OutputPath {
		t.Fatal("repeated runs should not share an output path")
	}
}

func TestRunReportsProgress(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.xlsx")
	buildWorkbookFile(t, input, []testSheet{
		{name: "Sheet1", rows: [][]string{
			{"SKU"},
			{"A1"},
		}},
	})

	var events []transform.ProgressEvent
	_, err := transform.Run(transform.Options{
		FilePath:  input,
		Filename:  "input.xlsx",
		Mapping:   mapping.Parse([][]string{{"SKU", "SKU"}}),
		OutputDir: dir,
		Progress: func(e transform.ProgressEvent) {
			events = append(events, e)
		},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(events) == 0 {
		t.Fatal("no progress events reported")
	}
	last := 0
	for _, e := range events {
		if e.Percent < last {
			t.Fatalf("progress went backwards: %v", events)
		}
		last = e.Percent
		if e.Stage == "" {
			t.Fatal("progress event without stage")
		}
	}
	if last != 100 {
		t.Fatalf("final percent = %d, want 100", last)
	}
}

func TestRunHonorsCustomTemplate(t *testing.T) {
	dir := t.TempDir()

	template := filepath.Join(dir, "template.xlsx")
	buildWorkbookFile(t, template, []testSheet{
		{name: "Values", rows: [][]string{
			{"旧表头"},
			{"旧数据"},
		}},
		{name: "Type", rows: [][]string{
			{"旧属性", "旧来源", "旧值"},
		}},
		{name: "说明", rows: [][]string{
			{"模板自带说明页"},
		}},
	})

	input := filepath.Join(dir, "input.xlsx")
	buildWorkbookFile(t, input, []testSheet{
		{name: "Sheet1", rows: [][]string{
			{"SKU"},
			{"A1"},
		}},
	})

	result, err := transform.Run(transform.Options{
		FilePath:     input,
		Filename:     "input.xlsx",
		Mapping:      mapping.Parse([][]string{{"SKU", "SKU"}}),
		TemplatePath: template,
		OutputDir:    dir,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out, err := excelize.OpenFile(result.OutputPath)
	if err != nil {
		t.Fatalf("open output workbook: %v", err)
	}
	defer out.Close()

	valuesRows, err := out.GetRows("Values")
	if err != nil {
		t.Fatalf("GetRows Values: %v", err)
	}
	wantValues := [][]string{
		{"SKU"},
		{"A1"},
	}
	if !reflect.DeepEqual(valuesRows, wantValues) {
		t.Fatalf("Values rows = %v, want stale content replaced: %v", valuesRows, wantValues)
	}

	// 模板里的额外工作表保留
	if idx, err := out.GetSheetIndex("说明"); err != nil || idx < 0 {
		t.Fatalf("template extra sheet missing: idx=%d err=%v", idx, err)
	}
}

func TestRunInvalidMappingProducesNoFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.xlsx")
	buildWorkbookFile(t, input, []testSheet{
		{name: "Sheet1", rows: [][]string{
			{"ProdColor", "TintColor"},
			{"Red", "Crimson"},
		}},
	})

	m := &model.Mapping{Fields: []model.FieldMapping{
		{Source: "ProdColor", Target: "Color"},
		{Source: "TintColor", Target: "Color"},
	}}

	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	_, err := transform.Run(transform.Options{
		FilePath:  input,
		Filename:  "input.xlsx",
		Mapping:   m,
		OutputDir: out,
	})

	var invalidErr *model.InvalidMappingError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("error type = %T, want *model.InvalidMappingError", err)
	}

	entries, readErr := os.ReadDir(out)
	if readErr != nil {
		t.Fatalf("ReadDir failed: %v", readErr)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "skumapper_export_") {
			t.Fatalf("output file produced despite error: %s", e.Name())
		}
	}
}

func TestRunRejectsGarbageUpload(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "noise.xlsx")
	if err := os.WriteFile(input, []byte("definitely not a workbook"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := transform.Run(transform.Options{
		FilePath:  input,
		Filename:  "noise.xlsx",
		Mapping:   mapping.Parse([][]string{{"SKU", "SKU"}}),
		OutputDir: dir,
	})

	var parseErr *model.InputParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error type = %T, want *model.InputParseError", err)
	}
}
