package model

import "fmt"

// MappingLoadError 映射文件缺失、无法读取或无法解析
type MappingLoadError struct {
	Path string
	Err  error
}

func (e *MappingLoadError) Error() string {
	return fmt.Sprintf("load mapping table %q: %v", e.Path, e.Err)
}

func (e *MappingLoadError) Unwrap() error {
	return e.Err
}

// InvalidMappingError 映射表结构非法（目标属性重复、无可用条目等）
type InvalidMappingError struct {
	Reason string
}

func (e *InvalidMappingError) Error() string {
	return "invalid field mapping: " + e.Reason
}

// InputParseError 上传文件不是可读的表格，或没有表头行
type InputParseError struct {
	Reason string
	Err    error
}

func (e *InputParseError) Error() string {
	if e.Err != nil {
		if e.Reason != "" {
			return fmt.Sprintf("parse input table: %s: %v", e.Reason, e.Err)
		}
		return fmt.Sprintf("parse input table: %v", e.Err)
	}
	return "parse input table: " + e.Reason
}

func (e *InputParseError) Unwrap() error {
	return e.Err
}
