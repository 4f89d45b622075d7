package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Mapping MappingConfig `toml:"mapping"`
	Excel   ExcelConfig   `toml:"excel"`
	Output  OutputConfig  `toml:"output"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// MappingConfig 字段映射表配置
type MappingConfig struct {
	Path string `toml:"path"`
}

// ExcelConfig SKU 模板相关配置
type ExcelConfig struct {
	TemplatePath string `toml:"template_path"`
}

// OutputConfig 输出文件配置
type OutputConfig struct {
	FilePrefix string `toml:"file_prefix"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20483,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Mapping: MappingConfig{
			Path: "Mapping - Automation.xlsx",
		},
		Excel: ExcelConfig{
			TemplatePath: "",
		},
		Output: OutputConfig{
			FilePrefix: "SKU模板-",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	// .env 不存在时静默跳过
	_ = godotenv.Load()

	info := LoadConfigInfo{}
	config := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 配置文件不存在，使用默认配置
			applyEnvOverrides(config)
			return config, info, nil
		}
		return nil, info, err
	}

	info.PortSpecified = isPortSpecifiedInToml(data)

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, info, err
	}

	applyEnvOverrides(config)

	return config, info, nil
}

// applyEnvOverrides 环境变量覆盖（用于 E2E / 本地运行）
func applyEnvOverrides(config *AppConfig) {
	if v := os.Getenv("SKUMAPPER_MAPPING_XLSX"); v != "" {
		config.Mapping.Path = v
	}
	if v := os.Getenv("SKUMAPPER_TEMPLATE_XLSX"); v != "" {
		config.Excel.TemplatePath = v
	}
	if v := os.Getenv("SKUMAPPER_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
}

// LoadConfig 从 config.toml 加载配置
// 配置文件位于可执行文件同目录下
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// EnsureDataDir 确保数据目录存在
// 相对路径的数据目录位于可执行文件同目录下，绝对路径原样使用
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, _ := GetExeDir()
		if exeDir == "" {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}
	return filepath.Join(dataDir, subdir, filename)
}

// ResolvePath 把相对路径解析到可执行文件所在目录
// 映射表与模板默认放在程序旁边，绝对路径原样返回
func ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	exeDir, err := GetExeDir()
	if err != nil {
		return path
	}
	return filepath.Join(exeDir, path)
}
