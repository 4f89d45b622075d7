package util

import (
	"fmt"
	"net"
	"os/exec"
	"runtime"
)

// OpenBrowser 打开默认浏览器
// 支持 Windows 7/10/11, macOS, Linux
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		// Windows 7+ 兼容方式：使用 rundll32 调用 url.dll
		// 这比 cmd /c start 更稳定，特别是在 Windows 7 上
		// 同时也支持 Windows 10/11
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		// Linux: 尝试多种方式打开浏览器
		// 优先使用 xdg-open，如果失败则尝试其他方式
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}

// OpenBrowserWithFallback 带降级方案的浏览器打开
// 如果主要方式失败，会尝试备选方式
func OpenBrowserWithFallback(url string) error {
	err := OpenBrowser(url)
	if err == nil {
		return nil
	}

	// 降级方案
	switch runtime.GOOS {
	case "windows":
		// 备选方案：使用 explorer
		return exec.Command("explorer", url).Start()
	case "linux":
		// 尝试常见浏览器
		browsers := []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"}
		for _, browser := range browsers {
			if err := exec.Command(browser, url).Start(); err == nil {
				return nil
			}
		}
	}

	return err
}

// FindAvailablePort 从起始端口向后查找可监听的端口
// 找不到时返回起始端口，交给调用方报错
func FindAvailablePort(startPort int) int {
	for port := startPort; port < startPort+50; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			continue
		}
		ln.Close()
		return port
	}
	return startPort
}
