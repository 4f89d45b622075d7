package server

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "skumapper/internal/api/v1"
	"skumapper/internal/config"
	"skumapper/internal/service/store"
)

//go:embed all:dist
var staticFiles embed.FS

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.MemoryStore
	api    *v1.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, st *store.MemoryStore) *Server {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router: gin.Default(),
		store:  st,
		api:    v1.NewHandler(cfg, st),
	}

	s.setupRoutes(devMode)

	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// API 路由
	api := s.router.Group("/api")
	{
		s.api.RegisterRoutes(api)
	}

	// 静态资源
	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
	} else {
		// 生产模式：使用embed的静态资源
		sub, _ := fs.Sub(staticFiles, "dist")

		// 静态资源 - assets 目录
		assetsSub, _ := fs.Sub(sub, "assets")
		s.router.StaticFS("/assets", http.FS(assetsSub))

		// favicon
		s.router.GET("/favicon.svg", func(c *gin.Context) {
			data, err := fs.ReadFile(sub, "favicon.svg")
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.Data(http.StatusOK, "image/svg+xml", data)
		})

		// 首页
		s.router.GET("/", func(c *gin.Context) {
			data, _ := fs.ReadFile(sub, "index.html")
			c.Data(http.StatusOK, "text/html; charset=utf-8", data)
		})

		// SPA 路由 fallback
		s.router.NoRoute(func(c *gin.Context) {
			data, _ := fs.ReadFile(sub, "index.html")
			c.Data(http.StatusOK, "text/html; charset=utf-8", data)
		})
	}
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.MemoryStore {
	return s.store
}
