package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-torus/render"
	"github.com/hoshinonyaruko/snake-torus/session"
	"github.com/hoshinonyaruko/snake-torus/snake"
	"github.com/hoshinonyaruko/snake-torus/sqlite"
	"github.com/hoshinonyaruko/snake-torus/structs"
)

// Deps are the collaborators the HTTP handlers need.
type Deps struct {
	Manager   *session.Manager
	Store     *sqlite.Store
	Sprites   render.Sprites
	BlockSize int
	SelfPath  string // 对外访问地址，用于拼接图片 URL
	StaticDir string
}

// Register mounts every game endpoint on router.
func Register(router *gin.Engine, d Deps) {
	// 创建或获取一局游戏
	router.GET("/new-game", NewGameHandler(d.Manager))
	// 处理玩家改变方向
	router.GET("/update-direction", UpdateDirection(d.Manager))
	router.GET("/toggle-pause", TogglePauseHandler(d.Manager))
	router.GET("/restart", RestartHandler(d.Manager))
	router.GET("/spawn-obstacle", SpawnObstacleHandler(d.Manager))
	router.GET("/snapshot", SnapshotHandler(d.Manager))
	// 渲染函数 返回静态地址
	router.GET("/render-map", RenderMapHandler(d))
	// 删除地图
	router.GET("/delete-map", DeleteMapHandler(d.Manager))
	router.GET("/list-games", ListGamesHandler(d.Store))
	router.GET("/ws", WebsocketHandler(d.Manager))
	router.Static("/static", d.StaticDir) // 静态文件服务
}

func queryInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s: %w", key, err)
	}
	return n, nil
}

// lookup finds the running game named by the groupid query parameter and
// writes the error response itself when there is none.
func lookup(c *gin.Context, m *session.Manager) (*session.Runner, bool) {
	groupID := c.Query("groupid")
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: groupid"})
		return nil, false
	}
	runner, ok := m.Get(groupID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No game found for groupid " + groupID})
		return nil, false
	}
	return runner, true
}

// staticPath joins name onto dir and refuses results outside dir.
func staticPath(dir, name string) (string, bool) {
	base, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	full := filepath.Join(base, name)
	rel, err := filepath.Rel(base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

func writeError(c *gin.Context, err error) {
	var cfgErr *snake.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrInvalidGroupID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		log.Printf("request %s failed: %v", c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func NewGameHandler(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req structs.GameSettings
		var err error
		fields := []struct {
			key string
			dst *int
		}{
			{"width", &req.BoardWidth},
			{"height", &req.BoardHeight},
			{"size", &req.SnakeSize},
			{"tick_ms", &req.TickMillis},
			{"obstacle_ms", &req.ObstacleMillis},
		}
		for _, f := range fields {
			if *f.dst, err = queryInt(c, f.key); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		req.Direction = structs.Direction(c.Query("direction"))

		runner, settings, err := m.Open(c.Query("groupid"), req)
		if err != nil {
			writeError(c, err)
			return
		}
		snap, err := runner.Snapshot(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"group_id": runner.ID(), "settings": settings, "snapshot": snap})
	}
}

func UpdateDirection(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		newDirection := structs.Direction(c.Query("direction"))
		// 检查新方向是否合法
		if !newDirection.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid direction '%s' provided", newDirection)})
			return
		}
		runner, ok := lookup(c, m)
		if !ok {
			return
		}
		outcome, err := runner.SetDirection(c.Request.Context(), newDirection)
		if err != nil {
			writeError(c, err)
			return
		}
		snap, err := runner.Snapshot(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Direction updated successfully", "outcome": outcome.String(), "snapshot": snap})
	}
}

func TogglePauseHandler(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		runner, ok := lookup(c, m)
		if !ok {
			return
		}
		paused, err := runner.TogglePause(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"paused": paused})
	}
}

func RestartHandler(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		runner, ok := lookup(c, m)
		if !ok {
			return
		}
		if err := runner.Restart(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		snap, err := runner.Snapshot(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Game restarted", "snapshot": snap})
	}
}

func SpawnObstacleHandler(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		runner, ok := lookup(c, m)
		if !ok {
			return
		}
		if err := runner.SpawnObstacle(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		snap, err := runner.Snapshot(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"obstacle_cells": snap.ObstacleCells})
	}
}

func SnapshotHandler(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		runner, ok := lookup(c, m)
		if !ok {
			return
		}
		snap, err := runner.Snapshot(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func RenderMapHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		runner, ok := lookup(c, d.Manager)
		if !ok {
			return
		}
		snap, err := runner.Snapshot(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		// 绘图
		fileName, ok := staticPath(d.StaticDir, runner.ID()+".png")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid groupid"})
			return
		}
		if err := render.SavePNG(snap, d.BlockSize, d.Sprites, fileName); err != nil {
			log.Printf("render %s: %v", runner.ID(), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to render game map"})
			return
		}
		imageUrl := fmt.Sprintf("%s/static/%s.png", d.SelfPath, runner.ID())
		c.JSON(http.StatusOK, gin.H{"image_url": imageUrl, "status": render.StatusText(snap)})
	}
}

func DeleteMapHandler(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID := c.Query("groupid")
		if groupID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: groupid"})
			return
		}
		if err := m.Delete(groupID); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Game deleted"})
	}
}

func ListGamesHandler(store *sqlite.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := store.ListGroups()
		if err != nil {
			writeError(c, err)
			return
		}
		if groups == nil {
			groups = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"groups": groups})
	}
}
