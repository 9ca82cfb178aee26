// Package memimg keeps the cell sprites in memory, scaled to the block size.
package memimg

import (
	"context"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
)

// BlurSuffix names the blurred variant of a sprite, used for a dead snake.
const BlurSuffix = "_blur"

// Cache maps a sprite name (file name without extension) to its scaled image.
type Cache struct {
	mu        sync.RWMutex
	blockSize int
	sprites   map[string]image.Image
}

func NewCache(blockSize int) *Cache {
	return &Cache{blockSize: blockSize, sprites: make(map[string]image.Image)}
}

func isSprite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func spriteName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load walks directory and loads every image in it.
func (c *Cache) Load(directory string) error {
	return filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isSprite(path) {
			return nil
		}
		return c.loadFile(path)
	})
}

func (c *Cache) loadFile(path string) error {
	img, err := imaging.Open(path)
	if err != nil {
		return err
	}
	// 缩放到格子大小
	scaled := imaging.Resize(img, c.blockSize, c.blockSize, imaging.Lanczos)
	// 模糊版本，蛇死亡时使用
	blurred := imaging.Blur(scaled, 1.5)

	name := spriteName(path)
	c.mu.Lock()
	c.sprites[name] = scaled
	c.sprites[name+BlurSuffix] = blurred
	c.mu.Unlock()
	return nil
}

func (c *Cache) remove(path string) {
	name := spriteName(path)
	c.mu.Lock()
	delete(c.sprites, name)
	delete(c.sprites, name+BlurSuffix)
	c.mu.Unlock()
}

// Get returns a sprite by name.
func (c *Cache) Get(name string) (image.Image, bool) {
	c.mu.RLock()
	img, exists := c.sprites[name]
	c.mu.RUnlock()
	return img, exists
}

// Watch reloads sprites as files in directory change, until ctx is done.
func (c *Cache) Watch(ctx context.Context, directory string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(directory); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSprite(event.Name) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				if err := c.loadFile(event.Name); err != nil {
					// 文件可能还没写完，下一次 Write 事件再试
					log.Printf("reload sprite %s: %v", event.Name, err)
				}
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				c.remove(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Println("sprite watcher error:", err)
		}
	}
}
