package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-torus/api"
	"github.com/hoshinonyaruko/snake-torus/audio"
	"github.com/hoshinonyaruko/snake-torus/config"
	"github.com/hoshinonyaruko/snake-torus/memimg"
	"github.com/hoshinonyaruko/snake-torus/session"
	"github.com/hoshinonyaruko/snake-torus/snake"
	"github.com/hoshinonyaruko/snake-torus/sqlite"
	"github.com/hoshinonyaruko/snake-torus/tui"
)

var (
	configPath = flag.String("config", "./config.json", "path of the JSON config file")
	tuiMode    = flag.Bool("tui", false, "play in the terminal instead of serving HTTP")
	mute       = flag.Bool("mute", false, "disable sound cues in terminal mode")
)

func main() {
	flag.Parse()
	// Initialize the configuration
	cfg := config.LoadConfig(*configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *tuiMode {
		if err := runTerminal(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "snake: %v\n", err)
			os.Exit(1)
		}
		return
	}
	runServer(ctx, cfg)
}

func runServer(ctx context.Context, cfg *config.AppConfig) {
	EnsureFoldersExist(cfg.SpritesDir, "static")

	// 载入贴图到内存
	sprites := memimg.NewCache(cfg.Blocksize)
	if err := sprites.Load(cfg.SpritesDir); err != nil {
		log.Printf("load sprites: %v", err)
	}
	// 检测并热更新到内存 加速绘图
	go func() {
		if err := sprites.Watch(ctx, cfg.SpritesDir); err != nil {
			log.Printf("watch sprites: %v", err)
		}
	}()

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	store := sqlite.NewStore(db)

	manager := session.NewManager(ctx, store, cfg)
	defer manager.Close()

	router := gin.Default()
	api.Register(router, api.Deps{
		Manager:   manager,
		Store:     store,
		Sprites:   sprites,
		BlockSize: cfg.Blocksize,
		SelfPath:  cfg.SelfPath,
		StaticDir: "./static",
	})
	// 从配置读取端口 监听
	go func() {
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()
	<-ctx.Done()
	log.Println("shutting down")
}

func runTerminal(ctx context.Context, cfg *config.AppConfig) error {
	// 终端被游戏画面占用，日志写到文件
	logFile, err := os.OpenFile("snake.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	settings := cfg.DefaultSettings("local")
	engine, err := snake.NewEngine(cfg.EngineConfig(settings), snake.NewRand(cfg.Seed))
	if err != nil {
		return err
	}
	if settings.TickMillis <= 0 || settings.ObstacleMillis <= 0 {
		return &snake.ConfigurationError{Field: "timers", Reason: "tickms and obstaclems must be positive"}
	}
	tick, obstacle := config.Periods(settings)
	runner := session.NewRunner("local", engine, tick, obstacle)

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	var cues *audio.SoundManager
	if !*mute {
		cues = audio.NewSoundManager()
		if err := cues.Initialize(); err != nil {
			log.Printf("audio initialization failed: %v (continuing without audio)", err)
		}
		defer cues.Cleanup()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go runner.Run(ctx)

	if cues == nil {
		return tui.Run(ctx, screen, runner, nil)
	}
	return tui.Run(ctx, screen, runner, cues)
}

// EnsureFoldersExist 检查并创建必需的文件夹
func EnsureFoldersExist(folders ...string) {
	for _, folder := range folders {
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			// 文件夹不存在，尝试创建它
			err := os.MkdirAll(folder, 0755) // 使用0755权限以确保读写权限
			if err != nil {
				// 如果创建失败，则记录错误并可能退出程序
				log.Fatalf("Failed to create %s directory: %s", folder, err)
			}
			log.Printf("Created %s directory", folder)
		} else {
			// 文件夹已存在
			log.Printf("%s directory already exists", folder)
		}
	}
}
