package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"whiteboard-api/internal/auth"
	"whiteboard-api/internal/config"
	"whiteboard-api/internal/handlers"
	httpx "whiteboard-api/internal/http"
	"whiteboard-api/internal/repo"
	"whiteboard-api/internal/room"
	"whiteboard-api/internal/service"
)

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		PoolSize:     10,              // 接続プールサイズ
		MinIdleConns: 5,               // 最小アイドル接続数
		MaxRetries:   3,               // リトライ回数
		DialTimeout:  5 * time.Second, // 接続タイムアウト
		ReadTimeout:  3 * time.Second, // 読み込みタイムアウト
		WriteTimeout: 3 * time.Second, // 書き込みタイムアウト
		PoolTimeout:  4 * time.Second, // プールからの取得タイムアウト
	})

	// Redis接続確認
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	log.Println("connected to redis")

	snapshots := repo.NewRedisSnapshotRepo(rdb)
	rooms := repo.NewRedisRoomRepo(rdb)
	authn := auth.NewAuthenticator(cfg.JWTSecret)

	reg := room.NewRegistry(snapshots)
	saver := room.NewAutosaver(reg, snapshots, time.Duration(cfg.AutosaveSec)*time.Second)
	saver.Start()

	svc := service.NewRoomService(rooms, snapshots, cfg.RoomCodeLen)
	rh := handlers.NewRoomHandler(svc, authn)
	wh := handlers.NewWebSocketHandler(authn, reg, snapshots)
	router := httpx.NewRouter(rh, wh, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown用のシグナルチャネル
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// サーバーを別goroutineで起動
	go func() {
		log.Printf("listening on %s", cfg.APIAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// シャットダウンシグナルを待つ
	<-sigChan
	log.Println("shutdown signal received, shutting down gracefully...")

	// 30秒のタイムアウトでGraceful Shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	// スイープを止めてから常駐ルームを書き出す
	saver.Stop()
	reg.FlushAll(ctx)

	log.Println("server stopped")
}
