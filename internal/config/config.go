// Package config はアプリケーションの設定を管理します
// 環境変数から設定を読み込み、デフォルト値を提供します
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	defaultAPIAddr     = ":8080"          // APIサーバーのデフォルトリッスンアドレス
	defaultRedisAddr   = "localhost:6379" // Redisのデフォルト接続先
	defaultAutosaveSec = 60               // オートセーブ間隔（秒）
	defaultRoomCodeLen = 8                // 共有コードの長さ
	defaultJWTSecret   = ""               // 未設定なら起動時にエラー
)

// defaultAllowedOrigins はCORSで許可するデフォルトのオリジン一覧
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// Config はアプリケーションの設定を保持します
type Config struct {
	APIAddr        string   // APIサーバーのリッスンアドレス
	RedisAddr      string   // Redisの接続先
	JWTSecret      string   // セッショントークンの検証鍵
	AutosaveSec    int      // オートセーブ間隔（秒）
	RoomCodeLen    int      // 共有コードの長さ
	AllowedOrigins []string // CORSで許可するオリジン一覧
}

// Load は環境変数から設定を読み込みます
// 環境変数が設定されていない場合はデフォルト値を使用します
func Load() Config {
	return Config{
		APIAddr:        envOr("API_ADDR", defaultAPIAddr),
		RedisAddr:      envOr("REDIS_ADDR", defaultRedisAddr),
		JWTSecret:      envOr("JWT_SECRET", defaultJWTSecret),
		AutosaveSec:    envInt("AUTOSAVE_INTERVAL_SEC", defaultAutosaveSec),
		RoomCodeLen:    envInt("ROOM_CODE_LEN", defaultRoomCodeLen),
		AllowedOrigins: envCSV("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
	}
}

// envOr は環境変数から文字列を取得します
// 環境変数が設定されていない場合はデフォルト値を返します
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt は環境変数から整数を取得します
// 環境変数が設定されていない、または無効な値の場合はデフォルト値を返します
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid %s=%s, fallback to default (%d)", key, v, def)
			return def
		}
		return i
	}
	return def
}

// envCSV は環境変数からカンマ区切りの文字列リストを取得します
// 環境変数が設定されていない、または空の場合はデフォルト値を返します
func envCSV(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
