package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Reply  ReplyConfig
	// DebugLog 指定终端客户端的调试日志文件，空表示丢弃日志。
	DebugLog string
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	reply, err := loadReplyConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Store:    store,
		Reply:    reply,
		DebugLog: strings.TrimSpace(os.Getenv("CHAT_DEBUG_LOG")),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
	// ShutdownTimeout 限制优雅退出时等待连接与进行中回复的时间。
	ShutdownTimeout time.Duration
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	addr := port
	// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
	if !strings.Contains(port, ":") {
		addr = ":" + port
	}

	grace, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{Addr: addr, ShutdownTimeout: grace}, nil
}

// 支持的快照存储驱动。
const (
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StoreConfig 描述会话快照的持久化方式。
type StoreConfig struct {
	Driver      string
	Path        string
	DSN         string
	SnapshotKey string
}

func loadStoreConfig() (StoreConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("CHAT_STORE_DRIVER", DriverBolt))
	switch driver {
	case DriverBolt, DriverPostgres, DriverMemory:
	default:
		return StoreConfig{}, fmt.Errorf("invalid CHAT_STORE_DRIVER value %q", driver)
	}

	dsn := strings.TrimSpace(os.Getenv("CHAT_STORE_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if driver == DriverPostgres && dsn == "" {
		return StoreConfig{}, fmt.Errorf("CHAT_STORE_DSN or DATABASE_URL is required for the postgres driver")
	}

	return StoreConfig{
		Driver:      driver,
		Path:        getEnvOrDefault("CHAT_STORE_PATH", "data/chat.db"),
		DSN:         dsn,
		SnapshotKey: getEnvOrDefault("CHAT_SNAPSHOT_KEY", "chatMessages"),
	}, nil
}

// ReplyConfig 描述模拟回复的延迟与随机性。
type ReplyConfig struct {
	Latency             time.Duration
	StagingDelay        time.Duration
	Seed                uint64
	HistoryLimit        int
	DiscardStaleReplies bool
}

func loadReplyConfig() (ReplyConfig, error) {
	latency, err := parseDurationEnv("CHAT_REPLY_LATENCY", 1500*time.Millisecond)
	if err != nil {
		return ReplyConfig{}, err
	}

	staging, err := parseDurationEnv("CHAT_REPLY_STAGING", 500*time.Millisecond)
	if err != nil {
		return ReplyConfig{}, err
	}

	seed := uint64(time.Now().UnixNano())
	if override, err := parseOptionalIntEnv("CHAT_REPLY_SEED"); err != nil {
		return ReplyConfig{}, err
	} else if override != nil {
		seed = uint64(*override)
	}

	historyLimit := 10
	if override, err := parseOptionalIntEnv("CHAT_HISTORY_LIMIT"); err != nil {
		return ReplyConfig{}, err
	} else if override != nil {
		if *override < 1 {
			historyLimit = 1
		} else {
			historyLimit = *override
		}
	}

	discard, err := parseBoolEnv("CHAT_DISCARD_STALE_REPLIES", true)
	if err != nil {
		return ReplyConfig{}, err
	}

	return ReplyConfig{
		Latency:             latency,
		StagingDelay:        staging,
		Seed:                seed,
		HistoryLimit:        historyLimit,
		DiscardStaleReplies: discard,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseDurationEnv 接受 "1.5s" 形式，也接受纯数字（毫秒）。
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if ms, err := strconv.Atoi(raw); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("invalid %s value %q: negative duration", key, raw)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: negative duration", key, raw)
	}
	return val, nil
}
