package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-moneybox/pkg/logger"
	"github.com/JoeShih716/go-moneybox/pkg/mysql"
)

// StoreType 帳戶儲存的實作方式
type StoreType string

const (
	StoreTypeMySQL StoreType = "mysql" // Level 0: 每筆操作直接讀寫 MySQL
	StoreTypeMutex StoreType = "mutex" // Level 1: 記憶體 + RWMutex + WAL
	StoreTypeLMAX  StoreType = "lmax"  // Level 2: 記憶體 + 單一 Writer Goroutine + WAL
)

var (
	ErrUnknownStoreType = errors.New("config: unknown store type")
	ErrMySQLRequired    = errors.New("config: mysql store requires mysql.host")
)

// Config 服務的完整設定
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	MySQL    mysql.Config   `yaml:"mysql"`
	Notifier NotifierConfig `yaml:"notifier"`
	Log      logger.Config  `yaml:"log"`
}

// ServerConfig gRPC 監聽設定
type ServerConfig struct {
	GRPCAddr   string `yaml:"grpc_addr"`
	Reflection bool   `yaml:"reflection"`
}

// StoreConfig 帳戶儲存設定
type StoreConfig struct {
	Type     StoreType `yaml:"type"`
	WALPath  string    `yaml:"wal_path"`
	SeedFile string    `yaml:"seed_file"` // 未設定 MySQL 時，記憶體 Store 的初始帳戶
}

// NotifierConfig Target 為空時改用 Log 通知
type NotifierConfig struct {
	Target  string        `yaml:"target"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultPath 未設定 MONEYBOX_CONFIG 時使用的設定檔路徑
const DefaultPath = "config/config.yaml"

// LoadEnv 載入工作目錄下的 .env，不覆寫已存在的環境變數；檔案不存在時略過
func LoadEnv() {
	_ = godotenv.Load()
}

// Path 回傳設定檔路徑，.env 內的 MONEYBOX_CONFIG 也會生效
func Path() string {
	LoadEnv()
	if p := os.Getenv("MONEYBOX_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load 讀取 yaml 設定檔，再以 .env 與 MONEYBOX_* 環境變數覆寫
//
// 參數:
//
//	path: 設定檔路徑，空字串表示只用環境變數與預設值
//
// 回傳:
//
//	*Config: 已補齊預設值並通過檢查的設定
//	error: 讀檔、解析或檢查失敗
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	LoadEnv()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults 補全 yaml 沒寫的設定
func (c *Config) SetDefaults() {
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":50051"
	}
	if c.Store.Type == "" {
		c.Store.Type = StoreTypeMutex
	}
	if c.Store.WALPath == "" {
		c.Store.WALPath = "wal.log"
	}
	if c.Notifier.Timeout == 0 {
		c.Notifier.Timeout = 3 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.TimeFormat == "" {
		c.Log.TimeFormat = time.DateTime
	}
	if c.MySQL.Enabled() {
		c.MySQL.SetDefaults()
	}
}

// Validate 檢查 Store 類型與 MySQL 設定是否一致
func (c *Config) Validate() error {
	switch c.Store.Type {
	case StoreTypeMySQL:
		if !c.MySQL.Enabled() {
			return ErrMySQLRequired
		}
	case StoreTypeMutex, StoreTypeLMAX:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreType, c.Store.Type)
	}
	if c.MySQL.Enabled() {
		if err := c.MySQL.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.GRPCAddr, "MONEYBOX_GRPC_ADDR")
	if err := setBool(&c.Server.Reflection, "MONEYBOX_GRPC_REFLECTION"); err != nil {
		return err
	}

	var storeType string
	setString(&storeType, "MONEYBOX_STORE_TYPE")
	if storeType != "" {
		c.Store.Type = StoreType(storeType)
	}
	setString(&c.Store.WALPath, "MONEYBOX_WAL_PATH")
	setString(&c.Store.SeedFile, "MONEYBOX_SEED_FILE")

	setString(&c.MySQL.Host, "MONEYBOX_MYSQL_HOST")
	if err := setInt(&c.MySQL.Port, "MONEYBOX_MYSQL_PORT"); err != nil {
		return err
	}
	setString(&c.MySQL.User, "MONEYBOX_MYSQL_USER")
	setString(&c.MySQL.Password, "MONEYBOX_MYSQL_PASSWORD")
	setString(&c.MySQL.DBName, "MONEYBOX_MYSQL_DB_NAME")
	setString(&c.MySQL.LogLevel, "MONEYBOX_MYSQL_LOG_LEVEL")

	setString(&c.Notifier.Target, "MONEYBOX_NOTIFIER_TARGET")
	if err := setDuration(&c.Notifier.Timeout, "MONEYBOX_NOTIFIER_TIMEOUT"); err != nil {
		return err
	}

	setString(&c.Log.Level, "MONEYBOX_LOG_LEVEL")
	setString(&c.Log.Format, "MONEYBOX_LOG_FORMAT")
	return nil
}
