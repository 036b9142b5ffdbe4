package config

import (
	"fmt"
	"strings"

	"github.com/meili-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	DealerJWT  JWTConfig        `mapstructure:"dealer_jwt"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Queue      QueueConfig      `mapstructure:"queue"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Security   SecurityConfig   `mapstructure:"security"`
	Commission CommissionConfig `mapstructure:"commission"`
	Withdrawal WithdrawalConfig `mapstructure:"withdrawal"`
	Risk       RiskConfig       `mapstructure:"risk"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	LoginRateLimit LoginRateLimitConfig `mapstructure:"login_rate_limit"`
	APIRateLimit   APIRateLimitConfig   `mapstructure:"api_rate_limit"`
}

// LoginRateLimitConfig 登录限流配置
type LoginRateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// APIRateLimitConfig 写操作限流配置
type APIRateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// CommissionConfig 级差分配配置
type CommissionConfig struct {
	LevelCap           int       `mapstructure:"level_cap"`           // 级差向上计提层数上限（0 不限层）
	SubscriptionLevels []float64 `mapstructure:"subscription_levels"` // 订阅奖金逐级比例（最多 3 级）
}

// WithdrawalConfig 提现配置
type WithdrawalConfig struct {
	MinAmount float64 `mapstructure:"min_amount"` // 最低提现金额
}

// RiskConfig 提现风险评分配置
type RiskConfig struct {
	NewAccountDays           int     `mapstructure:"new_account_days"`
	LargeAmount              float64 `mapstructure:"large_amount"`
	Frequent24hCount         int     `mapstructure:"frequent_24h_count"`
	FrequentWeekCount        int     `mapstructure:"frequent_week_count"`
	LowIncomeTxnCount        int     `mapstructure:"low_income_txn_count"`
	HighWithdrawRatio        float64 `mapstructure:"high_withdraw_ratio"`
	WeightNewAccount         int     `mapstructure:"weight_new_account"`
	WeightFirstWithdrawal    int     `mapstructure:"weight_first_withdrawal"`
	WeightLargeWithdrawal    int     `mapstructure:"weight_large_withdrawal"`
	WeightFrequent24h        int     `mapstructure:"weight_frequent_24h"`
	WeightFrequentWeek       int     `mapstructure:"weight_frequent_week"`
	WeightSingleIncomeSource int     `mapstructure:"weight_single_income_source"`
	WeightLowIncomeActivity  int     `mapstructure:"weight_low_income_activity"`
	WeightWithdrawPercent    int     `mapstructure:"weight_withdraw_percent"`
	MediumThreshold          int     `mapstructure:"medium_threshold"`
	HighThreshold            int     `mapstructure:"high_threshold"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("./")    // 备用路径
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	// 设置默认值（可选）
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "app.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/meili.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expire_hours", 24)
	viper.SetDefault("dealer_jwt.secret", "dealer-change-me-in-production")
	viper.SetDefault("dealer_jwt.expire_hours", 168)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "ml")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"default": 10,
	})
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-CSRF-Token",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("security.login_rate_limit.window_seconds", 300)
	viper.SetDefault("security.login_rate_limit.max_attempts", 5)
	viper.SetDefault("security.login_rate_limit.block_seconds", 900)
	viper.SetDefault("security.api_rate_limit.window_seconds", 60)
	viper.SetDefault("security.api_rate_limit.max_requests", 120)
	viper.SetDefault("commission.level_cap", 0)
	viper.SetDefault("commission.subscription_levels", []float64{10, 5, 2})
	viper.SetDefault("withdrawal.min_amount", 20000)
	viper.SetDefault("risk.new_account_days", 30)
	viper.SetDefault("risk.large_amount", 100000)
	viper.SetDefault("risk.frequent_24h_count", 2)
	viper.SetDefault("risk.frequent_week_count", 5)
	viper.SetDefault("risk.low_income_txn_count", 3)
	viper.SetDefault("risk.high_withdraw_ratio", 0.8)
	viper.SetDefault("risk.weight_new_account", 15)
	viper.SetDefault("risk.weight_first_withdrawal", 10)
	viper.SetDefault("risk.weight_large_withdrawal", 20)
	viper.SetDefault("risk.weight_frequent_24h", 15)
	viper.SetDefault("risk.weight_frequent_week", 10)
	viper.SetDefault("risk.weight_single_income_source", 10)
	viper.SetDefault("risk.weight_low_income_activity", 10)
	viper.SetDefault("risk.weight_withdraw_percent", 20)
	viper.SetDefault("risk.medium_threshold", 40)
	viper.SetDefault("risk.high_threshold", 70)

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> SERVER_PORT)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}
