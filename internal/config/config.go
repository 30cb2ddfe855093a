package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Engine    EngineConfig    `mapstructure:"engine"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// EngineConfig 测评引擎参数。显式注入各组件，禁止包级可变状态，
// 保证并行测试可用不同配置。
type EngineConfig struct {
	// IRT 能力估计
	LearningRate float64 `mapstructure:"learning_rate"`
	SEFloor      float64 `mapstructure:"se_floor"`
	ThetaLimit   float64 `mapstructure:"theta_limit"`

	// 选题
	InitialBand     float64 `mapstructure:"initial_band"`
	BandStep        float64 `mapstructure:"band_step"`
	MaxBand         float64 `mapstructure:"max_band"`
	MaxChapterShare float64 `mapstructure:"max_chapter_share"`
	RecentDays      int     `mapstructure:"recent_days"`

	// 会话
	DailyQuizQuestions       int `mapstructure:"daily_quiz_questions"`
	ChapterPracticeQuestions int `mapstructure:"chapter_practice_questions"`
	MockTestQuestions        int `mapstructure:"mock_test_questions"`
	MockTestDurationMinutes  int `mapstructure:"mock_test_duration_minutes"`

	// 熔断器
	BreakerFailureThreshold int `mapstructure:"breaker_failure_threshold"`
	BreakerMaxFailureDates  int `mapstructure:"breaker_max_failure_dates"`
	BreakerWindowDays       int `mapstructure:"breaker_window_days"`
	BreakerCooldownMinutes  int `mapstructure:"breaker_cooldown_minutes"`

	// 练习历史
	MaxWeeklyStats  int `mapstructure:"max_weekly_stats"`
	MaxPracticeDays int `mapstructure:"max_practice_days"`
}

func setEngineDefaults() {
	viper.SetDefault("engine.learning_rate", 0.4)
	viper.SetDefault("engine.se_floor", 0.25)
	viper.SetDefault("engine.theta_limit", 4.0)
	viper.SetDefault("engine.initial_band", 0.5)
	viper.SetDefault("engine.band_step", 0.5)
	viper.SetDefault("engine.max_band", 3.0)
	viper.SetDefault("engine.max_chapter_share", 0.4)
	viper.SetDefault("engine.recent_days", 14)
	viper.SetDefault("engine.daily_quiz_questions", 10)
	viper.SetDefault("engine.chapter_practice_questions", 15)
	viper.SetDefault("engine.mock_test_questions", 30)
	viper.SetDefault("engine.mock_test_duration_minutes", 60)
	viper.SetDefault("engine.breaker_failure_threshold", 5)
	viper.SetDefault("engine.breaker_max_failure_dates", 1000)
	viper.SetDefault("engine.breaker_window_days", 7)
	viper.SetDefault("engine.breaker_cooldown_minutes", 15)
	viper.SetDefault("engine.max_weekly_stats", 52)
	viper.SetDefault("engine.max_practice_days", 366)
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("EXAM_PREP")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	setEngineDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	return &cfg, nil
}

// DefaultEngineConfig 返回引擎默认参数，测试与未读配置场景使用。
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		LearningRate:             0.4,
		SEFloor:                  0.25,
		ThetaLimit:               4.0,
		InitialBand:              0.5,
		BandStep:                 0.5,
		MaxBand:                  3.0,
		MaxChapterShare:          0.4,
		RecentDays:               14,
		DailyQuizQuestions:       10,
		ChapterPracticeQuestions: 15,
		MockTestQuestions:        30,
		MockTestDurationMinutes:  60,
		BreakerFailureThreshold:  5,
		BreakerMaxFailureDates:   1000,
		BreakerWindowDays:        7,
		BreakerCooldownMinutes:   15,
		MaxWeeklyStats:           52,
		MaxPracticeDays:          366,
	}
}
