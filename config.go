package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Supported values of the storage driver setting.
const (
	StorageDriverMongo = "mongo"
	StorageDriverRedis = "redis"
	StorageDriverBolt  = "bolt"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string        `yaml:"git_commit" envconfig:"BKS_GIT_COMMIT" json:"git_commit"`
	GitTag                  string        `yaml:"git_tag" envconfig:"BKS_GIT_TAG" json:"git_tag"`
	BuildTime               string        `yaml:"build_time" envconfig:"BKS_BUILD_TIME" json:"build_time"`
	IsProduction            bool          `yaml:"is_production" envconfig:"BKS_IS_PRODUCTION" json:"is_production"`
	LogLevel                zapcore.Level `yaml:"log_level" envconfig:"BKS_LOG_LEVEL" json:"log_level"`
	LogFolder               string        `yaml:"log_folder" envconfig:"BKS_LOG_FOLDER" json:"log_folder"`
	LogMaxSize              int           `yaml:"log_max_size" envconfig:"BKS_LOG_MAX_SIZE" json:"log_max_size"`
	OpsEndpointsEnable      bool          `yaml:"ops_endpoints_enable" envconfig:"BKS_OPS_ENDPOINTS_ENABLE" json:"ops_endpoints_enable"`
	ProfilerEndpointsEnable bool          `yaml:"profiler_endpoints_enable" envconfig:"BKS_PROFILER_ENDPOINTS_ENABLE" json:"profiler_endpoints_enable"`
	Server                  ServerConfig  `yaml:"server" json:"server"`
	Storage                 StorageConfig `yaml:"storage" json:"storage"`
	MongoDB                 MongoDBConfig `yaml:"mongodb" json:"mongodb"`
	Redis                   RedisConfig   `yaml:"redis" json:"redis"`
	BoltDB                  BoltDBConfig  `yaml:"boltdb" json:"boltdb"`
	Backup                  BackupConfig  `yaml:"backup" json:"backup"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BKS_SERVER_HOST" json:"host"`
	Port            string        `yaml:"port" envconfig:"PORT" json:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BKS_SERVER_READ_TIMEOUT" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BKS_SERVER_WRITE_TIMEOUT" json:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BKS_SERVER_REQUEST_TIMEOUT" json:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BKS_SERVER_SHUTDOWN_TIMEOUT" json:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"BKS_STORAGE_DRIVER" json:"driver"`
}

type MongoDBConfig struct {
	URI               string        `yaml:"uri" envconfig:"MONGO_URL" json:"-"`
	Database          string        `yaml:"database" envconfig:"MONGO_DB_NAME" json:"database"`
	Collection        string        `yaml:"collection" envconfig:"BKS_MONGODB_COLLECTION" json:"collection"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout" envconfig:"BKS_MONGODB_CONNECT_TIMEOUT" json:"connect_timeout"`
	ConnectMaxElapsed time.Duration `yaml:"connect_max_elapsed" envconfig:"BKS_MONGODB_CONNECT_MAX_ELAPSED" json:"connect_max_elapsed"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BKS_REDIS_HOST" json:"host"`
	Port          string        `yaml:"port" envconfig:"BKS_REDIS_PORT" json:"port"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BKS_REDIS_DIAL_TIMEOUT" json:"dial_timeout"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BKS_REDIS_READ_TIMEOUT" json:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BKS_REDIS_WRITE_TIMEOUT" json:"write_timeout"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BKS_REDIS_POOL_SIZE" json:"pool_size"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BKS_REDIS_POOL_TIMEOUT" json:"pool_timeout"`
	Username      string        `yaml:"username" envconfig:"BKS_REDIS_USERNAME" json:"-"`
	Password      string        `yaml:"password" envconfig:"BKS_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BKS_REDIS_DATABASE_INDEX" json:"db_index"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BKS_BOLTDB_FILE_PATH" json:"filepath"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BKS_BOLTDB_TIMEOUT" json:"timeout"`
	BucketName string        `yaml:"bucket_name" envconfig:"BKS_BOLTDB_BUCKET_NAME" json:"bucket_name"`
}

// BackupConfig enables the replication of every change into a local
// bolt database through the redis queues.
type BackupConfig struct {
	Enable bool `yaml:"enable" envconfig:"BKS_BACKUP_ENABLE" json:"enable"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	if err = yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables into the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters, configures
// build tags values to be used if provided and checks the settings of the
// selected storage driver.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 {
		config.Server.Host = "0.0.0.0"
	}

	if len(config.Server.Port) == 0 {
		config.Server.Port = "3000"
	}

	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 30 * time.Second
	}

	if len(config.LogFolder) == 0 {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 100
	}

	if len(config.Storage.Driver) == 0 {
		config.Storage.Driver = StorageDriverMongo
	}

	if len(config.MongoDB.Collection) == 0 {
		config.MongoDB.Collection = "books"
	}

	if len(config.BoltDB.BucketName) == 0 {
		config.BoltDB.BucketName = "books"
	}

	switch config.Storage.Driver {
	case StorageDriverMongo:
		if len(config.MongoDB.URI) == 0 || len(config.MongoDB.Database) == 0 {
			return errors.New("make sure to set valid mongodb uri and database name in configuration")
		}
	case StorageDriverRedis:
		if err := checkRedisConfig(config); err != nil {
			return err
		}
	case StorageDriverBolt:
		if len(config.BoltDB.FilePath) == 0 {
			return errors.New("make sure to set valid boltdb file path in configuration")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	if config.Backup.Enable {
		if err := checkRedisConfig(config); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
		if len(config.BoltDB.FilePath) == 0 {
			return errors.New("backup: make sure to set valid boltdb file path in configuration")
		}
		if config.Storage.Driver == StorageDriverBolt {
			return errors.New("backup: cannot replicate bolt storage into itself")
		}
	}

	return nil
}

func checkRedisConfig(config *Config) error {
	if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
		return errors.New("make sure to set valid redis address and port in configuration")
	}
	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// config.env is optional, real environment variables take precedence.
	err = godotenv.Load("./config.env")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	err = LoadConfigEnvs("BKS", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
