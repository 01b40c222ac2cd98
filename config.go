package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	ConfigEnvPrefix = "BSAP"

	StorageMongo = "mongo"
	StorageRedis = "redis"
	StorageBolt  = "bolt"

	MinProductionSecretLength = 32
)

// reservedPaths are served by the app itself and cannot host the books.
var reservedPaths = []string{"/status", "/ops", "/swagger"}

// isReservedPath reports whether the base path clashes with another route.
func isReservedPath(path string) bool {
	if path == "/" {
		return true
	}
	for _, p := range reservedPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string            `yaml:"git_commit" envconfig:"BSAP_GIT_COMMIT"`
	GitTag                  string            `yaml:"git_tag" envconfig:"BSAP_GIT_TAG"`
	BuildTime               string            `yaml:"build_time" envconfig:"BSAP_BUILD_TIME"`
	IsProduction            bool              `yaml:"is_production" envconfig:"BSAP_IS_PRODUCTION"`
	LogLevel                zapcore.Level     `yaml:"log_level" envconfig:"BSAP_LOG_LEVEL"`
	LogFolder               string            `yaml:"log_folder" envconfig:"BSAP_LOG_FOLDER"`
	LogMaxSize              int               `yaml:"log_max_size" envconfig:"BSAP_LOG_MAX_SIZE"`
	OpsEndpointsEnable      bool              `yaml:"ops_endpoints_enable" envconfig:"BSAP_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool              `yaml:"profiler_endpoints_enable" envconfig:"BSAP_PROFILER_ENDPOINTS_ENABLE"`
	Server                  ServerConfig      `yaml:"server"`
	Storage                 StorageConfig     `yaml:"storage"`
	Mongo                   MongoConfig       `yaml:"mongo"`
	Redis                   RedisConfig       `yaml:"redis"`
	BoltDB                  BoltDBConfig      `yaml:"boltdb"`
	Replication             ReplicationConfig `yaml:"replication"`
	Auth                    AuthConfig        `yaml:"auth"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BSAP_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BSAP_SERVER_PORT"`
	BasePath        string        `yaml:"base_path" envconfig:"BSAP_SERVER_BASE_PATH"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BSAP_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BSAP_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BSAP_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BSAP_SERVER_SHUTDOWN_TIMEOUT"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"BSAP_STORAGE_DRIVER"`
}

type MongoConfig struct {
	Host           string        `yaml:"host" envconfig:"BSAP_MONGO_HOST"`
	Port           string        `yaml:"port" envconfig:"BSAP_MONGO_PORT"`
	Username       string        `yaml:"username" envconfig:"BSAP_MONGO_USERNAME"`
	Password       string        `yaml:"password" envconfig:"BSAP_MONGO_PASSWORD" json:"-"`
	AuthSource     string        `yaml:"auth_source" envconfig:"BSAP_MONGO_AUTH_SOURCE"`
	Database       string        `yaml:"database" envconfig:"BSAP_MONGO_DATABASE"`
	Collection     string        `yaml:"collection" envconfig:"BSAP_MONGO_COLLECTION"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"BSAP_MONGO_CONNECT_TIMEOUT"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BSAP_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BSAP_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BSAP_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BSAP_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BSAP_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BSAP_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BSAP_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BSAP_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BSAP_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BSAP_REDIS_DATABASE_INDEX"`
	HashKey       string        `yaml:"hash_key" envconfig:"BSAP_REDIS_HASH_KEY"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BSAP_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BSAP_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BSAP_BOLTDB_BUCKET_NAME"`
}

// ReplicationConfig enables the mirroring of books mutations into
// the boltdb replica through redis queues.
type ReplicationConfig struct {
	Enable bool `yaml:"enable" envconfig:"BSAP_REPLICATION_ENABLE"`
}

type AuthConfig struct {
	Secret   string        `yaml:"secret" envconfig:"BSAP_AUTH_SECRET" json:"-"`
	Issuer   string        `yaml:"issuer" envconfig:"BSAP_AUTH_ISSUER"`
	Audience string        `yaml:"audience" envconfig:"BSAP_AUTH_AUDIENCE"`
	TokenTTL time.Duration `yaml:"token_ttl" envconfig:"BSAP_AUTH_TOKEN_TTL"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables into the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// LoadEnvFile sets the variables defined into the env file. A missing
// file is not an error since the variables may come from the shell.
func LoadEnvFile(envFile string) error {
	err := godotenv.Load(envFile)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
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

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if config.Server.BasePath == "" {
		config.Server.BasePath = "/api/PresensiHarianGuru"
	}
	config.Server.BasePath = "/" + strings.Trim(config.Server.BasePath, "/")
	if isReservedPath(config.Server.BasePath) {
		return errors.New("make sure the server base path is not the root nor an index, status, ops or swagger path")
	}

	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 30 * time.Second
	}

	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}

	if config.LogFolder == "" {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if config.Redis.HashKey == "" {
		config.Redis.HashKey = HBooks
	}

	if config.Storage.Driver == "" {
		config.Storage.Driver = StorageMongo
	}

	switch config.Storage.Driver {
	case StorageMongo:
		if len(config.Mongo.Host) == 0 || len(config.Mongo.Port) == 0 {
			return errors.New("make sure to set valid mongo address and port in configuration file")
		}
		if len(config.Mongo.Database) == 0 || len(config.Mongo.Collection) == 0 {
			return errors.New("make sure to set mongo database and collection names in configuration file")
		}
	case StorageRedis:
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
	case StorageBolt:
		if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
			return errors.New("make sure to set boltdb file path and bucket name in configuration file")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	if config.Replication.Enable {
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("replication requires valid redis address and port in configuration file")
		}
		if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
			return errors.New("replication requires boltdb file path and bucket name in configuration file")
		}
		if config.Storage.Driver == StorageBolt {
			return errors.New("replication into boltdb cannot be used with the bolt storage driver")
		}
	}

	if len(config.Auth.Secret) == 0 {
		return errors.New("make sure to set the auth secret used to verify access tokens")
	}

	if config.IsProduction && len(config.Auth.Secret) < MinProductionSecretLength {
		return fmt.Errorf("make sure the auth secret has at least %d bytes in production", MinProductionSecretLength)
	}

	if config.Auth.TokenTTL == 0 {
		config.Auth.TokenTTL = time.Hour
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = LoadEnvFile("./config.env")
	if err != nil {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BSAP`.
	err = LoadConfigEnvs(ConfigEnvPrefix, config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
