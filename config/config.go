// Package config loads the loader settings from a yaml file under the "application" prefix,
// every key can be overridden by an environment variable, e.g. APPLICATION_BATCH_INPUTPATH.
package config

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chararch/patientbatch/file"
	"github.com/chararch/patientbatch/patient"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	StorageLocal = "local"
	StorageFTP   = "ftp"
)

type Config struct {
	Application ApplicationConfig `mapstructure:"application"`
}

type ApplicationConfig struct {
	Batch      BatchConfig      `mapstructure:"batch"`
	Datasource DatasourceConfig `mapstructure:"datasource"`
	Log        LogConfig        `mapstructure:"log"`
}

type BatchConfig struct {
	//InputPath directory the fileName job parameter is resolved in, checked only when a job runs
	InputPath      string        `mapstructure:"inputPath" validate:"required"`
	CommitInterval uint          `mapstructure:"commitInterval" validate:"min=1"`
	Delimiter      string        `mapstructure:"delimiter" validate:"required"`
	QuoteCharacter string        `mapstructure:"quoteCharacter" validate:"omitempty,len=1"`
	LinesToSkip    int           `mapstructure:"linesToSkip" validate:"min=0"`
	Checksum       string        `mapstructure:"checksum" validate:"omitempty,oneof=OK MD5 SHA1 SHA256 SHA512"`
	MaxRunningJobs int           `mapstructure:"maxRunningJobs" validate:"min=1"`
	Storage        StorageConfig `mapstructure:"storage"`
}

type StorageConfig struct {
	Type     string        `mapstructure:"type" validate:"oneof=local ftp"`
	Host     string        `mapstructure:"host" validate:"required_if=Type ftp"`
	Port     int           `mapstructure:"port" validate:"min=0,max=65535"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type DatasourceConfig struct {
	//Driver sql driver name, empty means records are only logged
	Driver            string `mapstructure:"driver" validate:"omitempty,oneof=mysql postgres"`
	DSN               string `mapstructure:"dsn" validate:"required_with=Driver"`
	Table             string `mapstructure:"table"`
	PersistExecutions bool   `mapstructure:"persistExecutions"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB" validate:"min=0"`
	MaxBackups int    `mapstructure:"maxBackups" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"maxAgeDays" validate:"min=0"`
}

var defaults = map[string]interface{}{
	"application.batch.inputPath":              "",
	"application.batch.commitInterval":         patient.DefaultCommitInterval,
	"application.batch.delimiter":              patient.DefaultDelimiter,
	"application.batch.quoteCharacter":         "",
	"application.batch.linesToSkip":            patient.DefaultLinesToSkip,
	"application.batch.checksum":               "",
	"application.batch.maxRunningJobs":         10,
	"application.batch.storage.type":           StorageLocal,
	"application.batch.storage.host":           "",
	"application.batch.storage.port":           21,
	"application.batch.storage.user":           "",
	"application.batch.storage.password":       "",
	"application.batch.storage.timeout":        "10s",
	"application.datasource.driver":            "",
	"application.datasource.dsn":               "",
	"application.datasource.table":             patient.DefaultTable,
	"application.datasource.persistExecutions": false,
	"application.log.level":                    "info",
	"application.log.file":                     "",
	"application.log.maxSizeMB":                100,
	"application.log.maxBackups":               5,
	"application.log.maxAgeDays":               30,
}

// Load reads path (yaml, optional when empty) and environment overrides, then validates the result
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file:%v", path)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// FileStorage the storage input files are read from
func (c *Config) FileStorage() file.FileStorage {
	s := c.Application.Batch.Storage
	if s.Type == StorageFTP {
		return &file.FTPFileSystem{Host: s.Host, Port: s.Port, User: s.User, Password: s.Password, ConnTimeout: s.Timeout}
	}
	return &file.LocalFileSystem{}
}

// JobConfig settings of the patient loading job
func (c *Config) JobConfig() patient.JobConfig {
	b := c.Application.Batch
	cfg := patient.JobConfig{
		InputPath:      b.InputPath,
		CommitInterval: b.CommitInterval,
		Delimiter:      b.Delimiter,
		LinesToSkip:    b.LinesToSkip,
		Checksum:       b.Checksum,
		FileStore:      c.FileStorage(),
	}
	if b.QuoteCharacter != "" {
		cfg.QuoteCharacter, _ = utf8.DecodeRuneInString(b.QuoteCharacter)
	}
	return cfg
}
