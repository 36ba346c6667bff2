package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chararch/patientbatch/file"
	"github.com/chararch/patientbatch/patient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "application.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Yaml(t *testing.T) {
	path := writeConfig(t, `
application:
  batch:
    inputPath: /data/in
    commitInterval: 5
    quoteCharacter: '"'
    checksum: MD5
  datasource:
    driver: postgres
    dsn: postgres://localhost/patients
    persistExecutions: true
  log:
    level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	b := cfg.Application.Batch
	assert.Equal(t, "/data/in", b.InputPath)
	assert.Equal(t, uint(5), b.CommitInterval)
	assert.Equal(t, patient.DefaultDelimiter, b.Delimiter)
	assert.Equal(t, patient.DefaultLinesToSkip, b.LinesToSkip)
	assert.Equal(t, 10, b.MaxRunningJobs)
	assert.Equal(t, StorageLocal, b.Storage.Type)
	assert.Equal(t, 10*time.Second, b.Storage.Timeout)

	ds := cfg.Application.Datasource
	assert.Equal(t, "postgres", ds.Driver)
	assert.Equal(t, patient.DefaultTable, ds.Table)
	assert.True(t, ds.PersistExecutions)
	assert.Equal(t, "debug", cfg.Application.Log.Level)

	jobConfig := cfg.JobConfig()
	assert.Equal(t, '"', jobConfig.QuoteCharacter)
	assert.Equal(t, file.MD5, jobConfig.Checksum)
	assert.IsType(t, &file.LocalFileSystem{}, jobConfig.FileStore)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
application:
  batch:
    inputPath: /data/in
`)
	t.Setenv("APPLICATION_BATCH_INPUTPATH", "/override")
	t.Setenv("APPLICATION_BATCH_COMMITINTERVAL", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/override", cfg.Application.Batch.InputPath)
	assert.Equal(t, uint(7), cfg.Application.Batch.CommitInterval)
}

func TestLoad_NoFile(t *testing.T) {
	_, err := Load("")
	require.Error(t, err, "inputPath is required")

	t.Setenv("APPLICATION_BATCH_INPUTPATH", "/data/in")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint(patient.DefaultCommitInterval), cfg.Application.Batch.CommitInterval)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Application: ApplicationConfig{
			Batch: BatchConfig{
				InputPath:      "/data/in",
				CommitInterval: 2,
				Delimiter:      ",",
				MaxRunningJobs: 1,
				Storage:        StorageConfig{Type: StorageLocal},
			},
		}}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero commit interval", func(c *Config) { c.Application.Batch.CommitInterval = 0 }},
		{"unknown checksum", func(c *Config) { c.Application.Batch.Checksum = "CRC32" }},
		{"long quote character", func(c *Config) { c.Application.Batch.QuoteCharacter = `""` }},
		{"driver without dsn", func(c *Config) { c.Application.Datasource.Driver = "mysql" }},
		{"unknown driver", func(c *Config) {
			c.Application.Datasource.Driver = "sqlite"
			c.Application.Datasource.DSN = "file::memory:"
		}},
		{"ftp without host", func(c *Config) { c.Application.Batch.Storage.Type = StorageFTP }},
		{"unknown log level", func(c *Config) { c.Application.Log.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestFileStorage_FTP(t *testing.T) {
	cfg := &Config{Application: ApplicationConfig{Batch: BatchConfig{
		Storage: StorageConfig{Type: StorageFTP, Host: "ftp.example.org", Port: 2121, User: "loader", Password: "secret", Timeout: time.Second},
	}}}
	storage, ok := cfg.FileStorage().(*file.FTPFileSystem)
	require.True(t, ok)
	assert.Equal(t, "ftp.example.org", storage.Host)
	assert.Equal(t, 2121, storage.Port)
	assert.Equal(t, "loader", storage.User)
	assert.Equal(t, time.Second, storage.ConnTimeout)
}
