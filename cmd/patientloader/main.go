package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chararch/patientbatch"
	"github.com/chararch/patientbatch/config"
	"github.com/chararch/patientbatch/internal/logs"
	"github.com/chararch/patientbatch/patient"
	"github.com/chararch/patientbatch/util"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configPath string
	fileName   string
)

var rootCmd = &cobra.Command{
	Use:   "patientloader",
	Short: "load a patient csv file into the configured sink in chunks",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fileName == "" && len(args) > 0 {
			fileName = args[0]
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg, fileName)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "(Optional) yaml config file, every key can be overridden by APPLICATION_* environment variables")
	rootCmd.Flags().StringVarP(&fileName, "file", "f", "", "(Required) name of the patient file, resolved in application.batch.inputPath")
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "patientloader: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, fileName string) error {
	logCfg := cfg.Application.Log
	logger := logs.NewZerologLogger(logs.NewConsoleAndFileWriter(logs.RotatingFileConfig{
		FileName:   logCfg.File,
		MaxSizeMB:  logCfg.MaxSizeMB,
		MaxBackups: logCfg.MaxBackups,
		MaxAgeDays: logCfg.MaxAgeDays,
	}), logs.ParseLevel(logCfg.Level))
	patientbatch.SetLogger(logger)
	patientbatch.SetMaxRunningJobs(cfg.Application.Batch.MaxRunningJobs)

	var opts []patient.Option
	var writer patientbatch.Writer
	ds := cfg.Application.Datasource
	if ds.Driver != "" {
		db, err := sql.Open(ds.Driver, ds.DSN)
		if err != nil {
			return errors.Wrapf(err, "open datasource, driver:%v", ds.Driver)
		}
		defer db.Close()
		if err = db.PingContext(ctx); err != nil {
			return errors.Wrapf(err, "connect datasource, driver:%v", ds.Driver)
		}
		if ds.PersistExecutions {
			patientbatch.SetRepository(patientbatch.NewSQLRepository(db, ds.Driver))
		}
		writer = patient.NewSQLWriter(ds.Driver, ds.Table)
		opts = append(opts, patient.WithTransactionManager(patientbatch.NewTransactionManager(db)))
	} else {
		writer = patientbatch.WriterFunc(func(items []interface{}, chunkCtx *patientbatch.ChunkContext) patientbatch.BatchError {
			for _, item := range items {
				logger.Info(ctx, "chunk:%v record:%v", chunkCtx.Index, item)
			}
			return nil
		})
	}

	job := patient.NewJob(cfg.JobConfig(), writer, opts...)
	if err := patientbatch.Register(job); err != nil {
		return err
	}
	defer patientbatch.Unregister(job)

	params, err := util.JsonString(map[string]interface{}{patient.ParamFileName: fileName})
	if err != nil {
		return err
	}
	id, err := patientbatch.Start(ctx, patient.JobName, params)
	if id > 0 {
		if execution, e := patientbatch.GetJobExecution(ctx, id); e == nil {
			for _, se := range execution.StepExecutions {
				logger.Info(ctx, "step:%v status:%v read:%v write:%v commit:%v rollback:%v", se.StepName, se.StepStatus, se.ReadCount, se.WriteCount, se.CommitCount, se.RollbackCount)
			}
			logger.Info(ctx, "job:%v jobExecutionId:%v status:%v", execution.JobName, id, execution.JobStatus)
		}
	}
	return err
}
