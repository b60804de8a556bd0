package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"finview/internal/amqp"
	"finview/internal/cli"
	"finview/internal/config"
	"finview/internal/log"
	"finview/internal/sources/excel"
)

const usage = `usage: finview-cli <command> [flags]

commands:
  demo           run every page, report and search against the configured source
  import         load a spreadsheet into the sqlite ledger
  export         write the sqlite ledger to a spreadsheet
  watch-reports  log report notifications published on AMQP`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cli.LoadEnvFile()
	bootLogger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(log.ComponentCLI)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "demo":
		err = demoCommand(ctx, cfg, args, logger)
	case "import":
		err = importCommand(ctx, cfg, args, logger)
	case "export":
		err = exportCommand(ctx, cfg, args, logger)
	case "watch-reports":
		err = watchCommand(ctx, cfg, logger)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Command failed", "command", cmd, log.FieldError, err)
		os.Exit(1)
	}
}

func demoCommand(ctx context.Context, cfg *config.Config, args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	opts := defaultDemoOptions()
	fs.StringVar(&opts.Date, "date", opts.Date, "reference date (YYYY-MM-DD)")
	fs.StringVar(&opts.Category, "category", opts.Category, "category for the spending report")
	fs.StringVar(&opts.Query, "query", opts.Query, "search query")
	fs.IntVar(&opts.Limit, "limit", opts.Limit, "investment round-up step")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ds, err := app.Loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	_, err = runDemo(ctx, app, ds, opts, logger)
	return err
}

func importCommand(ctx context.Context, cfg *config.Config, args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	file := fs.String("file", cfg.TransactionsFile, "spreadsheet to import")
	sheet := fs.String("sheet", "", "sheet name, first sheet when empty")
	db := fs.String("db", cfg.SQLiteDBPath, "sqlite ledger path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ds, err := excel.NewLoader(*file, *sheet, logger).Load(ctx)
	if err != nil {
		return fmt.Errorf("read %s: %w", *file, err)
	}
	ledger := cli.InitLedger(logger, *db)
	defer ledger.Close()

	res, err := ledger.Import(ctx, *file, ds)
	if err != nil {
		return err
	}
	total, err := ledger.Count(ctx)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Import completed",
		"import_id", res.ID,
		log.FieldSource, res.Source,
		log.FieldRows, res.Rows,
		"inserted", res.Inserted,
		"ledger_rows", total)
	return nil
}

func exportCommand(ctx context.Context, cfg *config.Config, args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("out", "export.xlsx", "spreadsheet to write")
	db := fs.String("db", cfg.SQLiteDBPath, "sqlite ledger path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ledger := cli.InitLedger(logger, *db)
	defer ledger.Close()
	ds, err := ledger.Load(ctx)
	if err != nil {
		return err
	}
	if err := excel.Write(*out, ds); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Export completed", "path", *out, log.FieldRows, ds.Len())
	return nil
}

func watchCommand(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	client := cli.ConnectAMQP(cfg, logger)
	if client == nil {
		return errors.New("AMQP_URL is not set or the broker is unreachable")
	}
	defer client.Close()

	logger.InfoContext(ctx, "Waiting for report notifications", "queue", cfg.AMQPQueue)
	return client.ConsumeReportSaved(ctx, func(msg *amqp.ReportSavedMessage) error {
		logger.InfoContext(ctx, "Report saved",
			log.FieldReport, msg.Report,
			log.FieldReportPath, msg.Path,
			log.FieldRows, msg.Rows,
			"saved_at", msg.Timestamp)
		return nil
	})
}
