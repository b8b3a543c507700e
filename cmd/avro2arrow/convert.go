package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/thanos-io/objstore/providers/filesystem"
	"gopkg.in/yaml.v3"

	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/reader"
	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/sink"
)

// fileConfig is the layout of the file passed with --config.file. Command
// line flags take precedence over it.
type fileConfig struct {
	Reader reader.Config `yaml:"reader"`
	Format string        `yaml:"format"`
}

// convertCommand converts one Avro file into one output file.
type convertCommand struct {
	input       string
	output      string
	format      string
	batchSize   int
	configFile  string
	bucketDir   string
	metricsFile string
}

func addConvertCommand(app *kingpin.Application) {
	cmd := &convertCommand{}
	c := app.Command("convert", "Convert an Avro object container file.").Action(cmd.run)
	c.Arg("input", "Path of the Avro file, or object name when --bucket.dir is set.").Required().StringVar(&cmd.input)
	c.Flag("output", "Path of the output file. Defaults to stdout.").Short('o').StringVar(&cmd.output)
	c.Flag("format", "Output format. One of: [ipc, arrow, csv, parquet]").StringVar(&cmd.format)
	c.Flag("batch-size", "Maximum number of rows per Arrow record batch.").IntVar(&cmd.batchSize)
	c.Flag("config.file", "YAML file holding reader and output settings.").ExistingFileVar(&cmd.configFile)
	c.Flag("bucket.dir", "Read the input from a filesystem object store rooted at this directory.").ExistingDirVar(&cmd.bucketDir)
	c.Flag("metrics.file", "Write conversion metrics in the Prometheus text format to this file.").StringVar(&cmd.metricsFile)
}

func (cmd *convertCommand) config() (reader.Config, sink.Format, error) {
	cfg := fileConfig{
		Reader: reader.Config{BatchSize: reader.DefaultBatchSize},
		Format: string(sink.FormatIPC),
	}
	if cmd.configFile != "" {
		buf, err := os.ReadFile(cmd.configFile)
		if err != nil {
			return reader.Config{}, "", fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return reader.Config{}, "", fmt.Errorf("failed to parse config file %s: %w", cmd.configFile, err)
		}
	}

	if cmd.batchSize != 0 {
		cfg.Reader.BatchSize = cmd.batchSize
	}
	if cmd.format != "" {
		cfg.Format = cmd.format
	}
	if err := cfg.Reader.Validate(); err != nil {
		return reader.Config{}, "", err
	}
	format, err := sink.ParseFormat(cfg.Format)
	if err != nil {
		return reader.Config{}, "", err
	}
	return cfg.Reader, format, nil
}

func (cmd *convertCommand) run(_ *kingpin.ParseContext) error {
	logger := newLogger()

	cfg, format, err := cmd.config()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	metrics := reader.NewMetrics()
	if err := metrics.Register(reg); err != nil {
		return err
	}

	r, err := cmd.open(ctx, cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", cmd.input, err)
	}
	defer r.Close()

	out, closeOut, err := cmd.create()
	if err != nil {
		return err
	}

	start := time.Now()
	stats, err := convert(ctx, r, format, out)
	if closeErr := closeOut(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", cmd.input, err)
	}
	level.Info(logger).Log("msg", "conversion finished", "rows", stats.rows, "batches", stats.batches, "duration", time.Since(start))

	if cmd.metricsFile != "" {
		if err := prometheus.WriteToTextfile(cmd.metricsFile, reg); err != nil {
			level.Warn(logger).Log("msg", "failed to write metrics file", "file", cmd.metricsFile, "err", err)
		}
	}

	if cmd.output != "" {
		cmd.printSummary(format, stats, time.Since(start))
	}
	return nil
}

func (cmd *convertCommand) open(ctx context.Context, cfg reader.Config, logger log.Logger, metrics *reader.Metrics) (*reader.Reader, error) {
	if cmd.bucketDir == "" {
		return reader.OpenFile(cfg, afero.NewOsFs(), cmd.input, logger, metrics)
	}

	bkt, err := filesystem.NewBucket(cmd.bucketDir)
	if err != nil {
		return nil, err
	}
	return reader.OpenObject(ctx, cfg, bkt, cmd.input, logger, metrics)
}

func (cmd *convertCommand) create() (io.Writer, func() error, error) {
	if cmd.output == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(cmd.output), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(cmd.output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

type convertStats struct {
	rows    int64
	batches int
	bytes   int64
}

// convert copies every record of r into a writer of the given format.
func convert(ctx context.Context, r *reader.Reader, format sink.Format, out io.Writer) (convertStats, error) {
	var stats convertStats

	cw := &sink.CountingWriter{W: out}
	w, err := sink.New(format, cw, r.Schema(), nil)
	if err != nil {
		return stats, err
	}

	for {
		rec, err := r.Read(ctx)
		if errors.Is(err, reader.EOF) {
			break
		} else if err != nil {
			_ = w.Close()
			return stats, err
		}

		err = w.Write(rec)
		stats.rows += rec.NumRows()
		stats.batches++
		rec.Release()
		if err != nil {
			_ = w.Close()
			return stats, err
		}
	}

	if err := w.Close(); err != nil {
		return stats, err
	}
	stats.bytes = cw.N
	return stats, nil
}

func (cmd *convertCommand) printSummary(format sink.Format, stats convertStats, took time.Duration) {
	bold := color.New(color.Bold)
	bold.Println("Converted:")
	fmt.Printf("\tinput: %s\n", cmd.input)
	fmt.Printf("\toutput: %s (%s, %v)\n", cmd.output, format, humanize.Bytes(uint64(stats.bytes)))
	fmt.Printf(
		"\trows: %s, batches: %d, took: %v\n",
		humanize.Comma(stats.rows),
		stats.batches,
		took.Round(time.Millisecond),
	)
}
