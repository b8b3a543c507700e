// Command avro2arrow converts Avro object container files into Arrow,
// CSV or Parquet files.
package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

var logLevel string

func main() {
	app := kingpin.New("avro2arrow", "A command-line tool to convert Avro object container files into Arrow record batches.")
	app.Flag("log.level", "Only log messages with the given severity or above. One of: [debug, info, warn, error]").
		Default("info").EnumVar(&logLevel, "debug", "info", "warn", "error")

	addConvertCommand(app)
	addSchemaCommand(app)

	_, err := app.Parse(os.Args[1:])
	app.FatalIfError(err, "")
}

func newLogger() log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	var opt level.Option
	switch logLevel {
	case "debug":
		opt = level.AllowDebug()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		opt = level.AllowInfo()
	}
	return level.NewFilter(logger, opt)
}
