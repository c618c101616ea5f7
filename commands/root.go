// Package commands implements the pasat command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/maastricht-university/pasat-pipeline/config"
	"github.com/maastricht-university/pasat-pipeline/scoring"
)

type app struct {
	v       *viper.Viper
	cfgFile string
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}
	root := &cobra.Command{
		Use:   "pasat",
		Short: "Score recorded PASAT sessions",
		Long: `Score recorded PASAT sessions.

A trial is a stimulus CSV and a wav recording sharing a name in the data
directory. Results, response clips and a summary are written to the outputs
directory as <trial>_RESULTS.csv, <trial>_response_chunks/ and
<trial>_summary.yaml.

Configuration is read from --config, config/$CONFIG_ENV/config.yaml or
pasat.yaml, and PASAT_* environment variables (PASAT_SCORING_RESPONSE_WINDOW).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("data", "", "directory holding <trial>.csv and <trial>.wav")
	pf.String("outputs", "", "directory for results and clips")
	for key, flag := range map[string]string{
		"pipeline.log_level": "log-level",
		"paths.data":         "data",
		"paths.outputs":      "outputs",
	} {
		if err := a.v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(a.scoreCommand(), a.amendCommand(), a.configCommand())
	return root
}

func (a *app) load() (*config.Root, *logrus.Entry, error) {
	c, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(c)
	if err != nil {
		return nil, nil, err
	}
	return c, log, nil
}

func newLogger(c *config.Root) (*logrus.Entry, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(c.Pipeline.LogLvl)
	if err != nil {
		return nil, fmt.Errorf("pipeline.log_level: %w", err)
	}
	l.SetLevel(lvl)
	switch c.Pipeline.LogFormat {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("pipeline.log_format: unknown format %q", c.Pipeline.LogFormat)
	}
	return logrus.NewEntry(l).WithField("app", c.Pipeline.Name), nil
}

// ExitCode maps a command error to the process exit status. A recording
// without detectable speech exits with 2.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, scoring.ErrNoSpeechDetected):
		return 2
	}
	return 1
}

// Hint returns follow-up advice for err, or "".
func Hint(err error) string {
	if errors.Is(err, scoring.ErrNoSpeechDetected) {
		return "Retune detector.silence_threshold_db and detector.min_silence_ms for this recording."
	}
	return ""
}
