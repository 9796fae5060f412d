package main

import (
	"io"
	"net/url"
	"strings"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/client"
	"github.com/Sternrassler/gbif-client/pkg/config"
	"github.com/Sternrassler/gbif-client/pkg/gbif"
	"github.com/Sternrassler/gbif-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app carries state shared by all subcommands. It is initialized once the
// flags are parsed.
type app struct {
	out io.Writer

	configFiles []string
	logLevel    string
	pretty      bool

	cfg    *config.Config
	rdb    *redis.Client
	client *client.Client
	svc    *gbif.Service
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "gbif",
		Short: "Query species, occurrences and downloads from GBIF",
		Long: `Query the GBIF biodiversity API.

Filters are given as name=value pairs and validated before any request is
made. Ranges are written low,high. Repeat a filter to pass several values:

	gbif occurrence search -f country=DE -f year=2000,2020 -f taxonKey=212 --limit 1000

Configuration comes from --config files and GBIF_ environment variables;
download credentials are read from GBIF_USER, GBIF_PWD and GBIF_EMAIL.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}
	root.SetOut(out)
	root.PersistentFlags().StringSliceVarP(&a.configFiles, "config", "c", nil, "Config file(s) (YAML, TOML or JSON)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.pretty, "pretty", false, "Human-readable log output")

	root.AddCommand(
		a.speciesCmd(),
		a.occurrenceCmd(),
		a.downloadCmd(),
		a.enumCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configFiles...)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := logging.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.Log.Level = a.logLevel
	}
	if a.pretty {
		cfg.Log.Pretty = true
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Output = cmd.ErrOrStderr()
	logging.Setup(logCfg)

	a.cfg = cfg
	a.rdb = cfg.RedisClient()
	a.client, err = client.New(cfg.ClientConfig(a.rdb))
	if err != nil {
		return err
	}
	a.svc = gbif.New(a.client, gbif.Options{})

	log.Debug().
		Str("base_url", cfg.BaseURL).
		Bool("redis", a.rdb != nil).
		Msg("Client ready")
	return nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.rdb != nil {
		a.rdb.Close()
	}
}

// filterValues turns repeated name=value flags into url.Values.
func filterValues(pairs []string) (url.Values, error) {
	values := make(url.Values)
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.Errorf("filter %q must have the form name=value", pair)
		}
		values.Add(name, value)
	}
	return values, nil
}
