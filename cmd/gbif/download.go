package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/config"
	"github.com/Sternrassler/gbif-client/pkg/download"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func (a *app) downloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Submit and manage asynchronous occurrence downloads",
		Long: `Submit and manage asynchronous occurrence downloads.

Downloads require a GBIF account. Credentials are read from GBIF_USER,
GBIF_PWD and GBIF_EMAIL and are never written to the configuration.`,
	}
	cmd.AddCommand(
		a.submitCmd(),
		a.statusCmd(),
		a.waitCmd(),
		a.cancelCmd(),
		a.fetchCmd(),
		a.listCmd(),
	)
	return cmd
}

func (a *app) submitCmd() *cobra.Command {
	var (
		where     []string
		format    string
		notify    bool
		addresses []string
	)

	cmd := &cobra.Command{
		Use:   "submit [PREDICATE | @FILE]",
		Short: "Submit a download request",
		Long: `Submit a download request.

The predicate is a JSON document, given inline or as @file. Simple
conjunctions of equality tests can be written with --where instead:

	gbif download submit -w TAXON_KEY=212 -w COUNTRY=DE
	gbif download submit @predicate.json --format DWCA`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			predicate, err := buildPredicate(args, where)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = a.cfg.Download.Format
			}
			job, err := a.svc.Downloads().Submit(cmd.Context(), predicate, config.Credentials(), download.SubmitOptions{
				Format:                format,
				SendNotification:      notify,
				NotificationAddresses: addresses,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), job)
		},
	}
	cmd.Flags().StringArrayVarP(&where, "where", "w", nil, "Equality test as KEY=VALUE (repeatable, combined with and)")
	cmd.Flags().StringVar(&format, "format", download.DefaultFormat, "Archive format")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send an e-mail when the job finishes")
	cmd.Flags().StringSliceVar(&addresses, "notify-address", nil, "Notification addresses (default GBIF_EMAIL)")
	return cmd
}

// buildPredicate reads an inline or @file JSON predicate, or combines where
// clauses. Exactly one of the two must be given.
func buildPredicate(args, where []string) (download.Predicate, error) {
	var p download.Predicate
	switch {
	case len(args) == 1 && len(where) > 0:
		return p, errors.New("give either a predicate or --where clauses, not both")

	case len(args) == 1:
		data := []byte(args[0])
		if name, ok := strings.CutPrefix(args[0], "@"); ok {
			var err error
			if data, err = os.ReadFile(name); err != nil {
				return p, errors.Wrapf(err, "read predicate file %s", name)
			}
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return p, errors.Wrap(err, "parse predicate")
		}
		return p, nil

	case len(where) > 0:
		leaves := make([]download.Predicate, 0, len(where))
		for _, clause := range where {
			key, value, ok := strings.Cut(clause, "=")
			if !ok {
				return p, errors.Errorf("where clause %q must have the form KEY=VALUE", clause)
			}
			leaves = append(leaves, download.Equals(strings.TrimSpace(key), value))
		}
		if len(leaves) == 1 {
			return leaves[0], nil
		}
		return download.And(leaves...), nil
	}
	return p, errors.New("a predicate or at least one --where clause is required")
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status KEY",
		Short: "Show the current state of a download job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.svc.Downloads().Poll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), job)
		},
	}
}

func (a *app) waitCmd() *cobra.Command {
	var interval, timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wait KEY",
		Short: "Poll a download job until it reaches a terminal state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.Download.PollInterval
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = a.cfg.Download.Timeout
			}
			job, err := a.svc.Downloads().AwaitCompletion(cmd.Context(), args[0], interval, timeout)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), job)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", download.DefaultPollInterval, "Time between polls")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Hour, "Give up after this long")
	return cmd
}

func (a *app) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel KEY",
		Short: "Cancel a pending or running download job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.svc.Downloads().Cancel(cmd.Context(), args[0], config.Credentials())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), job)
		},
	}
}

func (a *app) fetchCmd() *cobra.Command {
	var (
		output     string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "fetch KEY",
		Short: "Download the archive of a succeeded job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			downloads := a.svc.Downloads()
			job, err := downloads.Poll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = job.Key + ".zip"
			}

			f, err := os.Create(filepath.Clean(output))
			if err != nil {
				return errors.Wrapf(err, "create %s", output)
			}
			defer f.Close()

			var bar *progressbar.ProgressBar
			var progress func(written, total int64)
			if !noProgress {
				progress = func(written, total int64) {
					if bar == nil {
						if total <= 0 {
							total = -1
						}
						bar = progressbar.NewOptions64(total,
							progressbar.OptionSetDescription(job.Key),
							progressbar.OptionSetWriter(cmd.ErrOrStderr()),
							progressbar.OptionShowBytes(true),
							progressbar.OptionThrottle(65*time.Millisecond),
							progressbar.OptionFullWidth(),
							progressbar.OptionSetRenderBlankState(true),
						)
					}
					_ = bar.Set64(written)
				}
			}

			n, err := downloads.Fetch(cmd.Context(), job, f, progress)
			if bar != nil {
				_ = bar.Finish()
				writeLine(cmd.ErrOrStderr(), "")
			}
			if err != nil {
				os.Remove(f.Name())
				return err
			}
			if err := f.Sync(); err != nil {
				return errors.Wrapf(err, "write %s", output)
			}
			writeLine(cmd.OutOrStdout(), "%s (%d bytes)", output, n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive path (default KEY.zip)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not draw a progress bar")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the download jobs of the configured user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, err := a.svc.Downloads().List(cmd.Context(), config.Credentials(), limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), jobs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of jobs")
	return cmd
}
