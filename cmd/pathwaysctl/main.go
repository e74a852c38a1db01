// Package main provides pathwaysctl, a command-line client for scoring
// attempts and resolving learning paths against the LMS backend.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-pathways/internal/analytics"
	"github.com/mind-engage/mindengage-pathways/internal/catalog"
	"github.com/mind-engage/mindengage-pathways/internal/catalog/httpclient"
	"github.com/mind-engage/mindengage-pathways/internal/config"
	"github.com/mind-engage/mindengage-pathways/internal/db"
	"github.com/mind-engage/mindengage-pathways/internal/events"
	"github.com/mind-engage/mindengage-pathways/internal/identity"
	"github.com/mind-engage/mindengage-pathways/internal/logging"
	"github.com/mind-engage/mindengage-pathways/internal/progression"
	"github.com/mind-engage/mindengage-pathways/internal/scoring"
)

type backend interface {
	catalog.Catalog
	catalog.Directory
}

// options holds the persistent flags shared by every subcommand.
type options struct {
	backendURL  string
	token       string
	timeout     time.Duration
	catalogFile string
	scheme      string
	schemeFile  string
	dbDriver    string
	dbDSN       string
	logLevel    string
	output      string
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	env := config.FromEnv()
	o := &options{}

	rootCmd := &cobra.Command{
		Use:           "pathwaysctl",
		Short:         "Score quiz attempts and find the next topic to study",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.backendURL, "backend-url", env.BackendURL, "LMS backend base URL")
	pf.StringVar(&o.token, "token", os.Getenv("PATHWAYS_TOKEN"), "bearer token forwarded to the backend")
	pf.DurationVar(&o.timeout, "timeout", env.BackendTimeout, "backend request timeout")
	pf.StringVar(&o.catalogFile, "catalog-file", "", "read courses, subjects, topics and students from a YAML file instead of the backend")
	pf.StringVar(&o.scheme, "scheme", env.ScoringScheme, "built-in scoring scheme (four-band, five-band)")
	pf.StringVar(&o.schemeFile, "scheme-file", env.ScoringSchemeFile, "YAML scoring scheme, overrides --scheme")
	pf.StringVar(&o.dbDriver, "db-driver", env.DBDriver, "event log database driver (sqlite, postgres)")
	pf.StringVar(&o.dbDSN, "db-dsn", env.DBDSN, "event log database DSN")
	pf.StringVar(&o.logLevel, "log-level", "warn", "log level")
	pf.StringVarP(&o.output, "output", "o", "json", "output format (json, yaml)")

	rootCmd.AddCommand(newNormalizeCmd(o))
	rootCmd.AddCommand(newNextCmd(o))
	rootCmd.AddCommand(newSchemeCmd(o))
	rootCmd.AddCommand(newPerformanceCmd(o))
	rootCmd.AddCommand(newResolveStudentCmd(o))
	rootCmd.AddCommand(newEventsCmd(o))

	return rootCmd
}

func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), o.logLevel, "text")
}

func (o *options) normalizer() (*scoring.Normalizer, error) {
	s, err := scoring.SelectScheme(o.scheme, o.schemeFile)
	if err != nil {
		return nil, err
	}
	return scoring.New(scoring.WithScheme(s))
}

func (o *options) backend(cmd *cobra.Command) (backend, error) {
	if o.catalogFile != "" {
		return catalog.LoadStatic(o.catalogFile)
	}
	c := httpclient.New(httpclient.Config{
		BaseURL: o.backendURL,
		Timeout: o.timeout,
		Logger:  o.logger(cmd),
	})
	return c.WithToken(o.token), nil
}

func (o *options) print(cmd *cobra.Command, v any) error {
	w := cmd.OutOrStdout()
	switch o.output {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unsupported output format: %s", o.output)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return id, nil
}

func newNormalizeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [FILE]",
		Short: "Normalize a raw attempt result read from FILE or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := o.normalizer()
			if err != nil {
				return err
			}
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open attempt: %w", err)
				}
				defer f.Close()
				r = f
			}
			var in scoring.AttemptResult
			if err := json.NewDecoder(r).Decode(&in); err != nil {
				return fmt.Errorf("failed to decode attempt: %w", err)
			}
			return o.print(cmd, n.Normalize(in))
		},
	}
}

func newNextCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "next TOPIC_ID",
		Short: "Show where a learner goes after completing a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topicID, err := parseID(args[0], "topic id")
			if err != nil {
				return err
			}
			b, err := o.backend(cmd)
			if err != nil {
				return err
			}
			t := progression.New(b, progression.WithLogger(o.logger(cmd))).FindNextTarget(cmd.Context(), topicID)
			return o.print(cmd, t)
		},
	}
}

func newSchemeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scheme",
		Short: "Print the active scoring bands and difficulty ladder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := o.normalizer()
			if err != nil {
				return err
			}
			return o.print(cmd, struct {
				Scheme        scoring.Scheme `json:"scheme" yaml:"scheme"`
				Ladder        scoring.Ladder `json:"ladder" yaml:"ladder"`
				PassThreshold int            `json:"passThreshold" yaml:"passThreshold"`
			}{n.Scheme(), n.Ladder(), n.PassThreshold()})
		},
	}
}

func newPerformanceCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "performance STUDENT_ID",
		Short: "Summarize a student's attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "student id")
			if err != nil {
				return err
			}
			n, err := o.normalizer()
			if err != nil {
				return err
			}
			b, err := o.backend(cmd)
			if err != nil {
				return err
			}
			svc := analytics.Service{
				Directory:  b,
				Identity:   identity.NewResolver(b, nil, o.logger(cmd)),
				Normalizer: n,
			}
			sum, err := svc.Performance(cmd.Context(), identity.Candidate{ID: id})
			if err != nil {
				return err
			}
			return o.print(cmd, sum)
		},
	}
}

func newResolveStudentCmd(o *options) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resolve-student [USER_ID]",
		Short: "Map a user id or email to a student id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c identity.Candidate
			c.Email = email
			if len(args) == 1 {
				id, err := parseID(args[0], "user id")
				if err != nil {
					return err
				}
				c.ID = id
			}
			if c.ID == 0 && c.Email == "" {
				return errors.New("a user id or --email is required")
			}
			b, err := o.backend(cmd)
			if err != nil {
				return err
			}
			res := identity.NewResolver(b, nil, o.logger(cmd)).Resolve(cmd.Context(), c)
			return o.print(cmd, res)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "match students by email")
	return cmd
}

func newEventsCmd(o *options) *cobra.Command {
	var (
		typ   string
		after int64
		limit int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recorded gateway events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			driver, err := db.ParseDriver(o.dbDriver)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			dbh, err := db.Open(ctx, driver, o.dbDSN)
			if err != nil {
				return err
			}
			defer dbh.Close()

			recs, err := events.NewEventLog(dbh, "").List(ctx, events.Type(typ), after, limit)
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}
			if recs == nil {
				recs = []events.Record{}
			}
			return o.print(cmd, recs)
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "only events of this type (AttemptScored, TargetResolved)")
	cmd.Flags().Int64Var(&after, "after", 0, "only events after this sequence number")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of events")
	return cmd
}
