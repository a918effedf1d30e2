package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/CommissaiR/gitlabber/internal/app"
	"github.com/CommissaiR/gitlabber/internal/config"
	"github.com/CommissaiR/gitlabber/internal/gitsync"
	"github.com/CommissaiR/gitlabber/internal/logging"
)

// flagKeys maps command-line flags to configuration keys. Only flags set
// explicitly override the other configuration sources.
var flagKeys = map[string]string{
	"token":        "source.token",
	"url":          "source.url",
	"provider":     "source.provider",
	"namespace":    "source.namespace",
	"in-file":      "source.in_file",
	"include":      "filter.include",
	"exclude":      "filter.exclude",
	"include-file": "filter.include_file",
	"exclude-file": "filter.exclude_file",
	"method":       "sync.method",
	"concurrency":  "sync.concurrency",
	"print":        "output.print",
	"print-format": "output.format",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
}

// rootOptions holds flags that select configuration sources rather than
// configuration values.
type rootOptions struct {
	configFile string
	envFile    string

	// appOptions are passed to app.New; tests use them to stub discovery.
	appOptions []app.Option
}

func newRootCmd(appOptions ...app.Option) *cobra.Command {
	opts := &rootOptions{appOptions: appOptions}

	cmd := &cobra.Command{
		Use:   "gitlabber [flags] [dest]",
		Short: "Clone or pull a whole GitLab namespace tree",
		Long: `gitlabber discovers every project visible on a GitLab (or GitHub) server,
rebuilds the group hierarchy as a tree, prunes it with include/exclude glob
patterns and then either prints the tree or mirrors it under dest.

Patterns match canonical paths such as "org/teamA/svc1": '*' and '?' stay
within one level, '**' spans any number of levels.

Examples:
  # Print every project below the "org" group
  gitlabber -u https://gitlab.example.com -t $TOKEN -i 'org/**' -p

  # Mirror the tree over https, skipping archived teams
  gitlabber -u https://gitlab.example.com -m http -x 'org/archive/**' ./mirror

  # Re-use a previously exported tree
  gitlabber -p --print-format yaml > tree.yaml
  gitlabber -f tree.yaml ./mirror`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringP("token", "t", "", "access token (env GITLAB_TOKEN)")
	f.StringP("url", "u", "", "server base URL (env GITLAB_URL)")
	f.String("provider", config.ProviderGitLab, "source provider: gitlab or github")
	f.StringP("namespace", "n", "", "only keep projects whose top-level group equals this name")
	f.StringP("in-file", "f", "", "load the tree from a YAML or JSON file instead of the server")
	f.StringSliceP("include", "i", nil, "comma-separated glob patterns of paths to keep")
	f.StringSliceP("exclude", "x", nil, "comma-separated glob patterns of paths to drop")
	f.String("include-file", "", "file with one include pattern per line")
	f.String("exclude-file", "", "file with one exclude pattern per line")
	f.StringP("method", "m", config.MethodSSH, "clone method: ssh or http")
	f.IntP("concurrency", "c", 4, "number of projects synced in parallel")
	f.BoolP("print", "p", false, "print the tree instead of syncing it")
	f.String("print-format", config.FormatTree, "print format: tree, yaml or json")
	f.StringP("log-level", "l", "warn", "log level: trace, debug, info, warn or error")
	f.String("log-format", "console", "log format: console or json")
	f.StringVar(&opts.configFile, "config", "", "YAML or TOML configuration file")
	f.StringVar(&opts.envFile, "env-file", "", "dotenv file to load (default ./.env when present)")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// overrides collects explicitly set flags and the dest argument as
// configuration keys.
func overrides(flags *pflag.FlagSet, args []string) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	var err error
	flags.Visit(func(fl *pflag.Flag) {
		key, ok := flagKeys[fl.Name]
		if !ok || err != nil {
			return
		}
		switch fl.Value.Type() {
		case "stringSlice":
			out[key], err = flags.GetStringSlice(fl.Name)
		case "bool":
			out[key], err = flags.GetBool(fl.Name)
		case "int":
			out[key], err = flags.GetInt(fl.Name)
		default:
			out[key] = fl.Value.String()
		}
	})
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		out["sync.dest"] = args[0]
	}
	return out, nil
}

func run(cmd *cobra.Command, args []string, opts *rootOptions) error {
	ov, err := overrides(cmd.Flags(), args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: opts.configFile,
		EnvFile:    opts.envFile,
		Overrides:  ov,
	})
	if err != nil {
		return err
	}

	logCfg, err := logging.FromConfig(cfg.Logging)
	if err != nil {
		return err
	}
	logCfg.Output = cmd.ErrOrStderr()
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := logging.WithRunID(cmd.Context(), logging.NewRunID())
	ctx = logging.WithLogger(ctx, logger)

	logger.Debug(ctx, "configuration loaded",
		zap.String("provider", cfg.Source.Provider),
		zap.String("url", cfg.Source.URL),
		logging.Secret("token", cfg.Source.Token),
		zap.Strings("include", cfg.Filter.Include),
		zap.Strings("exclude", cfg.Filter.Exclude),
	)

	a := app.New(cfg, logger, opts.appOptions...)
	if err := a.Load(ctx); err != nil {
		return err
	}

	if cfg.Output.Print {
		return a.Print(cmd.OutOrStdout(), cfg.Output.Format)
	}

	res, err := a.Sync(ctx, cfg.Sync.Dest)
	if res != nil {
		printSummary(cmd.ErrOrStderr(), res)
	}
	return err
}

func printSummary(w io.Writer, res *gitsync.Result) {
	total := len(res.Cloned) + len(res.Updated) + len(res.UpToDate) + len(res.Skipped) + len(res.Failed)
	fmt.Fprintf(w, "synced %d projects in %d groups (cloned %d, updated %d, up-to-date %d, skipped %d, failed %d) in %s\n",
		total, res.Groups,
		len(res.Cloned), len(res.Updated), len(res.UpToDate), len(res.Skipped), len(res.Failed),
		res.Duration.Round(time.Millisecond))
	for _, f := range res.Failed {
		fmt.Fprintf(w, "  failed: %s\n", f.Error())
	}
}
