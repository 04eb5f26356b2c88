package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mchmarny/geocidr/pkg/config"
	"github.com/mchmarny/geocidr/pkg/logging"
	urfave "github.com/urfave/cli/v3"
)

const (
	appConfigKey = "app-config"

	// software77 IpToCountry.csv.gz
	defaultIPv4Source = "http://software77.net/geo-ip/?DL=1"
	// software77 IpToCountry.6C.csv.gz
	defaultIPv6Source = "http://software77.net/geo-ip/?DL=9"

	ipv4SourceFlagName = "infile-v4"
	ipv6SourceFlagName = "infile-v6"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	errConfigNotLoaded = errors.New("config not loaded")
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Path   string
	Config *config.Config
}

func getConfig(cmd *urfave.Command) (*appConfig, error) {
	cfg, ok := cmd.Root().Metadata[appConfigKey].(*appConfig)
	if !ok || cfg == nil || cfg.Config == nil {
		return nil, errConfigNotLoaded
	}
	return cfg, nil
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:            "geocidr",
		Version:         fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:           "Convert geo-ip range tables into scored CIDR blocks",
		UsageText:       "geocidr [--infile-v4 SRC] [--infile-v6 SRC] OUTFILE",
		ArgsUsage:       "OUTFILE",
		HideHelpCommand: true,
		Metadata:        map[string]any{},
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    ipv4SourceFlagName,
				Aliases: []string{"infile_v4"},
				Usage:   "URL or path of the IPv4 range table (plain or gzip CSV)",
				Value:   defaultIPv4Source,
			},
			&urfave.StringFlag{
				Name:    ipv6SourceFlagName,
				Aliases: []string{"infile_v6"},
				Usage:   "URL or path of the IPv6 range table (plain or gzip CSV)",
				Value:   defaultIPv6Source,
			},
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			path, err := config.GetPath()
			if err != nil {
				return ctx, fmt.Errorf("resolving config path: %w", err)
			}

			cfg, err := config.ReadOrCreate(path)
			if err != nil {
				return ctx, fmt.Errorf("loading config: %w", err)
			}

			logging.SetDefaultCLILogger(cfg.LogLevel)
			slog.Debug("config loaded", "path", path, "scores", len(cfg.Scores), "additional", len(cfg.Additional))

			cmd.Metadata[appConfigKey] = &appConfig{
				Path:   path,
				Config: cfg,
			}
			return ctx, nil
		},
		Action: cmdConvert,
	}
}

func encode(w io.Writer, v any) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
