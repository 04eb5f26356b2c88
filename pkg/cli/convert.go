package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mchmarny/geocidr/pkg/config"
	"github.com/mchmarny/geocidr/pkg/data"
	"github.com/mchmarny/geocidr/pkg/net"
	"github.com/mchmarny/geocidr/pkg/table"
	urfave "github.com/urfave/cli/v3"
)

var errOutputRequired = errors.New("exactly one OUTFILE argument required")

type convertRequest struct {
	IPv4Source string
	IPv6Source string
	Output     string
}

// ConvertResult summarizes a successful run.
type ConvertResult struct {
	Output     string       `json:"output"`
	SQLitePath string       `json:"sqlite_path,omitempty"`
	IPv4       *table.Stats `json:"ipv4"`
	IPv6       *table.Stats `json:"ipv6"`
	Additional int          `json:"additional"`
	Blocks     int          `json:"blocks"`
	Duration   string       `json:"duration"`
}

func cmdConvert(ctx context.Context, cmd *urfave.Command) error {
	if cmd.Args().Len() != 1 {
		return errOutputRequired
	}

	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}

	req := &convertRequest{
		IPv4Source: cmd.String(ipv4SourceFlagName),
		IPv6Source: cmd.String(ipv6SourceFlagName),
		Output:     cmd.Args().First(),
	}

	res, err := convert(ctx, cfg.Config, req)
	if err != nil {
		return err
	}

	if err := encode(cmd.Root().Writer, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}

func convert(ctx context.Context, cfg *config.Config, req *convertRequest) (*ConvertResult, error) {
	if cfg == nil {
		return nil, errConfigNotLoaded
	}
	if req == nil || req.Output == "" {
		return nil, errOutputRequired
	}

	start := time.Now()
	m := cfg.Mapping()
	if len(m) == 0 {
		slog.Warn("no country scores configured, only additional blocks will be written")
	}

	opts := &net.Options{Progress: cfg.Progress}

	slog.Info("reading IPv4 table", "src", req.IPv4Source)
	v4, v4Stats, err := readTable(ctx, req.IPv4Source, opts, m, table.ReadIPv4)
	if err != nil {
		return nil, fmt.Errorf("IPv4 table %s: %w", req.IPv4Source, err)
	}

	slog.Info("reading IPv6 table", "src", req.IPv6Source)
	v6, v6Stats, err := readTable(ctx, req.IPv6Source, opts, m, table.ReadIPv6)
	if err != nil {
		return nil, fmt.Errorf("IPv6 table %s: %w", req.IPv6Source, err)
	}

	extra := cfg.Extra()
	list := table.Assemble(v4, v6, extra)

	res := &ConvertResult{
		Output:     req.Output,
		IPv4:       v4Stats,
		IPv6:       v6Stats,
		Additional: len(extra),
		Blocks:     len(list),
	}

	// export first: a failed run must leave OUTFILE untouched
	if cfg.SQLitePath != "" {
		slog.Info("exporting blocks", "path", cfg.SQLitePath)
		if err := data.Export(cfg.SQLitePath, list); err != nil {
			return nil, fmt.Errorf("exporting to %s: %w", cfg.SQLitePath, err)
		}
		res.SQLitePath = cfg.SQLitePath
	}

	if err := table.WriteCSVFile(req.Output, list); err != nil {
		return nil, fmt.Errorf("writing %s: %w", req.Output, err)
	}

	res.Duration = time.Since(start).String()

	slog.Info("blocks written",
		"output", req.Output,
		"ipv4", v4Stats.Kept,
		"ipv6", v6Stats.Kept,
		"additional", res.Additional,
		"unmapped", v4Stats.Unmapped+v6Stats.Unmapped,
	)

	return res, nil
}

type readFunc func(r io.Reader, m table.Mapping) ([]table.Block, *table.Stats, error)

func readTable(ctx context.Context, src string, opts *net.Options, m table.Mapping, read readFunc) ([]table.Block, *table.Stats, error) {
	rc, err := net.Open(ctx, src, opts)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	list, st, err := read(rc, m)
	if err != nil {
		return nil, nil, err
	}

	slog.Debug("table read", "src", src, "rows", st.Rows, "kept", st.Kept, "unmapped", st.Unmapped)
	return list, st, nil
}
