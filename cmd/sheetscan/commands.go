package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"

	"github.com/JonMunkholm/sheetscan/internal/catalog"
	"github.com/JonMunkholm/sheetscan/internal/core"
	"github.com/JonMunkholm/sheetscan/internal/logging"
	"github.com/JonMunkholm/sheetscan/internal/sheets"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// controller runs the commands. Output goes to out, logs to errOut.
type controller struct {
	out    io.Writer
	errOut io.Writer

	logger    *slog.Logger
	cfg       core.ServiceConfig
	transport sheets.Transport
}

func (c *controller) setup(baseURL string, timeout time.Duration, level, format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid log format %q", format)
	}
	c.logger = logging.New(c.errOut, level, format)
	c.cfg = core.ServiceConfig{
		BaseURL:     baseURL,
		HTTPTimeout: timeout,
	}
	return nil
}

func (c *controller) service(reg *catalog.Registry, opts ...core.ServiceOption) *core.Service {
	opts = append([]core.ServiceOption{core.WithLogger(c.logger)}, opts...)
	if c.transport != nil {
		opts = append(opts, core.WithTransport(c.transport))
	}
	return core.NewService(c.cfg, reg, opts...)
}

// request builds a scan from either a catalog table or explicit flags.
func (c *controller) request(tablesFile, table, spreadSheetID, sheetID string, columns []string) (core.ScanRequest, error) {
	if table != "" {
		if tablesFile == "" {
			return core.ScanRequest{}, errors.New("--table needs --tables-file")
		}
		t, err := findTable(tablesFile, table)
		if err != nil {
			return core.ScanRequest{}, err
		}
		return core.ScanRequest{Options: t.Options(), Columns: t.Columns}, nil
	}

	opts, err := sheets.TableOptionsFrom(map[string]string{
		"spread_sheet_id": spreadSheetID,
		"sheet_id":        sheetID,
	})
	if err != nil {
		return core.ScanRequest{}, err
	}

	cols := make([]sheets.Column, 0, len(columns))
	for _, s := range columns {
		col, err := parseColumn(s)
		if err != nil {
			return core.ScanRequest{}, err
		}
		cols = append(cols, col)
	}
	return core.ScanRequest{Options: opts, Columns: cols}, nil
}

// parseColumn reads "ordinal:name:type". The type defaults to text.
func parseColumn(s string) (sheets.Column, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return sheets.Column{}, fmt.Errorf("column %q: want ordinal:name[:type]", s)
	}
	ordinal, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return sheets.Column{}, fmt.Errorf("column %q: bad ordinal: %w", s, err)
	}
	col := sheets.Column{
		Ordinal: ordinal,
		Name:    strings.TrimSpace(parts[1]),
		Type:    sheets.Text,
	}
	if len(parts) == 3 {
		col.Type = sheets.ParseColumnType(parts[2])
	}
	return col, nil
}

func findTable(tablesFile, key string) (catalog.Table, error) {
	tables, err := catalog.LoadFile(tablesFile)
	if err != nil {
		return catalog.Table{}, err
	}
	for _, t := range tables {
		if t.Key == key {
			return t, nil
		}
	}
	return catalog.Table{}, fmt.Errorf("%w: %s", core.ErrTableNotFound, key)
}

func (c *controller) scan(ctx context.Context, req core.ScanRequest, format string) error {
	if len(req.Columns) == 0 {
		return errors.New("at least one --column is required")
	}

	var (
		write func(sheets.TargetRow) error
		flush func() error
	)
	switch format {
	case "json":
		enc := json.NewEncoder(c.out)
		write = func(row sheets.TargetRow) error { return enc.Encode(row.Map(req.Columns)) }
		flush = func() error { return nil }
	case "csv":
		w := csv.NewWriter(c.out)
		if err := w.Write(sheets.ColumnNames(req.Columns)); err != nil {
			return err
		}
		record := make([]string, len(req.Columns))
		write = func(row sheets.TargetRow) error {
			for i, v := range row.Values() {
				record[i] = csvCell(v)
			}
			return w.Write(record)
		}
		flush = func() error {
			w.Flush()
			return w.Error()
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	n, err := c.service(nil).Scan(ctx, req, write)
	if ferr := flush(); err == nil {
		err = ferr
	}
	if err != nil {
		return c.userError(err)
	}
	c.logger.Info("scan complete", "rows", n)
	return nil
}

func csvCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(val, 10)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func (c *controller) describe(ctx context.Context, req core.ScanRequest) error {
	cols, err := c.service(nil).DescribeSheet(ctx, req.Options)
	if err != nil {
		return c.userError(err)
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if cols == nil {
		cols = []sheets.SheetColumn{}
	}
	return enc.Encode(cols)
}

func (c *controller) tables(tablesFile string) error {
	tables, err := catalog.LoadFile(tablesFile)
	if err != nil {
		return err
	}
	reg, err := catalog.NewRegistry(tables...)
	if err != nil {
		return err
	}
	for _, t := range reg.All() {
		target := t.TargetTable
		if target == "" {
			target = "-"
		}
		fmt.Fprintf(c.out, "%s\t%s\t%d columns\t%s\n", t.Key, t.SpreadSheetID, len(t.Columns), target)
	}
	return nil
}

func (c *controller) load(ctx context.Context, tablesFile, key, databaseURL string) error {
	t, err := findTable(tablesFile, key)
	if err != nil {
		return err
	}
	reg, err := catalog.NewRegistry(t)
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	res, err := c.service(reg, core.WithDB(pool)).Load(ctx, key)
	if err != nil {
		return c.userError(err)
	}
	fmt.Fprintf(c.out, "loaded %d rows into %s in %s\n", res.Rows, res.Target, res.Duration.Round(time.Millisecond))
	return nil
}

// userError logs the technical error and returns the user-facing one.
func (c *controller) userError(err error) error {
	c.logger.Debug("command failed", "error", err)
	if !core.IsUserFacing(err) {
		return err
	}
	return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
}
