package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hazyhaar/kanaseek/pkg/collection"
	"github.com/hazyhaar/kanaseek/pkg/kit"
	"github.com/hazyhaar/kanaseek/pkg/query"
	"github.com/hazyhaar/kanaseek/pkg/tokenize"
	"github.com/urfave/cli/v2"
)

var (
	markStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	fieldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	headStyle  = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
)

func searchCommand(c *cli.Context) error {
	raw := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("query is required")
	}

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if v := c.String("dataset"); v != "" {
		cfg.Dataset = v
	}
	mode := cfg.Search.Mode
	if v := c.String("mode"); v != "" {
		if mode, err = query.ParseMode(v); err != nil {
			return err
		}
	}
	limit := cfg.Search.Limit
	if n := c.Int("limit"); n > 0 {
		limit = n
	}

	coll := collection.New(collection.Options{MinScore: cfg.Search.MinScore})
	ld := &loader{path: cfg.Dataset, coll: coll, logger: slog.Default()}
	if v := c.String("tokenizer"); v != "" {
		s, err := tokenize.ParseStrategy(v)
		if err != nil {
			return err
		}
		ld.tokenizer = &s
	}

	ctx := kit.WithRequestID(kit.WithTransport(c.Context, "cli"), kit.NewRequestID())
	if err := ld.Reload(ctx); err != nil {
		return err
	}
	resp, err := coll.Search(raw, mode, limit)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(c.App.Writer, resp)
	return nil
}

// printResponse renders hits with their highlighted fields for a terminal.
func printResponse(w io.Writer, resp *collection.Response) {
	fmt.Fprintln(w, faintStyle.Render(fmt.Sprintf("%d hit(s) for %q [%s, %s] query %q",
		resp.Total, resp.Query, resp.Mode, resp.Tokenizer, resp.Built)))
	for _, hit := range resp.Hits {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headStyle.Render(fmt.Sprintf("#%d", hit.Ref))+" "+faintStyle.Render(fmt.Sprintf("score %.3f", hit.Score)))
		for _, fh := range hit.Highlights {
			fmt.Fprintln(w, "  "+fieldStyle.Render(fh.Field)+fh.Segments.Render(markStyle))
		}
	}
}
