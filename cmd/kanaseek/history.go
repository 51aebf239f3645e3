package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hazyhaar/kanaseek/pkg/importer"
	"github.com/urfave/cli/v2"
)

func historyCommand(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	path := cfg.HistoryDB
	if v := c.String("db"); v != "" {
		path = v
	}

	h, err := importer.OpenHistoryDB(path)
	if err != nil {
		return err
	}
	defer h.Close()

	runs, err := h.List(c.Int("limit"))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.App.Writer, "no import runs recorded")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "DATASET", "STATUS", "FORMAT", "TOKENIZER", "RECORDS", "FIELDS", "STARTED", "TOOK", "ERROR")
	for _, r := range runs {
		errMsg := ""
		if r.Error != nil {
			errMsg = *r.Error
		}
		t.Row(
			strconv.FormatInt(r.ID, 10),
			r.Dataset,
			r.Status,
			r.Format,
			r.Tokenizer,
			strconv.Itoa(r.Records),
			strconv.Itoa(r.Fields),
			time.UnixMilli(r.StartedAt).Format(time.DateTime),
			r.Duration().Round(time.Millisecond).String(),
			errMsg,
		)
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}
