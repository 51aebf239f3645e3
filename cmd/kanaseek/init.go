package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/kanaseek/pkg/importer"
	"github.com/hazyhaar/kanaseek/pkg/tokenize"
	"github.com/urfave/cli/v2"
)

func initCommand(c *cli.Context) error {
	source := c.Args().First()
	if source == "" {
		return fmt.Errorf("source file is required")
	}
	rd, err := importer.ForPath(source)
	if err != nil {
		return err
	}
	strategy, err := tokenize.ParseStrategy(c.String("tokenizer"))
	if err != nil {
		return err
	}

	// Remote sources are kept verbatim and the manifest lands in the
	// working directory.
	dir, rel := filepath.Dir(source), filepath.Base(source)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		dir, rel = ".", source
	}
	id := c.String("id")
	if id == "" {
		base := filepath.Base(source)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}
	m := &importer.Manifest{
		ID:     id,
		Source: rel,
		Format: importer.Format{
			Type:     rd.Type(),
			Encoding: c.String("encoding"),
			Sheet:    c.String("sheet"),
		},
		Tokenizer: strategy,
	}
	if err := importer.WriteManifest(dir, m); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", filepath.Join(dir, "dataset.yaml"))
	return nil
}
