// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command xml2csv writes one CSV row per XML element with a given tag.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	mylog "github.com/luxfi/memocache/internal/log"
	"github.com/luxfi/memocache/xmlcsv"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger("XML2CSV_LOG")

	if err := newCommand(configPath()).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// configPath returns XML2CSV_CONFIG, or ~/.xml2csv.yaml.
func configPath() string {
	if p := os.Getenv("XML2CSV_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".xml2csv.yaml")
}

func newCommand(cfgPath string) *cli.Command {
	return &cli.Command{
		Name:      "xml2csv",
		Usage:     "convert XML records to CSV",
		UsageText: "xml2csv -f in.xml -c out.csv -t tag [options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "xml",
				Aliases:  []string{"f"},
				Usage:    "incoming XML file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "csv",
				Aliases:  []string{"c"},
				Usage:    "result CSV file, appended to if it exists",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "tag",
				Aliases:  []string{"t"},
				Usage:    "target tag",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "delimiter",
				Aliases: []string{"d"},
				Usage:   "CSV delimiter",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("delimiter", altsrc.StringSourcer(cfgPath)),
				),
				Value: ",",
			},
			&cli.StringSliceFlag{
				Name:  "tags",
				Usage: "only keep these attributes and elements",
			},
			&cli.IntFlag{
				Name:  "chunk",
				Usage: "records per write",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("chunk", altsrc.StringSourcer(cfgPath)),
				),
				Value: xmlcsv.DefaultChunkSize,
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	delim, size := utf8.DecodeRuneInString(cmd.String("delimiter"))
	if size == 0 || size != len(cmd.String("delimiter")) {
		return fmt.Errorf("%w: %q", xmlcsv.ErrInvalidDelimiter, cmd.String("delimiter"))
	}

	c, err := xmlcsv.New(xmlcsv.Options{
		Tag:       cmd.String("tag"),
		Fields:    cmd.StringSlice("tags"),
		ChunkSize: cmd.Int("chunk"),
		Delimiter: delim,
	})
	if err != nil {
		return err
	}

	n, err := c.ConvertFile(cmd.String("xml"), cmd.String("csv"))
	if err != nil {
		return err
	}
	log.WithField("records", n).Info("done")
	return nil
}
