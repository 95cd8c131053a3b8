// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cristalhq/acmd"
	"golang.org/x/sync/errgroup"

	"codeberg.org/readeck/microdata/internal/config"
	"codeberg.org/readeck/microdata/internal/httpclient"
	"codeberg.org/readeck/microdata/internal/loader"
	"codeberg.org/readeck/microdata/internal/output"
	"codeberg.org/readeck/microdata/pkg/microdata"
)

func init() {
	commands = append(commands, acmd.Command{
		Name:        "extract",
		Description: "Extract the microdata of HTML documents",
		ExecFunc:    runExtract,
	})
}

func runExtract(ctx context.Context, args []string) error {
	var base, format, absolutize, charset, itemType string
	var indent, jobs int

	var flags appFlags
	fs := flags.Flags()
	// nolint: errcheck
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: extract [arguments...] [SOURCE...]")
		fmt.Fprintln(fs.Output(), "  SOURCE")
		fmt.Fprintln(fs.Output(), "    \tfile path, http(s) URL or \"-\" for the standard input (default)")
		fs.PrintDefaults()
	}
	fs.StringVar(&base, "base", "", "base URL (default: document URL)")
	fs.StringVar(&format, "format", "", "output format: json or yaml")
	fs.StringVar(&absolutize, "absolutize", "", "URL absolutization: concat or resolve")
	fs.StringVar(&charset, "charset", "", "force the documents' charset")
	fs.StringVar(&itemType, "type", "", "only output the top-level items of this type")
	fs.IntVar(&indent, "indent", 0, "output indentation, 0 for compact JSON")
	fs.IntVar(&jobs, "jobs", 0, "number of sources loaded at the same time")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	sources := fs.Args()
	if len(sources) == 0 {
		sources = []string{loader.Stdin}
	}
	if slices.Index(sources, loader.Stdin) != slices.LastIndex(sources, loader.Stdin) {
		return errors.New("the standard input can only be read once")
	}

	if err := appPreRun(&flags); err != nil {
		return err
	}
	cf := flags.config

	// Explicit flags override the configuration.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base":
			cf.Extract.BaseURL = base
		case "format":
			cf.Extract.Format = format
		case "absolutize":
			cf.Extract.Absolutize = absolutize
		case "charset":
			cf.Extract.Charset = charset
		case "indent":
			cf.Extract.Indent = indent
		case "jobs":
			cf.Extract.Jobs = jobs
		}
	})
	if err := cf.Validate(); err != nil {
		return err
	}

	results, err := extractSources(ctx, cf, sources, itemType)
	if err != nil {
		return err
	}

	f, _ := output.ParseFormat(cf.Extract.Format)
	if len(results) == 1 {
		return output.Encode(stdout, results[0].Data, f, cf.Extract.Indent)
	}
	return output.EncodeResults(stdout, results, f, cf.Extract.Indent)
}

// extractSources loads and extracts every source concurrently.
// The results keep the sources order.
func extractSources(ctx context.Context, cf *config.Config, sources []string, itemType string) ([]output.Result, error) {
	absolutize, _ := microdata.LookupAbsolutizer(cf.Extract.Absolutize)
	client := httpclient.New(
		httpclient.WithTimeout(cf.HTTP.Timeout.Duration),
		httpclient.WithUserAgent(cf.HTTP.UserAgent),
	)
	opts := loader.Options{
		BaseURL: cf.Extract.BaseURL,
		Charset: cf.Extract.Charset,
		MaxBody: cf.HTTP.MaxBody,
		Stdin:   stdin,
	}

	results := make([]output.Result, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cf.Extract.Jobs)

	for i, src := range sources {
		g.Go(func() error {
			logger := slog.With(slog.String("source", src))

			doc, err := loader.Load(ctx, client, src, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", src, err)
			}

			start := time.Now()
			md := microdata.ParseNode(doc.Root, doc.BaseURL,
				microdata.WithAbsolutizer(absolutize),
				microdata.WithLogger(logger),
			)
			logger.Debug("extraction done",
				slog.String("base_url", doc.BaseURL),
				slog.Int("items", len(md.Items)),
				slog.Int("cycles", md.Cycles()),
				slog.Duration("time", time.Since(start)),
			)

			if itemType != "" {
				md = md.Filter(func(item *microdata.Item) bool {
					return item.Is(itemType)
				})
			}

			results[i] = output.Result{Source: src, Data: md}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
