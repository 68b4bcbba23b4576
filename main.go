package main

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/alecthomas/repr"
	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/bytetree/batch"
	"github.com/pontaoski/bytetree/config"
	"github.com/pontaoski/bytetree/decompiler"
	"github.com/pontaoski/bytetree/listing"
	"github.com/pontaoski/bytetree/llvmexport"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/bytetree", "main")

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("fail-fast") {
		cfg.FailFast = c.Bool("fail-fast")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	capnslog.SetFormatter(capnslog.NewPrettyFormatter(os.Stderr, false))
	capnslog.SetGlobalLogLevel(cfg.Level())
	return cfg, nil
}

func readListing(c *cli.Context) (*listing.File, error) {
	path := c.Args().First()
	if path == "" {
		return nil, fmt.Errorf("no listing given")
	}
	fi, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fi.Close()
	return listing.Read(fi)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func output(c *cli.Context) (io.WriteCloser, error) {
	out := c.String("output")
	if out == "" || out == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(out)
}

func report(cfg config.Config, err error) {
	if cfg.Color {
		tracerr.PrintSourceColor(err)
	} else {
		tracerr.PrintSource(err)
	}
}

// runBatch applies op to every unit of the listing and writes the
// results. Failed units are written back unchanged.
func runBatch(c *cli.Context, op batch.Operation) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	f, err := readListing(c)
	if err != nil {
		return err
	}

	outcomes, err := batch.Runner{Workers: cfg.Workers, FailFast: cfg.FailFast}.Run(c.Context, f.Units, op)

	result := listing.File{}
	for _, o := range outcomes {
		if o.Err != nil {
			report(cfg, o.Err)
		}
		if o.Skipped {
			plog.Warningf("%s: skipped", o.Unit.Name)
		}
		result.Units = append(result.Units, o.Unit)
	}

	w, oerr := output(c)
	if oerr != nil {
		return oerr
	}
	defer w.Close()
	if werr := result.Write(w); werr != nil {
		return werr
	}

	if err != nil {
		return err
	}
	if n := batch.Failed(outcomes); n > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d units failed", n, len(outcomes)), 1)
	}
	return nil
}

func dump(c *cli.Context) error {
	if _, err := loadConfig(c); err != nil {
		return err
	}
	f, err := readListing(c)
	if err != nil {
		return err
	}
	for _, lu := range f.Units {
		u, err := lu.Decode()
		if err != nil {
			return err
		}
		res, err := decompiler.Decompile(u)
		if err != nil {
			return err
		}
		fmt.Printf("%s:\n", u.Name)
		repr.Println(res.Nodes)
	}
	return nil
}

func lowerAll(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	f, err := readListing(c)
	if err != nil {
		return err
	}

	e := llvmexport.NewExporter()
	for _, lu := range f.Units {
		u, err := lu.Decode()
		if err != nil {
			return err
		}
		res, err := decompiler.Decompile(u)
		if err != nil {
			report(cfg, err)
			continue
		}
		if _, err := e.Lower(u, res.Nodes); err != nil {
			plog.Warningf("%s: not lowered: %v", u.Name, tracerr.Unwrap(err))
		}
	}

	if err := e.Manifest(); err != nil {
		return err
	}

	w, err := output(c)
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = io.WriteString(w, e.Module().String())
	return err
}

func main() {
	outputFlag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "write to `FILE` instead of standard output",
	}

	app := &cli.App{
		Name:  "bytetree",
		Usage: "convert JVM instruction listings to expression trees and back",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: config.Filename,
			},
			&cli.IntFlag{
				Name: "workers",
			},
			&cli.BoolFlag{
				Name: "fail-fast",
			},
			&cli.StringFlag{
				Name: "log-level",
			},
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			if _, ok := err.(cli.ExitCoder); ok {
				cli.HandleExitCoder(err)
				return
			}
			tracerr.PrintSourceColor(err)
			os.Exit(1)
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "write a default settings file",
				Action: func(c *cli.Context) error {
					path := c.String("config")
					if _, err := os.Stat(path); err == nil {
						return fmt.Errorf("%s already exists", path)
					}
					out, err := config.Default().Marshal()
					if err != nil {
						return err
					}
					return ioutil.WriteFile(path, out, 0644)
				},
			},
			{
				Name:      "decompile",
				Usage:     "turn instruction listings into trees",
				ArgsUsage: "LISTING",
				Flags: []cli.Flag{
					outputFlag,
					&cli.BoolFlag{
						Name:  "dump",
						Usage: "print the decompiled nodes instead of writing a listing",
					},
				},
				Action: func(c *cli.Context) error {
					if c.Bool("dump") {
						return dump(c)
					}
					return runBatch(c, batch.Decompile)
				},
			},
			{
				Name:      "recompile",
				Usage:     "turn trees back into instruction listings",
				ArgsUsage: "LISTING",
				Flags:     []cli.Flag{outputFlag},
				Action: func(c *cli.Context) error {
					return runBatch(c, batch.Recompile)
				},
			},
			{
				Name:      "roundtrip",
				Usage:     "check that every unit survives decompiling and recompiling",
				ArgsUsage: "LISTING",
				Flags:     []cli.Flag{outputFlag},
				Action: func(c *cli.Context) error {
					return runBatch(c, batch.RoundTrip)
				},
			},
			{
				Name:      "llvm",
				Usage:     "lower the units that can be lowered to LLVM IR",
				ArgsUsage: "LISTING",
				Flags:     []cli.Flag{outputFlag},
				Action:    lowerAll,
			},
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}
