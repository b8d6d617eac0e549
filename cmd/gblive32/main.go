// Command gblive32 uploads ROM images to GB-LIVE32 cartridges and reports
// their status.
//
// Usage:
//
//	gblive32 [-b] [-p port]... [-u rom.gb] [-config file] [-json] [-debug]
//
// Without -u the status of each device is printed. Without -p the devices
// are discovered by USB ID; -b runs on every discovered device instead of
// requiring exactly one. The exit code is the number of devices that failed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/kataras/golog"

	"github.com/moffa90/go-gblive32/config"
	"github.com/moffa90/go-gblive32/fleet"
	"github.com/moffa90/go-gblive32/rom"
	"github.com/moffa90/go-gblive32/serialport"
)

// maxExitCode keeps the failure count clear of shell-reserved codes.
const maxExitCode = 125

// portList collects repeated -p flags.
type portList []string

func (p *portList) String() string { return strings.Join(*p, ",") }

func (p *portList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

type options struct {
	Broadcast  bool
	Ports      portList
	Upload     string
	ConfigPath string
	JSON       bool
	Debug      bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("gblive32", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.BoolVar(&opts.Broadcast, "b", false, "Broadcast mode: use all connected devices")
	fs.Var(&opts.Ports, "p", "Serial port to use (repeatable)")
	fs.StringVar(&opts.Upload, "u", "", "ROM file to upload")
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to JSON config file")
	fs.BoolVar(&opts.JSON, "json", false, "Print a JSON report to stdout")
	fs.BoolVar(&opts.Debug, "debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cfg := config.Default()
	if opts.ConfigPath != "" {
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	logger := golog.New()
	logger.SetOutput(stderr)
	logger.SetTimeFormat(`2006/01/02 15:04:05`)
	logger.SetLevel(cfg.LogLevel)
	if opts.Debug {
		logger.SetLevel("debug")
	}

	op := fleet.StatusOperation()
	if opts.Upload != "" {
		img, err := rom.Load(opts.Upload)
		if err != nil {
			printError(stderr, "Error", err)
			return 1
		}
		if h, err := rom.ParseHeader(img); err == nil {
			logger.Infof("ROM: %s", h)
			if !h.ChecksumValid {
				logger.Warnf("ROM header checksum does not match; the boot ROM will refuse it")
			}
			if !h.ROMOnly() {
				logger.Warnf("ROM uses %s; only the first 32 KiB will be visible", h.CartridgeTypeName())
			}
		}
		op = fleet.UploadOperation(img)
	}

	var discovered []string
	if len(opts.Ports) == 0 {
		if discovered, err = serialport.Discover(cfg.Discovery, logger); err != nil {
			printError(stderr, "Error", err)
			return 1
		}
	}
	targets, err := fleet.SelectTargets(opts.Ports, discovered, opts.Broadcast)
	if err != nil {
		printError(stderr, "Error", err)
		return 1
	}
	noun := "device"
	if len(targets) > 1 {
		noun = "devices"
	}
	logger.Infof("Using %s: %s", noun, strings.Join(targets, ", "))

	flashOpts, err := cfg.FlasherOptions()
	if err != nil {
		printError(stderr, "Error", err)
		return 1
	}

	opener := fleet.OpenerFunc(func(ctx context.Context, name string) (fleet.Port, error) {
		p, err := serialport.Open(name, cfg.SerialOptions()...)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	runner := fleet.NewRunner(opener,
		fleet.WithLogger(logger),
		fleet.WithSessionOptions(cfg.SessionOptions()...),
		fleet.WithFlasherOptions(flashOpts...),
	)

	report := runner.Run(ctx, targets, op)
	return finish(report, opts.JSON, stdout, stderr)
}

// finish prints the report and returns the exit code.
func finish(report *fleet.Report, asJSON bool, stdout, stderr io.Writer) int {
	if asJSON {
		out, err := config.JSON.MarshalIndent(report.Summary(), "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, string(out))
	} else {
		for _, res := range report.Results {
			if res.OK() && res.Status != nil {
				fmt.Fprintf(stdout, "%s: %s (%s)\n", res.Device, res.Status, res.Version)
			}
		}
	}

	for _, res := range report.Results {
		if res.Err != nil {
			printError(stderr, res.Device, res.Err)
		}
	}

	failed := report.Failed()
	if failed > 0 {
		fmt.Fprintf(stderr, "%d of %d devices failed\n", failed, len(report.Results))
	}
	return exitCode(failed)
}

func exitCode(failed int) int {
	if failed > maxExitCode {
		return maxExitCode
	}
	return failed
}

// printError prints err followed by every error it wraps.
func printError(w io.Writer, prefix string, err error) {
	fmt.Fprintf(w, "%s: %v\n", prefix, err)
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		fmt.Fprintf(w, "  caused by: %v\n", cause)
	}
}
