/*
 *     Copyright 2024 The Codebucket Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/codebucket-io/codebucket/cmd/dependency"
	"github.com/codebucket-io/codebucket/codebucket/config"
	"github.com/codebucket-io/codebucket/codebucket/metrics"
	"github.com/codebucket-io/codebucket/codebucket/service"
	logger "github.com/codebucket-io/codebucket/internal/dflog"
	"github.com/codebucket-io/codebucket/pkg/bucketlists"
	"github.com/codebucket-io/codebucket/pkg/stock"
	"github.com/codebucket-io/codebucket/version"
)

const (
	// stdinInput reads codes from standard input.
	stdinInput = "-"

	// commentPrefix starts a comment line of input.
	commentPrefix = "#"

	outputYAML = "yaml"
	outputJSON = "json"

	shutdownTimeout = 5 * time.Second
)

// options are the flags of root command.
type options struct {
	config        string
	input         string
	output        string
	verify        bool
	maxBucketSize int
	keyScheme     string
	workers       int
	metricsAddr   string
	console       bool
	verbose       bool
	logDir        string
}

// report is the output of root command.
type report struct {
	Stats    service.Stats                     `json:"stats" yaml:"stats"`
	Snapshot *bucketlists.Snapshot[stock.Code] `json:"snapshot" yaml:"snapshot"`
}

var opts = &options{}

// codebucketDescription is used to describe codebucket command in details.
var codebucketDescription = `codebucket groups stock codes into capped buckets by the ordered
providers which serve them. Codes sharing the same providers share a bucket, and
every bucket keeps at most max bucket size codes. The flattened view lists the
group key of every code, with the codes of a group contiguous and groups in the
order they were created.`

// codebucketExample shows examples in codebucket command, and is used in auto-generated cli docs.
var codebucketExample = `
$ printf '0005.KL\nAAPL\nINFY.NS\n' | codebucket --input - --output json
$ codebucket --config /etc/codebucket/codebucket.yaml --input codes.txt --verify
`

var rootCmd = &cobra.Command{
	Use:               "codebucket",
	Short:             "group stock codes into capped buckets by their providers",
	Long:              codebucketDescription,
	Example:           codebucketExample,
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true, // disable displaying auto generation tag in cli docs
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags(), opts)
		if err != nil {
			return err
		}

		// Init logger
		if err := logger.InitCodebucket(cfg.Verbose, cfg.Console, cfg.LogDir); err != nil {
			return pkgerrors.Wrap(err, "init codebucket logger")
		}

		// Initialize verbose mode
		dependency.InitVerboseMode(cfg.Verbose, cfg.PProfPort)

		return runCodebucket(cmd.Context(), cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// Execute will process codebucket.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("execute error: %s", err)
		os.Exit(1)
	}
}

func init() {
	addFlags(rootCmd.Flags(), opts)
	dependency.AddCommonSubCmds(rootCmd)
}

func addFlags(flagSet *pflag.FlagSet, opts *options) {
	flagSet.StringVar(&opts.config, "config", "", "the path of codebucket's configuration file")
	flagSet.StringVarP(&opts.input, "input", "i", stdinInput, "the file of codes, one code per line, - for standard input")
	flagSet.StringVarP(&opts.output, "output", "o", outputYAML, "the format of report, yaml or json")
	flagSet.BoolVar(&opts.verify, "verify", false, "verify the bookkeeping of buckets before writing report")
	flagSet.IntVar(&opts.maxBucketSize, "max-bucket-size", config.DefaultMaxBucketSize, "the max count of codes in one bucket")
	flagSet.StringVar(&opts.keyScheme, "key-scheme", "name", "the way group keys are built, name or id")
	flagSet.IntVar(&opts.workers, "workers", config.DefaultWorkers, "the count of goroutines adding codes")
	flagSet.StringVar(&opts.metricsAddr, "metrics-addr", "", "the listen address of metrics server, disabled if empty")
	flagSet.BoolVar(&opts.console, "console", false, "print logs to console")
	flagSet.BoolVar(&opts.verbose, "verbose", false, "print verbose log and enable golang debug info")
	flagSet.StringVar(&opts.logDir, "log-dir", config.DefaultLogDir, "the directory of log files")
}

// loadConfig reads the config file if given, then applies the flags set on command line.
func loadConfig(flagSet *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg := config.New()
	if opts.config != "" {
		var err error
		if cfg, err = config.Load(opts.config); err != nil {
			return nil, err
		}
	}

	if flagSet.Changed("max-bucket-size") {
		cfg.Bucket.MaxBucketSize = opts.maxBucketSize
	}

	if flagSet.Changed("key-scheme") {
		cfg.Bucket.KeyScheme = strings.ToLower(opts.keyScheme)
	}

	if flagSet.Changed("workers") {
		cfg.Ingest.Workers = opts.workers
	}

	if flagSet.Changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}

	if flagSet.Changed("console") {
		cfg.Console = opts.console
	}

	if flagSet.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}

	if flagSet.Changed("log-dir") {
		cfg.LogDir = opts.logDir
	}

	if opts.output != outputYAML && opts.output != outputJSON {
		return nil, fmt.Errorf("unknown output format %q", opts.output)
	}

	if err := cfg.Validate(); err != nil {
		return nil, pkgerrors.Wrap(err, "validate config")
	}

	return cfg, nil
}

func runCodebucket(ctx context.Context, cfg *config.Config, opts *options, stdin io.Reader, stdout io.Writer) error {
	logger.Infof("codebucket version: %s", version.Info())

	s, _ := json.MarshalIndent(cfg, "", "  ")
	logger.Debugf("codebucket config:\n%s", string(s))

	registry, err := stock.NewRegistry(cfg.Markets, cfg.DefaultProviders)
	if err != nil {
		return pkgerrors.Wrap(err, "new registry")
	}

	svc, err := service.New(cfg, registry)
	if err != nil {
		return pkgerrors.Wrap(err, "new service")
	}

	if cfg.Metrics.Addr != "" {
		srv := metrics.New(cfg.Metrics.Addr)
		go func() {
			logger.Infof("started metrics server at %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("metrics server closed unexpect: %v", err)
			}
		}()

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Errorf("metrics server failed to stop: %v", err)
			}
		}()
	}

	r := stdin
	if opts.input != stdinInput {
		f, err := os.Open(opts.input)
		if err != nil {
			return pkgerrors.Wrapf(err, "open input %s", opts.input)
		}
		defer f.Close()

		r = f
	}

	return run(ctx, svc, r, stdout, opts.output, opts.verify)
}

// run adds the codes of r to svc and writes the report to w.
func run(ctx context.Context, svc service.Service, r io.Reader, w io.Writer, output string, verify bool) error {
	codes, err := readCodes(r)
	if err != nil {
		return err
	}

	result, err := svc.AddAll(ctx, codes)
	if err != nil {
		return pkgerrors.Wrap(err, "add codes")
	}

	var merr *multierror.Error
	if errors.As(result.Invalid, &merr) {
		for _, err := range merr.Errors {
			logger.Warnf("skip invalid code: %v", err)
		}
	}

	snapshot := svc.Snapshot()
	if verify {
		if err := snapshot.Validate(); err != nil {
			return pkgerrors.Wrap(err, "verify buckets")
		}
	}

	return writeReport(w, output, &report{
		Stats:    svc.Stats(),
		Snapshot: snapshot,
	})
}

// readCodes reads one code per line, blank lines and comment lines are skipped.
func readCodes(r io.Reader) ([]stock.Code, error) {
	var codes []stock.Code
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		codes = append(codes, stock.Code(line))
	}

	if err := scanner.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "read codes")
	}

	return codes, nil
}

func writeReport(w io.Writer, output string, rp *report) error {
	switch output {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rp)
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(rp); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}
