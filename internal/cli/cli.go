package cli

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/pborman/getopt"
	"github.com/pkg/errors"
	"github.com/samvad-hq/samvad-request/internal/output"
	"github.com/samvad-hq/samvad-request/pkg/httpclient"
	"github.com/samvad-hq/samvad-request/pkg/request"
)

const userAgent = "fetch/1.0"

var reNumber = regexp.MustCompile(`^[0-9.]+$`)

// Env carries the process surroundings so Run can be exercised in tests.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	// StdoutTTY enables colors and headers by default.
	StdoutTTY bool
	// Transport overrides the default resty transport.
	Transport httpclient.Transport
}

// Run parses args (args[0] is the program name), sends the request and
// prints the response.
func Run(ctx context.Context, args []string, env Env) error {
	opts := Options{Timeout: "30s"}
	var help bool

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.BoolVarLong(&opts.JSON, "json", 'j', "serialize data fields as a JSON object")
	flagSet.BoolVarLong(&opts.Multipart, "multipart", 'f', "serialize data fields and files as multipart/form-data")
	flagSet.StringVarLong(&opts.Data, "data", 'd', "raw request body; @path reads it from a file", "TEXT")
	flagSet.StringVarLong(&opts.Binary, "binary", 'b', "send the file as an application/octet-stream body", "PATH")
	flagSet.StringVarLong(&opts.Output, "output", 'o', "save the response body to a file", "PATH")
	flagSet.StringVarLong(&opts.Charset, "charset", 0, "charset for text fields and response decoding", "NAME")
	flagSet.StringVarLong(&opts.Timeout, "timeout", 0, "seconds or duration allowed for the whole exchange", "DURATION")
	flagSet.BoolVarLong(&opts.Verbose, "verbose", 'v', "print the status line and headers")
	flagSet.BoolVarLong(&help, "help", 'h', "show this help")
	if err := flagSet.Getopt(args, nil); err != nil {
		flagSet.PrintUsage(env.Stderr)
		return err
	}
	if help {
		flagSet.PrintUsage(env.Stdout)
		return nil
	}

	inv, err := ParseArgs(flagSet.Args(), opts)
	if _, ok := errors.Cause(err).(*UsageError); ok {
		flagSet.PrintUsage(env.Stderr)
		return err
	}
	if err != nil {
		return err
	}

	timeout, err := parseDurationOrSeconds(opts.Timeout)
	if err != nil {
		return err
	}
	req, err := inv.Build(request.Options{
		Transport: env.Transport,
		Timeout:   timeout,
		UserAgent: userAgent,
	})
	if err != nil {
		return errors.Wrap(err, "building request")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := req.Send(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if opts.Output != "" {
		if err := resp.SaveBody(opts.Output); err != nil {
			return err
		}
		fmt.Fprintf(env.Stderr, "%s saved to %s\n", output.Summary(resp, elapsed), opts.Output)
		return nil
	}

	printer := output.NewPrinter(env.Stdout, output.Options{
		EnableColor:  env.StdoutTTY,
		PrintHeaders: env.StdoutTTY || opts.Verbose,
	})
	if err := printer.PrintResponse(resp); err != nil {
		return err
	}
	if env.StdoutTTY || opts.Verbose {
		fmt.Fprintln(env.Stderr, output.Summary(resp, elapsed))
	}
	return nil
}

func parseDurationOrSeconds(timeout string) (time.Duration, error) {
	if reNumber.MatchString(timeout) {
		timeout += "s"
	}
	d, err := time.ParseDuration(timeout)
	if err != nil || d <= 0 {
		return 0, errors.Errorf("value of --timeout must be a positive number or duration string: %v", timeout)
	}
	return d, nil
}
