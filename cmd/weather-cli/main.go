// Command weather-cli looks up the weather for cities typed on stdin, one per
// line, against a server exposing GET /weather/{city}.
package main

import (
	"bufio"
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"regexp"

	"github.com/fakhrymubarak/weather-lookup/internal/config"
	"github.com/fakhrymubarak/weather-lookup/internal/telemetry"
	"github.com/fakhrymubarak/weather-lookup/internal/widget"
	"github.com/spf13/pflag"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// plainText drops markup from a rendered fragment for terminal display.
func plainText(fragment string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(fragment, ""))
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("weather-cli", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	baseURL := flags.String("base-url", config.GetClientBaseURL(), "origin serving /weather/{city}")
	guard := flags.Bool("sequence-guard", config.GetClientSequenceGuard(), "show only the newest lookup when replies arrive out of order")
	raw := flags.Bool("html", false, "print the rendered HTML fragment instead of plain text")
	once := flags.String("once", "", "look up a single city and exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	logger := config.GetLogger()
	shutdown, err := telemetry.SetupFromConfig()
	if err != nil {
		logger.Errorw("Failed to set up tracing", "error", err)
		return 1
	}
	defer func() { _ = shutdown(context.Background()) }()

	field := &widget.Field{}
	region := &widget.Region{OnChange: func(fragment string) {
		if !*raw {
			fragment = plainText(fragment)
		}
		fmt.Fprintln(stdout, fragment)
	}}
	notifier := widget.NotifierFunc(func(message string) {
		fmt.Fprintln(stderr, "alert:", message)
	})
	h := widget.NewFromConfig(field, region, notifier,
		widget.WithBaseURL(*baseURL),
		widget.WithSequenceGuard(*guard),
	)

	if flags.Changed("once") {
		field.Set(*once)
		inv := h.Handle()
		inv.Wait()
		if inv.State() == widget.Rejected || inv.Err() != nil {
			return 1
		}
		return 0
	}

	button := &widget.Button{}
	h.Bind(button)
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		field.Set(scanner.Text())
		button.Click()
	}
	h.Wait()
	if err := scanner.Err(); err != nil {
		logger.Errorw("Failed reading input", "error", err)
		return 1
	}
	return 0
}
