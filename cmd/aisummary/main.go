package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

// CLI represents the main CLI structure
type CLI struct {
	ConfigFile string `name:"config" short:"c" type:"path" help:"Configuration file (defaults to aisummary.yaml in the site directory)"`
	SiteDir    string `short:"C" type:"path" default:"." help:"Hexo site directory"`
	APIKey     string `env:"AISUMMARY_API_KEY" help:"API key for the generation service"`
	Endpoint   string `help:"Chat completions endpoint URL"`
	Model      string `help:"Model name"`
	LogLevel   string `help:"Log level (debug, info, warn, error), overrides logging.level"`
	Color      string `enum:"auto,always,never" default:"auto" help:"Colorize output (auto, always, never)"`

	Run       RunCmd       `cmd:"" help:"Generate summaries for the site's posts"`
	Summarize SummarizeCmd `cmd:"" help:"Summarize a single text from a file or stdin"`
	Config    ConfigCmd    `cmd:"" help:"Inspect and validate configuration"`
	History   HistoryCmd   `cmd:"" help:"Show recorded runs"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("aisummary"),
		kong.Description("Generate AI summaries for Hexo blog posts"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	err := kctx.Run(&cli)
	if err != nil {
		stop()
		FatalError(createCLILogger(cli.LogLevel, "text"), err)
	}
}
