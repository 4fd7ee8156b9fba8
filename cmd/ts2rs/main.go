package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

type CLI struct {
	Verbose bool `help:"Log progress at info level." short:"v"`
	Debug   bool `help:"Log everything, including request starts."`

	Version VersionCmd `cmd:"" help:"Print version information."`
	Compile CompileCmd `cmd:"" help:"Translate a TypeScript file or project to Rust."`
	Check   CheckCmd   `cmd:"" help:"Report diagnostics without writing files."`
	Serve   ServeCmd   `cmd:"" help:"Serve the HTTP compile endpoint."`
}

// Env is bound into every command's Run method.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func (c *CLI) env() *Env {
	level := slog.LevelWarn
	switch {
	case c.Debug:
		level = slog.LevelDebug
	case c.Verbose:
		level = slog.LevelInfo
	}
	return &Env{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
}

type VersionCmd struct{}

func (c *VersionCmd) Run(env *Env) error {
	_, err := fmt.Fprintln(env.Stdout, Version())
	return err
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("ts2rs"),
		kong.Description("Translate TypeScript sources into Rust modules."),
		kong.UsageOnError(),
	)
	err := ctx.Run(cli.env())
	ctx.FatalIfErrorf(err)
}
