package main

import "flag"

// Options holds CLI options for the host.
type Options struct {
    ConfigPath string
    Listen     string
}

// ParseFlags parses CLI flags from args and returns Options.
func ParseFlags(args []string) Options {
    fs := flag.NewFlagSet("katamesh-host", flag.ExitOnError)
    var opts Options
    fs.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
    fs.StringVar(&opts.Listen, "listen", "", "Override host.listen with one kind://address endpoint, e.g. tcp://:7710")
    _ = fs.Parse(args)
    return opts
}
