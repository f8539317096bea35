package main

import (
    "flag"
    "time"

    "katamesh/pkg/scripts"
)

// Options holds CLI options for a single run.
type Options struct {
    ConfigPath string
    Path       string
    Locator    string
    Args       string
    Send       string
    Workers    string
    Spawn      string
    Addr       string
    Wait       time.Duration
}

// ParseFlags parses CLI flags from args and returns Options.
func ParseFlags(args []string) Options {
    fs := flag.NewFlagSet("katamesh-run", flag.ExitOnError)
    var opts Options
    fs.StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
    fs.StringVar(&opts.Path, "path", "Sirikata.CameraScript", "capability path of the script")
    fs.StringVar(&opts.Locator, "locator", scripts.CameraLocator, "code locator to load")
    fs.StringVar(&opts.Args, "args", "{spaceid: 42}", "script arguments as YAML")
    fs.StringVar(&opts.Send, "send", "", "optional message (YAML) to send after go")
    fs.StringVar(&opts.Workers, "workers", "", "override workers.enabled: on|off")
    fs.StringVar(&opts.Spawn, "spawn", "", "override workers.spawn: local|tcp|quic")
    fs.StringVar(&opts.Addr, "addr", "", "override workers.address")
    fs.DurationVar(&opts.Wait, "wait", time.Second, "how long to print messages after go")
    _ = fs.Parse(args)
    return opts
}
