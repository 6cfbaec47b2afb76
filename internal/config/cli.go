// Package config declares the command-line surface of progen.
package config

import "github.com/Alia5/progen/internal/cmd"

// CLI is the root kong model. Values can come from flags, environment
// variables or a JSON/YAML/TOML config file, in that order of precedence.
type CLI struct {
	Config string `help:"Path to a config file (json, yaml or toml)" type:"path" env:"PROGEN_CONFIG"`
	Log    Log    `embed:"" prefix:"log."`

	Generate  cmd.Generate      `cmd:"" default:"withargs" help:"Generate protocol sources from a schema directory"`
	Watch     cmd.Watch         `cmd:"" help:"Regenerate whenever a schema document changes"`
	Script    cmd.Script        `cmd:"" help:"Write run and gdb startup scripts for a server binary"`
	ConfigCmd cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration file helpers"`
	Version   cmd.Version       `cmd:"" help:"Print the progen version"`
}

type Log struct {
	Level  string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"PROGEN_LOG_LEVEL"`
	File   string `help:"Also write logs to this file" env:"PROGEN_LOG_FILE"`
	Format string `help:"Console log format" enum:"auto,text,json" default:"auto" env:"PROGEN_LOG_FORMAT"`
}
