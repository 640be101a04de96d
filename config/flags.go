package config

import (
	"github.com/jessevdk/go-flags"
)

// Options are the command line overrides accepted by the server
type Options struct {
	ConfigFile string `short:"c" long:"config" description:"YAML configuration file overlaid on the environment"`
	Port       string `short:"p" long:"port" description:"Port for the server to listen on"`
	Driver     string `short:"d" long:"driver" description:"Object storage driver" choice:"minio" choice:"s3" choice:"memory"`
	Bucket     string `short:"b" long:"bucket" description:"Bucket holding the drive contents"`
	StaticDir  string `long:"static-dir" description:"Directory with UI assets served before the embedded ones"`
	LogLevel   string `long:"log-level" description:"Log level (debug, info, warn, error)"`
}

// FromArgs builds the configuration from the environment, the optional config
// file and the command line, in increasing order of precedence.
func FromArgs(args []string) (*Config, error) {
	var opts Options
	if _, err := flags.ParseArgs(&opts, args); err != nil {
		return nil, err
	}

	var (
		cfg *Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = LoadFile(opts.ConfigFile)
	} else {
		cfg, err = Load()
	}
	if err != nil {
		return nil, err
	}

	opts.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o Options) apply(cfg *Config) {
	if o.Port != "" {
		cfg.Port = o.Port
	}
	if o.Driver != "" {
		cfg.Storage.Driver = o.Driver
	}
	if o.Bucket != "" {
		cfg.Storage.BucketName = o.Bucket
	}
	if o.StaticDir != "" {
		cfg.StaticDir = o.StaticDir
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
}

// IsHelp reports whether err is the go-flags help request
func IsHelp(err error) bool {
	flagsErr, ok := err.(*flags.Error)
	return ok && flagsErr.Type == flags.ErrHelp
}
