package config

import (
	"flag"
)

const (
	defaultDBDNS    = ""
	defaultLogLevel = "info"
)

type Flags struct {
	address string

	dbDNS    string
	logLevel string
}

func (flags *Flags) Init(name string, args []string) error {
	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)

	flagSet.StringVar(&flags.address, "a", ":8080", "Address and port to run server")

	flagSet.StringVar(&flags.dbDNS, "d", defaultDBDNS, "db dns")
	flagSet.StringVar(&flags.logLevel, "l", defaultLogLevel, "log level")

	return flagSet.Parse(args)
}
