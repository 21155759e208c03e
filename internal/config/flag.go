package config

import (
	"flag"
)

const defaultDBDNS = ""

type Flags struct {
	address string

	dbDNS    string
	logLevel string
	bucket   string
}

func (flags *Flags) Init() {
	flag.StringVar(&flags.address, "a", ":8080", "Address and port to run server")

	flag.StringVar(&flags.dbDNS, "d", defaultDBDNS, "db dns")
	flag.StringVar(&flags.logLevel, "l", "info", "log level")
	flag.StringVar(&flags.bucket, "b", "documents", "object storage bucket")

	flag.Parse()
}
