package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/idkeeper/internal/flagx"
)

// parseFlags populates Config from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC bind address, "" disables gRPC
//	-d string   database DSN
//	-driver     storage driver: postgres | sqlite
//	-s string   token signing secret (at least 32 bytes)
//	-t int      token validity, minutes
//	-k int      bcrypt cost
//	-w int      concurrent hash workers
//	-l string   log level
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-driver", "-s", "-t", "-k", "-w", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageDriver, "driver", config.StorageDriver, "storage driver (postgres|sqlite)")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.IntVar(&config.HashCost, "k", config.HashCost, "bcrypt cost")
	fs.IntVar(&config.HashWorkers, "w", config.HashWorkers, "concurrent hash workers")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	tokenTTL := fs.Int("t", int(config.TokenTTL.Minutes()), "token validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only an explicit -t replaces a sub-minute TTL from an earlier layer
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenTTL = time.Duration(*tokenTTL) * time.Minute
		}
	})
}
