package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/idkeeper/internal/flagx"
	"github.com/dmitrijs2005/idkeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "90m" as well
// as integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC *string        `json:"endpoint_addr_grpc"`
	StorageDriver    string         `json:"storage_driver"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	TokenTTL         timex.Duration `json:"token_ttl"`
	HashCost         int            `json:"hash_cost"`
	HashWorkers      int            `json:"hash_workers"`
	LogLevel         string         `json:"log_level"`
}

// parseJson overlays values from the file named by -c/-config. Keys that
// are absent keep their current value; endpoint_addr_grpc may be set to ""
// explicitly to disable gRPC. An unreadable or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	if c.EndpointAddrGRPC != nil {
		config.EndpointAddrGRPC = *c.EndpointAddrGRPC
	}
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	if c.TokenTTL.Duration != 0 {
		config.TokenTTL = c.TokenTTL.Duration
	}
	if c.HashCost != 0 {
		config.HashCost = c.HashCost
	}
	if c.HashWorkers != 0 {
		config.HashWorkers = c.HashWorkers
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
