// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ethersphere/lobby"
	"github.com/ethersphere/lobby/pkg/logging"
	"github.com/ethersphere/lobby/pkg/node"
	"github.com/ethersphere/lobby/pkg/scheduler"
)

const (
	optionNameDataDir              = "data-dir"
	optionNameVerbosity            = "verbosity"
	optionNameLocalPeer            = "local-peer"
	optionNameDebugAPIEnable       = "debug-api-enable"
	optionNameDebugAPIAddr         = "debug-api-addr"
	optionNameDebugAPIMaxConns     = "debug-api-max-conns"
	optionNameContentEndpoint      = "content-endpoint"
	optionNameFrameInterval        = "frame-interval"
	optionNameFetchConcurrency     = "fetch-concurrency"
	optionNameEntitlementCacheSize = "entitlement-cache-size"
	optionNameEntitlementRate      = "entitlement-rate"
	optionNameEntitlementBurst     = "entitlement-burst"
	optionNameAwaitFetch           = "await-fetch"
	optionNameVerifyContent        = "verify-content"
	optionNamePolicy               = "policy"
	optionNameTracingEnabled       = "tracing-enable"
	optionNameTracingEndpoint      = "tracing-endpoint"
	optionNameTracingServiceName   = "tracing-service-name"
)

func init() {
	cobra.EnableCommandSorting = false
}

type command struct {
	root    *cobra.Command
	config  *viper.Viper
	cfgFile string
	homeDir string
}

type option func(*command)

func newCommand(opts ...option) (c *command, err error) {
	c = &command{
		root: &cobra.Command{
			Use:           "lobby",
			Short:         "Multiplayer content loader",
			SilenceErrors: true,
			SilenceUsage:  true,
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				return c.initConfig()
			},
		},
	}

	for _, o := range opts {
		o(c)
	}

	// Find home directory.
	if err := c.setHomeDir(); err != nil {
		return nil, err
	}

	c.initGlobalFlags()

	if err := c.initStartCmd(); err != nil {
		return nil, err
	}

	if err := c.initLoadCmd(); err != nil {
		return nil, err
	}

	c.initVersionCmd()

	return c, nil
}

func (c *command) Execute() (err error) {
	return c.root.Execute()
}

// Execute parses command line arguments and runs appropriate functions.
func Execute() (err error) {
	c, err := newCommand()
	if err != nil {
		return err
	}
	return c.Execute()
}

func (c *command) initGlobalFlags() {
	globalFlags := c.root.PersistentFlags()
	globalFlags.StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.lobby.yaml)")
}

func (c *command) initConfig() (err error) {
	config := viper.New()
	configName := ".lobby"
	if c.cfgFile != "" {
		// Use config file from the flag.
		config.SetConfigFile(c.cfgFile)
	} else {
		// Search config in home directory with name ".lobby" (without extension).
		config.AddConfigPath(c.homeDir)
		config.SetConfigName(configName)
	}

	// Environment
	config.SetEnvPrefix("lobby")
	config.AutomaticEnv() // read in environment variables that match
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if c.homeDir != "" && c.cfgFile == "" {
		c.cfgFile = filepath.Join(c.homeDir, configName+".yaml")
	}

	// If a config file is found, read it in.
	if err := config.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if !errors.As(err, &e) {
			return err
		}
	}
	c.config = config
	return nil
}

func (c *command) setHomeDir() (err error) {
	if c.homeDir != "" {
		return
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	c.homeDir = dir
	return nil
}

func (c *command) setAllFlags(cmd *cobra.Command) {
	cmd.Flags().String(optionNameDataDir, filepath.Join(c.homeDir, ".lobby"), "data directory, empty keeps everything in memory")
	cmd.Flags().String(optionNameVerbosity, "info", "log verbosity level 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace")
	cmd.Flags().String(optionNameLocalPeer, "", "local peer id, included in the roster when set")
	cmd.Flags().Bool(optionNameDebugAPIEnable, false, "enable debug HTTP API")
	cmd.Flags().String(optionNameDebugAPIAddr, ":1735", "debug HTTP API listen address")
	cmd.Flags().Int(optionNameDebugAPIMaxConns, 64, "maximal number of simultaneous debug HTTP API connections, 0 is unlimited")
	cmd.Flags().String(optionNameContentEndpoint, "http://localhost:1736", "base URL of the content server")
	cmd.Flags().Duration(optionNameFrameInterval, scheduler.DefaultFrameInterval, "interval between two frames")
	cmd.Flags().Int64(optionNameFetchConcurrency, 2, "maximal number of simultaneous content downloads")
	cmd.Flags().Int(optionNameEntitlementCacheSize, 1024, "number of entitlements kept in memory")
	cmd.Flags().Float64(optionNameEntitlementRate, 0, "maximal entitlement requests per second, 0 is unlimited")
	cmd.Flags().Int(optionNameEntitlementBurst, 1, "entitlement requests allowed at once")
	cmd.Flags().Bool(optionNameAwaitFetch, true, "keep a round from becoming ready until its content is fetched")
	cmd.Flags().Bool(optionNameVerifyContent, false, "reject fetched content that does not hash (keccak256) to its content hash")
	cmd.Flags().StringSlice(optionNamePolicy, []string{"*=*"}, "entitlement rules in peer=content-pattern form, can be repeated")
	cmd.Flags().Bool(optionNameTracingEnabled, false, "enable tracing")
	cmd.Flags().String(optionNameTracingEndpoint, "127.0.0.1:6831", "endpoint to send tracing data")
	cmd.Flags().String(optionNameTracingServiceName, "lobby", "service name identifier for tracing")
}

func (c *command) nodeOptions(logger logging.Logger) *node.Options {
	return &node.Options{
		DataDir:              c.config.GetString(optionNameDataDir),
		LocalPeer:            c.config.GetString(optionNameLocalPeer),
		DebugAPIEnable:       c.config.GetBool(optionNameDebugAPIEnable),
		DebugAPIAddr:         c.config.GetString(optionNameDebugAPIAddr),
		DebugAPIMaxConns:     c.config.GetInt(optionNameDebugAPIMaxConns),
		ContentEndpoint:      c.config.GetString(optionNameContentEndpoint),
		FrameInterval:        c.config.GetDuration(optionNameFrameInterval),
		FetchConcurrency:     c.config.GetInt64(optionNameFetchConcurrency),
		EntitlementCacheSize: c.config.GetInt(optionNameEntitlementCacheSize),
		EntitlementRate:      c.config.GetFloat64(optionNameEntitlementRate),
		EntitlementBurst:     c.config.GetInt(optionNameEntitlementBurst),
		AwaitFetch:           c.config.GetBool(optionNameAwaitFetch),
		VerifyContent:        c.config.GetBool(optionNameVerifyContent),
		Policy:               c.config.GetStringSlice(optionNamePolicy),
		Logger:               logger,
		TracingEnabled:       c.config.GetBool(optionNameTracingEnabled),
		TracingEndpoint:      c.config.GetString(optionNameTracingEndpoint),
		TracingServiceName:   c.config.GetString(optionNameTracingServiceName),
		Version:              lobby.Version,
	}
}

func newLogger(cmd *cobra.Command, verbosity string) (logging.Logger, error) {
	level, enabled, err := logging.ParseVerbosity(verbosity)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return logging.New(io.Discard, 0), nil
	}
	return logging.New(cmd.OutOrStdout(), level), nil
}
