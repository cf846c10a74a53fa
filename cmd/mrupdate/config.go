package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/tie/mrupdate"
	"github.com/tie/mrupdate/plan"
	"github.com/tie/mrupdate/registry"
)

const (
	defaultConfig      = "mrupdate.hcl"
	defaultConcurrency = 8
	defaultTimeout     = 30 * time.Second
)

type config struct {
	Registry     *registryConfig `hcl:"registry,block"`
	Concurrency  int             `hcl:"concurrency,optional"`
	Incompatible string          `hcl:"incompatible,optional"`
	Channel      string          `hcl:"channel,optional"`
}

type registryConfig struct {
	URL       string `hcl:"url,optional"`
	UserAgent string `hcl:"user_agent,optional"`
	Timeout   string `hcl:"timeout,optional"`
}

// settings are config values with defaults applied.
type settings struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	Concurrency  int
	Incompatible mrupdate.Action
	Channel      mrupdate.Channel
}

func defaultSettings() settings {
	return settings{
		BaseURL:      registry.DefaultBaseURL,
		UserAgent:    registry.DefaultUserAgent,
		Timeout:      defaultTimeout,
		Concurrency:  defaultConcurrency,
		Incompatible: plan.DefaultIncompatible,
		Channel:      mrupdate.ChannelAny,
	}
}

func parseConfig(parser *hclparse.Parser, src []byte, filename string) (config, hcl.Diagnostics) {
	var c config
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return c, diags
	}
	decodeDiags := gohcl.DecodeBody(file.Body, nil, &c)
	diags = append(diags, decodeDiags...)
	return c, diags
}

func (c *config) settings() (settings, error) {
	s := defaultSettings()
	if r := c.Registry; r != nil {
		if r.URL != "" {
			s.BaseURL = r.URL
		}
		if r.UserAgent != "" {
			s.UserAgent = r.UserAgent
		}
		if r.Timeout != "" {
			d, err := time.ParseDuration(r.Timeout)
			if err != nil {
				return s, fmt.Errorf("registry timeout: %w", err)
			}
			s.Timeout = d
		}
	}
	switch {
	case c.Concurrency < 0:
		return s, fmt.Errorf("negative concurrency %d", c.Concurrency)
	case c.Concurrency > 0:
		s.Concurrency = c.Concurrency
	}
	if c.Incompatible != "" {
		a, err := parseIncompatible(c.Incompatible)
		if err != nil {
			return s, fmt.Errorf("incompatible: %w", err)
		}
		s.Incompatible = a
	}
	ch, err := mrupdate.ParseChannel(c.Channel)
	if err != nil {
		return s, err
	}
	s.Channel = ch
	return s, nil
}

// loadConfig reads the config file at fpath. An empty fpath reads
// defaultConfig if it exists.
func loadConfig(fpath string) (settings, bool) {
	explicit := fpath != ""
	if !explicit {
		fpath = defaultConfig
	}
	src, err := os.ReadFile(fpath)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return defaultSettings(), true
	}
	if err != nil {
		logger.Error().Err(err).Str("file", fpath).Msg("read config")
		return settings{}, false
	}

	parser := hclparse.NewParser()
	diagWr := newDiagWr(parser)
	c, diags := parseConfig(parser, src, fpath)
	if !writeDiags(diagWr, diags) {
		return settings{}, false
	}
	s, err := c.settings()
	if err != nil {
		logger.Error().Err(err).Str("file", fpath).Msg("config")
		return settings{}, false
	}
	return s, true
}
