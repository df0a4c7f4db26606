package main

import (
	"flag"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// rtlaok.toml key mapping to run settings. Keys mirror the flag surface.
type fileConfig struct {
	MsgType      string `toml:"msgtype"`
	MinRepeats   int    `toml:"minrepeats"`
	PreambleBits int    `toml:"preamblebits"`
	Format       string `toml:"format"`
	Unique       bool   `toml:"unique"`
	FilterID     string `toml:"filterid"`
}

// loadConfig overlays config file values onto flags the user did not set
// explicitly: flags win over file values, file values win over defaults.
func loadConfig(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	apply := func(name, value string) error {
		if set[name] {
			return nil
		}
		return errors.Wrapf(flag.Set(name, value), "config key %q", name)
	}

	for _, kv := range []struct {
		key, value string
	}{
		{"msgtype", strings.TrimSpace(raw.MsgType)},
		{"minrepeats", strconv.Itoa(raw.MinRepeats)},
		{"preamblebits", strconv.Itoa(raw.PreambleBits)},
		{"format", strings.TrimSpace(raw.Format)},
		{"unique", strconv.FormatBool(raw.Unique)},
		{"filterid", strings.TrimSpace(raw.FilterID)},
	} {
		if !meta.IsDefined(kv.key) {
			continue
		}
		if err := apply(kv.key, kv.value); err != nil {
			return err
		}
	}

	return nil
}
