package util

import (
	"gopkg.in/ini.v1"
)

// Ini reads the keys of the default section of an ini file.
func Ini(filename string) (map[string]string, error) {
	cfg, err := ini.Load(filename)
	if err != nil {
		return nil, err
	}
	return cfg.Section("").KeysHash(), nil
}
