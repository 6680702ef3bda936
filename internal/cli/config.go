package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the optional .roomtalk project file.
type Config struct {
	Addr string `json:"addr"`
	API  string `json:"api"`
	Nick string `json:"nick"`
}

const configFileName = ".roomtalk"

// loadConfig reads a .roomtalk config from the current directory
// or any parent directory.
func loadConfig() *Config {
	dir, err := os.Getwd()
	if err != nil {
		return nil
	}
	return findConfig(dir)
}

func findConfig(dir string) *Config {
	for {
		path := filepath.Join(dir, configFileName)
		data, err := os.ReadFile(path)
		if err == nil {
			var cfg Config
			if json.Unmarshal(data, &cfg) == nil {
				return &cfg
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil
}
