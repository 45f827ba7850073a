package env

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv parses .env files and returns their key-value pairs. Later files
// override earlier ones. Nothing is exported to the process environment.
func LoadDotEnv(paths ...string) (map[string]string, error) {
	result := make(map[string]string)
	for _, path := range paths {
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read env file %s: %w", path, err)
		}
		for k, v := range vars {
			result[k] = v
		}
	}
	return result, nil
}

// Lookup returns an environment accessor that prefers the process
// environment and falls back to vars.
func Lookup(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := vars[name]
		return v, ok
	}
}
