package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

var (
	ErrConfigNotFound = errors.New("config not found")
	ErrConfigInvalid  = errors.New("invalid config")
)

// Config holds the Jira connection settings read from config.json
type Config struct {
	//URL to Jira server
	URL string `json:"url" yaml:"url"`
	//Account e-mail, used as basic auth username
	Email string `json:"email" yaml:"email"`
	//API token, used as basic auth password
	Token string `json:"token" yaml:"token"`
}

//Exact key set a config file must have
var configKeys = []string{"email", "token", "url"}

// NewConfig reads the config file at configPath. JSON is expected unless the
// file has a .yaml or .yml extension.
//
// A missing file is reported as ErrConfigNotFound. Malformed content, a key set
// other than {url, email, token} or a non-string value are all ErrConfigInvalid.
func NewConfig(configPath ConfigPath) (*Config, error) {
	path := string(configPath)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrConfigNotFound)
		}
		return nil, err
	}

	raw := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrConfigInvalid, err)
	}

	config, err := configFromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func configFromMap(raw map[string]interface{}) (*Config, error) {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if strings.Join(keys, ",") != strings.Join(configKeys, ",") {
		return nil, fmt.Errorf("%w: expected keys %q, got %q", ErrConfigInvalid, configKeys, keys)
	}

	values := make(map[string]string, len(raw))
	for _, key := range configKeys {
		value, ok := raw[key].(string)
		if !ok {
			return nil, fmt.Errorf("%w: %q must be a string", ErrConfigInvalid, key)
		}
		values[key] = value
	}

	return &Config{
		URL:   values["url"],
		Email: values["email"],
		Token: values["token"],
	}, nil
}

//CheckMandatoryConfiguration reports every empty field of the config
func CheckMandatoryConfiguration(cfg *Config) error {
	var missing []string

	if cfg.URL == "" {
		missing = append(missing, "url")
	}
	if cfg.Email == "" {
		missing = append(missing, "email")
	}
	if cfg.Token == "" {
		missing = append(missing, "token")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: empty %s", ErrConfigInvalid, strings.Join(missing, ", "))
	}
	return nil
}
