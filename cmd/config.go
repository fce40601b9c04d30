package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func FindConfig(locations []string) (string, bool) {

	for _, val := range locations {

		stat, err := os.Stat(val)
		if err != nil {
			continue
		}

		if stat.Mode().IsRegular() {
			return val, true
		}
	}

	return "", false
}

func LoadConfigFile(path string) (*FileConfig, error) {

	file, err := os.OpenFile(path, os.O_RDONLY, os.ModePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %s", err.Error())
	}

	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get config file info: %s", err.Error())
	}

	if !info.Mode().IsRegular() {
		return nil, errors.New("failed to read config file: config file must be a regular file")
	}

	var cfg FileConfig

	if strings.HasSuffix(path, ".yml") || strings.HasSuffix(path, ".yaml") {
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %s", err.Error())
		}
	} else if strings.HasSuffix(path, ".json") {
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %s", err.Error())
		}
	} else {
		return nil, errors.New("unsupported config file format")
	}

	return &cfg, nil
}

type FileConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Location    string            `yaml:"location" json:"location"`
	Interval    Duration          `yaml:"interval" json:"interval"`
	Timeout     Duration          `yaml:"timeout" json:"timeout"`
	Autorun     bool              `yaml:"autorun" json:"autorun"`
	Probes      []string          `yaml:"probes" json:"probes"`
	Web         WebConfig         `yaml:"web" json:"web"`
	Pushgateway PushgatewayConfig `yaml:"pushgateway" json:"pushgateway"`
}

type WebConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Listen  string `yaml:"listen" json:"listen"`
}

type PushgatewayConfig struct {
	Url      string `yaml:"url" json:"url"`
	ProxyUrl string `yaml:"proxy_url" json:"proxy_url"`
}

const (
	defaultName     = "My Raspberry"
	defaultLocation = "Home"
	defaultListen   = "127.0.0.1:8100"
)

// Validate fills in defaults and applies environment overrides
func (this *FileConfig) Validate() error {

	if val := os.Getenv("PICHECKER_NAME"); val != "" {
		this.Name = val
	}

	if val := os.Getenv("PICHECKER_LOCATION"); val != "" {
		this.Location = val
	}

	if val := os.Getenv("PUSHGATEWAY_URL"); val != "" {
		this.Pushgateway.Url = val
	}

	if this.Name = strings.TrimSpace(this.Name); this.Name == "" {
		this.Name = defaultName
	}

	if this.Location = strings.TrimSpace(this.Location); this.Location == "" {
		this.Location = defaultLocation
	}

	if this.Interval < 0 {
		return errors.New("invalid interval value")
	} else if this.Interval == 0 {
		this.Interval = Duration(time.Minute)
	}

	if this.Timeout < 0 {
		return errors.New("invalid timeout value")
	}

	if this.Web.Enabled && this.Web.Listen == "" {
		this.Web.Listen = defaultListen
	}

	return nil
}

// Duration accepts either a bare number of seconds or a Go duration string
type Duration time.Duration

func (this *Duration) UnmarshalYAML(node *yaml.Node) error {

	val, err := ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %v", node.Value, err)
	}

	*this = Duration(val)
	return nil
}

func (this *Duration) UnmarshalJSON(data []byte) error {

	token := string(data)
	if unquoted, err := strconv.Unquote(token); err == nil {
		token = unquoted
	}

	val, err := ParseDuration(token)
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %v", token, err)
	}

	*this = Duration(val)
	return nil
}

func ParseDuration(val string) (time.Duration, error) {

	if val = strings.TrimSpace(val); val == "" || val == "0" {
		return 0, nil
	}

	var useStdlibParser = func(val string) (time.Duration, error) {

		duration, err := time.ParseDuration(val)
		if err != nil {
			return 0, err
		} else if duration < 0 {
			return 0, errors.New("invalid duration value")
		}

		return duration, nil
	}

	for _, next := range val {
		if next < '0' || next > '9' {
			return useStdlibParser(val)
		}
	}

	seconds, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, err
	} else if seconds > math.MaxInt64/int64(time.Second) {
		return 0, errors.New("duration value out of range")
	}

	return time.Duration(seconds) * time.Second, nil
}
