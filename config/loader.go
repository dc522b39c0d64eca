package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/NMBawiskar/ros-data-publisher/errors"
)

// configSchema is the JSON schema every config file must satisfy
// before semantic validation runs.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "version": {"type": "string"},
    "server": {
      "type": "object",
      "properties": {
        "host": {"type": "string"},
        "port": {"type": "integer", "minimum": 1, "maximum": 65535},
        "metrics_port": {"type": "integer", "minimum": 0, "maximum": 65535},
        "cors_allow_origins": {"type": "array", "items": {"type": "string"}},
        "shutdown_timeout_ms": {"type": "integer", "minimum": 0}
      },
      "additionalProperties": false
    },
    "producer": {
      "type": "object",
      "properties": {
        "mode": {"type": "string", "enum": ["live", "synthetic"]},
        "command": {"type": "array", "items": {"type": "string"}, "minItems": 1},
        "spawn_grace_ms": {"type": "integer", "minimum": 0},
        "term_wait_ms": {"type": "integer", "minimum": 0},
        "publish_interval_ms": {"type": "integer", "minimum": 0}
      },
      "additionalProperties": false
    },
    "stream": {
      "type": "object",
      "properties": {
        "read_timeout_ms": {"type": "integer", "minimum": 0},
        "cycle_interval_ms": {"type": "integer", "minimum": 0}
      },
      "additionalProperties": false
    },
    "topics": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "type": {"type": "string"}
        },
        "required": ["name", "type"],
        "additionalProperties": false
      }
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
        "format": {"type": "string", "enum": ["json", "text"]}
      },
      "additionalProperties": false
    }
  },
  "additionalProperties": false
}`

// Load reads and validates a configuration file. Settings absent from
// the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapInvalid(err, "config", "Load",
				fmt.Sprintf("config file %s not found", path))
		}
		return nil, errors.WrapFatal(err, "config", "Load", "read config file")
	}
	return Parse(data)
}

// Parse validates raw JSON against the schema and decodes it over the
// default configuration.
func Parse(data []byte) (*Config, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, errors.WrapInvalid(err, "config", "Parse", "config is not valid JSON")
	}
	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}
		return nil, errors.WrapInvalid(
			fmt.Errorf("schema violations: %s", strings.Join(descriptions, "; ")),
			"config", "Parse", "config schema validation failed")
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapInvalid(err, "config", "Parse", "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
