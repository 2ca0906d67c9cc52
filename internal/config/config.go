// Package config merges the optional YAML settings file and the
// environment over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"zendaya/internal/system"
)

type Keys struct {
	Gemini     string
	OpenAI     string
	Tavily     string
	ElevenLabs string
}

type Google struct {
	Credentials string `yaml:"credentials"`
	Token       string `yaml:"token"`
}

// Config is everything the binaries need to wire the assistant.
type Config struct {
	Name  string `yaml:"name"`
	User  string `yaml:"user"`
	Voice string `yaml:"voice"`

	// Provider picks the generative backend: gemini or openai.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	DataDir   string `yaml:"data_dir"`
	FilesRoot string `yaml:"files_root"`
	Whisper   string `yaml:"whisper_model"`
	Beep      string `yaml:"beep"`
	Proxy     string `yaml:"proxy"`
	Socket    string `yaml:"socket"`

	Bus       string `yaml:"bus"`
	DeviceBus string `yaml:"device_bus"`
	Shard     string `yaml:"shard"`

	Google Google `yaml:"google"`

	Apps      map[string]string   `yaml:"apps"`
	Shortcuts map[string]string   `yaml:"shortcuts"`
	Routines  map[string][]string `yaml:"routines"`
	Voices    map[string]string   `yaml:"voices"`
	// Devices maps spoken names to "SHARD/NOUN" ids on the device bus.
	Devices map[string]string `yaml:"devices"`

	Keys Keys `yaml:"-"`
}

var DefaultVoices = map[string]string{
	"zendaya":  "mxTlDrtKZzOqgjtBw4hM",
	"rachel":   "21m00Tcm4TlvDq8ikWAM",
	"bella":    "EXAVITQu4vr4xnSDxMaL",
	"antoni":   "ErXwobaYiN019PkySvjV",
	"narrator": "pNInz6obpgDQGcFmaJgB",
}

var DefaultRoutines = map[string][]string{
	"morning": {"open gmail", "open youtube"},
	"focus":   {"close spotify", "close discord"},
}

func Default() Config {
	home, _ := os.UserHomeDir()
	data := filepath.Join(home, ".zendaya")

	return Config{
		Name:      "Zendaya",
		Provider:  "gemini",
		DataDir:   data,
		FilesRoot: home,
		Whisper:   "third_party/whisper.cpp/models/ggml-base.en.bin",
		Beep:      "beep.mp3",
		Socket:    "/tmp/zendaya.sock",
		Bus:       "ws://localhost:8092/ws",
		Shard:     "ZENDAYA",
		Google: Google{
			Credentials: filepath.Join(data, "credentials.json"),
			Token:       filepath.Join(data, "token.json"),
		},
		Apps:      maps.Clone(system.DefaultApps),
		Shortcuts: maps.Clone(system.DefaultShortcuts),
		Routines:  cloneRoutines(DefaultRoutines),
		Voices:    maps.Clone(DefaultVoices),
		Devices:   map[string]string{},
	}
}

// Load reads path over the defaults. A missing file is not an error.
// Maps from the file are merged key by key.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			var file Config
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
			cfg.merge(file)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) merge(f Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Name, f.Name)
	set(&c.User, f.User)
	set(&c.Voice, f.Voice)
	set(&c.Provider, f.Provider)
	set(&c.Model, f.Model)
	set(&c.DataDir, f.DataDir)
	set(&c.FilesRoot, f.FilesRoot)
	set(&c.Whisper, f.Whisper)
	set(&c.Beep, f.Beep)
	set(&c.Proxy, f.Proxy)
	set(&c.Socket, f.Socket)
	set(&c.Bus, f.Bus)
	set(&c.DeviceBus, f.DeviceBus)
	set(&c.Shard, f.Shard)
	set(&c.Google.Credentials, f.Google.Credentials)
	set(&c.Google.Token, f.Google.Token)

	for k, v := range f.Apps {
		c.Apps[strings.ToLower(k)] = v
	}
	for k, v := range f.Shortcuts {
		c.Shortcuts[strings.ToLower(k)] = v
	}
	for k, v := range f.Routines {
		c.Routines[strings.ToLower(k)] = v
	}
	for k, v := range f.Voices {
		c.Voices[strings.ToLower(k)] = v
	}
	for k, v := range f.Devices {
		c.Devices[strings.ToLower(k)] = v
	}
}

// applyEnv reads API keys and ZENDAYA_* overrides. Call after godotenv.Load.
func (c *Config) applyEnv() {
	c.Keys = Keys{
		Gemini:     os.Getenv("GEMINI_API_KEY"),
		OpenAI:     os.Getenv("OPENAI_API_KEY"),
		Tavily:     os.Getenv("TAVILY_API_KEY"),
		ElevenLabs: os.Getenv("ELEVENLABS_API_KEY"),
	}

	env := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	env(&c.Google.Credentials, "GOOGLE_CREDENTIALS")
	env(&c.User, "ZENDAYA_USER")
	env(&c.Voice, "ZENDAYA_VOICE")
	env(&c.Provider, "ZENDAYA_PROVIDER")
	env(&c.Model, "ZENDAYA_MODEL")
	env(&c.DataDir, "ZENDAYA_DATA")
	env(&c.Whisper, "ZENDAYA_WHISPER")
	env(&c.DeviceBus, "ZENDAYA_DEVICE_BUS")
	env(&c.Bus, "BUS_URL")
}

func (c Config) SessionPath() string   { return filepath.Join(c.DataDir, "memory.json") }
func (c Config) KnowledgePath() string { return filepath.Join(c.DataDir, "knowledge.db") }
func (c Config) AudioDir() string      { return filepath.Join(c.DataDir, "audio") }

func cloneRoutines(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}
