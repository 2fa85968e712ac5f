package config

import (
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"echodub/log"
)

type App struct {
	Proxy       string `toml:"proxy"`
	ParsedProxy *url.URL
	LogLevel    string `toml:"log_level"`
}

type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type Llm struct {
	BaseUrl string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

type Speech struct {
	BaseUrl    string `toml:"base_url"`
	ApiKey     string `toml:"api_key"`
	SampleRate int    `toml:"sample_rate"`
}

type SourceVideo struct {
	BaseUrl string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
}

type Dub struct {
	MaxRetries   int    `toml:"max_retries"`
	DefaultVoice string `toml:"default_voice"`
}

type Queue struct {
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Concurrency   int    `toml:"concurrency"`
}

type Config struct {
	App         App         `toml:"app"`
	Server      Server      `toml:"server"`
	Llm         Llm         `toml:"llm"`
	Speech      Speech      `toml:"speech"`
	SourceVideo SourceVideo `toml:"source_video"`
	Dub         Dub         `toml:"dub"`
	Queue       Queue       `toml:"queue"`
}

var Conf Config

func defaultConfig() Config {
	return Config{
		App: App{
			LogLevel: "info",
		},
		Server: Server{
			Host: "127.0.0.1",
			Port: 8888,
		},
		Llm: Llm{
			BaseUrl: "https://api.openai.com/v1",
		},
		Speech: Speech{
			SampleRate: 24000,
		},
		Dub: Dub{
			MaxRetries:   2,
			DefaultVoice: "en-neural-1",
		},
		Queue: Queue{
			Concurrency: 2,
		},
	}
}

// LoadOrCreateConfig loads the config file, writing a default one first when
// it does not exist yet. Returns whether a new file was created.
func LoadOrCreateConfig() (bool, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		Conf = defaultConfig()
		if err := SaveConfig(); err != nil {
			return false, err
		}
		log.GetLogger().Info("created default config", zap.String("path", path))
		finalizeConfig()
		return true, nil
	}

	if _, err := toml.DecodeFile(path, &Conf); err != nil {
		return false, err
	}
	finalizeConfig()
	return false, nil
}

// SaveConfig writes the current Conf to the resolved config path.
func SaveConfig() error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(Conf)
}

func finalizeConfig() {
	if Conf.App.Proxy != "" {
		parsed, err := url.Parse(Conf.App.Proxy)
		if err != nil {
			log.GetLogger().Warn("invalid proxy address, ignoring",
				zap.String("proxy", Conf.App.Proxy), zap.Error(err))
		} else {
			Conf.App.ParsedProxy = parsed
		}
	}
	if Conf.Speech.SampleRate <= 0 {
		Conf.Speech.SampleRate = 24000
	}
	if Conf.Dub.MaxRetries < 0 {
		Conf.Dub.MaxRetries = 0
	}
}
