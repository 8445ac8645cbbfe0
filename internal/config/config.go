package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// Config representa a configuração completa da aplicação
type Config struct {
	Server     ServerConfig     `json:"server"`
	OSC        OSCConfig        `json:"osc"`
	Aggregator AggregatorConfig `json:"aggregator"`
	Model      ModelConfig      `json:"model"`
	Output     OutputConfig     `json:"output"`
	Alert      AlertConfig      `json:"alert"`
	Redis      RedisConfig      `json:"redis"`
}

// ServerConfig contém configurações do servidor HTTP/WebSocket
type ServerConfig struct {
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
}

// OSCConfig contém configurações do listener OSC (EmotiBit)
type OSCConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// AggregatorConfig contém configurações do ciclo de agregação
type AggregatorConfig struct {
	Interval      time.Duration `json:"interval"`
	CardioChannel string        `json:"cardioChannel"`
	Channels      []string      `json:"channels"`
	Debug         bool          `json:"debug"`
}

// ModelConfig contém os caminhos dos artefatos do classificador
type ModelConfig struct {
	ForestPath  string `json:"forestPath"`
	ScalersPath string `json:"scalersPath"`
	LabelsPath  string `json:"labelsPath"`
}

// OutputConfig contém os caminhos dos arquivos CSV de saída
type OutputConfig struct {
	DataFile       string `json:"dataFile"`
	FeatureFile    string `json:"featureFile"`
	PredictionFile string `json:"predictionFile"`
}

// AlertConfig contém configurações do envio de alertas via UDP
type AlertConfig struct {
	Host        string        `json:"host"`
	Port        int           `json:"port"`
	WindowSize  int           `json:"windowSize"`
	SendTimeout time.Duration `json:"sendTimeout"`
}

// RedisConfig contém configurações do Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
	Enabled  bool   `json:"enabled"`
}

// Load carrega a configuração do arquivo ou usa valores padrão
func Load() (*Config, error) {
	config := getDefaultConfig()

	// Verificar se existe um arquivo de configuração
	if _, err := os.Stat("config.json"); err == nil {
		file, err := os.Open("config.json")
		if err != nil {
			return nil, err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return nil, err
		}
	}

	// Sobrescrever com variáveis de ambiente, se existirem
	applyEnvironmentOverrides(&config)

	return &config, nil
}

// applyEnvironmentOverrides sobrescreve configurações com variáveis de ambiente
func applyEnvironmentOverrides(config *Config) {
	if v := os.Getenv("OSC_HOST"); v != "" {
		config.OSC.Host = v
	}
	if v := os.Getenv("OSC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.OSC.Port = port
		}
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("ALERT_HOST"); v != "" {
		config.Alert.Host = v
	}
	if v := os.Getenv("ALERT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Alert.Port = port
		}
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		config.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Redis.Port = port
		}
	}
}
