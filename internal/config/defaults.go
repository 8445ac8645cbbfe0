package config

import "time"

// TrackedChannels são os canais fisiológicos do EmotiBit rastreados por padrão.
// A ordem define a ordem das colunas no arquivo CSV de agregados.
var TrackedChannels = []string{
	"ACC:X", "ACC:Y", "ACC:Z",
	"PPG:RED", "PPG:IR", "PPG:GRN",
	"EDA", "HUMIDITY", "TEMP", "T1", "HR",
	"GYRO:X", "GYRO:Y", "GYRO:Z",
	"MAG:X", "MAG:Y", "MAG:Z",
}

// getDefaultConfig retorna uma configuração padrão
func getDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		OSC: OSCConfig{
			Host: "127.0.0.1",
			Port: 12346,
		},
		Aggregator: AggregatorConfig{
			Interval:      2 * time.Second,
			CardioChannel: "PPG:IR",
			Channels:      TrackedChannels,
			Debug:         false,
		},
		Model: ModelConfig{
			ForestPath:  "models/forest.json",
			ScalersPath: "models/scalers.json",
			LabelsPath:  "models/labels.json",
		},
		Output: OutputConfig{
			DataFile:       "emotibit_data.csv",
			FeatureFile:    "cognitive_load_data.csv",
			PredictionFile: "cognitive_load_predictions.csv",
		},
		Alert: AlertConfig{
			Host:        "127.0.0.1",
			Port:        8052,
			WindowSize:  10,
			SendTimeout: 2 * time.Second,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
			Prefix:   "cogload",
			Enabled:  true,
		},
	}
}
