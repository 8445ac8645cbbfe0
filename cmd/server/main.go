package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cogload_go/internal/config"
	"cogload_go/internal/server"
	"cogload_go/pkg/logger"
)

func main() {
	// Configurar diretório de logs
	logDir := filepath.Join(".", "logs")
	os.MkdirAll(logDir, 0755)

	// Inicializar logger
	logger.Init()
	logger.SetLevel(logger.INFO)
	logger.EnableFileLogging(logDir, "cogload")
	defer logger.Sync()

	// Exibir banner de inicialização
	displayBanner()

	logger.Info("Iniciando Cognitive Load Monitor")

	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Erro ao carregar configurações", err)
	}

	// Intervalos muito curtos não deixam amostras suficientes por janela
	if cfg.Aggregator.Interval < 500*time.Millisecond {
		logger.Warn("Intervalo de agregação muito curto. Definindo para 500ms")
		cfg.Aggregator.Interval = 500 * time.Millisecond
	}

	logger.Infof("Configuração carregada: OSC em %s:%d, alertas para %s:%d, Redis em %s:%d",
		cfg.OSC.Host, cfg.OSC.Port, cfg.Alert.Host, cfg.Alert.Port, cfg.Redis.Host, cfg.Redis.Port)
	logger.Infof("Intervalo de agregação: %v", cfg.Aggregator.Interval)

	// Criar e iniciar o servidor
	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("Erro ao criar servidor", err)
	}

	// Iniciar o servidor em uma goroutine separada
	go func() {
		logger.Infof("Servidor iniciado na porta %d", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			logger.Fatal("Erro ao iniciar o servidor", err)
		}
	}()

	// Configurar captura de sinais para shutdown gracioso
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Desligando servidor...")

	// Criar contexto com timeout para o shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Desligar o servidor
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Erro durante o shutdown do servidor", err)
	}

	logger.Info("Servidor encerrado com sucesso")
}

// displayBanner exibe um banner de inicialização
func displayBanner() {
	banner := `
 _______  _____   ______        _____  _______ ______
 |       |     | |  ____ ___   |     | |_____| |     \
 |_____  |_____| |_____|       |_____| |     | |_____/

 _______  _____  __   _ _____ _______  _____   ______
 |  |  | |     | | \  |   |      |    |     | |_____/
 |  |  | |_____| |  \_| __|__    |    |_____| |    \_  v1.0
                                         REAL-TIME EDITION
 `
	fmt.Println(banner)
	fmt.Printf("Iniciando em %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
}
