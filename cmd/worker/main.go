package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hugohenrick/pos-facturacion/internal/adapter/provider/facturante"
	"github.com/hugohenrick/pos-facturacion/internal/adapter/repository"
	"github.com/hugohenrick/pos-facturacion/internal/domain/billing"
	"github.com/hugohenrick/pos-facturacion/internal/domain/fiscal"
	"github.com/hugohenrick/pos-facturacion/internal/infrastructure/database"
	"github.com/hugohenrick/pos-facturacion/pkg/logger"
)

// defaultInterval é o intervalo padrão entre varreduras da fila
const defaultInterval = 30 * time.Second

func main() {
	// Carregar variáveis de ambiente
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: Arquivo .env não encontrado: %v", err)
	}

	logg := logger.NewLogger()

	config := database.NewPostgresConfigFromEnv()
	db, err := database.NewPostgresDB(config)
	if err != nil {
		log.Fatalf("Erro ao conectar ao banco de dados: %v", err)
	}
	defer db.Close()

	// Dependências do worker
	configRepo := repository.NewConfigurationRepository(db)
	queueRepo := repository.NewFiscalRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	resolver := facturante.NewResolver(configRepo, logg)
	meter := billing.NewUsageMeter(subscriptionRepo, usageRepo, logg)
	metrics := fiscal.NewTransitionMetrics()
	builder := fiscal.NewPayloadBuilder(orderRepo, customerRepo, configRepo, queueRepo, logg)
	worker := fiscal.NewWorker(queueRepo, builder, resolver, meter, metrics, logg)

	interval := defaultInterval
	if v := os.Getenv("WORKER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logg.Info("worker de emissão iniciado", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := worker.ProcessPending(ctx)
		if err != nil {
			logg.Error("erro ao processar fila", "error", err)
		} else if result.Processed > 0 {
			logg.Info("lote processado",
				"processed", result.Processed, "accepted", result.Accepted,
				"retried", result.Retried, "failed", result.Failed)
		}

		select {
		case <-ctx.Done():
			logg.Info("worker encerrado", "metrics", metrics.Snapshot())
			return
		case <-ticker.C:
		}
	}
}
