package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"talentvibe/application"
	"talentvibe/infrastructure"
	"talentvibe/interfaces"
	"talentvibe/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := infrastructure.LoadConfig()

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer lg.Sync()

	db, err := infrastructure.NewDatabase(cfg, lg)
	if err != nil {
		lg.Fatal("database init failed", "error", err)
	}

	store := infrastructure.NewJobStore(db, lg)
	hub := infrastructure.NewHub(lg)
	extractor := infrastructure.NewExtractor(lg)
	evaluator := infrastructure.NewOpenAIEvaluator(cfg, lg)

	orc := application.NewOrchestrator(store, evaluator, hub, lg, cfg.WorkerCount, cfg.EvalTimeout)

	// Batches travel through RabbitMQ when a broker is configured,
	// otherwise they run on in-process goroutines.
	var dispatcher application.Dispatcher
	if cfg.RabbitURL != "" {
		rmq, err := infrastructure.NewRabbitMQ(cfg.RabbitURL, lg)
		if err != nil {
			lg.Fatal("RabbitMQ init failed", "error", err)
		}
		defer rmq.Close()
		if err := rmq.StartConsumer(orc.Run); err != nil {
			lg.Fatal("RabbitMQ consumer failed", "error", err)
		}
		dispatcher = rmq
	} else {
		dispatcher = application.NewGoDispatcher(orc)
	}

	router := gin.Default()
	interfaces.NewHTTPHandler(router, store, extractor, dispatcher, hub, hub, lg)

	lg.Info("server starting", "addr", cfg.Addr, "workers", cfg.WorkerCount)
	if err := router.Run(cfg.Addr); err != nil {
		lg.Fatal("server exited", "error", err)
	}
}
