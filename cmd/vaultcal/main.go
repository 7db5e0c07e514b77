package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vaultcal/config"
	"vaultcal/internal/clients/caldav"
	"vaultcal/internal/notify"
	"vaultcal/internal/scheduler"
	"vaultcal/internal/service"
	"vaultcal/internal/storage"
	"vaultcal/internal/vault"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	store := vault.New(cfg.EventsDir, logger)

	client, err := caldav.NewClient(cfg.YandexCalendarURL, cfg.YandexUsername, cfg.YandexAppPassword)
	if err != nil {
		logger.Fatal("Failed to init CalDAV client", zap.Error(err))
	}

	journal, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to init journal", zap.Error(err))
	}
	defer journal.Close()

	notifiers := notify.Multi{notify.NewLog(logger)}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Warn("Telegram notifier disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	syncSvc := service.NewSyncService(store, client, notifiers, journal, cfg.Timezone, logger)

	cmd := "sync"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "sync":
		runOnce(syncSvc, logger)
	case "daemon":
		runDaemon(cfg, syncSvc, logger)
	case "history":
		showHistory(journal)
	default:
		fmt.Fprintln(os.Stderr, "usage: vaultcal [sync|daemon|history]")
		os.Exit(2)
	}
}

func runOnce(syncSvc *service.SyncService, logger *zap.Logger) {
	pass, err := syncSvc.SyncAll(context.Background())
	if err != nil {
		logger.Fatal("Sync pass failed", zap.Error(err))
	}

	logger.Info("Sync pass finished",
		zap.Int("pushed", pass.Pushed),
		zap.Int("failed", pass.Failed),
		zap.Int("imported", pass.Imported),
		zap.Int("skipped", pass.Skipped),
		zap.Duration("duration", pass.Duration()))
}

func runDaemon(cfg *config.Config, syncSvc *service.SyncService, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(cfg, syncSvc, logger)

	go func() {
		if err := sched.Start(ctx); err != nil {
			logger.Error("Scheduler error", zap.Error(err))
		}
	}()

	logger.Info("vaultcal daemon started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down...")
	cancel()
	sched.Stop()
	logger.Info("vaultcal daemon stopped")
}

func showHistory(journal *storage.Storage) {
	passes, err := journal.ListPasses(20)
	if err != nil {
		log.Fatalf("Failed to read journal: %v", err)
	}

	if len(passes) == 0 {
		fmt.Println("No sync passes recorded yet")
		return
	}

	for _, p := range passes {
		fmt.Printf("%s  pushed=%d failed=%d imported=%d skipped=%d  (%s)\n",
			p.StartedAt.Format("2006-01-02 15:04:05"),
			p.Pushed, p.Failed, p.Imported, p.Skipped,
			p.Duration().Round(10*time.Millisecond))
		for _, e := range p.Errors {
			fmt.Printf("    %s\n", e)
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = "console"
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	return zapCfg.Build()
}
