package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "github.com/binary-star-near/nearcrowd-contract/internal/configs"
	"github.com/binary-star-near/nearcrowd-contract/internal/contract"
	"github.com/binary-star-near/nearcrowd-contract/internal/gate"
	httpapi "github.com/binary-star-near/nearcrowd-contract/internal/http"
	repository "github.com/binary-star-near/nearcrowd-contract/internal/repositories"
	"github.com/binary-star-near/nearcrowd-contract/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ledger gateway",
	Long:  "Starts the HTTP gateway hosting the task-distribution ledger program",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()

		logger, err := zap.NewProduction()
		if err != nil {
			return err
		}
		defer logger.Sync()

		database := config.NewDatabaseClient(cfg.DatabaseDSN)
		repo := repository.NewStateRepository(database)

		var callGate gate.CallGate
		if cfg.CallGate == "redis" {
			redisClient := config.NewRedisClient(cfg.RedisAddr)
			defer redisClient.Close()
			callGate = gate.NewRedisCallGate(
				redisClient,
				cfg.RedisLeaseKey,
				time.Duration(cfg.RedisLeaseTTLSeconds)*time.Second,
			)
		} else {
			callGate = gate.NewLocalCallGate()
		}

		ledger := services.NewLedgerService(repo, callGate, logger, contract.Params{
			Admin:              contract.AccountID(cfg.AdminAccountID),
			AssignmentDeadline: uint64(cfg.AssignmentDeadlineSeconds) * uint64(time.Second),
			RetainResolved:     cfg.RetainResolved,
		})

		e := echo.New()
		e.HideBanner = true

		handler := httpapi.NewHandler(ledger)
		httpapi.Register(e, handler, cfg.RateLimit)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			logger.Info("gateway listening", zap.String("addr", cfg.AppURL))
			if err := e.Start(cfg.AppURL); err != nil {
				logger.Info("server stopped", zap.Error(err))
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)

		logger.Info("gateway shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
