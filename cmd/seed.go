package cmd

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "github.com/binary-star-near/nearcrowd-contract/internal/configs"
	"github.com/binary-star-near/nearcrowd-contract/internal/contract"
	"github.com/binary-star-near/nearcrowd-contract/internal/gate"
	repository "github.com/binary-star-near/nearcrowd-contract/internal/repositories"
	"github.com/binary-star-near/nearcrowd-contract/internal/services"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo tasksets",
	Long:  "Creates two demo tasksets with a few tasks each through the admin operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()

		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()

		database := config.NewDatabaseClient(cfg.DatabaseDSN)
		repo := repository.NewStateRepository(database)

		admin := contract.AccountID(cfg.AdminAccountID)
		ledger := services.NewLedgerService(repo, gate.NewLocalCallGate(), logger, contract.Params{
			Admin:              admin,
			AssignmentDeadline: uint64(cfg.AssignmentDeadlineSeconds) * uint64(time.Second),
			RetainResolved:     cfg.RetainResolved,
		})

		ctx := context.Background()

		minPrice, _ := contract.ParseUint128("125000000000000000000000")
		maxPrice, _ := contract.ParseUint128("135000000000000000000000")

		for ordinal := uint32(0); ordinal < 2; ordinal++ {
			if err := ledger.AddTaskset(ctx, admin, ordinal, minPrice, maxPrice, 100); err != nil {
				return fmt.Errorf("add taskset %d: %w", ordinal, err)
			}

			hashes := make([]contract.TaskHash, 0, 3)
			for i := 0; i < 3; i++ {
				sum := sha256.Sum256([]byte(fmt.Sprintf("demo-task-%d-%d", ordinal, i)))
				hashes = append(hashes, contract.TaskHash(sum))
			}
			if err := ledger.AddTasks(ctx, admin, ordinal, hashes); err != nil {
				return fmt.Errorf("add tasks to taskset %d: %w", ordinal, err)
			}

			logger.Info("seeded taskset",
				zap.Uint32("ordinal", ordinal),
				zap.Int("tasks", len(hashes)),
			)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
