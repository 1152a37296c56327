package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/binary-star-near/nearcrowd-contract/internal/contract"
	apperrors "github.com/binary-star-near/nearcrowd-contract/internal/errors"
	model "github.com/binary-star-near/nearcrowd-contract/internal/models"
)

// snapshotID: the ledger state is a single snapshot row.
const snapshotID = 1

type StateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Load reads the current contract snapshot and its version. A missing row is
// not an error: it returns (nil, 0, nil) and the caller initializes a fresh
// contract, saved with version 0 on its first applied call.
func (r *StateRepository) Load(ctx context.Context) (*contract.Contract, uint, error) {
	var snap model.LedgerSnapshot
	err := r.db.WithContext(ctx).First(&snap, "id = ?", snapshotID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	var state contract.Contract
	if err := json.Unmarshal(snap.Data, &state); err != nil {
		return nil, 0, err
	}
	return &state, snap.Version, nil
}

// Save persists the snapshot with a compare-and-swap on the version column.
// A zero version inserts the first row; otherwise a stale version leaves zero
// rows affected and the save fails with the optimistic-lock error.
func (r *StateRepository) Save(ctx context.Context, state *contract.Contract, version uint) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	if version == 0 {
		snap := model.LedgerSnapshot{
			ID:        snapshotID,
			Data:      data,
			Version:   1,
			UpdatedAt: time.Now().UTC(),
		}
		if err := r.db.WithContext(ctx).Create(&snap).Error; err != nil {
			// Another writer created the first row in the meantime.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrOptimisticLock
			}
			return err
		}
		return nil
	}

	res := r.db.WithContext(ctx).Model(&model.LedgerSnapshot{}).
		Where("id = ? AND version = ?", snapshotID, version).
		Updates(map[string]interface{}{
			"data":       data,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrOptimisticLock
	}
	return nil
}
