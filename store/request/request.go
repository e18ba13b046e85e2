package request

import (
	"context"

	"termpool/core"

	"github.com/fox-one/pkg/store/db"
)

type requestStore struct {
	db *db.DB
}

// New new borrow request store
func New(db *db.DB) core.IRequestStore {
	return &requestStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.BorrowRequest{})
		if err := tx.AutoMigrate(core.BorrowRequest{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *requestStore) Create(ctx context.Context, tx *db.DB, request *core.BorrowRequest) error {
	return tx.Update().Where("trace_id=?", request.TraceID).FirstOrCreate(request).Error
}

func (s *requestStore) Find(ctx context.Context, id uint64) (*core.BorrowRequest, error) {
	var request core.BorrowRequest
	if err := s.db.View().Where("id=?", id).First(&request).Error; err != nil {
		return nil, err
	}

	return &request, nil
}

func (s *requestStore) Update(ctx context.Context, tx *db.DB, request *core.BorrowRequest) error {
	version := request.Version
	request.Version++

	updates := map[string]interface{}{
		"voters":         request.Voters,
		"approval_count": request.ApprovalCount,
		"executed_at":    request.ExecutedAt,
		"version":        request.Version,
	}

	upd := tx.Update().Model(core.BorrowRequest{}).Where("id=? and version=?", request.ID, version).Updates(updates)
	if upd.Error != nil {
		return upd.Error
	}

	if upd.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (s *requestStore) List(ctx context.Context, fromID uint64, limit int) ([]*core.BorrowRequest, error) {
	var requests []*core.BorrowRequest
	if err := s.db.View().Where("id > ?", fromID).Limit(limit).Find(&requests).Error; err != nil {
		return nil, err
	}

	return requests, nil
}
