package message

import (
	"context"

	"termpool/core"

	"github.com/fox-one/pkg/store/db"
)

type messageStore struct {
	db *db.DB
}

// New new message store
func New(db *db.DB) core.IMessageStore {
	return &messageStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Message{})
		if err := tx.AutoMigrate(core.Message{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *messageStore) Create(ctx context.Context, tx *db.DB, messages []*core.Message) error {
	for _, msg := range messages {
		if err := tx.Update().Where("message_id=?", msg.MessageID).FirstOrCreate(msg).Error; err != nil {
			return err
		}
	}

	return nil
}

func (s *messageStore) List(ctx context.Context, limit int) ([]*core.Message, error) {
	var messages []*core.Message
	if err := s.db.View().Order("id asc").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}

	return messages, nil
}

func (s *messageStore) Delete(ctx context.Context, messages []*core.Message) error {
	if len(messages) == 0 {
		return nil
	}

	ids := make([]uint64, len(messages))
	for idx, msg := range messages {
		ids[idx] = msg.ID
	}

	return s.db.Update().Where("id in (?)", ids).Delete(core.Message{}).Error
}
