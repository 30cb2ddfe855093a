package repository

import (
	"exam_prep_backend/internal/model"

	"gorm.io/gorm"
)

type StreakRepository struct {
	DB *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

func (r *StreakRepository) FindOrCreate(tx *gorm.DB, userID uint) (*model.StreakRecord, error) {
	if tx == nil {
		tx = r.DB
	}
	var record model.StreakRecord
	err := lockForUpdate(tx).
		Where("user_id = ?", userID).
		First(&record).Error
	if err == nil {
		return &record, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	record = model.StreakRecord{
		UserID:       userID,
		PracticeDays: model.StringList{},
		WeeklyStats:  model.WeeklyStatList{},
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *StreakRepository) Find(userID uint) (*model.StreakRecord, error) {
	var record model.StreakRecord
	err := r.DB.Where("user_id = ?", userID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *StreakRepository) Save(tx *gorm.DB, record *model.StreakRecord) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Save(record).Error
}

func (r *StreakRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.DB.Transaction(fn)
}
