package repository

import (
	"exam_prep_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AbilityProfileRepository struct {
	DB *gorm.DB
}

func NewAbilityProfileRepository(db *gorm.DB) *AbilityProfileRepository {
	return &AbilityProfileRepository{DB: db}
}

// FindOrCreate 首次作答时以 theta=0、SE=1.0 惰性创建
func (r *AbilityProfileRepository) FindOrCreate(tx *gorm.DB, userID uint, subject string) (*model.AbilityProfile, error) {
	if tx == nil {
		tx = r.DB
	}
	var profile model.AbilityProfile
	err := lockForUpdate(tx).
		Where("user_id = ? AND subject = ?", userID, subject).
		First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	profile = model.AbilityProfile{
		UserID:        userID,
		Subject:       subject,
		Theta:         0,
		StandardError: 1.0,
		LastUpdatedAt: time.Now(),
	}
	if err := tx.Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *AbilityProfileRepository) Save(tx *gorm.DB, profile *model.AbilityProfile) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Save(profile).Error
}

func (r *AbilityProfileRepository) FindByUserAndSubject(userID uint, subject string) (*model.AbilityProfile, error) {
	var profile model.AbilityProfile
	err := r.DB.Where("user_id = ? AND subject = ?", userID, subject).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *AbilityProfileRepository) FindByUser(userID uint) ([]model.AbilityProfile, error) {
	var profiles []model.AbilityProfile
	err := r.DB.Where("user_id = ?", userID).Order("subject ASC").Find(&profiles).Error
	return profiles, err
}
