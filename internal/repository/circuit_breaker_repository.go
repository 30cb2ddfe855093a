package repository

import (
	"exam_prep_backend/internal/model"

	"gorm.io/gorm"
)

type CircuitBreakerRepository struct {
	DB *gorm.DB
}

func NewCircuitBreakerRepository(db *gorm.DB) *CircuitBreakerRepository {
	return &CircuitBreakerRepository{DB: db}
}

func (r *CircuitBreakerRepository) FindOrCreate(tx *gorm.DB, userID uint, dependency string) (*model.CircuitBreakerState, error) {
	if tx == nil {
		tx = r.DB
	}
	var state model.CircuitBreakerState
	err := lockForUpdate(tx).
		Where("user_id = ? AND dependency = ?", userID, dependency).
		First(&state).Error
	if err == nil {
		return &state, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	state = model.CircuitBreakerState{
		UserID:       userID,
		Dependency:   dependency,
		FailureDates: model.TimeList{},
	}
	if err := tx.Create(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *CircuitBreakerRepository) Find(userID uint, dependency string) (*model.CircuitBreakerState, error) {
	var state model.CircuitBreakerState
	err := r.DB.Where("user_id = ? AND dependency = ?", userID, dependency).First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *CircuitBreakerRepository) Save(tx *gorm.DB, state *model.CircuitBreakerState) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Save(state).Error
}

func (r *CircuitBreakerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.DB.Transaction(fn)
}
