package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/internal/treatment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, treatment *domain.Treatment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO treatments (
			id, patient_id, doctor_id, invoice_id, name, amount,
			completed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		treatment.ID,
		treatment.PatientID,
		treatment.DoctorID,
		treatment.InvoiceID,
		treatment.Name,
		treatment.Amount,
		treatment.CompletedAt,
		treatment.CreatedAt,
		treatment.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Treatment, error) {
	var item domain.Treatment
	err := db.WithContext(ctx).Raw(
		`SELECT id, patient_id, doctor_id, invoice_id, name, amount,
			completed_at, created_at, updated_at
		 FROM treatments
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Treatment, error) {
	var treatments []domain.Treatment
	stmt := db.WithContext(ctx).Model(&domain.Treatment{})

	if filter.PatientID != 0 {
		stmt = stmt.Where("patient_id = ?", filter.PatientID)
	}
	if filter.DoctorID != 0 {
		stmt = stmt.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("completed_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("completed_at <= ?", filter.EndAt.UTC())
	}

	if err := stmt.Order("completed_at desc, id desc").Find(&treatments).Error; err != nil {
		return nil, err
	}
	return treatments, nil
}
