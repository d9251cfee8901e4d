package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, treatment *Treatment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Treatment, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Treatment, error)
}
