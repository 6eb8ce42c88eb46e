package dbhelper

import (
	"fmt"

	"github.com/sessionapp/apiv1/models"
	"github.com/sessionapp/apiv1/utils"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func OpenDB(cfg *utils.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(127.0.0.1:3306)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser,
		cfg.DBPass,
		cfg.DBName,
	)
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

func InitDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RevokedToken{},
	)
}
