package repo

import (
	"github.com/tradelens/alert-engine/internal/entity"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Alert{},
		&entity.AlertEvent{},
		&entity.QueueJob{},
		&entity.UserDevice{},
		&entity.StrategyGroup{},
		&entity.StrategyGroupMember{},
		&entity.TradeSignal{},
		&entity.ScanResult{},
	)
}
