package migrations

import (
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/sink"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_conversations",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&sink.ConversationModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&sink.ConversationModel{})
			},
		},
		{
			ID: "000002_create_messages",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&sink.MessageModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_messages_conversation_occurred ON messages (conversation_id, occurred_at)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&sink.MessageModel{})
			},
		},
	})

	return m.Migrate()
}
