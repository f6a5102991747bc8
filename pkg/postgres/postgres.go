package postgres

import (
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/emergency-ops/config"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL,
			assigned_zone VARCHAR(100),
			is_verified BOOLEAN DEFAULT FALSE,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			type VARCHAR(50) NOT NULL,
			title VARCHAR(200) NOT NULL,
			message VARCHAR(1000) NOT NULL,
			severity VARCHAR(20) NOT NULL,
			recipients VARCHAR(20) NOT NULL,
			target_zone VARCHAR(100),
			specific_recipients JSONB DEFAULT '[]',
			send_in_app BOOLEAN DEFAULT TRUE,
			send_email BOOLEAN DEFAULT FALSE,
			send_sms BOOLEAN DEFAULT FALSE,
			sent_by VARCHAR(100),
			sent_by_role VARCHAR(20),
			status VARCHAR(20) DEFAULT 'pending',
			stats_total INTEGER DEFAULT 0,
			stats_delivered INTEGER DEFAULT 0,
			stats_failed INTEGER DEFAULT 0,
			stats_pending INTEGER DEFAULT 0,
			metadata JSONB DEFAULT '{}',
			read_by JSONB DEFAULT '[]',
			scheduled_for TIMESTAMP,
			sent_at TIMESTAMP,
			completed_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			content VARCHAR(1000) NOT NULL,
			type VARCHAR(20) NOT NULL,
			priority VARCHAR(20) NOT NULL,
			sender_id UUID NOT NULL,
			sender_name VARCHAR(255) NOT NULL,
			sender_role VARCHAR(20) NOT NULL,
			recipients VARCHAR(20) NOT NULL,
			target_zone VARCHAR(100),
			specific_recipients JSONB DEFAULT '[]',
			is_emergency BOOLEAN DEFAULT FALSE,
			read_by JSONB DEFAULT '[]',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_notifications_status ON notifications(status, scheduled_for)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_type ON notifications(type, severity)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_recipients ON messages(recipients, target_zone, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role, is_verified)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	logrus.Info("Database migrations completed")
	return nil
}
