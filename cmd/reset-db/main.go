package main

import (
	"flag"
	"log"

	"classtrack-backend/shared/config"
	"classtrack-backend/shared/database"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	confirm := flag.Bool("yes", false, "confirm dropping every table")
	flag.Parse()
	if !*confirm {
		log.Fatal("❌ Refusing to drop tables without --yes")
	}

	log.Println("🗑️ Starting database reset...")

	config.LoadConfig()
	cfg := config.GetConfig()

	dsn := "host=" + cfg.DBHost +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" port=" + cfg.DBPort +
		" sslmode=" + cfg.DBSSLMode +
		" TimeZone=UTC"

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatal("❌ Database connection failed:", err)
	}

	tables := []string{
		"audit_logs",
		"verification_tokens",
		"password_reset_tokens",
		"invites",
		"group_memberships",
		"groups",
		"homework",
		"reports",
		"chapters",
		"users",
	}

	log.Println("🗑️ Dropping all tables...")

	for _, table := range tables {
		log.Printf("   Dropping table: %s", table)
		db.Exec("DROP TABLE IF EXISTS " + table + " CASCADE;")
	}

	log.Println("🔄 Recreating schema...")
	if err := db.AutoMigrate(database.ManagedModels()...); err != nil {
		log.Fatal("❌ Migration failed:", err)
	}

	log.Println("✅ Database reset completed!")
	log.Println("💡 Run 'make seed' to seed data")
}
