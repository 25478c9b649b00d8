package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chynybekuuludastan/post_factory/internal/database/migration"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	migrateCmd := flag.Bool("migrate", false, "Run migrations")
	rollbackCmd := flag.Bool("rollback", false, "Rollback the last batch of migrations")
	resetCmd := flag.Bool("reset", false, "Rollback all migrations and re-run them")
	statusCmd := flag.Bool("status", false, "Show migration status")
	dsn := flag.String("dsn", os.Getenv("POSTGRES_URI"), "PostgreSQL connection string")
	flag.Parse()

	if !(*migrateCmd || *rollbackCmd || *resetCmd || *statusCmd) {
		flag.Usage()
		os.Exit(1)
	}
	if *dsn == "" {
		log.Fatal("No database configured: pass -dsn or set POSTGRES_URI")
	}

	db, err := gorm.Open(postgres.Open(*dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}

	migrator, err := migration.NewMigrator(db)
	if err != nil {
		log.Fatalf("Failed to prepare migrations: %v", err)
	}

	switch {
	case *migrateCmd:
		log.Println("Running migrations...")
		if err := migrator.Migrate(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")

	case *rollbackCmd:
		log.Println("Rolling back the last batch of migrations...")
		if err := migrator.Rollback(); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Println("Rollback completed successfully")

	case *resetCmd:
		log.Println("Resetting all migrations...")
		if err := migrator.Reset(); err != nil {
			log.Fatalf("Reset failed: %v", err)
		}
		log.Println("Reset completed successfully")

	case *statusCmd:
		status, err := migrator.GetStatus()
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		printStatus(status)
	}
}

func printStatus(status []migration.Status) {
	line := "+------------------------------+----------+-------+---------------------+"
	fmt.Println(line)
	fmt.Println("| Migration                    | Applied? | Batch | Applied At          |")
	fmt.Println(line)

	for _, s := range status {
		applied, batch, at := "No", "-", "-"
		if s.Applied {
			applied = "Yes"
			batch = fmt.Sprintf("%d", s.Batch)
			at = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("| %-28s | %-8s | %-5s | %-19s |\n", s.Name, applied, batch, at)
	}

	fmt.Println(line)
}
