package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/eticloud-hub/rozgar-map/internal/db"
	"github.com/eticloud-hub/rozgar-map/internal/mgnrega"
	"github.com/eticloud-hub/rozgar-map/internal/seeds"
)

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	if err := db.EnsureSchema(db.DB, "mgnrega"); err != nil {
		log.Fatalf("❌ Ensure schema failed: %v", err)
	}
	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatalf("❌ Enable uuid-ossp failed: %v", err)
	}
	if err := db.DB.AutoMigrate(&mgnrega.State{}, &mgnrega.District{}); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	reg, err := seeds.Load()
	if err != nil {
		log.Fatalf("❌ Loading district registry failed: %v", err)
	}
	if err := seeds.Apply(db.DB, reg); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}
