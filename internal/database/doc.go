// Package database provides the sqlite-backed persistence of the service.
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── catalog/         # Catalog snapshots (items and annotations)
//	├── syncruns/        # History of sync attempts
//	└── audit/           # Audit events
//
// Each sub-package provides a Repository built from the shared *gorm.DB:
//
//	db, err := database.NewDatabase("./notebook-sync.db")
//	snapshots := catalog.NewRepository(db.DB)
//	runs := syncruns.NewRepository(db.DB)
//
// Credentials are never stored here.
package database
