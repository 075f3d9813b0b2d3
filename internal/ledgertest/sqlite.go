// Package ledgertest opens throwaway SQLite databases carrying the ledger
// schema for repository and service tests.
package ledgertest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/landhub-backend/pkg/db/models"
	"github.com/angelmondragon/landhub-backend/pkg/enums"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL,
  location TEXT NOT NULL,
  area_sqm REAL NOT NULL,
  base_price INTEGER NOT NULL,
  min_increment INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  current_highest_bid_id TEXT,
  version INTEGER NOT NULL DEFAULT 0,
  bid_sequence INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  CHECK (status <> 'sold' OR current_highest_bid_id IS NOT NULL)
);`,
	`CREATE TABLE IF NOT EXISTS bids (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  bidder_id TEXT NOT NULL,
  amount INTEGER NOT NULL CHECK (amount > 0),
  status TEXT NOT NULL,
  sequence INTEGER NOT NULL,
  previous_bid_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_bids_listing_sequence ON bids (listing_id, sequence);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_bids_one_active_per_listing ON bids (listing_id) WHERE status = 'active';`,
	`CREATE TABLE IF NOT EXISTS offers (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  amount INTEGER NOT NULL CHECK (amount > 0),
  message TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  seller_originated INTEGER NOT NULL DEFAULT 0,
  counter_of_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_offers_pending_buyer ON offers (listing_id, buyer_id) WHERE status = 'pending';`,
	`CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  listing_id TEXT,
  event_id TEXT,
  read_at DATETIME,
  created_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_notifications_event ON notifications (event_id) WHERE event_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS messages (
  id TEXT PRIMARY KEY,
  conversation_id TEXT NOT NULL,
  listing_id TEXT,
  sender_id TEXT NOT NULL,
  recipient_id TEXT NOT NULL,
  body TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME,
  CHECK (sender_id <> recipient_id)
);`,
	`CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  uploader_id TEXT NOT NULL,
  document_type TEXT NOT NULL,
  file_name TEXT NOT NULL,
  content_type TEXT NOT NULL,
  size_bytes INTEGER NOT NULL CHECK (size_bytes > 0),
  storage_key TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending_verification',
  reviewed_by TEXT,
  reviewed_at DATETIME,
  rejection_reason TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	`CREATE TABLE IF NOT EXISTS outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json BLOB NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  created_at DATETIME
);`,
}

// Open returns a private in-memory database with every ledger table created.
// A single connection is used so concurrent transactions queue instead of
// failing with "database is locked".
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db
}

// SeedListing inserts an active listing owned by sellerID.
func SeedListing(t *testing.T, db *gorm.DB, sellerID uuid.UUID, basePrice, minIncrement int64) *models.Listing {
	t.Helper()
	now := time.Now().UTC()
	listing := &models.Listing{
		ID:           uuid.New(),
		SellerID:     sellerID,
		Title:        "Riverside parcel",
		Description:  "Flat plot with road access",
		Category:     enums.ListingCategoryAgricultural,
		Location:     "Valle del Cauca",
		AreaSqm:      12000,
		BasePrice:    basePrice,
		MinIncrement: minIncrement,
		Status:       enums.ListingStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return listing
}
