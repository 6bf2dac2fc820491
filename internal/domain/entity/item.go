package entity

import "time"

// CatalogRecord is the bibliographic record a placeholder item hangs off
type CatalogRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemRef points at an inventory item
type ItemRef struct {
	ID              string `json:"id"`
	CatalogRecordID string `json:"catalog_record_id"`
}
