package domain

import "time"

// Portfolio groups a user's transactions into one tracked account.
type Portfolio struct {
	ID          int64     // Unique identifier (from DB)
	UserID      int64     // Owning user
	Name        string    // Display name (1-100 characters)
	Description string    // Optional free-text description
	CreatedAt   time.Time // Creation timestamp
}
