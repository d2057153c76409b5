package storage

import "time"

// Session status values. Completed and cancelled are terminal.
const (
	SessionScheduled  = "scheduled"
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionCancelled  = "cancelled"
)

// Activity kinds accepted by the swap history log.
const (
	ActivityMessage      = "message"
	ActivitySession      = "session"
	ActivityFileExchange = "file_exchange"
	ActivityStatusChange = "status_change"
)

// Offer status values.
const (
	OfferPending  = "pending"
	OfferAccepted = "accepted"
	OfferDeclined = "declined"
)

type Profile struct {
	UserID          int64                `json:"user_id"`
	FullName        string               `json:"full_name"`
	Bio             string               `json:"bio"`
	City            string               `json:"city"`
	Country         string               `json:"country"`
	Timezone        string               `json:"timezone"`
	Availability    string               `json:"availability"`
	ProfileImageURL string               `json:"profile_image_url"`
	Languages       []string             `json:"languages"`
	SkillsOffered   []string             `json:"skills_offered"`
	SkillsWanted    []string             `json:"skills_wanted"`
	Notifications   NotificationSettings `json:"notifications"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type NotificationSettings struct {
	Email         bool `json:"email_notifications"`
	Push          bool `json:"push_notifications"`
	MatchAlerts   bool `json:"match_alerts"`
	MessageAlerts bool `json:"message_alerts"`
	ReviewAlerts  bool `json:"review_alerts"`
	WeeklyDigest  bool `json:"weekly_digest"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	SwapID         *int64    `json:"swap_id,omitempty"`
	OfferID        *int64    `json:"offer_id,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationSummary is one entry of a user's conversation list:
// the counterpart and the most recent message exchanged with them.
type ConversationSummary struct {
	ConversationID int64   `json:"conversation_id"`
	OtherUserID    int64   `json:"other_user_id"`
	LastMessage    Message `json:"last_message"`
}

type Attachment struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"message_id"`
	FileName  string    `json:"file_name"`
	FileType  string    `json:"file_type"`
	FileSize  int64     `json:"file_size"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	ID              int64      `json:"id"`
	SwapID          int64      `json:"swap_id"`
	CreatedBy       int64      `json:"created_by"`
	Status          string     `json:"status"`
	MeetLink        string     `json:"meet_link"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type ActivityRecord struct {
	ID           int64                  `json:"id"`
	SwapID       int64                  `json:"swap_id"`
	UserID       int64                  `json:"user_id"`
	ActivityType string                 `json:"activity_type"`
	Description  string                 `json:"description"`
	Metadata     map[string]interface{} `json:"metadata"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ActivityStats is derived from a full scan of one swap's history.
type ActivityStats struct {
	TotalMessages  int `json:"total_messages"`
	TotalSessions  int `json:"total_sessions"`
	TotalFiles     int `json:"total_files"`
	TotalTimeSpent int `json:"total_time_spent"`
}

type Swap struct {
	ID             int64     `json:"id"`
	RequesterID    int64     `json:"requester_id"`
	ProviderID     int64     `json:"provider_id"`
	Skill          string    `json:"skill"`
	Status         string    `json:"status"`
	TotalHours     float64   `json:"total_hours"`
	RemainingHours float64   `json:"remaining_hours"`
	CreatedAt      time.Time `json:"created_at"`
}

type Offer struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Timezone struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	UTCOffset string `json:"utc_offset"`
}
