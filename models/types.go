package models

import "time"

// Subscriber status constants
const (
	SubscriberActive       = "active"
	SubscriberUnsubscribed = "unsubscribed"
)

// Request types

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// Pointer fields are left untouched when absent
type UpdateImageRequest struct {
	Title     *string `json:"title" validate:"omitempty,max=200"`
	Alt       *string `json:"alt" validate:"omitempty,max=300"`
	DateRange *string `json:"date_range" validate:"omitempty,max=100"`
	Category  *string `json:"category" validate:"omitempty,category"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=2000,dive,required,max=64"`
}

// ExpectedVersion 0 skips the optimistic check
type SetPinnedRequest struct {
	Pinned          bool `json:"pinned"`
	ExpectedVersion int  `json:"expected_version" validate:"min=0"`
}

type ContactRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"max=150"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
	// Honeypot; real visitors never see this field
	Website string `json:"website"`
	// Unix milliseconds when the form was rendered
	StartedAt int64 `json:"started_at"`
}

type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Name  string `json:"name" validate:"max=100"`
}

// Response types

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Subject   string    `json:"subject"`
}

type MeResponse struct {
	Subject string `json:"subject"`
	Method  string `json:"method"`
}

// Error and Message are only set when the delete stopped part way; Deleted
// then lists what was removed before the failure.
type BulkDeleteResponse struct {
	Error    string   `json:"error,omitempty"`
	Message  string   `json:"message,omitempty"`
	Deleted  []string `json:"deleted"`
	NotFound []string `json:"not_found"`
}

type ContactResponse struct {
	Message string `json:"message"`
}

type SubscribeResponse struct {
	Status  string `json:"status"` // "subscribed", "already_subscribed", "resubscribed"
	Message string `json:"message"`
}

type SyncResponse struct {
	Upserted int       `json:"upserted"`
	Deleted  int       `json:"deleted"`
	At       time.Time `json:"at"`
}

// Domain types

type Category struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type CategorySummary struct {
	Category
	Count int    `json:"count"`
	Cover *Image `json:"cover,omitempty"`
}

type Image struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Alt         string    `json:"alt"`
	DateRange   string    `json:"date_range,omitempty"`
	ObjectKey   string    `json:"object_key"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Pinned      bool      `json:"pinned"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IPHash    string    `json:"ip_hash,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Emailed   bool      `json:"emailed"`
	CreatedAt time.Time `json:"created_at"`
}

type Subscriber struct {
	Email          string     `json:"email"`
	Name           string     `json:"name,omitempty"`
	Status         string     `json:"status"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
	Status      string    `json:"status"`
	HTMLLink    string    `json:"html_link,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SyncState struct {
	LastSyncAt time.Time `json:"last_sync_at"`
	Upserted   int       `json:"upserted"`
	Deleted    int       `json:"deleted"`
	LastError  string    `json:"last_error,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
