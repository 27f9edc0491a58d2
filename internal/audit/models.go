package audit

import "time"

// Category classifies events for routing and retention.
type Category string

const (
	CategorySecurity   Category = "security"
	CategoryCompliance Category = "compliance"
	CategoryOperations Category = "operations"
)

type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventLogout         EventType = "logout"
	EventUserCreated    EventType = "user_created"

	EventCompanySearched     EventType = "company_searched"
	EventCompanySearchFailed EventType = "company_search_failed"
	EventCompanyCreated      EventType = "company_created"
	EventCompanyUpdated      EventType = "company_updated"
	EventCompanyDeleted      EventType = "company_deleted"
)

var eventCategories = map[EventType]Category{
	EventLoginSucceeded: CategorySecurity,
	EventLoginFailed:    CategorySecurity,
	EventLogout:         CategorySecurity,
	EventUserCreated:    CategoryCompliance,

	EventCompanyCreated: CategoryCompliance,
	EventCompanyUpdated: CategoryCompliance,
	EventCompanyDeleted: CategoryCompliance,
}

// Category returns the category of t. Unknown types are operational.
func (t EventType) Category() Category {
	if c, ok := eventCategories[t]; ok {
		return c
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. It is
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Category  Category  `json:"category"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	// Subject is the entity acted on, e.g. a tax id or company id.
	Subject   string `json:"subject,omitempty"`
	Source    string `json:"source,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	Device    string `json:"device,omitempty"`
}
