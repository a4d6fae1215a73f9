package audit

import "time"

// Entity is the audit_logs entity written by catalog and mapping changes.
const Entity = "permission_record"

// TimelineFilters narrows the ACL audit trail.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Action   string
	EntityID string
	Page     int
	PageSize int
}

// TimelineRow is one recorded ACL change.
type TimelineRow struct {
	At       time.Time      `json:"at"`
	ActorID  int64          `json:"actor_id"`
	Action   string         `json:"action"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// PagingInfo describes the window returned by Timeline.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result wraps a timeline page.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}

// Query is the repository-level filter. Limit zero means unbounded.
type Query struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Action   string
	EntityID string
	Offset   int
	Limit    int
}
