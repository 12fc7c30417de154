package models

import (
	"time"
)

// Lead is the primary record managed by the board: a prospective contact or
// deal moving through pipeline stages.
type Lead struct {
	// ID is the unique identifier for the lead.
	ID string `json:"id"`

	// PipelineID is the pipeline the lead belongs to. Nil means unassigned;
	// unassigned leads float into every pipeline's board view.
	PipelineID *string `json:"pipeline_id"`

	// StageID is the current stage. Nil means no stage. A non-nil StageID
	// must reference a stage whose PipelineID equals the lead's PipelineID.
	StageID *string `json:"stage_id"`

	// StageName, StageColor and StagePosition are denormalized display
	// fields kept in sync with StageID so columns render without a stage
	// lookup per card.
	StageName     string `json:"stage_name,omitempty"`
	StageColor    string `json:"stage_color,omitempty"`
	StagePosition int    `json:"stage_position,omitempty"`

	Name      string `json:"name"`
	LastName  string `json:"last_name,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Company   string `json:"company,omitempty"`

	// Age is nil when unknown; blank edits clear it rather than storing 0.
	Age *int `json:"age"`

	Notes string `json:"notes,omitempty"`

	// Tags holds legacy plain tag strings.
	Tags []string `json:"tags,omitempty"`

	// StructuredTags holds account-scoped colored labels.
	StructuredTags []StructuredTag `json:"structured_tags,omitempty"`

	// DeviceID links the lead to the messaging device it came in through.
	DeviceID *string `json:"device_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StructuredTag is an account-scoped colored label, distinct from the legacy
// free-text tags.
type StructuredTag struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
}

// Device is a messaging endpoint leads arrive through. Read-only from the
// board's perspective; used only for filtering.
type Device struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Phone  string       `json:"phone"`
	Status DeviceStatus `json:"status"`
}

// DeviceStatus is the connection state of a device.
type DeviceStatus string

const (
	DeviceConnected    DeviceStatus = "connected"
	DeviceConnecting   DeviceStatus = "connecting"
	DeviceDisconnected DeviceStatus = "disconnected"
)

// Clone returns a deep copy of the lead.
func (l Lead) Clone() Lead {
	out := l
	if l.PipelineID != nil {
		v := *l.PipelineID
		out.PipelineID = &v
	}
	if l.StageID != nil {
		v := *l.StageID
		out.StageID = &v
	}
	if l.Age != nil {
		v := *l.Age
		out.Age = &v
	}
	if l.DeviceID != nil {
		v := *l.DeviceID
		out.DeviceID = &v
	}
	if len(l.Tags) > 0 {
		out.Tags = append([]string(nil), l.Tags...)
	}
	if len(l.StructuredTags) > 0 {
		out.StructuredTags = append([]StructuredTag(nil), l.StructuredTags...)
	}
	return out
}

// CloneLeads deep-copies a lead slice.
func CloneLeads(leads []Lead) []Lead {
	if len(leads) == 0 {
		return nil
	}
	out := make([]Lead, len(leads))
	for i := range leads {
		out[i] = leads[i].Clone()
	}
	return out
}

// DisplayName returns the best available label for the lead.
func (l Lead) DisplayName() string {
	switch {
	case l.ShortName != "":
		return l.ShortName
	case l.Name != "" && l.LastName != "":
		return l.Name + " " + l.LastName
	case l.Name != "":
		return l.Name
	case l.Phone != "":
		return l.Phone
	default:
		return "(unnamed)"
	}
}

// HasStructuredTag reports whether the lead carries a structured tag with the
// given name.
func (l Lead) HasStructuredTag(name string) bool {
	for _, tag := range l.StructuredTags {
		if tag.Name == name {
			return true
		}
	}
	return false
}
