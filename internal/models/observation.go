package models

import (
	"time"
)

// ObservationType classifies a logged interaction.
type ObservationType string

const (
	ObservationNote     ObservationType = "note"
	ObservationCall     ObservationType = "call"
	ObservationWhatsapp ObservationType = "whatsapp"
	ObservationEmail    ObservationType = "email"
	ObservationMeeting  ObservationType = "meeting"
)

// ObservationTypes lists all valid interaction types in display order.
var ObservationTypes = []ObservationType{
	ObservationNote,
	ObservationCall,
	ObservationWhatsapp,
	ObservationEmail,
	ObservationMeeting,
}

// Observation is a timestamped interaction log entry attached to a lead or a
// contact (exactly one of the two). Append-only except explicit delete; never
// edited in place.
type Observation struct {
	// ID is the unique identifier for the observation.
	ID string `json:"id"`

	// LeadID is set when the observation belongs to a lead.
	LeadID string `json:"lead_id,omitempty"`

	// ContactID is set when the observation belongs to a contact.
	ContactID string `json:"contact_id,omitempty"`

	// Type classifies the interaction.
	Type ObservationType `json:"type"`

	// Notes is the interaction text.
	Notes string `json:"notes"`

	// CreatedByName is the display name of the author.
	CreatedByName string `json:"created_by_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks observation fields required before a create request.
func (o *Observation) Validate() error {
	validation := &ValidationErrors{}
	if o.LeadID == "" && o.ContactID == "" {
		validation.AddMessage("lead_id", "observation must reference a lead or a contact")
	}
	if o.LeadID != "" && o.ContactID != "" {
		validation.AddMessage("contact_id", "observation cannot reference both a lead and a contact")
	}
	if !validObservationType(o.Type) {
		validation.AddMessage("type", "unknown observation type")
	}
	if isBlank(o.Notes) {
		validation.AddMessage("notes", "observation text is required")
	}
	return validation.Err()
}

func validObservationType(t ObservationType) bool {
	for _, known := range ObservationTypes {
		if t == known {
			return true
		}
	}
	return false
}
