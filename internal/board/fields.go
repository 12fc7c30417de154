package board

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tOgg1/leadboard/internal/models"
)

// Editable lead fields on the detail panel.
const (
	FieldName      = "name"
	FieldLastName  = "last_name"
	FieldShortName = "short_name"
	FieldPhone     = "phone"
	FieldEmail     = "email"
	FieldCompany   = "company"
	FieldAge       = "age"
)

// EditableFields lists the detail-panel fields in display order.
var EditableFields = []string{
	FieldName,
	FieldLastName,
	FieldShortName,
	FieldPhone,
	FieldEmail,
	FieldCompany,
	FieldAge,
}

// FieldPayload builds the partial update body for one edited field. A blank
// input clears the field (null in the payload); age must parse as a
// non-negative integer.
func FieldPayload(field, raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	switch field {
	case FieldName, FieldLastName, FieldShortName, FieldPhone, FieldEmail, FieldCompany:
		if raw == "" {
			return map[string]any{field: nil}, nil
		}
		return map[string]any{field: raw}, nil
	case FieldAge:
		if raw == "" {
			return map[string]any{field: nil}, nil
		}
		age, err := strconv.Atoi(raw)
		if err != nil || age < 0 {
			return nil, fmt.Errorf("age must be a non-negative number, got %q", raw)
		}
		return map[string]any{field: age}, nil
	default:
		return nil, fmt.Errorf("unknown field %q", field)
	}
}

// FieldValue reads the current value of an editable field for prefilling the
// inline editor.
func FieldValue(lead models.Lead, field string) string {
	switch field {
	case FieldName:
		return lead.Name
	case FieldLastName:
		return lead.LastName
	case FieldShortName:
		return lead.ShortName
	case FieldPhone:
		return lead.Phone
	case FieldEmail:
		return lead.Email
	case FieldCompany:
		return lead.Company
	case FieldAge:
		if lead.Age == nil {
			return ""
		}
		return strconv.Itoa(*lead.Age)
	default:
		return ""
	}
}

// ApplyField writes an edited value onto a lead copy for the optimistic
// refresh that precedes the backend response. raw must already have passed
// FieldPayload validation.
func ApplyField(lead models.Lead, field, raw string) models.Lead {
	updated := lead.Clone()
	raw = strings.TrimSpace(raw)
	switch field {
	case FieldName:
		updated.Name = raw
	case FieldLastName:
		updated.LastName = raw
	case FieldShortName:
		updated.ShortName = raw
	case FieldPhone:
		updated.Phone = raw
	case FieldEmail:
		updated.Email = raw
	case FieldCompany:
		updated.Company = raw
	case FieldAge:
		if raw == "" {
			updated.Age = nil
		} else if age, err := strconv.Atoi(raw); err == nil {
			updated.Age = &age
		}
	}
	return updated
}
