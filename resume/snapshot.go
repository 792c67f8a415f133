package resume

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Snapshot is the canonical read-only view of a user's active résumé used as
// grounding context for a chat turn. Historical résumé records disagree on
// field naming (snake_case vs camelCase), so every sub-document normalizes
// through a tolerant decoder: either naming convention yields the same
// canonical shape.
type Snapshot struct {
	Name           string            `json:"name"`
	Education      []EducationEntry  `json:"education"`
	Experience     []ExperienceEntry `json:"experience"`
	Skills         []string          `json:"skills"`
	Certifications []string          `json:"certifications"`
}

// EducationEntry is one education record
type EducationEntry struct {
	School    string `json:"school"`
	Degree    string `json:"degree"`
	Field     string `json:"field"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// UnmarshalJSON accepts both snake_case and camelCase keys
func (e *EducationEntry) UnmarshalJSON(data []byte) error {
	raw, err := rawObject(data)
	if err != nil {
		return err
	}
	e.School = firstString(raw, "school", "institution", "School", "Institution")
	e.Degree = firstString(raw, "degree", "Degree")
	e.Field = firstString(raw, "field", "field_of_study", "fieldOfStudy", "Field")
	e.StartDate = firstString(raw, "start_date", "startDate", "from")
	e.EndDate = firstString(raw, "end_date", "endDate", "to")
	return nil
}

// ExperienceEntry is one work-experience record
type ExperienceEntry struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

// UnmarshalJSON accepts both snake_case and camelCase keys
func (e *ExperienceEntry) UnmarshalJSON(data []byte) error {
	raw, err := rawObject(data)
	if err != nil {
		return err
	}
	e.Company = firstString(raw, "company", "employer", "Company")
	e.Title = firstString(raw, "title", "position", "job_title", "jobTitle", "Title")
	e.Location = firstString(raw, "location", "Location")
	e.StartDate = firstString(raw, "start_date", "startDate", "from")
	e.EndDate = firstString(raw, "end_date", "endDate", "to")
	e.Description = firstString(raw, "description", "summary", "Description")
	return nil
}

// StringList decodes a JSONB column that may be a plain string array or an
// array of objects carrying a name field (both shapes exist in stored rows)
type StringList []string

// UnmarshalJSON normalizes either shape into a flat list
func (l *StringList) UnmarshalJSON(data []byte) error {
	var plain []string
	if err := json.Unmarshal(data, &plain); err == nil {
		*l = plain
		return nil
	}

	var objects []map[string]json.RawMessage
	if err := json.Unmarshal(data, &objects); err != nil {
		return fmt.Errorf("string list is neither strings nor objects: %w", err)
	}

	out := make([]string, 0, len(objects))
	for _, obj := range objects {
		if v := firstString(obj, "name", "skill", "title", "Name"); v != "" {
			out = append(out, v)
		}
	}
	*l = out
	return nil
}

// IsEmpty reports whether the snapshot carries no usable grounding content
func (s *Snapshot) IsEmpty() bool {
	return s == nil ||
		(s.Name == "" && len(s.Education) == 0 && len(s.Experience) == 0 &&
			len(s.Skills) == 0 && len(s.Certifications) == 0)
}

// FormatForPrompt renders the snapshot as readable text for the generator
func (s *Snapshot) FormatForPrompt() string {
	var sb strings.Builder

	if s.Name != "" {
		fmt.Fprintf(&sb, "Name: %s\n", s.Name)
	}

	if len(s.Experience) > 0 {
		sb.WriteString("\nExperience:\n")
		for _, exp := range s.Experience {
			fmt.Fprintf(&sb, "- %s at %s", exp.Title, exp.Company)
			if exp.StartDate != "" || exp.EndDate != "" {
				fmt.Fprintf(&sb, " (%s to %s)", exp.StartDate, exp.EndDate)
			}
			sb.WriteByte('\n')
			if exp.Description != "" {
				fmt.Fprintf(&sb, "  %s\n", exp.Description)
			}
		}
	}

	if len(s.Education) > 0 {
		sb.WriteString("\nEducation:\n")
		for _, edu := range s.Education {
			fmt.Fprintf(&sb, "- %s in %s from %s", edu.Degree, edu.Field, edu.School)
			if edu.EndDate != "" {
				fmt.Fprintf(&sb, " (%s)", edu.EndDate)
			}
			sb.WriteByte('\n')
		}
	}

	if len(s.Skills) > 0 {
		fmt.Fprintf(&sb, "\nTechnical Skills: %s\n", strings.Join(s.Skills, ", "))
	}

	if len(s.Certifications) > 0 {
		fmt.Fprintf(&sb, "\nCertifications: %s\n", strings.Join(s.Certifications, ", "))
	}

	return strings.TrimSpace(sb.String())
}

func rawObject(data []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("resume entry is not an object: %w", err)
	}
	return raw, nil
}

// firstString returns the first candidate key that decodes to a non-empty
// string. Non-string values for a matching key are skipped, not failed.
func firstString(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			continue
		}
		if s != "" {
			return s
		}
	}
	return ""
}
