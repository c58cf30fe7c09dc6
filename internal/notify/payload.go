package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Alert kinds accepted by the dispatch endpoint.
const (
	KindAppointmentConfirmation = "appointment_confirmation"
	KindMedicationReminder      = "medication_reminder"
	KindCriticalPrediction      = "critical_health_prediction"
	KindTestRecommendation      = "medical_test_recommendation"
)

// Payload is a tagged message variant with one renderer per kind, so adding a
// kind means adding a type rather than another string branch.
type Payload interface {
	Kind() string
	Render() string
}

// AppointmentConfirmation is sent after a successful reservation.
type AppointmentConfirmation struct {
	DoctorName string `json:"doctor_name"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

func (AppointmentConfirmation) Kind() string { return KindAppointmentConfirmation }

func (p AppointmentConfirmation) Render() string {
	return fmt.Sprintf(
		"Great! Your appointment with %s is confirmed for %s at %s. You will receive a confirmation email shortly.",
		p.DoctorName, p.Date, p.Time,
	)
}

// MedicationReminder nudges a patient about a due medication task. TaskID, when
// set, lets the dispatcher mark the originating task notified after delivery.
type MedicationReminder struct {
	TaskID       uuid.UUID `json:"task_id,omitempty"`
	MedicineName string    `json:"medicine_name"`
	Dosage       string    `json:"dosage,omitempty"`
}

func (MedicationReminder) Kind() string { return KindMedicationReminder }

func (p MedicationReminder) Render() string {
	var b strings.Builder
	b.WriteString("🔔 Medication Reminder\n\n")
	b.WriteString("Time to take: " + p.MedicineName + "\n")
	if p.Dosage != "" {
		b.WriteString("Dosage: " + p.Dosage + "\n")
	}
	b.WriteString("\nPlease take your medication as prescribed.")
	return b.String()
}

// CriticalPrediction alerts a patient to a high-risk condition predicted by the
// risk-analysis pipeline.
type CriticalPrediction struct {
	ConditionName   string   `json:"condition_name"`
	RiskLevel       string   `json:"risk_level"`
	RiskScore       *float64 `json:"risk_score,omitempty"`
	Description     string   `json:"description,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

func (CriticalPrediction) Kind() string { return KindCriticalPrediction }

func (p CriticalPrediction) Render() string {
	var b strings.Builder
	b.WriteString("🚨 Critical Health Alert\n\n")
	b.WriteString("Condition: " + p.ConditionName + "\n")
	b.WriteString("Risk Level: " + strings.ToUpper(p.RiskLevel) + "\n")
	if p.RiskScore != nil {
		fmt.Fprintf(&b, "Risk Score: %g/100\n", *p.RiskScore)
	}
	if p.Description != "" {
		b.WriteString("\n" + p.Description + "\n")
	}

	b.WriteString("\nRecommended Actions:\n")
	recs := p.Recommendations
	if len(recs) > 3 {
		recs = recs[:3]
	}
	if len(recs) == 0 {
		recs = []string{"Consult your healthcare provider immediately"}
	}
	for i, rec := range recs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}

	b.WriteString("\nNext Steps:\n")
	b.WriteString("1. Review the full details in your health dashboard\n")
	b.WriteString("2. Consult with your healthcare provider\n")
	b.WriteString("3. Follow the recommended actions above")
	return b.String()
}

// TestRecommendation asks a patient to schedule a recommended medical test.
type TestRecommendation struct {
	TestName             string `json:"test_name"`
	PriorityLevel        string `json:"priority_level,omitempty"`
	TestCategory         string `json:"test_category,omitempty"`
	Reason               string `json:"reason,omitempty"`
	RecommendedFrequency string `json:"recommended_frequency,omitempty"`
}

func (TestRecommendation) Kind() string { return KindTestRecommendation }

func (p TestRecommendation) Render() string {
	priority := strings.ToUpper(p.PriorityLevel)
	if priority == "" {
		priority = "HIGH"
	}

	var b strings.Builder
	b.WriteString("⚕️ Medical Test Recommendation\n\n")
	b.WriteString("Test: " + p.TestName + "\n")
	b.WriteString("Priority: " + priority + "\n")
	if p.TestCategory != "" {
		b.WriteString("Category: " + p.TestCategory + "\n")
	}
	if p.Reason != "" {
		b.WriteString("\nReason: " + p.Reason + "\n")
	}
	if p.RecommendedFrequency != "" {
		b.WriteString("Recommended Frequency: " + p.RecommendedFrequency + "\n")
	}
	b.WriteString("\nAction Required:\n")
	b.WriteString("Please schedule this test as soon as possible. Contact your healthcare provider to book an appointment.")
	return b.String()
}

// GenericAlert is the fallback for unrecognized kinds.
type GenericAlert struct {
	OriginalKind string `json:"-"`
}

func (p GenericAlert) Kind() string {
	if p.OriginalKind != "" {
		return p.OriginalKind
	}
	return "generic"
}

func (GenericAlert) Render() string {
	return "You have a new health alert. Please check your health dashboard for details."
}

// ParsePayload maps a kind tag plus raw JSON to its variant. Unrecognized
// kinds fall back to GenericAlert rather than failing the trigger.
func ParsePayload(kind string, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	switch kind {
	case KindAppointmentConfirmation:
		var p AppointmentConfirmation
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parse %s payload: %w", kind, err)
		}
		return p, nil
	case KindMedicationReminder:
		var p MedicationReminder
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parse %s payload: %w", kind, err)
		}
		return p, nil
	case KindCriticalPrediction:
		var p CriticalPrediction
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parse %s payload: %w", kind, err)
		}
		return p, nil
	case KindTestRecommendation:
		var p TestRecommendation
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parse %s payload: %w", kind, err)
		}
		return p, nil
	default:
		return GenericAlert{OriginalKind: kind}, nil
	}
}
