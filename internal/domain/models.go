package domain

import (
	"time"
)

// Gender of a profile owner
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// AllGenders lists the accepted gender values
var AllGenders = []Gender{GenderMale, GenderFemale, GenderOther}

// Category classifies a chat turn
type Category string

const (
	CategoryGeneral              Category = "general"
	CategorySymptomCheck         Category = "symptom_check"
	CategoryMedicationAdvice     Category = "medication_advice"
	CategoryDietRecommendation   Category = "diet_recommendation"
	CategoryDoctorRecommendation Category = "doctor_recommendation"
	CategoryMythBusting          Category = "myth_busting"
)

// AllCategories lists the accepted chat categories
var AllCategories = []Category{
	CategoryGeneral,
	CategorySymptomCheck,
	CategoryMedicationAdvice,
	CategoryDietRecommendation,
	CategoryDoctorRecommendation,
	CategoryMythBusting,
}

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationMedicationReminder  NotificationType = "medication_reminder"
	NotificationExerciseTip         NotificationType = "exercise_tip"
	NotificationSeasonalAdvice      NotificationType = "seasonal_advice"
	NotificationAppointmentReminder NotificationType = "appointment_reminder"
	NotificationProfileUpdate       NotificationType = "profile_update"
	NotificationHealthTip           NotificationType = "health_tip"
)

// AllNotificationTypes lists the accepted notification types
var AllNotificationTypes = []NotificationType{
	NotificationMedicationReminder,
	NotificationExerciseTip,
	NotificationSeasonalAdvice,
	NotificationAppointmentReminder,
	NotificationProfileUpdate,
	NotificationHealthTip,
}

// HealthProfile holds the health attributes used to personalize answers.
// Nil pointers and empty strings mean the attribute was never provided.
type HealthProfile struct {
	UserID            uint     `json:"user_id"`
	Name              string   `json:"name,omitempty"`
	Age               *int     `json:"age"`
	Gender            Gender   `json:"gender"`
	HeightCM          *float64 `json:"height_cm"`
	WeightKG          *float64 `json:"weight_kg"`
	MedicalConditions string   `json:"medical_conditions"`
	Allergies         string   `json:"allergies"`
}

// Clone returns a deep copy of the profile
func (p HealthProfile) Clone() HealthProfile {
	out := p
	if p.Age != nil {
		age := *p.Age
		out.Age = &age
	}
	if p.HeightCM != nil {
		height := *p.HeightCM
		out.HeightCM = &height
	}
	if p.WeightKG != nil {
		weight := *p.WeightKG
		out.WeightKG = &weight
	}
	return out
}

// Metadata keys stored on chat turns
const (
	MetadataAppliedUpdates = "appliedUpdates"
)

// ChatTurn is one persisted message/response exchange
type ChatTurn struct {
	ID        string         `json:"id"`
	UserID    uint           `json:"user_id"`
	Message   string         `json:"message"`
	Response  string         `json:"response"`
	Category  Category       `json:"category"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// ChatTurnInput is what the orchestrator hands to ChatStore.Append
type ChatTurnInput struct {
	UserID   uint
	Message  string
	Response string
	Category Category
	Metadata map[string]any
}

// Notification is a reminder or tip addressed to a user
type Notification struct {
	ID           string           `json:"id"`
	UserID       uint             `json:"user_id"`
	Type         NotificationType `json:"type"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	ScheduledFor time.Time        `json:"scheduled_for"`
	IsRead       bool             `json:"is_read"`
	CreatedAt    time.Time        `json:"created_at"`
}

// NotificationInput is what the scheduler hands to NotificationStore.Create
type NotificationInput struct {
	UserID       uint
	Type         NotificationType
	Title        string
	Message      string
	ScheduledFor time.Time
}

// TrendPoint is a single timestamped sample of a tracked metric
type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TrendDirection is the sign of the accumulated change
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// TrendAnalysis summarizes a metric series
type TrendAnalysis struct {
	Direction  TrendDirection `json:"direction"`
	Magnitude  float64        `json:"magnitude"`
	Volatility float64        `json:"volatility"`
}

// GeneralHealth is the best-effort narrative assessment of a profile
type GeneralHealth struct {
	Status      string    `json:"status"`
	Assessment  string    `json:"assessment,omitempty"`
	Notes       []string  `json:"notes,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

// HealthMetrics is the derived metric bundle for a profile.
// BMI is nil when the profile lacks height or weight.
type HealthMetrics struct {
	BMI           *float64       `json:"bmi"`
	BMICategory   string         `json:"bmi_category,omitempty"`
	RiskFactors   []string       `json:"risk_factors"`
	GeneralHealth *GeneralHealth `json:"general_health,omitempty"`
}

// HealthTrends is the 30-day conversational health overview
type HealthTrends struct {
	TimeframeDays      int      `json:"timeframe_days"`
	TotalInteractions  int      `json:"total_interactions"`
	AnalysisText       string   `json:"analysis_text"`
	RecentSymptoms     []string `json:"recent_symptoms"`
	RecommendedActions []string `json:"recommended_actions"`
}

// HealthReport bundles metrics and trends for a user
type HealthReport struct {
	UserID          uint          `json:"user_id"`
	GeneratedAt     time.Time     `json:"generated_at"`
	HealthMetrics   HealthMetrics `json:"health_metrics"`
	Trends          HealthTrends  `json:"trends"`
	Recommendations []string      `json:"recommendations"`
}

// BasicInfo is the body-measurement part of a profile
type BasicInfo struct {
	Age      *int     `json:"age"`
	Gender   Gender   `json:"gender"`
	HeightCM *float64 `json:"height_cm"`
	WeightKG *float64 `json:"weight_kg"`
}

// BasicInfo copies the measurement fields out of the profile
func (p HealthProfile) BasicInfo() BasicInfo {
	c := p.Clone()
	return BasicInfo{Age: c.Age, Gender: c.Gender, HeightCM: c.HeightCM, WeightKG: c.WeightKG}
}

// HealthSummary is the profile overview with the latest symptom and medication turns
type HealthSummary struct {
	BMI               *float64   `json:"bmi"`
	BMICategory       string     `json:"bmi_category,omitempty"`
	BasicInfo         BasicInfo  `json:"basic_info"`
	MedicalConditions string     `json:"medical_conditions"`
	Allergies         string     `json:"allergies"`
	RecentHealthChats []ChatTurn `json:"recent_health_chats"`
}

// SymptomReport lists symptoms mentioned in symptom_check turns of a window
type SymptomReport struct {
	TimeframeDays     int      `json:"timeframe_days"`
	TotalInteractions int      `json:"total_interactions"`
	Symptoms          []string `json:"symptoms"`
}

// RiskAssessment pairs risk factors with recommendations
type RiskAssessment struct {
	RiskFactors     []string  `json:"risk_factors"`
	Recommendations []string  `json:"recommendations"`
	LastUpdated     time.Time `json:"last_updated"`
}

// HealthDashboard is the one-page health overview
type HealthDashboard struct {
	BasicInfo         BasicInfo     `json:"basic_info"`
	HealthMetrics     HealthMetrics `json:"health_metrics"`
	RiskFactors       []string      `json:"risk_factors"`
	RecentActivity    []ChatTurn    `json:"recent_activity"`
	MedicalConditions string        `json:"medical_conditions"`
	Allergies         string        `json:"allergies"`
	LastUpdated       time.Time     `json:"last_updated"`
}
