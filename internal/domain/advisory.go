package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of an advisory session
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionArchived  SessionStatus = "archived"
)

// IsValid checks if the status is valid
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionActive, SessionCompleted, SessionArchived:
		return true
	}
	return false
}

// RecommendationCategory is the topic of a recommendation
type RecommendationCategory string

const (
	CategoryCrop       RecommendationCategory = "crop"
	CategoryIrrigation RecommendationCategory = "irrigation"
	CategoryFertilizer RecommendationCategory = "fertilizer"
	CategoryPest       RecommendationCategory = "pest"
	CategoryMarket     RecommendationCategory = "market"
	CategoryWeather    RecommendationCategory = "weather"
)

// Recommendation is a single actionable piece of advice
type Recommendation struct {
	Category    RecommendationCategory `json:"category"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Priority    Priority               `json:"priority"`
	Confidence  float64                `json:"confidence"`
	ActionItems []string               `json:"actionItems,omitempty"`
}

// AdvisorySession is a farmer's advisory conversation about one farm
type AdvisorySession struct {
	ID              uuid.UUID        `json:"id"`
	FarmID          uuid.UUID        `json:"farmId"`
	UserID          uuid.UUID        `json:"userId"`
	Title           string           `json:"title"`
	Query           string           `json:"query,omitempty"`
	Season          Season           `json:"season,omitempty"`
	Status          SessionStatus    `json:"status"`
	Recommendations []Recommendation `json:"recommendations"`
	Summary         string           `json:"summary,omitempty"`
	Confidence      float64          `json:"confidence"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
}

// SessionInput represents input for starting a session
type SessionInput struct {
	FarmID uuid.UUID `json:"farmId" validate:"required"`
	Title  string    `json:"title" validate:"required,min=3,max=200"`
	Query  string    `json:"query" validate:"max=4000"`
	Season Season    `json:"season,omitempty" validate:"omitempty,season"`
}

// SessionUpdateInput represents a partial session update
type SessionUpdateInput struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Query   *string `json:"query,omitempty" validate:"omitempty,max=4000"`
	Season  *Season `json:"season,omitempty" validate:"omitempty,season"`
	Summary *string `json:"summary,omitempty" validate:"omitempty,max=4000"`
}

// SessionFilter filters session listings
type SessionFilter struct {
	UserID *uuid.UUID
	FarmID *uuid.UUID
	Status *SessionStatus
}

// AdviceRequest asks for one-shot advice about a farm
type AdviceRequest struct {
	FarmID   uuid.UUID  `json:"farmId" validate:"required"`
	CropID   *uuid.UUID `json:"cropId,omitempty"`
	FieldID  *uuid.UUID `json:"fieldId,omitempty"`
	Season   Season     `json:"season,omitempty" validate:"omitempty,season"`
	Question string     `json:"question,omitempty" validate:"max=2000"`
}

// AdviceSection is one topical block of the engine's output
type AdviceSection struct {
	Score   float64  `json:"score"`
	Status  string   `json:"status"`
	Summary string   `json:"summary"`
	Actions []string `json:"actions,omitempty"`
}

// ComprehensiveAdvice is the advisory engine's full answer for a farm
type ComprehensiveAdvice struct {
	FarmID          uuid.UUID        `json:"farmId"`
	CropName        string           `json:"cropName,omitempty"`
	Weather         AdviceSection    `json:"weather"`
	Crop            AdviceSection    `json:"crop"`
	Irrigation      AdviceSection    `json:"irrigation"`
	Fertilizer      AdviceSection    `json:"fertilizer"`
	Pest            AdviceSection    `json:"pest"`
	Market          AdviceSection    `json:"market"`
	OverallScore    float64          `json:"overallScore"`
	Confidence      float64          `json:"confidence"`
	Recommendations []Recommendation `json:"recommendations"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// AlertType classifies alerts
type AlertType string

const (
	AlertWeather    AlertType = "weather"
	AlertMoisture   AlertType = "moisture"
	AlertDisease    AlertType = "disease"
	AlertMarket     AlertType = "market"
	AlertAdvisory   AlertType = "advisory"
	AlertIrrigation AlertType = "irrigation"
)

// Alert is a notification shown to a user, optionally tied to a farm
type Alert struct {
	ID        uuid.UUID  `json:"id"`
	FarmID    *uuid.UUID `json:"farmId,omitempty"`
	UserID    uuid.UUID  `json:"userId"`
	Type      AlertType  `json:"type"`
	Severity  Severity   `json:"severity"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	IsRead    bool       `json:"isRead"`
	CreatedAt time.Time  `json:"createdAt"`
}

// AlertFilter filters alert listings
type AlertFilter struct {
	UserID     uuid.UUID
	FarmID     *uuid.UUID
	UnreadOnly bool
}
