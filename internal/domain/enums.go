package domain

// SoilType classifies the dominant soil of a farm or field
type SoilType string

const (
	SoilClay     SoilType = "clay"
	SoilSandy    SoilType = "sandy"
	SoilLoamy    SoilType = "loamy"
	SoilSilt     SoilType = "silt"
	SoilPeat     SoilType = "peat"
	SoilChalk    SoilType = "chalk"
	SoilBlack    SoilType = "black"
	SoilRed      SoilType = "red"
	SoilAlluvial SoilType = "alluvial"
)

// SoilTypes lists every accepted soil type
var SoilTypes = []SoilType{SoilClay, SoilSandy, SoilLoamy, SoilSilt, SoilPeat, SoilChalk, SoilBlack, SoilRed, SoilAlluvial}

// IsValid checks if the soil type is valid
func (s SoilType) IsValid() bool {
	for _, v := range SoilTypes {
		if s == v {
			return true
		}
	}
	return false
}

// IrrigationType is the irrigation method used on a farm
type IrrigationType string

const (
	IrrigationDrip        IrrigationType = "drip"
	IrrigationSprinkler   IrrigationType = "sprinkler"
	IrrigationFlood       IrrigationType = "flood"
	IrrigationFurrow      IrrigationType = "furrow"
	IrrigationCenterPivot IrrigationType = "center_pivot"
	IrrigationRainfed     IrrigationType = "rainfed"
)

// IsValid checks if the irrigation type is valid
func (t IrrigationType) IsValid() bool {
	switch t {
	case IrrigationDrip, IrrigationSprinkler, IrrigationFlood, IrrigationFurrow, IrrigationCenterPivot, IrrigationRainfed:
		return true
	}
	return false
}

// Efficiency is the fraction of applied water that reaches the root zone
func (t IrrigationType) Efficiency() float64 {
	switch t {
	case IrrigationDrip:
		return 0.9
	case IrrigationSprinkler, IrrigationCenterPivot:
		return 0.75
	case IrrigationFurrow:
		return 0.6
	case IrrigationFlood:
		return 0.5
	}
	return 1
}

// Season is a cropping season
type Season string

const (
	SeasonKharif    Season = "kharif"
	SeasonRabi      Season = "rabi"
	SeasonZaid      Season = "zaid"
	SeasonPerennial Season = "perennial"
)

// IsValid checks if the season is valid
func (s Season) IsValid() bool {
	switch s {
	case SeasonKharif, SeasonRabi, SeasonZaid, SeasonPerennial:
		return true
	}
	return false
}

// CropCategory groups crops by use
type CropCategory string

const (
	CategoryCereal    CropCategory = "cereal"
	CategoryPulse     CropCategory = "pulse"
	CategoryOilseed   CropCategory = "oilseed"
	CategoryVegetable CropCategory = "vegetable"
	CategoryFruit     CropCategory = "fruit"
	CategoryCash      CropCategory = "cash"
	CategoryFiber     CropCategory = "fiber"
	CategorySpice     CropCategory = "spice"
)

// IsValid checks if the category is valid
func (c CropCategory) IsValid() bool {
	switch c {
	case CategoryCereal, CategoryPulse, CategoryOilseed, CategoryVegetable, CategoryFruit, CategoryCash, CategoryFiber, CategorySpice:
		return true
	}
	return false
}

// GrowthStage is the FAO-56 crop development stage of a field
type GrowthStage string

const (
	StageFallow      GrowthStage = "fallow"
	StageInitial     GrowthStage = "initial"
	StageDevelopment GrowthStage = "development"
	StageMid         GrowthStage = "mid"
	StageLate        GrowthStage = "late"
	StageHarvested   GrowthStage = "harvested"
)

// IsValid checks if the growth stage is valid
func (g GrowthStage) IsValid() bool {
	switch g {
	case StageFallow, StageInitial, StageDevelopment, StageMid, StageLate, StageHarvested:
		return true
	}
	return false
}

// IsGrowing reports whether a crop is standing in the field
func (g GrowthStage) IsGrowing() bool {
	switch g {
	case StageInitial, StageDevelopment, StageMid, StageLate:
		return true
	}
	return false
}

// Priority orders recommendations and alerts
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank returns a sortable weight, higher is more urgent
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Severity grades alerts and disease findings
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// UserRole is the role recorded on a user profile
type UserRole string

const (
	RoleFarmer UserRole = "farmer"
	RoleExpert UserRole = "expert"
	RoleAdmin  UserRole = "admin"
)

// IsValid checks if the role is valid
func (r UserRole) IsValid() bool {
	switch r {
	case RoleFarmer, RoleExpert, RoleAdmin:
		return true
	}
	return false
}
