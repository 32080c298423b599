// Package domain contains the entities and value types of the crop advisory
// service.
//
// # Key Entities
//
//   - User, UserProfile: accounts and farmer profiles
//   - Farm, FarmActivity: farms owned by a user and their audit trail
//   - AdvisorySession, Recommendation, Alert: advisory conversations and outcomes
//   - Crop, Field, DiseaseDetection: crop catalogue, planted fields, image diagnoses
//   - IrrigationSchedule, SoilMoistureReading: irrigation planning inputs and outputs
//   - MarketPrice: mandi price observations
//   - WeatherObservation, DailyForecast, WeatherAlert: weather integration
//
// # Naming Conventions
//
// Types ending in "Input" are used for create/update operations.
// Types ending in "Filter" are used for query operations.
// Areas are hectares, water depths millimetres, temperatures degrees Celsius.
package domain
