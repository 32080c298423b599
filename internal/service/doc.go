// Package service contains the business logic layer of the crop advisory API.
//
// Services coordinate between handlers and repositories. They enforce farm
// ownership, validate cross-entity rules such as field area limits, and
// combine weather, soil moisture and market data into advice.
//
// Repository interfaces are declared here, next to the services that consume
// them, and implemented in the repository packages.
//
// # Optional Collaborators
//
// Several services accept collaborators through setters (SetWeather,
// SetAlerts, SetPublisher, SetQueue). When a collaborator is absent the
// service degrades: advice is generated without live weather, alerts are not
// raised, and report exports return an unavailable error.
//
// # Thread Safety
//
// All services are safe for concurrent use from multiple goroutines.
package service
