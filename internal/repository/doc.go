// Package repository contains data access implementations for the crop
// advisory API.
//
// # Data Stores
//
//   - postgres: users, farms, fields, crops, sessions, alerts, detections,
//     irrigation schedules and farm activities
//   - clickhouse: time series of soil moisture, mandi prices and weather
//     observations
//
// Repository interfaces are defined at the service layer. Both packages
// report missing rows as apperrors not-found errors.
package repository
