// Package advisory produces farm-level advice. Engine is a seeded stand-in
// for a trained model; Aggregator merges its output with the suitability,
// moisture, market and weather analyses into one ranked list.
package advisory
