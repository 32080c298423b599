// Package validator wraps go-playground/validator with the agronomy enum tags
// (soiltype, irrigationtype, season, cropcategory, growthstage) and turns
// failures into field/message pairs keyed by JSON name.
package validator
