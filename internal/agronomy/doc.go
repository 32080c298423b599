// Package agronomy holds the field-level calculations behind crop and
// irrigation advice: FAO-56 reference evapotranspiration, soil moisture
// grading, the root-zone water balance used to plan irrigation, crop
// suitability scoring, yield estimates and the disease catalogue.
//
// Everything here is a pure function of its inputs. Callers supply the
// clock and the data, which keeps the package free of storage concerns.
package agronomy
