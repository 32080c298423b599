package agronomy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

func TestExtraterrestrialRadiation(t *testing.T) {
	// FAO-56 example 8: 20°S, 3 September
	assert.InDelta(t, 32.2, ExtraterrestrialRadiation(-20.9, 246), 0.5)
}

func TestAtmosphericPressure(t *testing.T) {
	assert.InDelta(t, 101.3, AtmosphericPressure(0), 0.01)
	// FAO-56 example 2: 1800 m
	assert.InDelta(t, 81.8, AtmosphericPressure(1800), 0.1)
}

func TestReferenceET(t *testing.T) {
	rs := 22.07
	// FAO-56 example 18, Uccle on 6 July
	in := domain.ET0Input{
		TempMax:        21.5,
		TempMin:        12.3,
		HumidityMean:   73.5,
		WindSpeed:      2.078,
		SolarRadiation: &rs,
		Latitude:       50.8,
		Elevation:      100,
		DayOfYear:      187,
	}

	t.Run("with measured radiation", func(t *testing.T) {
		et0, method := ReferenceET(in)
		assert.InDelta(t, 3.9, et0, 0.2)
		assert.Equal(t, MethodPenmanMonteith, method)
	})

	t.Run("estimates radiation when missing", func(t *testing.T) {
		noRs := in
		noRs.SolarRadiation = nil
		et0, method := ReferenceET(noRs)
		assert.Equal(t, MethodHargreavesRs, method)
		assert.Greater(t, et0, 2.5)
		assert.Less(t, et0, 5.0)
	})

	t.Run("never negative", func(t *testing.T) {
		cold := domain.ET0Input{TempMax: -5, TempMin: -20, HumidityMean: 100, Latitude: 70, DayOfYear: 355}
		et0, _ := ReferenceET(cold)
		assert.GreaterOrEqual(t, et0, 0.0)
	})
}

func TestCropET(t *testing.T) {
	rs := 22.07
	in := domain.ET0Input{
		TempMax: 21.5, TempMin: 12.3, HumidityMean: 73.5, WindSpeed: 2.078,
		SolarRadiation: &rs, Latitude: 50.8, Elevation: 100, DayOfYear: 187,
	}

	tests := []struct {
		stage domain.GrowthStage
		kc    float64
	}{
		{domain.StageInitial, 0.4},
		{domain.StageDevelopment, 0.8},
		{domain.StageMid, 1.15},
		{domain.StageLate, 0.8},
		{domain.StageFallow, 0},
		{domain.StageHarvested, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			res := CropET(in, tt.stage)
			assert.Equal(t, tt.kc, res.Kc)
			assert.InDelta(t, res.ET0*tt.kc, res.ETc, 0.02)
			assert.Equal(t, tt.stage, res.GrowthStage)
		})
	}
}
