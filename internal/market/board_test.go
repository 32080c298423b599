package market

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agmarkBoard = `<html><body>
<table id="nav"><tr><td>Home</td><td>About</td></tr></table>
<table class="tableagmark">
  <thead>
    <tr><th>Sl no.</th><th>State</th><th>Market Name</th><th>Commodity</th><th>Variety</th>
        <th>Arrivals (Tonnes)</th><th>Min Price (Rs./Quintal)</th><th>Max Price (Rs./Quintal)</th>
        <th>Modal Price (Rs./Quintal)</th><th>Price Date</th></tr>
  </thead>
  <tbody>
    <tr><td>1</td><td>Maharashtra</td><td>Lasalgaon</td><td>Onion</td><td>Red</td>
        <td>1,250</td><td>1,400</td><td>2,100</td><td>1,850</td><td>14/10/2026</td></tr>
    <tr><td>2</td><td>Maharashtra</td><td>Pimpalgaon</td><td>Onion</td><td>Red</td>
        <td>800</td><td>1,500</td><td>2,000</td><td>2,300</td><td>14/10/2026</td></tr>
    <tr><td>3</td><td>Karnataka</td><td>Hubli</td><td>Onion</td><td>Local</td>
        <td>300</td><td>₹ 1,200</td><td>₹ 1,900</td><td>₹ 1,600</td><td>2026-10-14</td></tr>
    <tr><td>4</td><td>Karnataka</td><td></td><td>Onion</td><td>Local</td>
        <td>300</td><td>1,200</td><td>1,900</td><td>1,600</td><td>2026-10-14</td></tr>
  </tbody>
</table>
</body></html>`

func TestParseBoard(t *testing.T) {
	res, err := ParseBoard(strings.NewReader(agmarkBoard), BoardDefaults{Unit: "quintal"})
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "min <= modal <= max")
	assert.Contains(t, res.Warnings[1], "missing market")

	first := res.Rows[0]
	assert.Equal(t, "Onion", first.Commodity)
	assert.Equal(t, "Lasalgaon", first.Market)
	assert.Equal(t, "Maharashtra", first.State)
	assert.Equal(t, "Red", first.Variety)
	assert.Equal(t, 1400.0, first.MinPrice)
	assert.Equal(t, 2100.0, first.MaxPrice)
	assert.Equal(t, 1850.0, first.ModalPrice)
	assert.Equal(t, 1250.0, first.ArrivalQuantity)
	assert.Equal(t, "quintal", first.Unit)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), first.PriceDate)

	assert.Equal(t, "Hubli", res.Rows[1].Market)
	assert.Equal(t, 1600.0, res.Rows[1].ModalPrice)
}

func TestParseBoard_DefaultsAndHeaderRow(t *testing.T) {
	html := `<table>
	  <tr><td>Mandi</td><td>Price</td></tr>
	  <tr><td>Azadpur</td><td>3200</td></tr>
	</table>`
	day := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	res, err := ParseBoard(strings.NewReader(html), BoardDefaults{Commodity: "Tomato", Date: day, Unit: "kg"})
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	row := res.Rows[0]
	assert.Equal(t, "Tomato", row.Commodity)
	assert.Equal(t, "Azadpur", row.Market)
	assert.Equal(t, 3200.0, row.MinPrice)
	assert.Equal(t, 3200.0, row.MaxPrice)
	assert.Equal(t, day, row.PriceDate)
	assert.Equal(t, "kg", row.Unit)
	assert.Zero(t, res.Skipped)
}

func TestParseBoard_NoTable(t *testing.T) {
	_, err := ParseBoard(strings.NewReader(`<p>nothing here</p>`), BoardDefaults{})
	assert.ErrorIs(t, err, ErrNoPriceTable)
}

func TestParsePrice(t *testing.T) {
	v, err := parsePrice("Rs. 1,234.50")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, v)

	_, err = parsePrice("n/a")
	assert.Error(t, err)
	_, err = parsePrice("-5")
	assert.Error(t, err)
}
