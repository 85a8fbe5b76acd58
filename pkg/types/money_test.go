package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyMarshalsFixedPlaces(t *testing.T) {
	payload := struct {
		Total Money `json:"total"`
		Zero  Money `json:"zero"`
	}{
		Total: NewMoney(decimal.RequireFromString("39.9")),
		Zero:  NewMoney(decimal.Zero),
	}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"39.90","zero":"0.00"}`, string(raw))
}

func TestMoneyRoundsHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "10.01", NewMoney(decimal.RequireFromString("10.005")).String())
	assert.Equal(t, "-10.01", NewMoney(decimal.RequireFromString("-10.005")).String())
}

func TestMoneyUnmarshalsNumbersAndStrings(t *testing.T) {
	var m Money
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &m))
	assert.Equal(t, "12.50", m.String())

	require.NoError(t, json.Unmarshal([]byte(`"7"`), &m))
	assert.True(t, m.Decimal().Equal(decimal.NewFromInt(7)))
}
