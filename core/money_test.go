package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "400", want: "400.00"},
		{in: "400.5", want: "400.50"},
		{in: "0.01", want: "0.01"},
		{in: "-25.10", want: "-25.10"},
		{in: "1.005", wantErr: errMoneyPrecision},
		{in: "NaN", wantErr: errMoneyMalformed},
		{in: "Inf", wantErr: errMoneyMalformed},
		{in: "12abc", wantErr: errMoneyMalformed},
		{in: "", wantErr: errMoneyMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestMoneyFromFloat(t *testing.T) {
	_, err := MoneyFromFloat(math.NaN())
	assert.Equal(t, errMoneyNotFinite, err)
	_, err = MoneyFromFloat(math.Inf(1))
	assert.Equal(t, errMoneyNotFinite, err)

	m, err := MoneyFromFloat(19.99)
	assert.NoError(t, err)
	assert.Equal(t, "19.99", m.String())
}

func TestMoney_Arithmetic(t *testing.T) {
	total := MustMoney("1000")
	paid := MustMoney("400").Add(MustMoney("0.10"))

	assert.Equal(t, "599.90", total.Sub(paid).String())
	assert.True(t, paid.Sub(total).IsNegative())
	assert.Equal(t, "0.00", paid.Sub(total).ClampedAtZero().String())
	assert.True(t, MustMoney("1000.00").Equal(total))
	assert.Equal(t, -1, paid.Cmp(total))
}

func TestMoney_JSON(t *testing.T) {
	var body struct {
		Amount Money `json:"amount"`
	}
	assert.NoError(t, json.Unmarshal([]byte(`{"amount": 250.75}`), &body))
	assert.Equal(t, "250.75", body.Amount.String())

	assert.NoError(t, json.Unmarshal([]byte(`{"amount": "99"}`), &body))
	assert.Equal(t, "99.00", body.Amount.String())

	assert.Error(t, json.Unmarshal([]byte(`{"amount": "ten"}`), &body))

	data, err := json.Marshal(MustMoney("600.00"))
	assert.NoError(t, err)
	assert.Equal(t, "600", string(data))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	assert.NoError(t, m.Scan(int64(400)))
	assert.Equal(t, "400.00", m.String())
	assert.NoError(t, m.Scan(599.9000000001))
	assert.Equal(t, "599.90", m.String())
	assert.NoError(t, m.Scan([]byte("12.50")))
	assert.Equal(t, "12.50", m.String())
	assert.Equal(t, errMoneyNullScan, m.Scan(nil))
}
