package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "plain", text: "3.50", want: "3.50"},
		{name: "dollar sign", text: "$3.50", want: "3.50"},
		{name: "thousands separator", text: "$1,250.00", want: "1250"},
		{name: "surrounding space", text: "  $4 ", want: "4"},
		{name: "empty", text: "", wantErr: true},
		{name: "only symbol", text: "$", wantErr: true},
		{name: "words", text: "Call us", wantErr: true},
		{name: "negative", text: "-$2.00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.text)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPrice)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestCardExtract(t *testing.T) {
	c := Card{
		ID:        "espresso",
		Name:      " Espresso ",
		PriceText: "$3.50",
		Image:     "https://cdn.example.com/images/espresso.png?v=2",
	}

	name, price, image, err := c.Extract()
	require.NoError(t, err)
	assert.Equal(t, "Espresso", name)
	assert.True(t, decimal.RequireFromString("3.5").Equal(price))
	assert.Equal(t, "espresso.png", image)
}

func TestCardExtract_AltPrice(t *testing.T) {
	c := Card{ID: "v60", Name: "V60 Dripper", AltPriceText: "$1,200", Image: "images/v60.jpg"}

	_, price, image, err := c.Extract()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1200).Equal(price))
	assert.Equal(t, "v60.jpg", image)
}

func TestCardExtract_InvalidPrice(t *testing.T) {
	c := Card{ID: "mystery", Name: "Mystery", PriceText: "ask"}

	_, _, _, err := c.Extract()
	require.ErrorIs(t, err, ErrInvalidPrice)
	assert.Contains(t, err.Error(), "mystery")
}

func TestProductNotFoundError(t *testing.T) {
	var err error = &ProductNotFoundError{ProductID: "p9"}
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "product p9 not found", err.Error())
}

func TestFilter(t *testing.T) {
	cards := []Card{
		{ID: "1", Name: "Espresso"},
		{ID: "2", Name: "Iced Latte"},
		{ID: "3", Name: "Latte Art Pitcher"},
	}

	res := Filter(cards, "LATTE")
	assert.Equal(t, `Searching for: "latte"`, res.Message)
	require.Len(t, res.Visible, 2)
	assert.Equal(t, "2", res.Visible[0].ID)
	assert.Equal(t, "3", res.Visible[1].ID)
	require.Len(t, res.Hidden, 1)
	assert.Equal(t, "1", res.Hidden[0].ID)

	res = Filter(cards, "Café \"N\tx")
	assert.Equal(t, "Searching for: \"café \"n\tx\"", res.Message)
	assert.Empty(t, res.Visible)

	res = Filter(cards, "")
	assert.Empty(t, res.Message)
	assert.Len(t, res.Visible, 3)
	assert.Empty(t, res.Hidden)
}

func TestFormatPrice(t *testing.T) {
	tests := map[string]string{
		"0":          "$0.00",
		"3.5":        "$3.50",
		"999.999":    "$1,000.00",
		"1250":       "$1,250.00",
		"1234567.89": "$1,234,567.89",
	}
	for in, want := range tests {
		got := FormatPrice(decimal.RequireFromString(in))
		assert.Equal(t, want, got, "input %s", in)

		back, err := ParsePrice(got)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString(in).Round(2).Equal(back))
	}
}
