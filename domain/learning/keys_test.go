package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveCustomerKeyPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		identity CustomerIdentity
		want     CustomerKey
	}{
		{
			name:     "email wins over everything",
			identity: CustomerIdentity{Email: " Jane@Example.COM ", CustomerID: "C-100", DisplayName: "Jane Doe"},
			want:     "jane@example.com",
		},
		{
			name:     "customer id when email missing",
			identity: CustomerIdentity{CustomerID: "C-100", DisplayName: "Jane Doe"},
			want:     "c_100",
		},
		{
			name:     "display name as last resort",
			identity: CustomerIdentity{DisplayName: "Jane  Doe"},
			want:     "jane_doe",
		},
		{
			name:     "nothing usable",
			identity: CustomerIdentity{Email: "   ", DisplayName: "!!!"},
			want:     UnknownKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveCustomerKey(tt.identity))
		})
	}
}

func TestDeriveCustomerKeyStableAcrossSources(t *testing.T) {
	a := DeriveCustomerKey(CustomerIdentity{Email: "sam@farm.io"})
	b := DeriveCustomerKey(CustomerIdentity{Email: "SAM@FARM.IO", CustomerID: "other"})
	assert.Equal(t, a, b)
}

func TestDeriveCropKey(t *testing.T) {
	assert.Equal(t, CropKey("sunflower_shoots"), DeriveCropKey(CropIdentity{Title: "Sunflower Shoots"}))
	assert.Equal(t, CropKey("prod_42"), DeriveCropKey(CropIdentity{ProductID: "prod-42"}))
	assert.Equal(t, CropKey(UnknownKey), DeriveCropKey(CropIdentity{}))
}

func TestNormalizeKeyCollapsesRuns(t *testing.T) {
	tests := map[string]string{
		"Pea Shoots (10oz)":  "pea_shoots_10oz",
		"--leading/trailing": "leading_trailing",
		"  spaced   out  ":   "spaced_out",
		"MiXeD123":           "mixed123",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeKey(in), "input %q", in)
	}
}

func TestPairKeyString(t *testing.T) {
	pair := PairKey{Customer: "jane@example.com", Crop: "basil"}
	assert.Equal(t, "jane@example.com|basil", pair.String())
}
