package dashboard

import (
	"testing"

	"github.com/cargolink/cargolink/internal/common/apperr"
)

func TestBasisColumn(t *testing.T) {
	cases := []struct {
		basis string
		want  string
	}{
		{"", "created_at"},
		{"createdAt", "created_at"},
		{"pickupDate", "pickup_date"},
	}
	for _, c := range cases {
		got, err := basisColumn(c.basis)
		if err != nil {
			t.Fatalf("basisColumn(%q): %v", c.basis, err)
		}
		if got != c.want {
			t.Fatalf("basisColumn(%q) = %q, want %q", c.basis, got, c.want)
		}
	}
}

func TestBasisColumnRejectsUnknown(t *testing.T) {
	for _, basis := range []string{"updatedAt", "created_at; DROP TABLE orders", "deliveryDate"} {
		_, err := basisColumn(basis)
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("basisColumn(%q): expected validation error, got %v", basis, err)
		}
	}
}
