package fee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFee_Recompute(t *testing.T) {
	tests := []struct {
		name     string
		fee      Fee
		wantPaid float64
		wantDue  float64
	}{
		{name: "no payments", fee: Fee{TotalAmount: 1000}, wantPaid: 0, wantDue: 1000},
		{name: "stale amounts ignored", fee: Fee{TotalAmount: 1000, PaidAmount: 999, DueAmount: 1}, wantPaid: 0, wantDue: 1000},
		{
			name:     "partial",
			fee:      Fee{TotalAmount: 1000, Payments: []Payment{{Amount: 250}, {Amount: 100.5}}},
			wantPaid: 350.5,
			wantDue:  649.5,
		},
		{
			name:     "overpaid",
			fee:      Fee{TotalAmount: 100, Payments: []Payment{{Amount: 150}}},
			wantPaid: 150,
			wantDue:  -50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.fee
			f.Recompute()
			assert.Equal(t, tt.wantPaid, f.PaidAmount)
			assert.Equal(t, tt.wantDue, f.DueAmount)
			assert.Equal(t, f.TotalAmount, f.PaidAmount+f.DueAmount)
			assert.NotNil(t, f.Payments)
		})
	}
}
