package domain

import "testing"

func TestSplitPayment(t *testing.T) {
	tests := []struct {
		name       string
		price      int64
		paid       int64
		feePercent int64
		want       FeeSplit
	}{
		{
			name:  "exact payment with 2 percent fee",
			price: 100, paid: 100, feePercent: 2,
			want: FeeSplit{Fee: 2, Seller: 98, Refund: 0},
		},
		{
			name:  "truncating division favors the seller",
			price: 101, paid: 101, feePercent: 2,
			want: FeeSplit{Fee: 2, Seller: 99, Refund: 0},
		},
		{
			name:  "overpayment refunded exactly",
			price: 50, paid: 60, feePercent: 2,
			want: FeeSplit{Fee: 1, Seller: 49, Refund: 10},
		},
		{
			name:  "zero fee percent",
			price: 100, paid: 150, feePercent: 0,
			want: FeeSplit{Fee: 0, Seller: 100, Refund: 50},
		},
		{
			name:  "hundred percent fee",
			price: 33, paid: 33, feePercent: 100,
			want: FeeSplit{Fee: 33, Seller: 0, Refund: 0},
		},
		{
			name:  "price below fee granularity",
			price: 1, paid: 1, feePercent: 2,
			want: FeeSplit{Fee: 0, Seller: 1, Refund: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitPayment(tt.price, tt.paid, tt.feePercent)
			if got != tt.want {
				t.Fatalf("SplitPayment(%d, %d, %d) = %+v, want %+v",
					tt.price, tt.paid, tt.feePercent, got, tt.want)
			}
		})
	}
}
