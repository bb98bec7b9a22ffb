package domain

// FeeSplit is the result of dividing a buyer's payment between the
// seller, the marketplace fee pool, and the buyer's own refund.
type FeeSplit struct {
	Fee    int64 // retained by the fee pool
	Seller int64 // paid to the seller
	Refund int64 // overpayment returned to the buyer
}

// SplitPayment computes the fee split for a completed sale or auction.
// price is the listing price (or reserve price), paid the amount the
// buyer actually submitted, feePercent a whole-number percentage.
//
// The arithmetic is integer and truncating, and the evaluation order
// (multiply by feePercent, then divide by 100, then subtract from
// price) is fixed: reordering shifts which party absorbs the rounding
// remainder.
func SplitPayment(price, paid, feePercent int64) FeeSplit {
	fee := price * feePercent / 100
	return FeeSplit{
		Fee:    fee,
		Seller: price - fee,
		Refund: paid - price,
	}
}
