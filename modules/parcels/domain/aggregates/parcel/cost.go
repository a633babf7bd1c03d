package parcel

// CalculateDeliveryCost computes the delivery cost in cents from the parcel
// weight (kg), the declared content value in cents, and the USD exchange
// rate. The rate is converted to cents after the weight/value combination
// and the result truncates toward zero; both details are load-bearing for
// reproducing historical costs, do not reorder.
func CalculateDeliveryCost(weight float64, contentValueCents int64, rate float64) int64 {
	rateCents := rate * 100
	return int64((weight*0.5 + float64(contentValueCents)*0.01) * rateCents)
}
