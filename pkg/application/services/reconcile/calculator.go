package reconcile

import (
	"github.com/shopspring/decimal"
)

// Calculator holds the pure derivation formulas. Every input defaults to
// zero when absent; results are exact decimals and are never clamped, so
// negative balances (a drained hopper, say) survive untouched.
type Calculator struct{}

// NewCalculator creates a new calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Ratio returns perItemQty / referenceQty, or zero when the reference
// quantity is not positive. The zero result is the defined fallback for
// missing BOM data, not an error.
func (c *Calculator) Ratio(perItemQty, referenceQty decimal.Decimal) decimal.Decimal {
	if referenceQty.Sign() <= 0 {
		return decimal.Zero
	}
	return perItemQty.Div(referenceQty)
}

// Issued returns the quantity notionally allocated for the planned
// quantity-to-manufacture.
func (c *Calculator) Issued(ratio, qtyToManufacture decimal.Decimal) decimal.Decimal {
	return ratio.Mul(qtyToManufacture)
}

// Consumption returns the quantity actually used for the realized
// manufactured quantity.
func (c *Calculator) Consumption(ratio, manufacturedQty decimal.Decimal) decimal.Decimal {
	return ratio.Mul(manufacturedQty)
}

// RawClosing returns a Raw Material row's closing stock:
// opening + issued - consumption.
func (c *Calculator) RawClosing(opening, issued, consumption decimal.Decimal) decimal.Decimal {
	return opening.Add(issued).Sub(consumption)
}

// HopperClosing returns the hopper/tray mass balance:
// (addOrUsed + rawConsumptionSum + mipUsed) - (netWeight + mipGenerated + processLoss).
// The same formula prices a Prime Product row's closing stock; only the
// destination field differs.
func (c *Calculator) HopperClosing(addOrUsed, rawConsumptionSum, mipUsed, netWeight, mipGenerated, processLoss decimal.Decimal) decimal.Decimal {
	in := addOrUsed.Add(rawConsumptionSum).Add(mipUsed)
	out := netWeight.Add(mipGenerated).Add(processLoss)
	return in.Sub(out)
}

// MipClosing returns the material-in-process closing quantity:
// opening + generated - used.
func (c *Calculator) MipClosing(opening, generated, used decimal.Decimal) decimal.Decimal {
	return opening.Add(generated).Sub(used)
}

// NetWeight returns gross weight minus packing weight.
func (c *Calculator) NetWeight(gross, packing decimal.Decimal) decimal.Decimal {
	return gross.Sub(packing)
}
