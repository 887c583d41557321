package impl

import (
	"storefront/config"
	"storefront/internal/domain/entity"
)

// shippingMethodExpress is the only method with a raised flat rate; any
// other value falls back to the standard tier.
const shippingMethodExpress = "express"

// pricingRules applies the configured flat tax rate and shipping tiers.
type pricingRules struct {
	taxRate          float64
	shippingStandard float64
	shippingExpress  float64
}

func newPricingRules(cfg *config.PricingConfig) pricingRules {
	if cfg == nil {
		cfg = &config.PricingConfig{}
	}

	return pricingRules{
		taxRate:          cfg.TaxRate,
		shippingStandard: cfg.ShippingStandard,
		shippingExpress:  cfg.ShippingExpress,
	}
}

// priceItem fills the monetary fields of an item from its unit price and
// quantity. Amounts are rounded to cents at each step so stored values are
// exact.
func (p pricingRules) priceItem(item *entity.OrderItem) {
	item.Subtotal = entity.Round2(item.UnitPrice * float64(item.Quantity))
	item.Tax = entity.Round2(item.Subtotal * p.taxRate)
	item.Total = entity.Round2(item.Subtotal + item.Tax - item.Discount)
}

// shippingAmount returns the flat shipping charge for the method. Orders
// without items ship nothing.
func (p pricingRules) shippingAmount(shippingMethod string, itemCount int) float64 {
	if itemCount == 0 {
		return 0
	}
	if shippingMethod == shippingMethodExpress {
		return p.shippingExpress
	}

	return p.shippingStandard
}

// priceOrder recomputes the order's totals from its priced items.
// TotalAmount keeps the invariant subtotal + tax + shipping - discount.
func (p pricingRules) priceOrder(order *entity.Order) {
	var subtotal, tax, discount float64
	for _, item := range order.Items {
		subtotal += item.Subtotal
		tax += item.Tax
		discount += item.Discount
	}

	order.Subtotal = entity.Round2(subtotal)
	order.TaxAmount = entity.Round2(tax)
	order.ShippingAmount = p.shippingAmount(order.ShippingMethod, len(order.Items))
	order.DiscountAmount = entity.Round2(discount)
	order.TotalAmount = entity.Round2(order.Subtotal + order.TaxAmount + order.ShippingAmount - order.DiscountAmount)
}
