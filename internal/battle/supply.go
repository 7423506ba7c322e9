package battle

// Stock is the front-line supply stock available to the attacker. Values
// never go negative: consumption is capped at what is available.
type Stock struct {
	Ammo float64
	Fuel float64
	Med  float64
}

// SupplyUsage records one supply class's before/spent/ratio figures for a
// single day. Ratio is available-over-required capped at 1; a ratio below 1
// marks the class as short for the day.
type SupplyUsage struct {
	Before   float64
	Required float64
	Spent    float64
	Ratio    float64
	Short    bool
}

// SupplySnapshot bundles the per-class usage records for one day.
type SupplySnapshot struct {
	Ammo SupplyUsage
	Fuel SupplyUsage
	Med  SupplyUsage
}

// ShortClasses lists the supply classes that ran short, in fixed order.
func (s SupplySnapshot) ShortClasses() []string {
	var short []string
	if s.Ammo.Short {
		short = append(short, "ammo")
	}
	if s.Fuel.Short {
		short = append(short, "fuel")
	}
	if s.Med.Short {
		short = append(short, "med")
	}
	return short
}
