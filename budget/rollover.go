package budget

// =============================================================================
// ROLLOVER POLICY - What portion of a remainder carries forward
// =============================================================================

// CarryoverOut computes how much of a cycle's base remainder becomes
// carryover under the given rollover mode:
//
//	none     -> 0 regardless of sign
//	positive -> max(remainingBase, 0)  (only surplus carries)
//	negative -> min(remainingBase, 0)  (only deficit carries)
//	both     -> remainingBase unchanged
//
// Unknown modes behave like none, matching the category default.
// Exact float64 arithmetic; no rounding.
func CarryoverOut(mode RolloverMode, remainingBase float64) float64 {
	switch mode {
	case RolloverPositive:
		if remainingBase > 0 {
			return remainingBase
		}
		return 0
	case RolloverNegative:
		if remainingBase < 0 {
			return remainingBase
		}
		return 0
	case RolloverBoth:
		return remainingBase
	default:
		return 0
	}
}

// OverUnderBase is the cycle-level over/under spend relative to the budgeted
// base. Positive means under budget.
func OverUnderBase(totalBudgetBase, totalSpent float64) float64 {
	return totalBudgetBase - totalSpent
}
