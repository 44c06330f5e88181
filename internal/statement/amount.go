package statement

// resolveAmount produces the single signed amount for a row.
//
// An explicit, unambiguous amount column wins and is used verbatim, sign
// preserved. The match is strict ("amount", "amt", "transaction amount") so
// that looser labels like "withdrawal amount" never double-count when an
// export template carries both layouts. Otherwise the withdrawal and deposit
// columns are located independently and the amount is deposit minus
// withdrawal, with an absent side counting as zero.
func resolveAmount(row Row) float64 {
	if explicit := row.findNumeric(amountRules); explicit != 0 {
		return explicit
	}
	withdrawal := row.findNumeric(withdrawalRules)
	deposit := row.findNumeric(depositRules)
	return deposit - withdrawal
}
