package domain

// Account is the per-user ledger record.
//
// Spent accumulates currency paid across all orders. LoyaltyPoints and Bank
// are independent balances; both may go negative through admin adjustments.
// LastRedeem holds the date of the last successful daily-reward claim in
// "2006-01-02" form, empty when the user has never claimed.
type Account struct {
	UserID        string `db:"user_id"`
	Spent         int64  `db:"spent"`
	LoyaltyPoints int64  `db:"loyalty_points"`
	Bank          int64  `db:"bank"`
	LastRedeem    string `db:"last_redeem"`
}

// NewAccount returns an account with default zero balances for the user.
func NewAccount(userID string) *Account {
	return &Account{UserID: userID}
}
