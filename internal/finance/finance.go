// Package finance holds the wallet and yield arithmetic. Every function is pure
// so the ledger rules can be exercised without a database.
package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/invest-be/internal/models"
)

const moneyPlaces = 2

var (
	hundred    = decimal.NewFromInt(100)
	daysInYear = decimal.NewFromInt(365)
	twelve     = decimal.NewFromInt(12)
)

// IsCredit reports whether a transaction type adds funds to the wallet.
func IsCredit(txType string) bool {
	switch txType {
	case models.TxDeposit, models.TxYield, models.TxPrincipalReturn, models.TxReferralCommission:
		return true
	}
	return false
}

// IsDebit reports whether a transaction type removes funds from the wallet.
func IsDebit(txType string) bool {
	return txType == models.TxWithdrawal || txType == models.TxInvestment
}

// SignedAmount returns the effect a transaction has on the balance once completed.
func SignedAmount(tx models.WalletTransaction) decimal.Decimal {
	switch {
	case IsCredit(tx.Type):
		return tx.Amount.Abs()
	case IsDebit(tx.Type):
		return tx.Amount.Abs().Neg()
	case tx.Type == models.TxAdjustment:
		return tx.Amount
	default:
		return decimal.Zero
	}
}

// ReconcileBalance recomputes a wallet balance from its ledger. Only completed
// rows count.
func ReconcileBalance(txs []models.WalletTransaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range txs {
		if tx.Status != models.TxCompleted {
			continue
		}
		balance = balance.Add(SignedAmount(tx))
	}
	return balance.Round(moneyPlaces)
}

// PendingDebits sums withdrawals still waiting for an administrator.
func PendingDebits(txs []models.WalletTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Status == models.TxPending && tx.Type == models.TxWithdrawal {
			total = total.Add(tx.Amount.Abs())
		}
	}
	return total
}

// AvailableBalance is the part of the balance not reserved by pending withdrawals.
func AvailableBalance(balance, pending decimal.Decimal) decimal.Decimal {
	available := balance.Sub(pending)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// Summarize builds the wallet totals shown to investors.
func Summarize(balance decimal.Decimal, txs []models.WalletTransaction) models.WalletSummary {
	s := models.WalletSummary{
		Balance:            balance,
		PendingWithdrawals: decimal.Zero,
		PendingDeposits:    decimal.Zero,
		TotalDeposited:     decimal.Zero,
		TotalWithdrawn:     decimal.Zero,
		TotalInvested:      decimal.Zero,
		TotalYield:         decimal.Zero,
		TotalCommission:    decimal.Zero,
	}
	for _, tx := range txs {
		amount := tx.Amount.Abs()
		if tx.Status == models.TxPending {
			switch tx.Type {
			case models.TxWithdrawal:
				s.PendingWithdrawals = s.PendingWithdrawals.Add(amount)
			case models.TxDeposit:
				s.PendingDeposits = s.PendingDeposits.Add(amount)
			}
			continue
		}
		if tx.Status != models.TxCompleted {
			continue
		}
		switch tx.Type {
		case models.TxDeposit:
			s.TotalDeposited = s.TotalDeposited.Add(amount)
		case models.TxWithdrawal:
			s.TotalWithdrawn = s.TotalWithdrawn.Add(amount)
		case models.TxInvestment:
			s.TotalInvested = s.TotalInvested.Add(amount)
		case models.TxYield:
			s.TotalYield = s.TotalYield.Add(amount)
		case models.TxReferralCommission:
			s.TotalCommission = s.TotalCommission.Add(amount)
		}
	}
	s.Available = AvailableBalance(balance, s.PendingWithdrawals)
	return s
}

// DailyYield is the amount one day of an investment earns at an annual rate.
func DailyYield(principal, annualPercent decimal.Decimal) decimal.Decimal {
	if !principal.IsPositive() || !annualPercent.IsPositive() {
		return decimal.Zero
	}
	return principal.Mul(annualPercent).Div(hundred).Div(daysInYear).Round(moneyPlaces)
}

// ExpectedReturn is the simple interest an investment earns over its full term.
func ExpectedReturn(principal, annualPercent decimal.Decimal, months int) decimal.Decimal {
	if !principal.IsPositive() || !annualPercent.IsPositive() || months <= 0 {
		return decimal.Zero
	}
	return principal.Mul(annualPercent).Div(hundred).
		Mul(decimal.NewFromInt(int64(months))).Div(twelve).Round(moneyPlaces)
}

// ReferralCommission is the referrer's share of an investment.
func ReferralCommission(amount, percent decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() || !percent.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(percent).Div(hundred).Round(moneyPlaces)
}

// MaturityDate returns when an investment started at start for months ends.
func MaturityDate(start time.Time, months int) time.Time {
	return start.AddDate(0, months, 0)
}

// AccrualDays counts whole days between last and now, never past maturity.
func AccrualDays(last, now, maturity time.Time) int {
	if now.After(maturity) {
		now = maturity
	}
	if !now.After(last) {
		return 0
	}
	return int(now.Sub(last) / (24 * time.Hour))
}

// FinalYield is what remains of the expected return once accrued yield is
// subtracted, so rounding drift is settled on the maturity day.
func FinalYield(expected, accrued decimal.Decimal) decimal.Decimal {
	rest := expected.Sub(accrued)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}
