package jobs

import (
	"context"
	"time"

	"pointmarket-backend/internal/logger"
)

// ChargeDueSubscriptions renews every active subscription whose next charge
// time has passed, marking subscriptions PAST_DUE when the balance cannot
// cover the renewal.
func (jr *JobRunner) ChargeDueSubscriptions() {
	jr.runWithRecovery("ChargeDueSubscriptions", func() {
		ctx := context.Background()

		charged, pastDue, err := jr.services.Subscription.ChargeDue(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Failed to charge due subscriptions", "error", err)
			return
		}

		logger.Info("Subscription charges completed", "charged", charged, "past_due", pastDue)
	})
}

// VerifyLedgerBalances audits that every account balance equals the sum of
// its ledger entries. A mismatch means a balance was mutated outside the
// transactional path and is logged loudly for investigation; nothing is
// auto-corrected.
func (jr *JobRunner) VerifyLedgerBalances() {
	jr.runWithRecovery("VerifyLedgerBalances", func() {
		ctx := context.Background()

		query := `
			SELECT a.user_id, a.balance, COALESCE(SUM(t.amount), 0) AS ledger_sum
			FROM accounts a
			LEFT JOIN ledger_transactions t ON t.user_id = a.user_id
			GROUP BY a.user_id, a.balance
			HAVING a.balance <> COALESCE(SUM(t.amount), 0)
		`

		rows, err := jr.db.QueryContext(ctx, query)
		if err != nil {
			logger.Error("Failed to verify ledger balances", "error", err)
			return
		}
		defer rows.Close()

		mismatches := 0
		for rows.Next() {
			var (
				userID    string
				balance   int64
				ledgerSum int64
			)
			if err := rows.Scan(&userID, &balance, &ledgerSum); err != nil {
				logger.Error("Failed to scan balance mismatch row", "error", err)
				return
			}
			mismatches++
			logger.Error("Ledger balance mismatch detected",
				"user_id", userID,
				"account_balance", balance,
				"ledger_sum", ledgerSum)
		}
		if err := rows.Err(); err != nil {
			logger.Error("Failed to verify ledger balances", "error", err)
			return
		}

		if mismatches == 0 {
			logger.Info("All account balances reconcile with the ledger")
			return
		}
		logger.Error("Ledger verification found mismatches", "count", mismatches)
	})
}

// TakeBalanceSnapshots records every active account's balance for the
// current month, for audit and reporting
func (jr *JobRunner) TakeBalanceSnapshots() {
	jr.runWithRecovery("TakeBalanceSnapshots", func() {
		ctx := context.Background()

		snapshotMonth := time.Now().UTC().Format("2006-01")

		query := `
			INSERT INTO balance_snapshots (user_id, balance, snapshot_month, snapshot_at)
			SELECT user_id, balance, $1, NOW()
			FROM accounts
			WHERE archived = FALSE
			ON CONFLICT (user_id, snapshot_month) DO NOTHING
		`

		result, err := jr.db.ExecContext(ctx, query, snapshotMonth)
		if err != nil {
			logger.Error("Failed to take balance snapshots", "error", err)
			return
		}

		rowsAffected, _ := result.RowsAffected()
		logger.Info("Balance snapshots taken",
			"count", rowsAffected,
			"snapshot_month", snapshotMonth)
	})
}
