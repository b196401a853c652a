// Package ledger implements the balance aggregation engine: classifying
// transactions, folding a firm's financial-year window into a summary, and
// carrying forward the net balance of everything that came before it.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Firm-Management/backend/internal/domain"
	"github.com/Firm-Management/backend/internal/fiscalyear"
)

// maxConcurrentFirms bounds the projector's fan-out so a user with many
// firms cannot exhaust the repository's connection pool.
const maxConcurrentFirms = 8

// TransactionSource is the read surface the engine needs from transaction
// storage. The engine never mutates transactions.
type TransactionSource interface {
	FindByFirmAndUser(ctx context.Context, firmID int64, userID string, window *fiscalyear.Window) ([]domain.Transaction, error)
	FindBefore(ctx context.Context, firmID int64, userID string, before time.Time) ([]domain.Transaction, error)
	FindAllByUser(ctx context.Context, userID string, window *fiscalyear.Window) ([]domain.Transaction, error)
}

// FirmSource is the read surface the projector needs from firm storage.
type FirmSource interface {
	FindByUser(ctx context.Context, userID string) ([]domain.Firm, error)
}

// FirmLedger merges a firm's stored fields with its computed summary for
// list views.
type FirmLedger struct {
	domain.Firm
	domain.LedgerSummary
}

// Service computes ledger summaries from transaction snapshots.
type Service struct {
	transactions TransactionSource
	firms        FirmSource
	log          zerolog.Logger
}

// NewService creates a new ledger service.
func NewService(transactions TransactionSource, firms FirmSource, log zerolog.Logger) *Service {
	return &Service{
		transactions: transactions,
		firms:        firms,
		log:          log.With().Str("component", "ledger").Logger(),
	}
}

// ComputeLedger returns the firm's summary for the window: in-window
// balance plus carry-forward from all earlier transactions, and the four
// per-category totals restricted to the window. The computation is a pure
// fold over a point-in-time snapshot; rerunning it on unchanged data yields
// identical results.
func (s *Service) ComputeLedger(ctx context.Context, firmID int64, userID string, window fiscalyear.Window) (domain.LedgerSummary, error) {
	inWindow, err := s.transactions.FindByFirmAndUser(ctx, firmID, userID, &window)
	if err != nil {
		return domain.LedgerSummary{}, fmt.Errorf("failed to fetch window transactions: %w", err)
	}

	carry, err := s.CarryForward(ctx, firmID, userID, window.Start)
	if err != nil {
		return domain.LedgerSummary{}, err
	}

	return Summarize(inWindow, carry), nil
}

// CarryForward returns the net signed balance of all the firm's
// transactions dated strictly before the given instant. Only the sign rule
// is applied; no per-category breakdown is kept.
func (s *Service) CarryForward(ctx context.Context, firmID int64, userID string, before time.Time) (decimal.Decimal, error) {
	prior, err := s.transactions.FindBefore(ctx, firmID, userID, before)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch carry-forward transactions: %w", err)
	}

	return NetBalance(prior), nil
}

// ProjectFirms computes a FirmLedger for every firm the user owns. With a
// nil window each firm is summarized over its full history from a single
// cross-firm query, exactly as a windowed computation over all time would
// produce. With a window, per-firm aggregations fan out concurrently and
// join before returning; output order always follows firm fetch order
// regardless of completion order. Firms with no transactions appear with
// all-zero summaries.
func (s *Service) ProjectFirms(ctx context.Context, userID string, window *fiscalyear.Window) ([]FirmLedger, error) {
	firms, err := s.firms.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch firms: %w", err)
	}

	if window == nil {
		return s.projectFullHistory(ctx, userID, firms)
	}
	return s.projectWindowed(ctx, userID, firms, *window)
}

// projectFullHistory summarizes every firm over all time. One query fetches
// the user's entire transaction set, partitioned client-side by firm.
func (s *Service) projectFullHistory(ctx context.Context, userID string, firms []domain.Firm) ([]FirmLedger, error) {
	all, err := s.transactions.FindAllByUser(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user transactions: %w", err)
	}

	byFirm := make(map[int64][]domain.Transaction)
	for _, tx := range all {
		byFirm[tx.FirmID] = append(byFirm[tx.FirmID], tx)
	}

	result := make([]FirmLedger, len(firms))
	for i, firm := range firms {
		result[i] = FirmLedger{
			Firm:          firm,
			LedgerSummary: Summarize(byFirm[firm.ID], decimal.Zero),
		}
	}

	return result, nil
}

// projectWindowed aggregates each firm inside the window, carry-forward
// included, with bounded concurrency and a join barrier.
func (s *Service) projectWindowed(ctx context.Context, userID string, firms []domain.Firm, window fiscalyear.Window) ([]FirmLedger, error) {
	result := make([]FirmLedger, len(firms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFirms)

	for i, firm := range firms {
		i, firm := i, firm
		g.Go(func() error {
			summary, err := s.ComputeLedger(gctx, firm.ID, userID, window)
			if err != nil {
				return fmt.Errorf("firm %d: %w", firm.ID, err)
			}
			result[i] = FirmLedger{Firm: firm, LedgerSummary: summary}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("user_id", userID).
		Int("firms", len(firms)).
		Str("window", window.Label()).
		Msg("Projected firm ledgers")

	return result, nil
}

// NetBalance folds a transaction set into its net signed balance using the
// classification sign rule only.
func NetBalance(txs []domain.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range txs {
		switch tx.Type.Classify() {
		case domain.Credit:
			balance = balance.Add(tx.Amount)
		case domain.Debit:
			balance = balance.Sub(tx.Amount)
		case domain.Unclassified:
			// Defined no-op: unknown types never touch the balance.
		}
	}
	return balance
}

// Summarize folds in-window transactions into a LedgerSummary, adding the
// carry-forward balance. Category totals are keyed by exact type match and
// stay non-negative; carry-forward is folded only into Balance.
func Summarize(inWindow []domain.Transaction, carryForward decimal.Decimal) domain.LedgerSummary {
	summary := domain.ZeroLedgerSummary()

	for _, tx := range inWindow {
		switch tx.Type.Classify() {
		case domain.Credit:
			summary.Balance = summary.Balance.Add(tx.Amount)
		case domain.Debit:
			summary.Balance = summary.Balance.Sub(tx.Amount)
		case domain.Unclassified:
			continue
		}

		switch tx.Type {
		case domain.TypeSale:
			summary.TotalSale = summary.TotalSale.Add(tx.Amount)
		case domain.TypeWithdrawal:
			summary.TotalWithdraw = summary.TotalWithdraw.Add(tx.Amount)
		case domain.TypePurchase:
			summary.TotalPurchase = summary.TotalPurchase.Add(tx.Amount)
		case domain.TypeDeposit:
			summary.TotalDeposit = summary.TotalDeposit.Add(tx.Amount)
		}
	}

	summary.Balance = summary.Balance.Add(carryForward)
	summary.BalanceType = domain.BalanceTypeFor(summary.Balance)

	return summary
}
