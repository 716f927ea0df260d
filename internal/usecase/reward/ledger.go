// Package reward ведёт журнал наград граждан и их баланс.
package reward

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/civic-backend/internal/domain/entity"
	"github.com/ignatzorin/civic-backend/internal/domain/repository"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

// Ledger ведёт журнал наград. Записи только добавляются; единственная
// изменяемая часть записи это флаг redeemed.
type Ledger struct {
	rewards  repository.RewardRepository
	balances repository.BalanceRepository
	tx       repository.Transactor
	codes    CodeGenerator
	now      func() time.Time
}

type LedgerOption func(*Ledger)

func WithCodeGenerator(g CodeGenerator) LedgerOption {
	return func(l *Ledger) { l.codes = g }
}

func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(rewards repository.RewardRepository, balances repository.BalanceRepository, tx repository.Transactor, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		rewards:  rewards,
		balances: balances,
		tx:       tx,
		codes:    RandomCodeGenerator{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AwardForResolution начисляет награду за решённую жалобу: добавляет запись
// журнала и атомарно увеличивает баланс. Вызывающий отвечает за то, чтобы
// вызов был единственным для жалобы; при внешней транзакции в ctx
// запись и начисление выполняются в ней.
func (l *Ledger) AwardForResolution(ctx context.Context, complaintID, citizenID uuid.UUID) (*entity.RewardEntry, error) {
	now := l.now()
	code, err := l.codes.Generate(now)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "failed to generate redeem code")
	}

	entry, err := entity.NewRewardEntry(citizenID, &complaintID, entity.ResolutionRewardPoints, code, entity.ReasonComplaintResolved, now)
	if err != nil {
		return nil, err
	}

	err = l.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := l.rewards.Append(ctx, entry); err != nil {
			return storeFailure(err, "failed to append reward entry")
		}
		if err := l.balances.IncrementPoints(ctx, citizenID, entry.PointsEarned); err != nil {
			return storeFailure(err, "failed to update reward balance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Redeem отмечает запись гражданина погашенной. Чужая запись неотличима от
// отсутствующей. Баланс при погашении не меняется.
func (l *Ledger) Redeem(ctx context.Context, entryID, citizenID uuid.UUID) (*entity.RewardEntry, error) {
	entry, err := l.rewards.FindByID(ctx, entryID)
	if err != nil {
		return nil, storeFailure(err, "failed to load reward")
	}
	if !entry.IsOwnedBy(citizenID) {
		return nil, apperror.ErrRewardNotFound
	}
	if err := entry.Redeem(); err != nil {
		return nil, err
	}

	// Условный UPDATE отсекает параллельное погашение той же записи.
	if err := l.rewards.MarkRedeemed(ctx, entryID); err != nil {
		return nil, storeFailure(err, "failed to redeem reward")
	}
	return entry, nil
}

func (l *Ledger) ListForCitizen(ctx context.Context, citizenID uuid.UUID) ([]*entity.RewardEntry, error) {
	entries, err := l.rewards.ListByCitizen(ctx, citizenID)
	if err != nil {
		return nil, storeFailure(err, "failed to load rewards")
	}
	return entries, nil
}

func (l *Ledger) Balance(ctx context.Context, citizenID uuid.UUID) (int, error) {
	points, err := l.balances.GetPoints(ctx, citizenID)
	if err != nil {
		return 0, storeFailure(err, "failed to load reward balance")
	}
	return points, nil
}

// storeFailure сохраняет уже типизированные ошибки и оборачивает остальные.
func storeFailure(err error, message string) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.RecordStoreFailure(err, message)
}
