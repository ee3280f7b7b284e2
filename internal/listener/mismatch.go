package listener

import (
	"context"
	"fmt"

	"github.com/shaiso/Courier/internal/broker"
	"github.com/shaiso/Courier/internal/domain"
)

// Compare сравнивает ожидаемую очередь с тем, что сообщил брокер.
//
// observed == nil — очереди нет, это всегда несоответствие.
// Сравнение точное: достаточно одного отличающегося флага.
// Fatal выставляется только для несоответствий и только если fatal=true.
func Compare(expected domain.QueueSpec, observed *domain.QueueSpec, fatal bool) domain.MismatchReport {
	report := domain.MismatchReport{
		Queue:    expected.Name,
		Expected: expected,
	}

	if observed != nil {
		o := *observed
		report.Observed = &o
	}

	report.Mismatch = observed == nil || !expected.Matches(*observed)
	report.Fatal = report.Mismatch && fatal

	return report
}

// Detector сверяет ожидаемые очереди с брокером через администратора.
//
// Результаты не кэшируются: каждая попытка старта опрашивает брокер заново,
// т.к. очередь могут удалить и объявить с другими свойствами между попытками.
type Detector struct {
	admin broker.Admin
	fatal bool
}

// NewDetector создаёт Detector. fatal — значение mismatchedQueuesFatal.
func NewDetector(admin broker.Admin, fatal bool) *Detector {
	return &Detector{admin: admin, fatal: fatal}
}

// Detect проверяет одну очередь.
func (d *Detector) Detect(ctx context.Context, expected domain.QueueSpec) (domain.MismatchReport, error) {
	observed, err := d.admin.DescribeQueue(ctx, expected.Name)
	if err != nil {
		return domain.MismatchReport{}, fmt.Errorf("describe queue %s: %w", expected.Name, err)
	}
	return Compare(expected, observed, d.fatal), nil
}

// DetectAll проверяет все очереди по порядку.
// Первая ошибка администратора прерывает проверку.
func (d *Detector) DetectAll(ctx context.Context, queues []domain.QueueSpec) ([]domain.MismatchReport, error) {
	reports := make([]domain.MismatchReport, 0, len(queues))
	for _, q := range queues {
		report, err := d.Detect(ctx, q)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Mismatched возвращает только отчёты с несоответствием.
func Mismatched(reports []domain.MismatchReport) []domain.MismatchReport {
	var out []domain.MismatchReport
	for _, r := range reports {
		if r.Mismatch {
			out = append(out, r)
		}
	}
	return out
}

// HasFatal возвращает true, если хотя бы один отчёт фатальный.
func HasFatal(reports []domain.MismatchReport) bool {
	for _, r := range reports {
		if r.Fatal {
			return true
		}
	}
	return false
}
