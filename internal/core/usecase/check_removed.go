package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/domain"
	"listam-parser-service/internal/core/port"
)

type CheckRemovedConfig struct {
	BatchSize int
	// Delay - пауза между проверками соседних объявлений
	Delay time.Duration
}

// CheckRemovedUseCase проходит по всем активным объявлениям и помечает снятые
type CheckRemovedUseCase struct {
	repo     port.ActiveHousesRepositoryPort
	prober   port.RemovalProberPort
	reporter port.ReportPublisherPort
	cfg      CheckRemovedConfig
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	progress domain.CheckRunStats
}

func NewCheckRemovedUseCase(
	repo port.ActiveHousesRepositoryPort,
	prober port.RemovalProberPort,
	reporter port.ReportPublisherPort,
	cfg CheckRemovedConfig,
) (*CheckRemovedUseCase, error) {
	if repo == nil || prober == nil || reporter == nil {
		return nil, fmt.Errorf("check removed: repository, prober and reporter are required")
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("check removed: batch size must be positive, got %d", cfg.BatchSize)
	}
	return &CheckRemovedUseCase{
		repo:     repo,
		prober:   prober,
		reporter: reporter,
		cfg:      cfg,
		now:      time.Now,
		sleep:    sleepContext,
	}, nil
}

// Execute проверяет объявления пачками по cfg.BatchSize.
// Сетевая ошибка проверки не считается признаком удаления.
func (uc *CheckRemovedUseCase) Execute(ctx context.Context) (*domain.CheckRunStats, error) {
	ctx, traceID := contextkeys.EnsureTraceID(ctx)
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "CheckRemoved",
		"trace_id": traceID,
	})
	ctx = contextkeys.ContextWithLogger(ctx, ucLogger)

	uc.mu.Lock()
	uc.progress = domain.CheckRunStats{TraceID: traceID, StartedAt: uc.now()}
	uc.mu.Unlock()

	ucLogger.Info("Starting removal check", port.Fields{"batch_size": uc.cfg.BatchSize})

	runErr := uc.run(ctx, ucLogger)

	uc.mu.Lock()
	uc.progress.FinishedAt = uc.now()
	final := uc.progress
	uc.mu.Unlock()

	if runErr != nil {
		ucLogger.Error("Removal check aborted", runErr, port.Fields{"checked": final.Checked})
	} else {
		ucLogger.Info("Removal check finished", port.Fields{
			"checked":        final.Checked,
			"removed":        final.Removed,
			"probe_failures": final.ProbeFailures,
		})
	}

	if err := uc.reporter.PublishCheckReport(context.WithoutCancel(ctx), final); err != nil {
		ucLogger.Warn("Failed to publish check report", port.Fields{"error": err.Error()})
	}

	return &final, runErr
}

// Progress возвращает копию статистики текущего (или последнего) запуска
func (uc *CheckRemovedUseCase) Progress() domain.CheckRunStats {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.progress
}

func (uc *CheckRemovedUseCase) run(ctx context.Context, logger port.LoggerPort) error {
	offset := 0
	first := true

	for {
		batch, err := uc.repo.FetchActiveHousesBatch(ctx, uc.cfg.BatchSize, offset)
		if err != nil {
			return fmt.Errorf("failed to fetch active houses at offset %d: %w", offset, err)
		}
		if len(batch) == 0 {
			return nil
		}

		removed := make([]int64, 0)
		for _, house := range batch {
			if !first {
				if err := uc.sleep(ctx, uc.cfg.Delay); err != nil {
					return err
				}
			}
			first = false

			isRemoved, err := uc.prober.IsRemoved(ctx, house.URL)

			uc.mu.Lock()
			uc.progress.Checked++
			if err != nil {
				uc.progress.ProbeFailures++
			}
			uc.mu.Unlock()

			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("Probe failed, keeping listing active", port.Fields{
					"house_id": house.ID,
					"url":      house.URL,
					"error":    err.Error(),
				})
				continue
			}
			if isRemoved {
				logger.Debug("Listing is removed", port.Fields{"house_id": house.ID, "url": house.URL})
				removed = append(removed, house.ID)
			}
		}

		var marked int64
		if len(removed) > 0 {
			marked, err = uc.repo.MarkHousesAsDeleted(ctx, removed)
			if err != nil {
				return fmt.Errorf("failed to mark %d houses as deleted: %w", len(removed), err)
			}
			uc.mu.Lock()
			uc.progress.Removed += int(marked)
			uc.mu.Unlock()
		}

		logger.Info("Batch checked", port.Fields{
			"offset":  offset,
			"checked": len(batch),
			"removed": marked,
		})

		if len(batch) < uc.cfg.BatchSize {
			return nil
		}
		// помеченные строки выпадают из выборки активных, поэтому окно сдвигается только на оставшиеся
		offset += len(batch) - int(marked)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
