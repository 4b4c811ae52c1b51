package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/domain"
	"listam-parser-service/internal/core/port"
	"listam-parser-service/internal/core/port/usecases"

	"golang.org/x/sync/errgroup"
)

type ScrapePagesConfig struct {
	StartPage int
	EndPage   int
	// Workers - сколько объявлений страницы загружается одновременно
	Workers int
}

// ScrapePagesUseCase проходит страницы выдачи [StartPage, EndPage]:
// Discover -> Fetch-Details -> Persist. Ошибка любой стадии касается только своей страницы.
type ScrapePagesUseCase struct {
	fetcher  port.ListamFetcherPort
	storage  port.HouseStoragePort
	images   usecases.DownloadImagesPort
	reporter port.ReportPublisherPort
	cfg      ScrapePagesConfig
	now      func() time.Time

	mu       sync.Mutex
	progress domain.ScrapeRunStats
}

// NewScrapePagesUseCase создает use case. images может быть nil, если загрузка картинок отключена.
func NewScrapePagesUseCase(
	fetcher port.ListamFetcherPort,
	storage port.HouseStoragePort,
	images usecases.DownloadImagesPort,
	reporter port.ReportPublisherPort,
	cfg ScrapePagesConfig,
) (*ScrapePagesUseCase, error) {
	if fetcher == nil || storage == nil || reporter == nil {
		return nil, fmt.Errorf("scrape pages: fetcher, storage and reporter are required")
	}
	if cfg.StartPage < 1 || cfg.EndPage < cfg.StartPage {
		return nil, fmt.Errorf("scrape pages: invalid page range [%d, %d]", cfg.StartPage, cfg.EndPage)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &ScrapePagesUseCase{
		fetcher:  fetcher,
		storage:  storage,
		images:   images,
		reporter: reporter,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// Execute выполняет один полный проход. Ошибка возвращается только при отмене контекста.
func (uc *ScrapePagesUseCase) Execute(ctx context.Context) (*domain.ScrapeRunStats, error) {
	ctx, traceID := contextkeys.EnsureTraceID(ctx)
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "ScrapePages",
		"trace_id": traceID,
	})
	ctx = contextkeys.ContextWithLogger(ctx, ucLogger)

	uc.mu.Lock()
	uc.progress = domain.ScrapeRunStats{TraceID: traceID, StartedAt: uc.now()}
	uc.mu.Unlock()

	ucLogger.Info("Starting scrape run", port.Fields{
		"start_page": uc.cfg.StartPage,
		"end_page":   uc.cfg.EndPage,
		"workers":    uc.cfg.Workers,
	})

	var runErr error
	for page := uc.cfg.StartPage; page <= uc.cfg.EndPage; page++ {
		if err := ctx.Err(); err != nil {
			ucLogger.Warn("Scrape run cancelled", port.Fields{"page": page})
			runErr = err
			break
		}

		pageStats := uc.processPage(ctx, page)

		uc.mu.Lock()
		uc.progress.Add(pageStats)
		uc.mu.Unlock()

		if err := uc.reporter.PublishPageReport(ctx, pageStats); err != nil {
			ucLogger.Warn("Failed to publish page report", port.Fields{"page": page, "error": err.Error()})
		}
	}

	uc.mu.Lock()
	uc.progress.FinishedAt = uc.now()
	final := uc.progress
	uc.mu.Unlock()

	ucLogger.Info("Scrape run finished", port.Fields{
		"pages_processed": final.PagesProcessed,
		"pages_failed":    final.PagesFailed,
		"links_found":     final.LinksFound,
		"listings_saved":  final.ListingsSaved,
		"listings_failed": final.ListingsFailed,
		"images_saved":    final.ImagesSaved,
	})

	if err := uc.reporter.PublishScrapeReport(context.WithoutCancel(ctx), final); err != nil {
		ucLogger.Warn("Failed to publish scrape report", port.Fields{"error": err.Error()})
	}

	return &final, runErr
}

// Progress возвращает копию статистики текущего (или последнего) запуска
func (uc *ScrapePagesUseCase) Progress() domain.ScrapeRunStats {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.progress
}

func (uc *ScrapePagesUseCase) processPage(ctx context.Context, page int) domain.PageStats {
	pageLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"page": page})
	ctx = contextkeys.ContextWithLogger(ctx, pageLogger)
	stats := domain.PageStats{Page: page}

	pageLogger.Info("Processing listing page", nil)

	links, err := uc.fetcher.FetchLinks(ctx, page)
	if err != nil {
		pageLogger.Warn("Failed to crawl page links", port.Fields{"error": err.Error()})
		stats.Failed = true
		stats.FailureStage = domain.StageDiscover
		return stats
	}
	if len(links) == 0 {
		pageLogger.Info("No items on page", nil)
		return stats
	}
	stats.LinksFound = len(links)
	pageLogger.Info("Found item links", port.Fields{"count": len(links)})

	houses := uc.fetchDetails(ctx, links)
	stats.ListingsParsed = len(houses)
	stats.ListingsFailed = len(links) - len(houses)
	if len(houses) == 0 {
		pageLogger.Warn("No house details extracted", nil)
		stats.Failed = true
		stats.FailureStage = domain.StageDetails
		return stats
	}

	saved, err := uc.storage.UpsertBatch(ctx, houses)
	if err != nil {
		pageLogger.Error("Failed to save page batch", err, port.Fields{"count": len(houses)})
		stats.Failed = true
		stats.FailureStage = domain.StagePersist
		return stats
	}
	stats.ListingsSaved = saved
	pageLogger.Info("Page saved successfully", port.Fields{"saved": saved})

	if uc.images != nil {
		for _, house := range houses {
			n, err := uc.images.Execute(ctx, house)
			stats.ImagesSaved += n
			if err != nil {
				pageLogger.Warn("Image download stopped", port.Fields{
					"external_id": house.ExternalID,
					"saved":       n,
					"error":       err.Error(),
				})
			}
		}
	}

	return stats
}

// fetchDetails загружает объявления не более чем в cfg.Workers потоков.
// Неудачное объявление пропускается; порядок результатов совпадает с порядком ссылок.
func (uc *ScrapePagesUseCase) fetchDetails(ctx context.Context, links []domain.ListingLink) []domain.HouseListing {
	logger := contextkeys.LoggerFromContext(ctx)
	results := make([]*domain.HouseListing, len(links))

	var g errgroup.Group
	g.SetLimit(uc.cfg.Workers)

	for i, link := range links {
		i, link := i, link
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			house, err := uc.fetcher.FetchDetails(ctx, link)
			if err != nil {
				logger.Warn("Failed to fetch listing details", port.Fields{
					"external_id": link.ExternalID,
					"url":         link.URL,
					"error":       err.Error(),
				})
				return nil
			}
			results[i] = house
			return nil
		})
	}
	_ = g.Wait()

	houses := make([]domain.HouseListing, 0, len(links))
	for _, h := range results {
		if h != nil {
			houses = append(houses, *h)
		}
	}
	return houses
}
