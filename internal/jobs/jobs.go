// Package jobs runs periodic background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"go-printshop-ws/internal/service"
	"go-printshop-ws/internal/ws"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled unit of work.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Start registers every job and starts the scheduler. Stop the returned
// cron to end it; Stop's context is done once running jobs have finished.
func Start(log *zap.Logger, jobs ...Job) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	for _, j := range jobs {
		job := j
		_, err := c.AddFunc(job.Schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			started := time.Now()
			if err := job.Run(ctx); err != nil {
				log.Error("job failed", zap.String("job", job.Name), zap.Error(err))
				return
			}
			log.Debug("job finished", zap.String("job", job.Name), zap.Duration("took", time.Since(started)))
		})
		if err != nil {
			return nil, fmt.Errorf("register job %s: %w", job.Name, err)
		}
	}
	c.Start()
	return c, nil
}

// StockAlert scans for items below their minimum stock and broadcasts them.
func StockAlert(schedule string, catalog service.CatalogService, notifier service.Notifier, log *zap.Logger) Job {
	return Job{
		Name:     "stock_alert",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			low, err := catalog.LowStock(ctx)
			if err != nil {
				return err
			}
			if len(low) == 0 {
				return nil
			}
			for _, level := range low {
				log.Warn("stock below minimum",
					zap.String("barcode", level.Barcode),
					zap.String("item_kind", string(level.ItemKind)),
					zap.String("on_hand", level.OnHand.String()),
					zap.String("min_stock", level.MinStock.String()))
			}
			notifier.Publish(ws.Message{
				Type:    "stock_alert",
				Action:  "low_stock",
				Message: fmt.Sprintf("%d item(s) below minimum stock", len(low)),
				Data:    low,
			})
			return nil
		},
	}
}
