package jobs

import (
	"context"
	"time"

	"restaurant/internal/core/application/usecases/queries"
	"restaurant/internal/core/domain/model/order"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DailyOrdersReader reads the daily tracking board.
type DailyOrdersReader interface {
	Handle(ctx context.Context, query queries.GetDailyOrdersQuery) (queries.GetDailyOrdersQueryResponse, error)
}

// DailySummaryJob logs the day's order counts per status and the revenue of
// completed orders.
type DailySummaryJob struct {
	reader   DailyOrdersReader
	schedule string
	location *time.Location
	now      func() time.Time
	cron     *cron.Cron
	logger   logrus.FieldLogger
}

// NewDailySummaryJob creates the job. The day is evaluated in location.
func NewDailySummaryJob(
	reader DailyOrdersReader,
	schedule string,
	location *time.Location,
	logger logrus.FieldLogger,
) *DailySummaryJob {
	if location == nil {
		location = time.Local
	}
	return &DailySummaryJob{
		reader:   reader,
		schedule: schedule,
		location: location,
		now:      time.Now,
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(location)),
		logger:   logger.WithField("component", "daily_summary_job"),
	}
}

// Start schedules the summary.
func (j *DailySummaryJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			j.logger.WithError(err).Error("daily summary failed")
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.WithField("schedule", j.schedule).Info("daily summary job started")
	return nil
}

// Stop stops scheduling.
func (j *DailySummaryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("daily summary job stopped")
}

// RunOnce logs the summary of the current day and returns it.
func (j *DailySummaryJob) RunOnce(ctx context.Context) (queries.GetDailyOrdersQueryResponse, error) {
	day := j.now().In(j.location)
	query, err := queries.NewGetDailyOrdersQuery(day, "")
	if err != nil {
		return queries.GetDailyOrdersQueryResponse{}, err
	}

	summary, err := j.reader.Handle(ctx, query)
	if err != nil {
		return queries.GetDailyOrdersQueryResponse{}, err
	}

	fields := logrus.Fields{
		"day":     day.Format(time.DateOnly),
		"orders":  len(summary.Orders),
		"revenue": summary.Revenue,
	}
	for _, status := range order.AllStatuses() {
		fields[status.String()] = summary.Counts[status]
	}
	j.logger.WithFields(fields).Info("daily order summary")

	return summary, nil
}
