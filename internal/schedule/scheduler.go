package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	taskRequiredMessageConstant          = "scheduled task must be provided"
	scheduleRequiredMessageConstant      = "cron expression must be provided"
	invalidScheduleErrorTemplateConstant = "invalid cron expression %q: %w"
	taskFailedLogMessageConstant         = "scheduled task failed"
	taskCompletedLogMessageConstant      = "scheduled task completed"
	schedulerStartedLogMessageConstant   = "scheduler started"
	schedulerStoppedLogMessageConstant   = "scheduler stopped"
	logFieldScheduleConstant             = "schedule"
	logFieldTaskNameConstant             = "task"
)

// ErrTaskRequired indicates Run was invoked without a task.
var ErrTaskRequired = errors.New(taskRequiredMessageConstant)

// ErrScheduleRequired indicates Run was invoked without a cron expression.
var ErrScheduleRequired = errors.New(scheduleRequiredMessageConstant)

// Task is a unit of scheduled work.
type Task struct {
	Name    string
	Execute func(executionContext context.Context) error
}

// Options configures a scheduler run.
type Options struct {
	CronExpression string
	RunOnStart     bool
	Tasks          []Task
}

// Scheduler executes tasks on a cron cadence until its context is cancelled.
type Scheduler struct {
	logger *zap.Logger
}

// NewScheduler constructs a Scheduler logging through the provided logger.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger}
}

// Run blocks executing the configured tasks on the cron cadence until the
// context is cancelled. Tasks run sequentially in the order provided; a
// failing task is logged and does not stop the cadence. Ticks that arrive
// while a previous run is still executing are skipped.
func (scheduler *Scheduler) Run(executionContext context.Context, options Options) error {
	if len(options.Tasks) == 0 {
		return ErrTaskRequired
	}
	for _, task := range options.Tasks {
		if task.Execute == nil {
			return ErrTaskRequired
		}
	}
	if len(options.CronExpression) == 0 {
		return ErrScheduleRequired
	}

	runTasks := func() {
		for _, task := range options.Tasks {
			if executionContext.Err() != nil {
				return
			}
			if taskError := task.Execute(executionContext); taskError != nil {
				scheduler.logger.Error(taskFailedLogMessageConstant,
					zap.String(logFieldTaskNameConstant, task.Name),
					zap.Error(taskError),
				)
				continue
			}
			scheduler.logger.Info(taskCompletedLogMessageConstant,
				zap.String(logFieldTaskNameConstant, task.Name),
			)
		}
	}

	cronLogger := cron.PrintfLogger(zap.NewStdLog(scheduler.logger))
	cronRunner := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger)))
	if _, scheduleError := cronRunner.AddFunc(options.CronExpression, runTasks); scheduleError != nil {
		return fmt.Errorf(invalidScheduleErrorTemplateConstant, options.CronExpression, scheduleError)
	}

	if options.RunOnStart {
		runTasks()
	}

	scheduler.logger.Info(schedulerStartedLogMessageConstant,
		zap.String(logFieldScheduleConstant, options.CronExpression),
	)
	cronRunner.Start()

	<-executionContext.Done()

	stopContext := cronRunner.Stop()
	<-stopContext.Done()
	scheduler.logger.Info(schedulerStoppedLogMessageConstant)
	return nil
}
