package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/LilVoxy/clickstream_etl/ETL/config"
	"github.com/LilVoxy/clickstream_etl/ETL/extractors"
	"github.com/LilVoxy/clickstream_etl/ETL/load"
	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/transform"
	"github.com/LilVoxy/clickstream_etl/ETL/trend"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

type extractPhase interface {
	Extract(ctx context.Context) (*models.ExtractedData, error)
}

type transformPhase interface {
	Transform(extractedData *models.ExtractedData) (*models.TransformedData, error)
}

type loadPhase interface {
	EnsureSchema(ctx context.Context) error
	Load(ctx context.Context, transformedData *models.TransformedData) error
}

// ETLRunner wires the extract, transform and load phases together
type ETLRunner struct {
	config        config.ETLConfig
	dbConnections *config.DBConnections
	logger        *utils.ETLLogger
	extractor     extractPhase
	transformer   transformPhase
	loadManager   loadPhase
	etlLogRepo    models.ETLLogRepository
	runTrend      func(ctx context.Context, cfg trend.Config) error
	newBatchID    func() string
}

// NewETLRunner connects to the databases and prepares every table the run writes
func NewETLRunner(ctx context.Context, etlConfig config.ETLConfig) (*ETLRunner, error) {
	logger, err := utils.NewETLLogger(etlConfig.EnableDetailedLogging, etlConfig.LogDir)
	if err != nil {
		return nil, err
	}
	logger.Info("Initializing ETL runner (source: %s, workers: %d)", etlConfig.Source, etlConfig.Workers)

	connections, err := config.ConnectDatabases(ctx, etlConfig)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to connect to databases: %w", err)
	}

	runner := &ETLRunner{
		config:        etlConfig,
		dbConnections: connections,
		logger:        logger,
		extractor:     extractors.NewExtractor(newEventSource(etlConfig, connections, logger), logger),
		transformer:   transform.NewTransformer(logger, etlConfig.Workers),
		loadManager:   load.NewLoadManager(logger, load.NewOLAPLoader(connections.OLAPDB, logger), mirrorLoaders(connections, logger)...),
		etlLogRepo:    models.NewMySQLETLLogRepository(connections.OLAPDB),
		newBatchID:    uuid.NewString,
	}
	runner.runTrend = func(ctx context.Context, cfg trend.Config) error {
		return trend.Run(ctx, connections.OLAPDB, logger, cfg)
	}

	if err := runner.etlLogRepo.CreateETLLogTable(ctx); err != nil {
		runner.Close()
		return nil, fmt.Errorf("failed to create the ETL run log table: %w", err)
	}

	if err := runner.loadManager.EnsureSchema(ctx); err != nil {
		runner.Close()
		return nil, fmt.Errorf("failed to create output tables: %w", err)
	}

	return runner, nil
}

// newEventSource picks the raw event reader for the configured source
func newEventSource(etlConfig config.ETLConfig, connections *config.DBConnections, logger *utils.ETLLogger) extractors.EventSource {
	if etlConfig.Source == config.SourceFile {
		return extractors.NewFileExtractor(etlConfig.InputPath, logger)
	}
	return extractors.NewEventExtractor(connections.OLTPDB, logger, etlConfig.BatchSize)
}

func mirrorLoaders(connections *config.DBConnections, logger *utils.ETLLogger) []load.Loader {
	if connections.ClickHouse == nil {
		return nil
	}
	return []load.Loader{load.NewClickHouseLoader(connections.ClickHouse, logger)}
}

// Close releases the database connections and the log file
func (r *ETLRunner) Close() {
	r.logger.Info("Shutting down ETL runner")
	if r.dbConnections != nil {
		config.CloseDatabases(r.dbConnections)
	}
	r.logger.Close()
}

// ExecuteETL runs one full extract, transform and load cycle
func (r *ETLRunner) ExecuteETL(ctx context.Context) error {
	startTime := time.Now()
	batchID := r.newBatchID()
	logger := r.logger.WithField("batch_id", batchID)
	logger.LogETLStart()

	logID, err := r.etlLogRepo.CreateLogEntry(ctx, batchID, startTime)
	if err != nil {
		logger.Error("Failed to create run log entry: %v", err)
		return fmt.Errorf("failed to create run log entry: %w", err)
	}

	if lastRun, err := r.etlLogRepo.GetLastSuccessfulRun(ctx); err != nil {
		logger.Warn("Could not read the last successful run: %v", err)
	} else if lastRun != nil {
		logger.Info("Last successful run: %s (%d events)", lastRun.EndTime.Format(time.RFC3339), lastRun.EventsProcessed)
	}

	// 1. Extract
	extractedData, err := r.extractor.Extract(ctx)
	if err != nil {
		return r.fail(ctx, logger, logID, "Extract", err)
	}
	if len(extractedData.Events) == 0 {
		logger.Warn("No raw events found, output tables will be emptied")
	}

	// 2. Transform
	transformedData, err := r.transformer.Transform(extractedData)
	if err != nil {
		return r.fail(ctx, logger, logID, "Transform", err)
	}
	transformedData.Metadata.BatchID = batchID

	// 3. Load
	if err := r.loadManager.Load(ctx, transformedData); err != nil {
		return r.fail(ctx, logger, logID, "Load", err)
	}

	// 4. Purchase trend forecast, failures do not fail the run
	if r.config.Trend.Enabled && r.runTrend != nil {
		if err := r.runTrend(ctx, trend.ConfigFromSettings(r.config.Trend)); err != nil {
			logger.Warn("Purchase trend forecast failed: %v", err)
		}
	}

	metadata := transformedData.Metadata
	if err := r.etlLogRepo.UpdateLogEntrySuccess(ctx, logID, time.Now(), metadata); err != nil {
		logger.Error("Failed to update run log entry: %v", err)
	}

	logger.LogETLComplete(startTime, metadata.EventsProcessed, metadata.VisitorsProcessed, metadata.SessionsBuilt, metadata.PurchasesAttributed)
	return nil
}

// fail records a failed phase in the run log and returns the wrapped error
func (r *ETLRunner) fail(ctx context.Context, logger *utils.ETLLogger, logID int, phase string, err error) error {
	errMsg := fmt.Sprintf("%s phase failed: %v", phase, err)
	logger.Error("%s", errMsg)

	if updateErr := r.etlLogRepo.UpdateLogEntryFailure(ctx, logID, time.Now(), errMsg); updateErr != nil {
		logger.Error("Failed to update run log entry: %v", updateErr)
	}

	return fmt.Errorf("%s phase failed: %w", phase, err)
}

// StartScheduler runs ExecuteETL every RunInterval until ctx is cancelled
func (r *ETLRunner) StartScheduler(ctx context.Context) error {
	scheduler := gocron.NewScheduler(time.UTC)

	r.logger.Info("Starting ETL scheduler with interval %v", r.config.RunInterval)

	_, err := scheduler.Every(r.config.RunInterval).SingletonMode().Do(func() {
		r.logger.Info("Scheduled ETL run")
		if err := r.ExecuteETL(ctx); err != nil {
			r.logger.Error("Scheduled ETL run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule ETL: %w", err)
	}

	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()

	r.logger.Info("ETL scheduler stopped")
	return nil
}

// RunTrend runs only the purchase trend forecast
func (r *ETLRunner) RunTrend(ctx context.Context, cfg trend.Config) error {
	r.logger.Info("Running purchase trend forecast: days=%d, forecast=%d, confidence=%.2f, minR2=%.2f",
		cfg.AnalysisPeriodDays, cfg.ForecastDays, cfg.ConfidenceLevel, cfg.MinR2Threshold)
	return r.runTrend(ctx, cfg)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		log.Info("Shutdown signal received, stopping ETL runner...")
		cancel()
	}()

	return ctx, cancel
}

func main() {
	modePtr := flag.String("mode", "scheduled", "Run mode: scheduled, once or trend")
	daysPtr := flag.Int("days", 0, "Days of purchases to fit (trend mode, 0 keeps the configured value)")
	forecastPtr := flag.Int("forecast", 0, "Days to forecast (trend mode, 0 keeps the configured value)")
	confidencePtr := flag.Float64("confidence", 0, "Confidence level (trend mode, 0 keeps the configured value)")
	minR2Ptr := flag.Float64("min-r2", 0, "Minimum R² (trend mode, 0 keeps the configured value)")

	flag.Parse()

	etlConfig, err := config.GetConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	log.Infof("Starting ETL runner in %s mode", *modePtr)

	runner, err := NewETLRunner(ctx, etlConfig)
	if err != nil {
		log.Fatalf("Failed to create ETL runner: %v", err)
	}
	defer runner.Close()

	switch *modePtr {
	case "once":
		err = runner.ExecuteETL(ctx)
	case "scheduled":
		err = runner.StartScheduler(ctx)
	case "trend":
		cfg := trend.ConfigFromSettings(etlConfig.Trend)
		if *daysPtr > 0 {
			cfg.AnalysisPeriodDays = *daysPtr
		}
		if *forecastPtr > 0 {
			cfg.ForecastDays = *forecastPtr
		}
		if *confidencePtr > 0 {
			cfg.ConfidenceLevel = *confidencePtr
		}
		if *minR2Ptr > 0 {
			cfg.MinR2Threshold = *minR2Ptr
		}
		err = runner.RunTrend(ctx, cfg)
	default:
		err = fmt.Errorf("unknown mode %q, expected scheduled, once or trend", *modePtr)
	}

	if err != nil {
		runner.Close()
		log.Fatalf("ETL runner failed: %v", err)
	}

	log.Info("ETL runner finished")
}
