package logger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-dashboard/internal/config"
	"go-dashboard/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

const logsCollection = "logs"

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	Level       zapcore.Level
	Message     string
	Caller      string
	DashboardID string
	Writer      string
	IPAddress   string
	Error       string
}

type logRecord struct {
	AppID        string    `bson:"appId"`
	Level        string    `bson:"level"`
	LevelID      int       `bson:"levelId"`
	Message      string    `bson:"message"`
	Caller       string    `bson:"caller,omitempty"`
	DashboardID  string    `bson:"dashboardId,omitempty"`
	Writer       string    `bson:"writer,omitempty"`
	IPAddress    string    `bson:"ipAddress,omitempty"`
	Error        string    `bson:"error,omitempty"`
	CreatedOnUtc time.Time `bson:"createdOnUtc"`
}

// DBLogWriter inserts log entries from a buffered channel on its own
// goroutine so logging never blocks a request.
type DBLogWriter struct {
	collection *mongo.Collection
	logChan    chan LogEntry
	appID      string
	mu         sync.RWMutex
	closed     bool
	done       chan struct{}
}

// NewDBLogWriter initializes the worker
func NewDBLogWriter(mongodb *database.MongodbDB, cfg *config.Config) *DBLogWriter {
	writer := &DBLogWriter{
		collection: mongodb.DB.Collection(logsCollection),
		logChan:    make(chan LogEntry, 1000),
		appID:      cfg.AppId,
		done:       make(chan struct{}),
	}

	go writer.processLogs()

	return writer
}

// AddLog is called by our Zap hook
func (w *DBLogWriter) AddLog(entry LogEntry) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.logChan <- entry:
	default:
		// Channel full: drop rather than block the caller.
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

// Close stops accepting entries and waits for the queue to drain or ctx to
// expire.
func (w *DBLogWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.logChan)
	}
	w.mu.Unlock()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *DBLogWriter) processLogs() {
	defer close(w.done)
	for entry := range w.logChan {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		// Insert errors are ignored to keep the app running.
		_, _ = w.collection.InsertOne(ctx, w.record(entry))
		cancel()
	}
}

func (w *DBLogWriter) record(entry LogEntry) logRecord {
	return logRecord{
		AppID:        w.appID,
		Level:        entry.Level.String(),
		LevelID:      mapLevelToInt(entry.Level),
		Message:      entry.Message,
		Caller:       entry.Caller,
		DashboardID:  entry.DashboardID,
		Writer:       entry.Writer,
		IPAddress:    entry.IPAddress,
		Error:        entry.Error,
		CreatedOnUtc: time.Now().UTC(),
	}
}

func mapLevelToInt(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 10
	case zapcore.InfoLevel:
		return 20
	case zapcore.WarnLevel:
		return 30
	case zapcore.ErrorLevel:
		return 40
	case zapcore.FatalLevel:
		return 50
	default:
		return 20
	}
}
