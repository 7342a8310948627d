package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	Log           = newDefault()
	logDir        string
	logFile       *os.File
	lastRotation  time.Time
	rotationMutex sync.Mutex
	rotationOnce  sync.Once
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	l.SetOutput(os.Stdout)
	return l
}

// Init starts writing to a daily log file in dir alongside stdout.
// Until Init is called the logger only writes to stdout.
func Init(dir, level string) error {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		Log.SetLevel(lvl)
	} else if level != "" {
		Log.WithField("level", level).Warn("Unknown log level, keeping info")
	}

	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	rotationMutex.Lock()
	logDir = dir
	rotationMutex.Unlock()

	if err := rotateLog(); err != nil {
		return err
	}

	rotationOnce.Do(func() {
		go checkRotation()
	})
	return nil
}

func rotateLog() error {
	rotationMutex.Lock()
	defer rotationMutex.Unlock()

	logFileName := filepath.Join(logDir, time.Now().Format("2006-01-02")+".txt")
	newLogFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	if logFile != nil {
		logFile.Close()
	}

	logFile = newLogFile
	Log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	lastRotation = time.Now()
	return nil
}

func checkRotation() {
	for {
		time.Sleep(1 * time.Hour)

		rotationMutex.Lock()
		due := time.Now().YearDay() != lastRotation.YearDay()
		rotationMutex.Unlock()

		if due {
			if err := rotateLog(); err != nil {
				Log.WithError(err).Error("Failed to rotate log file")
				continue
			}
			Log.Info("Log file rotated")
		}
	}
}
