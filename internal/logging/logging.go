// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package logging wires a zap logger with a rotating file sink, per
// spec.md §6 ("Rotating file at logs/ESD.log, 5 MiB x 7 backups") and the
// console+structured logging pattern used throughout the retrieved
// pack's recon tooling.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logDir      = "logs"
	logFile     = "ESD.log"
	maxSizeMB   = 5
	maxBackups  = 7
	maxAgeDays  = 0 // unbounded, matches the teacher's count-based rotation only
)

// New builds a *zap.SugaredLogger writing INFO+ to the console and
// DEBUG+ to the rotating file, so operators see progress interactively
// while the full trace (including the DEBUG-level "maybe wildcard" and
// RSC traces from spec.md §4.4/§4.5) lands on disk.
func New() (*zap.SugaredLogger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, logFile),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	})

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	fileEncoder := zapcore.NewJSONEncoder(encoderCfg)

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
		zapcore.NewCore(fileEncoder, fileSink, zapcore.DebugLevel),
	)

	return zap.New(core).Sugar(), nil
}
