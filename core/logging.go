// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strings"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets up the standard logger
func ConfigureLogging(cfg LogConfiguration) error {
	level := log.InfoLevel
	if cfg.Level != "" {
		parsed, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return errors.Wrap(err, "log level")
		}
		level = parsed
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return errors.Newf("unknown log format %q", cfg.Format)
	}

	log.SetReportCaller(cfg.ReportCaller)
	return nil
}
