// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

var _ StorageInterface = (*Storage)(nil)

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

// textArray decodes a postgres text[] column through database/sql.
// pgtype.Map is not safe for concurrent use, so each scan gets its own.
func textArray(dst *[]string) sql.Scanner {
	return pgtype.NewMap().SQLScanner(dst)
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}
	return id.String(), nil
}

// maxOffset is the largest OFFSET postgres accepts.
const maxOffset = math.MaxInt64

// Window turns a 1-based page and a page size into OFFSET and LIMIT. A
// non-positive size falls back to defaultSize and size is capped at maxSize.
// The offset saturates at maxOffset rather than overflowing.
func Window(page, size, defaultSize, maxSize int) (offset, limit uint64) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultSize
	}
	size = min(size, maxSize)

	skip := uint64(page - 1)
	if skip > maxOffset/uint64(size) {
		return maxOffset, uint64(size)
	}

	return skip * uint64(size), uint64(size)
}

// nullable turns an empty string into a SQL NULL.
func nullable(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func stringArray(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func encodeMetadata(m map[string]interface{}) (string, error) {
	if m == nil {
		return "{}", nil
	}

	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	return string(b), nil
}

func decodeMetadata(b []byte) (map[string]interface{}, error) {
	if len(b) == 0 {
		return nil, nil
	}

	m := make(map[string]interface{})
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	return m, nil
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}
