package storage

import (
	_ "embed"
)

//go:embed schema.sql
var initSchemaSQL string

const initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_sweeps_session ON sweeps (session_id, timestamp);
`

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      model,
                      resource,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    model,
    resource,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    model,
    resource,
    config
FROM sessions
ORDER BY start_time, id`

	insertSweepSQL = `
INSERT INTO sweeps (session_id,
                    timestamp,
                    format,
                    points,
                    parameters,
                    settings)
VALUES (?, ?, ?, ?, ?, ?)`

	selectSweepsSQL = `
SELECT
    id,
    session_id,
    timestamp,
    format,
    points,
    parameters,
    settings
FROM sweeps
WHERE
    session_id = ?
ORDER BY timestamp, id`

	insertPortImpedanceSQL = `
INSERT INTO port_impedances (sweep_id, port, re, im)
VALUES (?, ?, ?, ?)`

	selectPortImpedancesSQL = `
SELECT
    port,
    re,
    im
FROM port_impedances
WHERE
    sweep_id = ?
ORDER BY port`

	insertSampleSQL = `
INSERT INTO samples (sweep_id,
                     parameter,
                     point,
                     frequency,
                     re,
                     im)
VALUES `

	selectTraceSQL = `
SELECT
    frequency,
    re,
    im
FROM samples
WHERE
    sweep_id = ?
    AND parameter = ?
ORDER BY point`
)

// samplesPerInsert bounds the rows of one multi-row INSERT, keeping the
// bound variables below SQLite's limit
const samplesPerInsert = 500

const selectSessionTracesSQL = `
SELECT
    sw.id,
    sw.timestamp,
    s.frequency,
    s.re,
    s.im
FROM sweeps sw
         JOIN samples s ON s.sweep_id = sw.id
WHERE
    sw.session_id = ?
    AND s.parameter = ?
    AND sw.timestamp BETWEEN ? AND ?
    AND s.frequency BETWEEN ? AND ?
ORDER BY sw.timestamp, sw.id, s.point`
