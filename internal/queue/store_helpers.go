package queue

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const jobColumns = "id, client_id, status, stage, source_url, request_json, result_json, error_message, error_kind, failed_stage, webhook_url, attempts, created_at, updated_at, started_at, finished_at, last_heartbeat"

var expectedColumns = strings.Split(strings.ReplaceAll(jobColumns, " ", ""), ",")

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           string
		clientID     sql.NullString
		statusStr    string
		stage        sql.NullString
		sourceURL    string
		requestJSON  string
		resultJSON   sql.NullString
		errorMessage sql.NullString
		errorKind    sql.NullString
		failedStage  sql.NullString
		webhookURL   sql.NullString
		attempts     int
		createdRaw   string
		updatedRaw   string
		startedRaw   sql.NullString
		finishedRaw  sql.NullString
		heartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&clientID,
		&statusStr,
		&stage,
		&sourceURL,
		&requestJSON,
		&resultJSON,
		&errorMessage,
		&errorKind,
		&failedStage,
		&webhookURL,
		&attempts,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&finishedRaw,
		&heartbeatRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:           id,
		ClientID:     clientID.String,
		Status:       Status(statusStr),
		Stage:        stage.String,
		SourceURL:    sourceURL,
		RequestJSON:  requestJSON,
		ResultJSON:   resultJSON.String,
		ErrorMessage: errorMessage.String,
		ErrorKind:    errorKind.String,
		FailedStage:  failedStage.String,
		WebhookURL:   webhookURL.String,
		Attempts:     attempts,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	job.StartedAt = parseNullableTime(startedRaw)
	job.FinishedAt = parseNullableTime(finishedRaw)
	job.LastHeartbeat = parseNullableTime(heartbeatRaw)
	return job, nil
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = string(status)
	}
	return args
}
