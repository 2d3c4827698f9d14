package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"keyring/internal/pkg/parser"
	"keyring/internal/platform/models"
)

type Logger struct {
	db *sql.DB
	wg sync.WaitGroup
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

// Log records a mutation performed by userID. The insert runs off the request path.
func (l *Logger) Log(r *http.Request, userID int64, action, resourceType, resourceID string, metadata map[string]interface{}) {
	ip := "unknown"
	ua := "unknown"
	if r != nil {
		ip = r.RemoteAddr
		ua = r.UserAgent()
	}

	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["client_os"], metadata["client_browser"] = parser.ParseUserAgent(ua)
	metaJSON, _ := json.Marshal(metadata)

	entry := &models.AuditLog{
		ID:           "audit_" + uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		IPAddress:    ip,
		UserAgent:    ua,
		CreatedAt:    time.Now().Unix(),
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		query := `
			INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := l.db.Exec(query, entry.ID, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID, string(metaJSON), entry.IPAddress, entry.UserAgent, entry.CreatedAt)
		if err != nil {
			log.Error().Err(err).Str("action", action).Msg("failed to write audit log")
		}
	}()
}

// Wait blocks until pending inserts finish.
func (l *Logger) Wait() {
	l.wg.Wait()
}

func (l *Logger) Recent(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at
		FROM audit_logs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*models.AuditLog{}
	for rows.Next() {
		var entry models.AuditLog
		var metaStr sql.NullString
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.ResourceType, &entry.ResourceID, &metaStr, &entry.IPAddress, &entry.UserAgent, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if metaStr.Valid {
			json.Unmarshal([]byte(metaStr.String), &entry.Metadata)
		}
		logs = append(logs, &entry)
	}
	return logs, rows.Err()
}
