// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/ottoman-converter/pkg/types"
)

const defaultSearchLimit = 50

// SearchResult is one transcript message matching a search query.
type SearchResult struct {
	SessionID    string
	SessionTitle string
	Message      types.Message
}

// Search returns messages whose content contains query, newest first.
// Matching is a plain substring match; LIKE wildcards in query are escaped.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.session_id, s.title, m.role, m.content, m.failure_kind, m.created_at
		FROM messages m
		JOIN sessions s ON s.id = m.session_id
		WHERE m.content LIKE ? ESCAPE '\'
		ORDER BY m.id DESC
		LIMIT ?`,
		pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r                     SearchResult
			role, kind, createdAt string
		)
		if err := rows.Scan(&r.SessionID, &r.SessionTitle, &role, &r.Message.Content, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Message.Role = types.Role(role)
		r.Message.FailureKind = types.FailureKind(kind)
		r.Message.CreatedAt = parseTime(createdAt)
		results = append(results, r)
	}
	return results, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
