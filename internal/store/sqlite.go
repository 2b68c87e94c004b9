// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides durable agent/conversation/ticket persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			tone TEXT NOT NULL,
			personality TEXT NOT NULL,
			knowledge_base TEXT NOT NULL,
			remote_id TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_agents_user_id ON agents(user_id);

		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			user_session TEXT NOT NULL,
			message TEXT NOT NULL,
			response TEXT NOT NULL,
			confidence_score REAL NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_agent_id
			ON conversations(agent_id);

		CREATE TABLE IF NOT EXISTS tickets (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			question TEXT NOT NULL,
			user_session TEXT NOT NULL,
			status TEXT NOT NULL,
			confidence_score REAL NOT NULL,
			manual_response TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tickets_agent_status
			ON tickets(agent_id, status);

		CREATE TABLE IF NOT EXISTS support_requests (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			subject TEXT NOT NULL,
			message TEXT NOT NULL,
			priority TEXT NOT NULL,
			status TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS counters (
			name TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// nextID increments the named counter and returns the ID formatted with the
// given printf pattern (e.g. "agent_%04d").
func (s *SQLiteStore) nextID(ctx context.Context, name, format string) (string, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value
	`, name).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("incrementing %s counter: %w", name, err)
	}
	return fmt.Sprintf(format, value), nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateAgent inserts a new agent, issuing its ID from the agent counter.
func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *Agent) error {
	id, err := s.nextID(ctx, "agents", "agent_%04d")
	if err != nil {
		return err
	}
	agent.ID = id

	kb, err := json.Marshal(agent.KnowledgeBase)
	if err != nil {
		return fmt.Errorf("encoding knowledge base: %w", err)
	}

	query := `
		INSERT INTO agents (id, name, description, tone, personality, knowledge_base,
			remote_id, user_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		agent.ID,
		agent.Name,
		agent.Description,
		agent.Tone,
		agent.Personality,
		string(kb),
		agent.RemoteID,
		agent.UserID,
		boolToInt(agent.IsActive),
		agent.CreatedAt.UTC().Format(time.RFC3339),
		agent.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting agent: %w", err)
	}

	s.logger.Debug("created agent", "id", agent.ID, "user_id", agent.UserID)
	return nil
}

const agentColumns = `id, name, description, tone, personality, knowledge_base,
	remote_id, user_id, is_active, created_at, updated_at`

// GetAgent retrieves an agent by ID.
// Returns ErrNotFound if the agent doesn't exist.
func (s *SQLiteStore) GetAgent(ctx context.Context, id string) (*Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)

	agent, err := scanAgent(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying agent: %w", err)
	}
	return agent, nil
}

// ListAgents retrieves agents in insertion order, filtered by userID when
// non-empty.
func (s *SQLiteStore) ListAgents(ctx context.Context, userID string) ([]*Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying agents: %w", err)
	}
	defer rows.Close()

	var agents []*Agent
	for rows.Next() {
		agent, err := scanAgent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning agent row: %w", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating agent rows: %w", err)
	}
	return agents, nil
}

// UpdateAgent updates an existing agent.
// Returns ErrNotFound if the agent doesn't exist.
func (s *SQLiteStore) UpdateAgent(ctx context.Context, agent *Agent) error {
	kb, err := json.Marshal(agent.KnowledgeBase)
	if err != nil {
		return fmt.Errorf("encoding knowledge base: %w", err)
	}

	query := `
		UPDATE agents
		SET name = ?, description = ?, tone = ?, personality = ?, knowledge_base = ?,
			remote_id = ?, user_id = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		agent.Name,
		agent.Description,
		agent.Tone,
		agent.Personality,
		string(kb),
		agent.RemoteID,
		agent.UserID,
		boolToInt(agent.IsActive),
		agent.UpdatedAt.UTC().Format(time.RFC3339),
		agent.ID,
	)
	if err != nil {
		return fmt.Errorf("updating agent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("updated agent", "id", agent.ID)
	return nil
}

// DeleteAgent removes an agent. Conversations and tickets referencing it are
// kept as historical records.
// Returns ErrNotFound if the agent doesn't exist.
func (s *SQLiteStore) DeleteAgent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting agent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted agent", "id", id)
	return nil
}

// SaveConversation appends a conversation record, issuing its ID from the
// chat counter.
func (s *SQLiteStore) SaveConversation(ctx context.Context, conv *Conversation) error {
	id, err := s.nextID(ctx, "conversations", "chat_%04d")
	if err != nil {
		return err
	}
	conv.ID = id

	query := `
		INSERT INTO conversations (id, agent_id, user_session, message, response,
			confidence_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		conv.ID,
		conv.AgentID,
		conv.UserSession,
		conv.Message,
		conv.Response,
		conv.ConfidenceScore,
		conv.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	s.logger.Debug("saved conversation", "id", conv.ID, "agent_id", conv.AgentID)
	return nil
}

// ListConversations retrieves conversations in append order, filtered by
// agentID when non-empty. A limit of 0 or less means no limit.
func (s *SQLiteStore) ListConversations(ctx context.Context, agentID string, limit int) ([]*Conversation, error) {
	query := `
		SELECT id, agent_id, user_session, message, response, confidence_score, created_at
		FROM conversations
	`
	args := []any{}
	if agentID != "" {
		query += ` WHERE agent_id = ?`
		args = append(args, agentID)
	}
	query += ` ORDER BY rowid`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var convs []*Conversation
	for rows.Next() {
		var conv Conversation
		var createdAtStr string
		if err := rows.Scan(
			&conv.ID,
			&conv.AgentID,
			&conv.UserSession,
			&conv.Message,
			&conv.Response,
			&conv.ConfidenceScore,
			&createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning conversation row: %w", err)
		}
		conv.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		convs = append(convs, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation rows: %w", err)
	}
	return convs, nil
}

// CreateTicket inserts a new ticket, issuing its ID from the ticket counter.
func (s *SQLiteStore) CreateTicket(ctx context.Context, ticket *Ticket) error {
	id, err := s.nextID(ctx, "tickets", "ticket_%04d")
	if err != nil {
		return err
	}
	ticket.ID = id

	query := `
		INSERT INTO tickets (id, agent_id, question, user_session, status,
			confidence_score, manual_response, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.AgentID,
		ticket.Question,
		ticket.UserSession,
		ticket.Status,
		ticket.ConfidenceScore,
		ticket.ManualResponse,
		ticket.CreatedAt.UTC().Format(time.RFC3339),
		ticket.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting ticket: %w", err)
	}

	s.logger.Debug("created ticket", "id", ticket.ID, "agent_id", ticket.AgentID)
	return nil
}

const ticketColumns = `id, agent_id, question, user_session, status,
	confidence_score, manual_response, created_at, updated_at`

// GetTicket retrieves a ticket by ID.
// Returns ErrNotFound if the ticket doesn't exist.
func (s *SQLiteStore) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)

	ticket, err := scanTicket(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying ticket: %w", err)
	}
	return ticket, nil
}

// ListTickets retrieves tickets in insertion order matching the filter.
func (s *SQLiteStore) ListTickets(ctx context.Context, filter TicketFilter) ([]*Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE 1=1`
	args := []any{}
	if filter.AgentID != "" {
		query += ` AND agent_id = ?`
		args = append(args, filter.AgentID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning ticket row: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ticket rows: %w", err)
	}
	return tickets, nil
}

// UpdateTicket updates an existing ticket.
// Returns ErrNotFound if the ticket doesn't exist.
func (s *SQLiteStore) UpdateTicket(ctx context.Context, ticket *Ticket) error {
	query := `
		UPDATE tickets
		SET status = ?, manual_response = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		ticket.Status,
		ticket.ManualResponse,
		ticket.UpdatedAt.UTC().Format(time.RFC3339),
		ticket.ID,
	)
	if err != nil {
		return fmt.Errorf("updating ticket: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("updated ticket", "id", ticket.ID, "status", ticket.Status)
	return nil
}

// CreateSupportRequest inserts a new support request, issuing its ID from the
// support counter.
func (s *SQLiteStore) CreateSupportRequest(ctx context.Context, req *SupportRequest) error {
	id, err := s.nextID(ctx, "support_requests", "SR-%04d")
	if err != nil {
		return err
	}
	req.ID = id

	query := `
		INSERT INTO support_requests (id, name, email, subject, message, priority, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		req.ID,
		req.Name,
		req.Email,
		req.Subject,
		req.Message,
		req.Priority,
		req.Status,
	)
	if err != nil {
		return fmt.Errorf("inserting support request: %w", err)
	}
	return nil
}

// GetSupportRequest retrieves a support request by ID.
// Returns ErrNotFound if the request doesn't exist.
func (s *SQLiteStore) GetSupportRequest(ctx context.Context, id string) (*SupportRequest, error) {
	var req SupportRequest
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, subject, message, priority, status
		FROM support_requests
		WHERE id = ?
	`, id).Scan(
		&req.ID,
		&req.Name,
		&req.Email,
		&req.Subject,
		&req.Message,
		&req.Priority,
		&req.Status,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying support request: %w", err)
	}
	return &req, nil
}

// ListSupportRequests retrieves all support requests in insertion order.
func (s *SQLiteStore) ListSupportRequests(ctx context.Context) ([]*SupportRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, subject, message, priority, status
		FROM support_requests
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying support requests: %w", err)
	}
	defer rows.Close()

	var reqs []*SupportRequest
	for rows.Next() {
		var req SupportRequest
		if err := rows.Scan(
			&req.ID,
			&req.Name,
			&req.Email,
			&req.Subject,
			&req.Message,
			&req.Priority,
			&req.Status,
		); err != nil {
			return nil, fmt.Errorf("scanning support request row: %w", err)
		}
		reqs = append(reqs, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating support request rows: %w", err)
	}
	return reqs, nil
}

// Overview computes aggregate counts with SQL aggregates.
func (s *SQLiteStore) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM agents),
			(SELECT COUNT(*) FROM agents WHERE is_active = 1),
			(SELECT COUNT(*) FROM conversations),
			(SELECT COUNT(*) FROM tickets),
			(SELECT COUNT(*) FROM tickets WHERE status = ?),
			(SELECT COALESCE(AVG(confidence_score), 0) FROM conversations)
	`, TicketStatusOpen).Scan(
		&o.TotalAgents,
		&o.ActiveAgents,
		&o.TotalConversations,
		&o.TotalTickets,
		&o.OpenTickets,
		&o.AverageConfidence,
	)
	if err != nil {
		return nil, fmt.Errorf("querying overview: %w", err)
	}
	return &o, nil
}

// scanAgent scans an agent row using the given scan function, decoding the
// JSON knowledge base and RFC3339 timestamps.
func scanAgent(scan func(...any) error) (*Agent, error) {
	var agent Agent
	var kbJSON string
	var isActive int
	var createdAtStr, updatedAtStr string

	if err := scan(
		&agent.ID,
		&agent.Name,
		&agent.Description,
		&agent.Tone,
		&agent.Personality,
		&kbJSON,
		&agent.RemoteID,
		&agent.UserID,
		&isActive,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(kbJSON), &agent.KnowledgeBase); err != nil {
		return nil, fmt.Errorf("decoding knowledge base: %w", err)
	}
	agent.IsActive = isActive != 0

	var err error
	agent.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	agent.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &agent, nil
}

func scanTicket(scan func(...any) error) (*Ticket, error) {
	var ticket Ticket
	var createdAtStr, updatedAtStr string

	if err := scan(
		&ticket.ID,
		&ticket.AgentID,
		&ticket.Question,
		&ticket.UserSession,
		&ticket.Status,
		&ticket.ConfidenceScore,
		&ticket.ManualResponse,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return nil, err
	}

	var err error
	ticket.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	ticket.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &ticket, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
