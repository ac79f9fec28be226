package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mghoffman/perkhive/internal/model"
)

type ModerationStore struct {
	db *sql.DB
}

func NewModerationStore(db *sql.DB) *ModerationStore {
	return &ModerationStore{db: db}
}

func scanCase(scanner interface{ Scan(...any) error }) (*model.ModerationCase, error) {
	var c model.ModerationCase
	var reporter sql.NullInt64
	var resolvedAt sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.Ref, &c.SubjectAccountID, &c.ContentRef, &c.Severity,
		&c.Status, &reporter, &c.ResolutionNotes, &c.CreatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if reporter.Valid {
		c.ReporterAccountID = &reporter.Int64
	}
	if resolvedAt.Valid {
		c.ResolvedAt = &resolvedAt.Time
	}
	return &c, nil
}

const caseCols = `id, ref, subject_account_id, content_ref, severity, status, reporter_account_id, resolution_notes, created_at, resolved_at`

// Create opens a pending case against an account. The returned case carries
// a UUID ref used as its external handle.
func (s *ModerationStore) Create(subjectAccountID int64, contentRef string, severity model.CaseSeverity, reporterAccountID *int64) (*model.ModerationCase, error) {
	if !severity.Valid() {
		return nil, fmt.Errorf("invalid severity %q", severity)
	}

	var reporter sql.NullInt64
	if reporterAccountID != nil {
		reporter = sql.NullInt64{Int64: *reporterAccountID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO moderation_cases (ref, subject_account_id, content_ref, severity, reporter_account_id)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), subjectAccountID, contentRef, string(severity), reporter,
	)
	if err != nil {
		return nil, fmt.Errorf("insert case: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ModerationStore) GetByID(id int64) (*model.ModerationCase, error) {
	row := s.db.QueryRow(`SELECT `+caseCols+` FROM moderation_cases WHERE id = ?`, id)
	c, err := scanCase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return c, nil
}

func (s *ModerationStore) GetByRef(ref string) (*model.ModerationCase, error) {
	row := s.db.QueryRow(`SELECT `+caseCols+` FROM moderation_cases WHERE ref = ?`, ref)
	c, err := scanCase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get case by ref: %w", err)
	}
	return c, nil
}

// List returns cases, optionally filtered by status, newest first.
func (s *ModerationStore) List(status model.CaseStatus) ([]model.ModerationCase, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query(`SELECT ` + caseCols + ` FROM moderation_cases ORDER BY id DESC`)
	} else {
		rows, err = s.db.Query(
			`SELECT `+caseCols+` FROM moderation_cases WHERE status = ? ORDER BY id DESC`,
			string(status),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []model.ModerationCase
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, *c)
	}
	return cases, rows.Err()
}

// Resolve applies a moderator action to a case. The case transition and any
// account side effect (warning increment, suspension) commit together; a
// case can never end up resolved with its account action unapplied.
//
// Allowed transitions: pending -> dismissed/resolved/investigating, and
// investigating -> dismissed/resolved. Terminal cases reject every action.
func (s *ModerationStore) Resolve(caseID int64, action model.CaseAction, notes string) (*model.ModerationCase, error) {
	if !action.Valid() {
		return nil, ErrInvalidTransition
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+caseCols+` FROM moderation_cases WHERE id = ?`, caseID)
	c, err := scanCase(row)
	if err == sql.ErrNoRows {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}

	if c.Status.Terminal() {
		return nil, ErrInvalidTransition
	}
	if action == model.ActionEscalate && c.Status != model.CasePending {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()

	switch action {
	case model.ActionDismiss:
		_, err = tx.Exec(
			`UPDATE moderation_cases SET status = ?, resolution_notes = ?, resolved_at = ? WHERE id = ?`,
			string(model.CaseDismissed), notes, now, caseID,
		)
	case model.ActionEscalate:
		_, err = tx.Exec(
			`UPDATE moderation_cases SET status = ?, resolution_notes = ? WHERE id = ?`,
			string(model.CaseInvestigating), notes, caseID,
		)
	case model.ActionWarn:
		if err := s.mutateSubject(tx, c.SubjectAccountID,
			`UPDATE accounts SET warning_count = warning_count + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`); err != nil {
			return nil, err
		}
		_, err = tx.Exec(
			`UPDATE moderation_cases SET status = ?, resolution_notes = ?, resolved_at = ? WHERE id = ?`,
			string(model.CaseResolved), notes, now, caseID,
		)
	case model.ActionSuspend:
		if err := s.mutateSubject(tx, c.SubjectAccountID,
			`UPDATE accounts SET status = 'suspended', updated_at = CURRENT_TIMESTAMP WHERE id = ?`); err != nil {
			return nil, err
		}
		_, err = tx.Exec(
			`UPDATE moderation_cases SET status = ?, resolution_notes = ?, resolved_at = ? WHERE id = ?`,
			string(model.CaseResolved), notes, now, caseID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}

	row = tx.QueryRow(`SELECT `+caseCols+` FROM moderation_cases WHERE id = ?`, caseID)
	updated, err := scanCase(row)
	if err != nil {
		return nil, fmt.Errorf("read case: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

func (s *ModerationStore) mutateSubject(tx *sql.Tx, accountID int64, query string) error {
	result, err := tx.Exec(query, accountID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}
