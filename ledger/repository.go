package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/billbatista/acasinha-splits/split"
	"github.com/google/uuid"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) CreateGroup(ctx context.Context, group Group, admin Membership) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertGroup := `INSERT INTO expense_groups (id, name, currency, created_by, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = tx.ExecContext(
		ctx,
		insertGroup,
		group.ID,
		group.Name,
		group.Currency,
		group.CreatedBy,
		group.CreatedAt,
	)
	if err != nil {
		return err
	}

	insertMember := `INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`
	_, err = tx.ExecContext(ctx, insertMember, admin.GroupID, admin.UserID, admin.Role, admin.JoinedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) GetGroup(ctx context.Context, groupID uuid.UUID) (*Group, error) {
	query := `SELECT id, name, currency, created_by, created_at FROM expense_groups WHERE id = $1`

	var group Group
	err := r.db.QueryRowContext(ctx, query, groupID).Scan(
		&group.ID,
		&group.Name,
		&group.Currency,
		&group.CreatedBy,
		&group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &group, nil
}

func (r *repository) ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]Group, error) {
	query := `SELECT g.id, g.name, g.currency, g.created_by, g.created_at
              FROM expense_groups g
              INNER JOIN group_members gm ON g.id = gm.group_id
              WHERE gm.user_id = $1
              ORDER BY g.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var group Group
		err := rows.Scan(&group.ID, &group.Name, &group.Currency, &group.CreatedBy, &group.CreatedAt)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}

func (r *repository) UpdateGroupName(ctx context.Context, groupID uuid.UUID, name string) error {
	query := `UPDATE expense_groups SET name = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, name, groupID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrGroupNotFound
	}
	return nil
}

func (r *repository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]Member, error) {
	query := `SELECT gm.user_id, COALESCE(u.name, ''), u.email, gm.role, gm.joined_at
              FROM group_members gm
              INNER JOIN users u ON u.id = gm.user_id
              WHERE gm.group_id = $1
              ORDER BY gm.joined_at ASC, gm.user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var member Member
		err := rows.Scan(&member.UserID, &member.Name, &member.Email, &member.Role, &member.JoinedAt)
		if err != nil {
			return nil, err
		}
		if !member.Role.Valid() {
			return nil, fmt.Errorf("member %s has unknown role %q", member.UserID, member.Role)
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

func (r *repository) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*Membership, error) {
	query := `SELECT group_id, user_id, role, joined_at FROM group_members WHERE group_id = $1 AND user_id = $2`

	var m Membership
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(&m.GroupID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if !m.Role.Valid() {
		return nil, fmt.Errorf("member %s has unknown role %q", m.UserID, m.Role)
	}

	return &m, nil
}

func (r *repository) CreateMembership(ctx context.Context, m Membership) error {
	query := `INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)
              ON CONFLICT (group_id, user_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, m.GroupID, m.UserID, m.Role, m.JoinedAt)
	return err
}

func nullableCategory(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func insertShares(ctx context.Context, tx *sql.Tx, shares []Share) error {
	query := `INSERT INTO group_expense_shares (expense_id, user_id, amount) VALUES ($1, $2, $3)`
	for _, share := range shares {
		_, err := tx.ExecContext(ctx, query, share.ExpenseID, share.UserID, share.Amount)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) CreateExpenseWithShares(ctx context.Context, expense Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO group_expenses (id, group_id, title, amount, currency, fx_to_base, amount_in_base, paid_by, expense_date, category_id, category_name, note, split_mode, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = tx.ExecContext(
		ctx,
		query,
		expense.ID,
		expense.GroupID,
		expense.Title,
		expense.Amount,
		expense.Currency,
		expense.FxToBase,
		expense.AmountInBase,
		expense.PaidBy,
		expense.Date,
		nullableCategory(expense.CategoryID),
		nullableString(expense.CategoryName),
		nullableString(expense.Note),
		expense.SplitMode,
		expense.CreatedAt,
		expense.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertShares(ctx, tx, expense.Shares); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) ReplaceSharesForExpense(ctx context.Context, expense Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE group_expenses
              SET title = $1, amount = $2, currency = $3, fx_to_base = $4, amount_in_base = $5, paid_by = $6,
                  expense_date = $7, category_id = $8, category_name = $9, note = $10, split_mode = $11, updated_at = $12
              WHERE id = $13 AND group_id = $14`
	res, err := tx.ExecContext(
		ctx,
		query,
		expense.Title,
		expense.Amount,
		expense.Currency,
		expense.FxToBase,
		expense.AmountInBase,
		expense.PaidBy,
		expense.Date,
		nullableCategory(expense.CategoryID),
		nullableString(expense.CategoryName),
		nullableString(expense.Note),
		expense.SplitMode,
		expense.UpdatedAt,
		expense.ID,
		expense.GroupID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExpenseNotFound
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM group_expense_shares WHERE expense_id = $1`, expense.ID)
	if err != nil {
		return err
	}

	if err := insertShares(ctx, tx, expense.Shares); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) DeleteExpenseAndShares(ctx context.Context, groupID, expenseID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`DELETE FROM group_expense_shares es USING group_expenses e
         WHERE es.expense_id = e.id AND e.id = $1 AND e.group_id = $2`,
		expenseID,
		groupID,
	)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM group_expenses WHERE id = $1 AND group_id = $2`, expenseID, groupID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExpenseNotFound
	}

	return tx.Commit()
}

const selectExpense = `SELECT id, group_id, title, amount, currency, fx_to_base, amount_in_base, paid_by, expense_date,
              category_id, category_name, note, split_mode, created_at, updated_at
              FROM group_expenses`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (Expense, error) {
	var (
		expense  Expense
		category uuid.NullUUID
		name     sql.NullString
		note     sql.NullString
		mode     string
	)
	err := row.Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.Title,
		&expense.Amount,
		&expense.Currency,
		&expense.FxToBase,
		&expense.AmountInBase,
		&expense.PaidBy,
		&expense.Date,
		&category,
		&name,
		&note,
		&mode,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return expense, err
	}
	if category.Valid {
		id := category.UUID
		expense.CategoryID = &id
	}
	expense.CategoryName = name.String
	expense.Note = note.String
	expense.SplitMode = split.Mode(mode)
	if !expense.SplitMode.Valid() {
		return expense, fmt.Errorf("expense %s has unknown split mode %q", expense.ID, mode)
	}
	return expense, nil
}

func (r *repository) GetExpense(ctx context.Context, groupID, expenseID uuid.UUID) (*Expense, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	expense, err := scanExpense(tx.QueryRowContext(ctx, selectExpense+` WHERE id = $1 AND group_id = $2`, expenseID, groupID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT expense_id, user_id, amount FROM group_expense_shares WHERE expense_id = $1`, expenseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var share Share
		if err := rows.Scan(&share.ExpenseID, &share.UserID, &share.Amount); err != nil {
			return nil, err
		}
		expense.Shares = append(expense.Shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &expense, tx.Commit()
}

// ListExpensesWithShares reads expenses and shares inside one repeatable-read
// transaction so a concurrent write is seen entirely or not at all.
func (r *repository) ListExpensesWithShares(ctx context.Context, groupID uuid.UUID) ([]Expense, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, selectExpense+` WHERE group_id = $1 ORDER BY expense_date ASC, created_at ASC`, groupID)
	if err != nil {
		return nil, err
	}

	var expenses []Expense
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[expense.ID] = len(expenses)
		expenses = append(expenses, expense)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	shareRows, err := tx.QueryContext(ctx, `SELECT es.expense_id, es.user_id, es.amount
              FROM group_expense_shares es
              INNER JOIN group_expenses e ON es.expense_id = e.id
              WHERE e.group_id = $1`, groupID)
	if err != nil {
		return nil, err
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var share Share
		if err := shareRows.Scan(&share.ExpenseID, &share.UserID, &share.Amount); err != nil {
			return nil, err
		}
		if i, ok := index[share.ExpenseID]; ok {
			expenses[i].Shares = append(expenses[i].Shares, share)
		}
	}
	if err := shareRows.Err(); err != nil {
		return nil, err
	}

	return expenses, tx.Commit()
}

func (r *repository) CategoryName(ctx context.Context, categoryID uuid.UUID) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = $1`, categoryID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return name, nil
}

func (r *repository) CreatePersonalExpense(ctx context.Context, e PersonalExpense) error {
	query := `INSERT INTO personal_expenses (id, user_id, title, amount, currency, fx_to_base, amount_in_base, expense_date, category_id, category_name, note, photo_url, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.UserID,
		e.Title,
		e.Amount,
		e.Currency,
		e.FxToBase,
		e.AmountInBase,
		e.Date,
		nullableCategory(e.CategoryID),
		nullableString(e.CategoryName),
		nullableString(e.Note),
		nullableString(e.PhotoURL),
		e.CreatedAt,
		e.UpdatedAt,
	)
	return err
}

func (r *repository) UpdatePersonalExpense(ctx context.Context, e PersonalExpense) error {
	query := `UPDATE personal_expenses
              SET title = $3, amount = $4, currency = $5, fx_to_base = $6, amount_in_base = $7, expense_date = $8,
                  category_id = $9, category_name = $10, note = $11, photo_url = $12, updated_at = $13
              WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.UserID,
		e.Title,
		e.Amount,
		e.Currency,
		e.FxToBase,
		e.AmountInBase,
		e.Date,
		nullableCategory(e.CategoryID),
		nullableString(e.CategoryName),
		nullableString(e.Note),
		nullableString(e.PhotoURL),
		e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *repository) DeletePersonalExpense(ctx context.Context, userID, expenseID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM personal_expenses WHERE id = $1 AND user_id = $2`, expenseID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

const selectPersonalExpense = `SELECT id, user_id, title, amount, currency, fx_to_base, amount_in_base, expense_date,
              category_id, category_name, note, photo_url, created_at, updated_at
              FROM personal_expenses`

func scanPersonalExpense(row rowScanner) (PersonalExpense, error) {
	var (
		expense  PersonalExpense
		category uuid.NullUUID
		name     sql.NullString
		note     sql.NullString
		photo    sql.NullString
	)
	err := row.Scan(
		&expense.ID,
		&expense.UserID,
		&expense.Title,
		&expense.Amount,
		&expense.Currency,
		&expense.FxToBase,
		&expense.AmountInBase,
		&expense.Date,
		&category,
		&name,
		&note,
		&photo,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err != nil {
		return expense, err
	}
	if category.Valid {
		id := category.UUID
		expense.CategoryID = &id
	}
	expense.CategoryName = name.String
	expense.Note = note.String
	expense.PhotoURL = photo.String
	return expense, nil
}

func (r *repository) GetPersonalExpense(ctx context.Context, userID, expenseID uuid.UUID) (*PersonalExpense, error) {
	expense, err := scanPersonalExpense(r.db.QueryRowContext(ctx, selectPersonalExpense+` WHERE id = $1 AND user_id = $2`, expenseID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &expense, nil
}

func (r *repository) ListPersonalExpenses(ctx context.Context, userID uuid.UUID) ([]PersonalExpense, error) {
	rows, err := r.db.QueryContext(ctx, selectPersonalExpense+` WHERE user_id = $1 ORDER BY expense_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []PersonalExpense
	for rows.Next() {
		expense, err := scanPersonalExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

var _ Store = (*repository)(nil)
