package database

import (
	"database/sql"
	"fmt"

	"reqbook/models"
)

func CreateNotebook(name string) (int64, error) {
	stmt, err := DB.Prepare("INSERT INTO notebooks (name, created_at, updated_at) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing create notebook statement: %w", err)
	}
	defer stmt.Close()

	now := nowMillis()
	result, err := stmt.Exec(name, now, now)
	if err != nil {
		return 0, fmt.Errorf("executing create notebook statement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert ID for notebook: %w", err)
	}
	return id, nil
}

func GetNotebookByID(notebookID int64) (models.Notebook, error) {
	var nb models.Notebook
	err := DB.QueryRow(`
		SELECT id, name, created_at, updated_at
		FROM notebooks
		WHERE id = ?
	`, notebookID).Scan(&nb.ID, &nb.Name, &nb.CreatedAt, &nb.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nb, fmt.Errorf("notebook with ID %d not found: %w", notebookID, err)
		}
		return nb, fmt.Errorf("querying notebook %d: %w", notebookID, err)
	}
	return nb, nil
}

// GetAllNotebooks returns notebooks most recently touched first.
func GetAllNotebooks() ([]models.Notebook, error) {
	rows, err := DB.Query("SELECT id, name, created_at, updated_at FROM notebooks ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("querying notebooks: %w", err)
	}
	defer rows.Close()

	var notebooks []models.Notebook
	for rows.Next() {
		var nb models.Notebook
		if err := rows.Scan(&nb.ID, &nb.Name, &nb.CreatedAt, &nb.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning notebook row: %w", err)
		}
		notebooks = append(notebooks, nb)
	}
	return notebooks, rows.Err()
}

func RenameNotebook(notebookID int64, name string) error {
	stmt, err := DB.Prepare("UPDATE notebooks SET name = ?, updated_at = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing rename notebook statement for notebook %d: %w", notebookID, err)
	}
	defer stmt.Close()
	_, err = stmt.Exec(name, nowMillis(), notebookID)
	if err != nil {
		return fmt.Errorf("executing rename notebook statement for notebook %d: %w", notebookID, err)
	}
	return nil
}

// TouchNotebook bumps the notebook's updated_at so it sorts to the
// front of the recency-ordered list.
func TouchNotebook(notebookID int64) error {
	_, err := DB.Exec("UPDATE notebooks SET updated_at = ? WHERE id = ?", nowMillis(), notebookID)
	if err != nil {
		return fmt.Errorf("touching notebook %d: %w", notebookID, err)
	}
	return nil
}

// DeleteNotebook removes the notebook and all of its cells in one
// transaction. Runs belonging to the deleted cells are deliberately
// left behind as orphans.
func DeleteNotebook(notebookID int64) error {
	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning delete notebook transaction: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM cells WHERE notebook_id = ?", notebookID); err != nil {
		tx.Rollback()
		return fmt.Errorf("deleting cells for notebook %d: %w", notebookID, err)
	}
	if _, err := tx.Exec("DELETE FROM notebooks WHERE id = ?", notebookID); err != nil {
		tx.Rollback()
		return fmt.Errorf("deleting notebook %d: %w", notebookID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete notebook transaction: %w", err)
	}
	return nil
}
