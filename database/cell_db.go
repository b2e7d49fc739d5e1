package database

import (
	"database/sql"
	"fmt"

	"reqbook/models"
)

// CreateCell inserts a new cell. The caller supplies OrderIndex,
// normally obtained from NextOrderIndex.
func CreateCell(cell models.Cell) (int64, error) {
	stmt, err := DB.Prepare(`
		INSERT INTO cells (notebook_id, type, title, order_index, method, path, headers_json, body_text, markdown, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing create cell statement: %w", err)
	}
	defer stmt.Close()

	now := nowMillis()
	result, err := stmt.Exec(cell.NotebookID, cell.Type, cell.Title, cell.OrderIndex,
		cell.Method, cell.Path, cell.HeadersJSON, cell.BodyText, cell.Markdown, now, now)
	if err != nil {
		return 0, fmt.Errorf("executing create cell statement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert ID for cell: %w", err)
	}
	return id, nil
}

func GetCellByID(cellID int64) (models.Cell, error) {
	var cell models.Cell
	err := DB.QueryRow(`
		SELECT id, notebook_id, type, title, order_index, method, path, headers_json, body_text, markdown, created_at, updated_at
		FROM cells
		WHERE id = ?
	`, cellID).Scan(&cell.ID, &cell.NotebookID, &cell.Type, &cell.Title, &cell.OrderIndex,
		&cell.Method, &cell.Path, &cell.HeadersJSON, &cell.BodyText, &cell.Markdown, &cell.CreatedAt, &cell.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return cell, fmt.Errorf("cell with ID %d not found: %w", cellID, err)
		}
		return cell, fmt.Errorf("querying cell %d: %w", cellID, err)
	}
	return cell, nil
}

// GetCellsByNotebookID returns the notebook's cells sorted by
// order_index ascending, id breaking ties.
func GetCellsByNotebookID(notebookID int64) ([]models.Cell, error) {
	rows, err := DB.Query(`
		SELECT id, notebook_id, type, title, order_index, method, path, headers_json, body_text, markdown, created_at, updated_at
		FROM cells
		WHERE notebook_id = ?
		ORDER BY order_index ASC, id ASC
	`, notebookID)
	if err != nil {
		return nil, fmt.Errorf("querying cells for notebook %d: %w", notebookID, err)
	}
	defer rows.Close()

	var cells []models.Cell
	for rows.Next() {
		var cell models.Cell
		if err := rows.Scan(&cell.ID, &cell.NotebookID, &cell.Type, &cell.Title, &cell.OrderIndex,
			&cell.Method, &cell.Path, &cell.HeadersJSON, &cell.BodyText, &cell.Markdown, &cell.CreatedAt, &cell.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning cell row for notebook %d: %w", notebookID, err)
		}
		cells = append(cells, cell)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cell rows for notebook %d: %w", notebookID, err)
	}
	return cells, nil
}

// NextOrderIndex returns max(order_index)+1 within the notebook, or 1
// when the notebook has no cells.
func NextOrderIndex(notebookID int64) (int64, error) {
	var next int64
	err := DB.QueryRow("SELECT COALESCE(MAX(order_index), 0) + 1 FROM cells WHERE notebook_id = ?", notebookID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("computing next order index for notebook %d: %w", notebookID, err)
	}
	return next, nil
}

func UpdateCell(cell models.Cell) error {
	stmt, err := DB.Prepare(`
		UPDATE cells
		SET notebook_id = ?, type = ?, title = ?, order_index = ?, method = ?, path = ?, headers_json = ?, body_text = ?, markdown = ?, updated_at = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing update cell statement for cell %d: %w", cell.ID, err)
	}
	defer stmt.Close()
	_, err = stmt.Exec(cell.NotebookID, cell.Type, cell.Title, cell.OrderIndex,
		cell.Method, cell.Path, cell.HeadersJSON, cell.BodyText, cell.Markdown, nowMillis(), cell.ID)
	if err != nil {
		return fmt.Errorf("executing update cell statement for cell %d: %w", cell.ID, err)
	}
	return nil
}

// DeleteCell removes the cell row only. Runs referencing the cell are
// left in place as orphans; they never surface again because run
// queries are keyed by cell id.
func DeleteCell(cellID int64) error {
	_, err := DB.Exec("DELETE FROM cells WHERE id = ?", cellID)
	if err != nil {
		return fmt.Errorf("deleting cell %d: %w", cellID, err)
	}
	return nil
}

// SwapCellOrder exchanges the order_index values of two cells in the
// same notebook. This is the only reordering primitive. Both updates
// commit in one transaction so a failure leaves the ordering intact.
func SwapCellOrder(draggedID, targetID int64) error {
	dragged, err := GetCellByID(draggedID)
	if err != nil {
		return err
	}
	target, err := GetCellByID(targetID)
	if err != nil {
		return err
	}
	if dragged.NotebookID != target.NotebookID {
		return fmt.Errorf("cells %d and %d belong to different notebooks", draggedID, targetID)
	}

	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning swap transaction: %w", err)
	}
	now := nowMillis()
	if _, err := tx.Exec("UPDATE cells SET order_index = ?, updated_at = ? WHERE id = ?", target.OrderIndex, now, dragged.ID); err != nil {
		tx.Rollback()
		return fmt.Errorf("swapping order index for cell %d: %w", dragged.ID, err)
	}
	if _, err := tx.Exec("UPDATE cells SET order_index = ?, updated_at = ? WHERE id = ?", dragged.OrderIndex, now, target.ID); err != nil {
		tx.Rollback()
		return fmt.Errorf("swapping order index for cell %d: %w", target.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing swap transaction: %w", err)
	}
	return nil
}
