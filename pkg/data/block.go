package data

import (
	"database/sql"
	"fmt"

	"github.com/mchmarny/geocidr/pkg/table"
)

const (
	deleteBlocksSQL = `DELETE FROM block`
	insertBlockSQL  = `INSERT INTO block (seq, ip_from, cidr_suffix, score) VALUES (?, ?, ?, ?)`
	selectBlocksSQL = `SELECT ip_from, cidr_suffix, score FROM block ORDER BY seq`
)

// SaveBlocks replaces the content of the block table with list, preserving order.
func SaveBlocks(db *sql.DB, list []table.Block) (retErr error) {
	if db == nil {
		return errDBNotInitialized
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.Exec(deleteBlocksSQL); err != nil {
		return fmt.Errorf("failed to clear blocks: %w", err)
	}

	stmt, err := tx.Prepare(insertBlockSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, b := range list {
		if _, err := stmt.Exec(i, b.Address, b.Suffix, b.Score); err != nil {
			return fmt.Errorf("failed to insert block %s/%s: %w", b.Address, b.Suffix, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBlocks returns all saved blocks in insertion order.
func GetBlocks(db *sql.DB) ([]table.Block, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectBlocksSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocks: %w", err)
	}
	defer rows.Close()

	list := make([]table.Block, 0)
	for rows.Next() {
		var b table.Block
		if err := rows.Scan(&b.Address, &b.Suffix, &b.Score); err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		list = append(list, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blocks: %w", err)
	}

	return list, nil
}

// Export initializes the database at path and saves list into it.
func Export(path string, list []table.Block) error {
	db, err := Init(path)
	if err != nil {
		return err
	}
	defer db.Close()

	return SaveBlocks(db, list)
}
