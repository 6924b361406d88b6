package store

import (
	"database/sql"
	"fmt"
)

// KV is the small durable key-value slot used for session recovery state and
// the legacy flat task list.
type KV struct {
	db *sql.DB
}

// Get returns the value stored under key and whether it exists.
func (k *KV) Get(key string) (string, bool, error) {
	var value string
	err := k.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr(fmt.Sprintf("get %q", key), err)
	}
	return value, true, nil
}

func (k *KV) Set(key, value string) error {
	_, err := k.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return storageErr(fmt.Sprintf("set %q", key), err)
}

func (k *KV) Delete(key string) error {
	_, err := k.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return storageErr(fmt.Sprintf("delete %q", key), err)
}
