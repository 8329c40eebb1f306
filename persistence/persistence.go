package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/victorjacobs/go-izzi/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketCF = "cf"

	keyBias = "bias"
)

// Persistence stores controller state that has to survive a restart. It
// satisfies izzi.BiasStore.
type Persistence interface {
	Init() error

	LoadCFBias() (supply int, extract int, err error)
	SaveCFBias(supply int, extract int) error
	DeleteCFBias() error
}

type cfBias struct {
	Supply  int `json:"supply"`
	Extract int `json:"extract"`
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	return &persistence{
		dbPath: dbPath,
	}
}

func (p persistence) Init() error {
	parentDir := filepath.Dir(p.dbPath)
	_, err := os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for db: %s", parentDir)
		if err := os.MkdirAll(parentDir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (*bolt.DB, error) {
	return bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
}

// SaveCFBias stores the slow corrections of both ducts
func (p persistence) SaveCFBias(supply int, extract int) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(cfBias{Supply: supply, Extract: extract})
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketCF))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		return b.Put([]byte(keyBias), data)
	})
}

// LoadCFBias returns os.ErrNotExist if no bias has been stored yet
func (p persistence) LoadCFBias() (int, int, error) {
	db, err := p.openPersistence()
	if err != nil {
		return 0, 0, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var bias cfBias
	corrupt := false
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketCF))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(keyBias))
		if v == nil {
			return os.ErrNotExist
		}

		if err := json.Unmarshal(v, &bias); err != nil {
			// corrupt data is dropped so the next save starts clean
			ui.Warning("Unable to unmarshal saved CF bias: %v", err)
			if err := b.Delete([]byte(keyBias)); err != nil {
				ui.Error("Unable to delete corrupt CF bias: %v", err)
			}
			corrupt = true
		}
		return nil
	})
	if err == nil && corrupt {
		return 0, 0, os.ErrNotExist
	}

	return bias.Supply, bias.Extract, err
}

func (p persistence) DeleteCFBias() error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketCF))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(keyBias))
	})
}
